// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "net/http"

// ErrorKind is a Matrix error code known to this package. Codes outside
// the table decode to KindUnrecognized, with the original string kept in
// [ErrorEnvelope.Code].
type ErrorKind uint8

const (
	KindUnrecognized ErrorKind = iota
	KindForbidden
	KindUnknownToken
	KindMissingToken
	KindUnauthorized
	KindUserDeactivated
	KindBadJSON
	KindNotJSON
	KindNotFound
	KindLimitExceeded
	KindUnknown
	KindUnrecognizedRequest
	KindUserInUse
	KindInvalidUsername
	KindRoomInUse
	KindInvalidRoomState
	KindThreepidInUse
	KindUnsupportedRoomVersion
	KindIncompatibleRoomVersion
	KindBadState
	KindGuestAccessForbidden
	KindMissingParam
	KindInvalidParam
	KindTooLarge
	KindExclusive
	KindResourceLimitExceeded
	KindCannotLeaveServerNoticeRoom
)

type errorKindInfo struct {
	code   string
	status int
}

var errorKinds = [...]errorKindInfo{
	KindUnrecognized:                {"", http.StatusBadRequest},
	KindForbidden:                   {"M_FORBIDDEN", http.StatusForbidden},
	KindUnknownToken:                {"M_UNKNOWN_TOKEN", http.StatusUnauthorized},
	KindMissingToken:                {"M_MISSING_TOKEN", http.StatusUnauthorized},
	KindUnauthorized:                {"M_UNAUTHORIZED", http.StatusUnauthorized},
	KindUserDeactivated:             {"M_USER_DEACTIVATED", http.StatusForbidden},
	KindBadJSON:                     {"M_BAD_JSON", http.StatusBadRequest},
	KindNotJSON:                     {"M_NOT_JSON", http.StatusBadRequest},
	KindNotFound:                    {"M_NOT_FOUND", http.StatusNotFound},
	KindLimitExceeded:               {"M_LIMIT_EXCEEDED", http.StatusTooManyRequests},
	KindUnknown:                     {"M_UNKNOWN", http.StatusBadRequest},
	KindUnrecognizedRequest:         {"M_UNRECOGNIZED", http.StatusNotFound},
	KindUserInUse:                   {"M_USER_IN_USE", http.StatusBadRequest},
	KindInvalidUsername:             {"M_INVALID_USERNAME", http.StatusBadRequest},
	KindRoomInUse:                   {"M_ROOM_IN_USE", http.StatusBadRequest},
	KindInvalidRoomState:            {"M_INVALID_ROOM_STATE", http.StatusBadRequest},
	KindThreepidInUse:               {"M_THREEPID_IN_USE", http.StatusBadRequest},
	KindUnsupportedRoomVersion:      {"M_UNSUPPORTED_ROOM_VERSION", http.StatusBadRequest},
	KindIncompatibleRoomVersion:     {"M_INCOMPATIBLE_ROOM_VERSION", http.StatusBadRequest},
	KindBadState:                    {"M_BAD_STATE", http.StatusBadRequest},
	KindGuestAccessForbidden:        {"M_GUEST_ACCESS_FORBIDDEN", http.StatusForbidden},
	KindMissingParam:                {"M_MISSING_PARAM", http.StatusBadRequest},
	KindInvalidParam:                {"M_INVALID_PARAM", http.StatusBadRequest},
	KindTooLarge:                    {"M_TOO_LARGE", http.StatusRequestEntityTooLarge},
	KindExclusive:                   {"M_EXCLUSIVE", http.StatusBadRequest},
	KindResourceLimitExceeded:       {"M_RESOURCE_LIMIT_EXCEEDED", http.StatusBadRequest},
	KindCannotLeaveServerNoticeRoom: {"M_CANNOT_LEAVE_SERVER_NOTICE_ROOM", http.StatusBadRequest},
}

var kindsByCode = func() map[string]ErrorKind {
	byCode := make(map[string]ErrorKind, len(errorKinds))
	for kind, info := range errorKinds {
		if info.code != "" {
			byCode[info.code] = ErrorKind(kind)
		}
	}
	return byCode
}()

// KindForCode returns the kind for a wire errcode, or KindUnrecognized.
func KindForCode(code string) ErrorKind {
	return kindsByCode[code]
}

// Code returns the wire errcode. KindUnrecognized has none.
func (k ErrorKind) Code() string {
	if int(k) >= len(errorKinds) {
		return ""
	}
	return errorKinds[k].code
}

// DefaultStatus returns the HTTP status used when neither the envelope
// nor the endpoint specifies one.
func (k ErrorKind) DefaultStatus() int {
	if int(k) >= len(errorKinds) {
		return http.StatusBadRequest
	}
	return errorKinds[k].status
}

func (k ErrorKind) String() string {
	if code := k.Code(); code != "" {
		return code
	}
	return "unrecognized"
}
