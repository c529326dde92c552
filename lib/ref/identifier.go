// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// maxIdentifierLength is the Matrix limit on the full length of user
// IDs, room IDs, room aliases and event IDs, sigil included.
const maxIdentifierLength = 255

// splitIdentifier validates the shared "<sigil><localpart>:<server>"
// structure and returns the localpart and server name. The localpart
// ends at the first colon; everything after it must be a valid server
// name.
func splitIdentifier(raw string, sigil byte, kind string) (string, ServerName, error) {
	if raw == "" {
		return "", ServerName{}, fmt.Errorf("empty %s", kind)
	}
	if len(raw) > maxIdentifierLength {
		return "", ServerName{}, fmt.Errorf("%s longer than %d bytes", kind, maxIdentifierLength)
	}
	if raw[0] != sigil {
		return "", ServerName{}, fmt.Errorf("%s must start with %q: %q", kind, sigil, raw)
	}
	colon := strings.IndexByte(raw, ':')
	if colon < 0 {
		return "", ServerName{}, fmt.Errorf("%s missing ':server' suffix: %q", kind, raw)
	}
	localpart := raw[1:colon]
	if localpart == "" {
		return "", ServerName{}, fmt.Errorf("%s has an empty localpart: %q", kind, raw)
	}
	for i := 0; i < len(localpart); i++ {
		if localpart[i] < 0x20 || localpart[i] == 0x7f {
			return "", ServerName{}, fmt.Errorf("%s contains a control character: %q", kind, raw)
		}
	}
	server, err := ParseServerName(raw[colon+1:])
	if err != nil {
		return "", ServerName{}, fmt.Errorf("%s %q: %w", kind, raw, err)
	}
	return localpart, server, nil
}

// UserID is a Matrix user ID such as "@alice:example.org".
type UserID struct {
	id string
}

// ParseUserID validates raw as a user ID.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := splitIdentifier(raw, '@', "user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is like ParseUserID but panics on error.
func MustParseUserID(raw string) UserID {
	id, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return id
}

func (u UserID) String() string { return u.id }

// IsZero reports whether u is the zero value.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the part between '@' and the first ':'.
func (u UserID) Localpart() string {
	localpart, _, _ := splitIdentifier(u.id, '@', "user ID")
	return localpart
}

// Server returns the server name after the first ':'.
func (u UserID) Server() ServerName {
	_, server, _ := splitIdentifier(u.id, '@', "user ID")
	return server
}

func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id), nil }

func (u *UserID) UnmarshalText(data []byte) error {
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// EventID is a Matrix event ID. Room versions 1 and 2 use
// "$opaque:server"; later versions use a bare "$hash" with no server.
type EventID struct {
	id string
}

// ParseEventID validates raw as an event ID.
func ParseEventID(raw string) (EventID, error) {
	if raw == "" {
		return EventID{}, fmt.Errorf("empty event ID")
	}
	if len(raw) > maxIdentifierLength {
		return EventID{}, fmt.Errorf("event ID longer than %d bytes", maxIdentifierLength)
	}
	if raw[0] != '$' || len(raw) == 1 {
		return EventID{}, fmt.Errorf("event ID must be '$' followed by an identifier: %q", raw)
	}
	if colon := strings.IndexByte(raw, ':'); colon >= 0 {
		if _, _, err := splitIdentifier(raw, '$', "event ID"); err != nil {
			return EventID{}, err
		}
	}
	return EventID{id: raw}, nil
}

// MustParseEventID is like ParseEventID but panics on error.
func MustParseEventID(raw string) EventID {
	id, err := ParseEventID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseEventID(%q): %v", raw, err))
	}
	return id
}

func (e EventID) String() string { return e.id }

// IsZero reports whether e is the zero value.
func (e EventID) IsZero() bool { return e.id == "" }

func (e EventID) MarshalText() ([]byte, error) { return []byte(e.id), nil }

func (e *EventID) UnmarshalText(data []byte) error {
	parsed, err := ParseEventID(string(data))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// EventType names a timeline or state event type ("m.room.message",
// "m.room.member"). Event types are opaque; the named type only keeps
// them apart from state keys and transaction IDs at compile time.
type EventType string

func (t EventType) String() string { return string(t) }

// TransactionID is a client- or server-chosen idempotency key used in
// send and transaction endpoints.
type TransactionID string

func (t TransactionID) String() string { return string(t) }
