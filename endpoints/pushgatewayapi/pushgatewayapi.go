// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pushgatewayapi declares the push gateway endpoint a homeserver
// calls to deliver notifications to a user's devices.
package pushgatewayapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// NotificationPriority hints how urgently the device should be woken.
type NotificationPriority string

const (
	PriorityHigh NotificationPriority = "high"
	PriorityLow  NotificationPriority = "low"
)

// NotificationCounts are the unread counts shown on the device.
type NotificationCounts struct {
	Unread      uint64 `json:"unread,omitempty"`
	MissedCalls uint64 `json:"missed_calls,omitempty"`
}

// Device is one pusher the notification goes to.
type Device struct {
	AppID     string                `json:"app_id"`
	PushKey   string                `json:"pushkey"`
	PushKeyTS int64                 `json:"pushkey_ts,omitempty"`
	Data      wire.Value            `json:"data,omitzero"`
	Tweaks    map[string]wire.Value `json:"tweaks,omitempty"`
}

// Notification describes the event. Event fields are omitted for
// count-only notifications, which only update badges.
type Notification struct {
	EventID           ref.EventID          `json:"event_id,omitzero"`
	RoomID            ref.RoomID           `json:"room_id,omitzero"`
	Type              ref.EventType        `json:"type,omitempty"`
	Sender            ref.UserID           `json:"sender,omitzero"`
	SenderDisplayName string               `json:"sender_display_name,omitempty"`
	RoomName          string               `json:"room_name,omitempty"`
	RoomAlias         string               `json:"room_alias,omitempty"`
	UserIsTarget      bool                 `json:"user_is_target,omitempty"`
	Prio              NotificationPriority `json:"prio,omitempty"`
	Content           wire.Value           `json:"content,omitzero"`
	Counts            *NotificationCounts  `json:"counts,omitempty"`
	Devices           []Device             `json:"devices"`
}

type SendEventNotificationRequest struct {
	Notification Notification `json:"notification"`
}

type SendEventNotificationResponse struct {
	// Rejected lists push keys the gateway no longer accepts. The
	// homeserver should remove the matching pushers.
	Rejected []string `json:"rejected"`
}

var SendEventNotification = api.MustEndpoint[SendEventNotificationRequest, SendEventNotificationResponse](api.Metadata{
	Name:        "push.send_event_notification",
	Description: "Notify a push gateway about an event or updated unread counts.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/_matrix/push/v1/notify")},
	},
})

// Routes returns every endpoint of the package.
func Routes() []api.Route {
	return []api.Route{SendEventNotification}
}
