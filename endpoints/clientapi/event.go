// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// SendMessageEventRequest sends one event. Content is the whole request
// body; its schema depends on EventType and is not interpreted here.
type SendMessageEventRequest struct {
	RoomID    ref.RoomID        `path:"roomId"`
	EventType ref.EventType     `path:"eventType"`
	TxnID     ref.TransactionID `path:"txnId"`
	Content   wire.Value        `wire:"newtype"`
}

// SendEventResponse is returned by SendMessageEvent and SendStateEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

var SendMessageEvent = api.MustEndpoint[SendMessageEventRequest, SendEventResponse](api.Metadata{
	Name:        "client.send_message_event",
	Description: "Send a message event to a room.",
	Method:      http.MethodPut,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/rooms/{roomId}/send/{eventType}/{txnId}")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/rooms/{roomId}/send/{eventType}/{txnId}")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// SendStateEventRequest sets one piece of room state. StateKey may be
// empty, which renders as a trailing empty path segment.
type SendStateEventRequest struct {
	RoomID    ref.RoomID    `path:"roomId"`
	EventType ref.EventType `path:"eventType"`
	StateKey  string        `path:"stateKey"`
	Content   wire.Value    `wire:"newtype"`
}

var stateEventTemplates = []api.PathVariant{
	{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/rooms/{roomId}/state/{eventType}/{stateKey}")},
	{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/rooms/{roomId}/state/{eventType}/{stateKey}")},
}

var SendStateEvent = api.MustEndpoint[SendStateEventRequest, SendEventResponse](api.Metadata{
	Name:        "client.send_state_event",
	Description: "Set a state event in a room.",
	Method:      http.MethodPut,
	Variants:    stateEventTemplates,
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

type GetStateEventRequest struct {
	RoomID    ref.RoomID    `path:"roomId"`
	EventType ref.EventType `path:"eventType"`
	StateKey  string        `path:"stateKey"`
	// Format is "content" (the default) or "event".
	Format string `query:"format,optional"`
}

type GetStateEventResponse struct {
	Content wire.Value `wire:"newtype"`
}

var GetStateEvent = api.MustEndpoint[GetStateEventRequest, GetStateEventResponse](api.Metadata{
	Name:        "client.get_state_event",
	Description: "Read the content of a state event.",
	Method:      http.MethodGet,
	Variants:    stateEventTemplates,
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// Direction is the pagination direction of GetMessageEvents.
type Direction string

const (
	Backward Direction = "b"
	Forward  Direction = "f"
)

// RoomEventFilter narrows the events returned by GetMessageEvents. It is
// sent JSON-encoded in the filter query parameter.
type RoomEventFilter struct {
	Limit                   int          `json:"limit,omitempty"`
	Types                   []string     `json:"types,omitempty"`
	NotTypes                []string     `json:"not_types,omitempty"`
	Senders                 []ref.UserID `json:"senders,omitempty"`
	NotSenders              []ref.UserID `json:"not_senders,omitempty"`
	ContainsURL             *bool        `json:"contains_url,omitempty"`
	LazyLoadMembers         bool         `json:"lazy_load_members,omitempty"`
	IncludeRedundantMembers bool         `json:"include_redundant_members,omitempty"`
}

type GetMessageEventsRequest struct {
	RoomID ref.RoomID       `path:"roomId"`
	From   string           `query:"from,optional"`
	To     string           `query:"to,optional"`
	Dir    Direction        `query:"dir"`
	Limit  *uint            `query:"limit"`
	Filter *RoomEventFilter `query:"filter"`
}

// ClientEvent is an event as the client-server API delivers it.
type ClientEvent struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        wire.Value     `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitzero"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type GetMessageEventsResponse struct {
	Start string        `json:"start"`
	End   string        `json:"end,omitempty"`
	Chunk []ClientEvent `json:"chunk"`
	State []ClientEvent `json:"state,omitempty"`
}

var GetMessageEvents = api.MustEndpoint[GetMessageEventsRequest, GetMessageEventsResponse](api.Metadata{
	Name:        "client.get_message_events",
	Description: "Paginate through the timeline of a room.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/rooms/{roomId}/messages")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/rooms/{roomId}/messages")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})
