// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package appserviceapi declares the endpoints a homeserver calls on an
// application service. Each endpoint has a /_matrix/app/v1 path and the
// unprefixed legacy path that servers before v1.1 used; the router
// accepts both.
package appserviceapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// PushEventsRequest delivers a batch of events. Members the application
// service does not model (ephemeral events, device lists, one-time key
// counts from unstable extensions) land in Extra.
type PushEventsRequest struct {
	TxnID  ref.TransactionID `path:"txnId"`
	Events []wire.Value      `json:"events"`
	Extra  wire.Object       `wire:"extra"`
}

type EmptyResponse struct{}

var PushEvents = api.MustEndpoint[PushEventsRequest, EmptyResponse](api.Metadata{
	Name:        "appservice.push_events",
	Description: "Deliver a transaction of events to the application service.",
	Method:      http.MethodPut,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/app/v1/transactions/{txnId}")},
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/transactions/{txnId}")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// QueryUserIDRequest asks whether the application service claims UserID.
type QueryUserIDRequest struct {
	UserID ref.UserID `path:"userId"`
}

var QueryUserID = api.MustEndpoint[QueryUserIDRequest, EmptyResponse](api.Metadata{
	Name:        "appservice.query_user_id",
	Description: "Ask whether a user exists in the application service namespace.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/app/v1/users/{userId}")},
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/users/{userId}")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// Routes returns every endpoint of the package.
func Routes() []api.Route {
	return []api.Route{PushEvents, QueryUserID}
}
