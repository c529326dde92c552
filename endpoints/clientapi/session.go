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

// Login types accepted by LoginRequest.Type.
const (
	LoginTypePassword = "m.login.password"
	LoginTypeToken    = "m.login.token"
)

// UserIdentifier names the account to log in to.
type UserIdentifier struct {
	Type    string `json:"type"`
	User    string `json:"user,omitempty"`
	Medium  string `json:"medium,omitempty"`
	Address string `json:"address,omitempty"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Type                     string          `json:"type"`
	Identifier               *UserIdentifier `json:"identifier,omitempty"`
	Password                 string          `json:"password,omitempty"`
	Token                    string          `json:"token,omitempty"`
	DeviceID                 string          `json:"device_id,omitempty"`
	InitialDeviceDisplayName string          `json:"initial_device_display_name,omitempty"`
	RefreshToken             bool            `json:"refresh_token,omitempty"`
}

// LoginResponse carries the new access token.
type LoginResponse struct {
	UserID       ref.UserID `json:"user_id"`
	AccessToken  string     `json:"access_token"`
	DeviceID     string     `json:"device_id"`
	ExpiresInMs  *int64     `json:"expires_in_ms,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	// WellKnown is server-provided discovery information, passed through
	// as-is.
	WellKnown wire.Value `json:"well_known,omitempty"`
}

var Login = api.MustEndpoint[LoginRequest, LoginResponse](api.Metadata{
	Name:        "client.login",
	Description: "Authenticate and obtain an access token.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/login")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/login")},
	},
	RateLimited: true,
})

// WhoAmIRequest has no parameters; the caller is identified by the
// access token.
type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
	IsGuest  bool       `json:"is_guest,omitempty"`
}

var WhoAmI = api.MustEndpoint[WhoAmIRequest, WhoAmIResponse](api.Metadata{
	Name:        "client.whoami",
	Description: "Report the user and device owning the access token.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/client/v3/account/whoami")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/client/r0/account/whoami")},
	},
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
	RateLimited: true,
})
