// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identityapi declares identity service endpoints used to look
// up Matrix users by third-party identifier.
package identityapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/ref"
)

type GetSupportedVersionsRequest struct{}

var GetSupportedVersions = api.MustEndpoint[GetSupportedVersionsRequest, api.SupportedVersions](api.Metadata{
	Name:        "identity.get_supported_versions",
	Description: "List the specification versions the identity server supports.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/_matrix/identity/versions")},
	},
})

type GetHashParametersRequest struct{}

// Hash algorithms an identity server may advertise.
const (
	AlgorithmSHA256 = "sha256"
	AlgorithmNone   = "none"
)

type GetHashParametersResponse struct {
	LookupPepper string   `json:"lookup_pepper"`
	Algorithms   []string `json:"algorithms"`
}

var GetHashParameters = api.MustEndpoint[GetHashParametersRequest, GetHashParametersResponse](api.Metadata{
	Name:        "identity.get_hash_parameters",
	Description: "Fetch the pepper and algorithms for hashed lookups.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/identity/v2/hash_details")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// LookupRequest resolves hashed third-party identifiers. Addresses are
// hashed with Algorithm and Pepper as returned by GetHashParameters.
type LookupRequest struct {
	Algorithm string   `json:"algorithm"`
	Pepper    string   `json:"pepper"`
	Addresses []string `json:"addresses"`
}

type LookupResponse struct {
	// Mappings is keyed by the hashed address. Addresses with no
	// associated user are absent.
	Mappings map[string]ref.UserID `json:"mappings"`
}

var Lookup = api.MustEndpoint[LookupRequest, LookupResponse](api.Metadata{
	Name:        "identity.lookup",
	Description: "Look up Matrix user IDs for hashed third-party identifiers.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/identity/v2/lookup")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
})

// Routes returns every endpoint of the package.
func Routes() []api.Route {
	return []api.Route{GetSupportedVersions, GetHashParameters, Lookup}
}
