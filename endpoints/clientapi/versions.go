// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

// GetSupportedVersionsRequest has no parameters.
type GetSupportedVersionsRequest struct{}

// GetSupportedVersions is GET /_matrix/client/versions. The path is
// unversioned, so it is declared at r0.0.0 and selectable for any
// requested version.
var GetSupportedVersions = api.MustEndpoint[GetSupportedVersionsRequest, api.SupportedVersions](api.Metadata{
	Name:        "client.get_supported_versions",
	Description: "List the specification versions and unstable features the homeserver supports.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/_matrix/client/versions")},
	},
})
