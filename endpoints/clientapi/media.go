// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clientapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

// CreateContentRequest uploads File verbatim as the request body.
type CreateContentRequest struct {
	ContentType string `header:"Content-Type"`
	Filename    string `query:"filename,optional"`
	File        []byte `wire:"body"`
}

type CreateContentResponse struct {
	// ContentURI is the mxc:// URI of the stored file.
	ContentURI string `json:"content_uri"`
	Blurhash   string `json:"xyz.amorgan.blurhash,omitempty"`
}

var CreateContent = api.MustEndpoint[CreateContentRequest, CreateContentResponse](api.Metadata{
	Name:        "client.create_content",
	Description: "Upload a file to the media repository.",
	Method:      http.MethodPost,
	Variants: []api.PathVariant{
		{Version: api.VersionV1_1, Template: pathtemplate.MustParse("/_matrix/media/v3/upload")},
		{Version: api.VersionR0_6_1, Template: pathtemplate.MustParse("/_matrix/media/r0/upload")},
	},
	Auth:        api.AuthRequirement{Scheme: api.AuthAccessToken, Required: true},
	RateLimited: true,
})
