// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package federationapi declares server-server API endpoints. Requests
// that one homeserver sends to another are signed: the builder reserves
// the Authorization slot and the caller fills it with the X-Matrix
// signature before sending.
package federationapi

import (
	"net/http"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

type GetServerVersionRequest struct{}

// ServerSoftware names the implementation answering the request.
type ServerSoftware struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

type GetServerVersionResponse struct {
	Server ServerSoftware `json:"server"`
}

var GetServerVersion = api.MustEndpoint[GetServerVersionRequest, GetServerVersionResponse](api.Metadata{
	Name:        "federation.get_server_version",
	Description: "Report the name and version of the homeserver software.",
	Method:      http.MethodGet,
	Variants: []api.PathVariant{
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/_matrix/federation/v1/version")},
	},
})

// SendTransactionRequest pushes PDUs and EDUs to a remote server. PDUs
// are room-version dependent and stay raw.
type SendTransactionRequest struct {
	TxnID          ref.TransactionID `path:"txnId"`
	Origin         ref.ServerName    `json:"origin"`
	OriginServerTS int64             `json:"origin_server_ts"`
	PDUs           []wire.Value      `json:"pdus"`
	EDUs           []wire.Value      `json:"edus,omitempty"`
}

// PDUResult reports the processing outcome of one PDU. An empty Error
// means the PDU was accepted.
type PDUResult struct {
	Error string `json:"error,omitempty"`
}

type SendTransactionResponse struct {
	// PDUs is keyed by event ID.
	PDUs map[string]PDUResult `json:"pdus"`
}

var SendTransaction = api.MustEndpoint[SendTransactionRequest, SendTransactionResponse](api.Metadata{
	Name:        "federation.send_transaction",
	Description: "Push a transaction of PDUs and EDUs to a remote server.",
	Method:      http.MethodPut,
	Variants: []api.PathVariant{
		{Version: api.VersionR0_0_0, Template: pathtemplate.MustParse("/_matrix/federation/v1/send/{txnId}")},
	},
	Auth: api.AuthRequirement{Scheme: api.AuthServerSignature, Required: true},
})

// Routes returns every endpoint of the package.
func Routes() []api.Route {
	return []api.Route{GetServerVersion, SendTransaction}
}
