// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

type sendTransactionRequest struct {
	TxnID  string `path:"txnId"`
	Origin string `json:"origin"`
}

type sendTransactionResponse struct{}

var sendTransaction = MustEndpoint[sendTransactionRequest, sendTransactionResponse](Metadata{
	Name:   "test.send_transaction",
	Method: http.MethodPut,
	Variants: []PathVariant{
		{Version: VersionV1_1, Template: pathtemplate.MustParse("/_matrix/federation/v1/send/{txnId}")},
	},
	Auth: AuthRequirement{Scheme: AuthServerSignature, Required: true},
})

func minimalPutState() putStateRequest {
	return putStateRequest{RoomID: "!r:x", EventType: "m.room.name", Dir: "f", Name: "n"}
}

func TestBuilderSingleUse(t *testing.T) {
	builder := putState.NewRequest(BuildOptions{BaseURL: "https://matrix.example.org", AccessToken: "secret"})
	message, err := builder.Build(minimalPutState())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !builder.Built() || builder.Message() != message {
		t.Error("builder did not record the built message")
	}
	if got := message.Header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
	if builder.Variant().Version != VersionV1_1 {
		t.Errorf("variant = %s", builder.Variant())
	}
	if _, err := builder.Build(minimalPutState()); !errors.Is(err, ErrBuilderUsed) {
		t.Errorf("second Build = %v, want ErrBuilderUsed", err)
	}
}

func TestBuilderFailureIsTerminal(t *testing.T) {
	builder := putState.NewRequest(BuildOptions{})
	if _, err := builder.Build(minimalPutState()); !errors.Is(err, ErrNeedsAuthentication) {
		t.Fatalf("Build without token = %v, want ErrNeedsAuthentication", err)
	}
	if builder.Built() || builder.Message() != nil {
		t.Error("failed builder reports a message")
	}
	if _, err := builder.Build(minimalPutState()); !errors.Is(err, ErrBuilderUsed) {
		t.Errorf("Build after failure = %v, want ErrBuilderUsed", err)
	}
}

func TestBuilderVersionSelection(t *testing.T) {
	t.Run("pinned old version", func(t *testing.T) {
		message, err := putState.NewRequest(BuildOptions{Version: &VersionR0_6_1, AccessToken: "t"}).Build(minimalPutState())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if want := "/_matrix/client/r0/rooms/%21r%3Ax/state/m.room.name/"; message.Path != want {
			t.Errorf("Path = %s, want %s", message.Path, want)
		}
	})

	t.Run("negotiated", func(t *testing.T) {
		supported := &SupportedVersions{Versions: []string{"r0.6.1", "v1.1"}}
		builder := putState.NewRequest(BuildOptions{Supported: supported, AccessToken: "t"})
		if _, err := builder.Build(minimalPutState()); err != nil {
			t.Fatalf("Build: %v", err)
		}
		if builder.Variant().Version != VersionV1_1 {
			t.Errorf("variant = %s", builder.Variant())
		}
	})

	t.Run("no compatible version", func(t *testing.T) {
		old := Version{Major: 0, Minor: 5}
		_, err := putState.NewRequest(BuildOptions{Version: &old, AccessToken: "t"}).Build(minimalPutState())
		if !IsDecodeError(err, NoMatchingVersion) {
			t.Errorf("Build = %v, want NoMatchingVersion", err)
		}
	})
}

func TestServerSignatureSlot(t *testing.T) {
	request := sendTransactionRequest{TxnID: "1700000000", Origin: "origin.example.org"}

	message, err := sendTransaction.NewRequest(BuildOptions{BaseURL: "https://remote.example.org"}).Build(request)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !message.NeedsSignature {
		t.Fatal("unsigned message does not reserve the signature slot")
	}
	if _, err := message.HTTPRequest(context.Background()); err == nil {
		t.Error("HTTPRequest accepted an unsigned message")
	}

	const signature = `X-Matrix origin="origin.example.org",key="ed25519:1",sig="c2ln"`
	message.Sign(signature)
	httpRequest, err := message.HTTPRequest(context.Background())
	if err != nil {
		t.Fatalf("HTTPRequest: %v", err)
	}
	if got := httpRequest.Header.Get("Authorization"); got != signature {
		t.Errorf("Authorization = %q", got)
	}
	if got := httpRequest.URL.String(); got != "https://remote.example.org/_matrix/federation/v1/send/1700000000" {
		t.Errorf("URL = %s", got)
	}

	presigned, err := sendTransaction.NewRequest(BuildOptions{ServerSignature: signature}).Build(request)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if presigned.NeedsSignature || presigned.Header.Get("Authorization") != signature {
		t.Errorf("precomputed signature not applied: %+v", presigned.Header)
	}

	parsed := sendTransaction.ParseRequest(presigned.Incoming())
	if parsed.State != Decoded || parsed.Signature != signature {
		t.Errorf("ParseRequest state=%s signature=%q", parsed.State, parsed.Signature)
	}
}

func TestParseRequest(t *testing.T) {
	t.Run("decoded with bearer token", func(t *testing.T) {
		message, err := putState.NewRequest(BuildOptions{Version: &VersionR0_6_1, AccessToken: "tok"}).Build(minimalPutState())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		parsed := putState.ParseRequest(message.Incoming())
		if parsed.State != Decoded {
			t.Fatalf("state = %s, err = %v", parsed.State, parsed.Err)
		}
		if parsed.AccessToken != "tok" {
			t.Errorf("AccessToken = %q", parsed.AccessToken)
		}
		if parsed.Variant.Version != VersionR0_6_1 {
			t.Errorf("matched variant %s", parsed.Variant)
		}
		if parsed.Value.RoomID != "!r:x" || parsed.Value.Name != "n" {
			t.Errorf("Value = %+v", parsed.Value)
		}
		if parsed.Envelope() != nil {
			t.Error("decoded request has an envelope")
		}
	})

	t.Run("legacy access_token query parameter", func(t *testing.T) {
		parsed := putState.ParseRequest(&IncomingMessage{
			Method:   http.MethodPut,
			Path:     "/_matrix/client/v3/rooms/%21r%3Ax/state/m.room.name/",
			RawQuery: "dir=f&access_token=legacy",
			Body:     []byte(`{"name":"n"}`),
		})
		if parsed.State != Decoded || parsed.AccessToken != "legacy" {
			t.Errorf("state = %s, token = %q, err = %v", parsed.State, parsed.AccessToken, parsed.Err)
		}
	})

	t.Run("missing body field", func(t *testing.T) {
		parsed := putState.ParseRequest(&IncomingMessage{
			Method:   http.MethodPut,
			Path:     "/_matrix/client/v3/rooms/%21r%3Ax/state/m.room.name/",
			RawQuery: "dir=f",
			Body:     []byte(`{}`),
		})
		if parsed.State != Rejected || parsed.Err.Kind != MissingField || parsed.Err.Field != "name" {
			t.Fatalf("state = %s, err = %v", parsed.State, parsed.Err)
		}
		envelope := parsed.Envelope()
		if envelope.Kind != KindMissingParam || envelope.Status() != http.StatusBadRequest {
			t.Errorf("envelope = %v", envelope)
		}
	})

	t.Run("method mismatch", func(t *testing.T) {
		parsed := putState.ParseRequest(&IncomingMessage{
			Method: http.MethodGet,
			Path:   "/_matrix/client/v3/rooms/%21r%3Ax/state/m.room.name/",
		})
		if parsed.State != Rejected || parsed.Err.Kind != MethodMismatch {
			t.Fatalf("state = %s, err = %v", parsed.State, parsed.Err)
		}
		if status := parsed.Envelope().Status(); status != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", status)
		}
	})

	t.Run("unmatched path", func(t *testing.T) {
		parsed := putState.ParseRequest(&IncomingMessage{Method: http.MethodPut, Path: "/_matrix/client/v3/rooms"})
		if parsed.State != Rejected || parsed.Err.Kind != UnmatchedPath {
			t.Fatalf("state = %s, err = %v", parsed.State, parsed.Err)
		}
		envelope := parsed.Envelope()
		if envelope.Kind != KindUnrecognizedRequest || envelope.Status() != http.StatusNotFound {
			t.Errorf("envelope = %v", envelope)
		}
	})
}
