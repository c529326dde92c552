// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/endpoints/clientapi"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func whoAmIHandler(ctx context.Context, request *api.IncomingRequest[clientapi.WhoAmIRequest]) (clientapi.WhoAmIResponse, error) {
	switch request.AccessToken {
	case "alice":
		return clientapi.WhoAmIResponse{UserID: ref.MustParseUserID("@alice:example.org"), DeviceID: "DEV"}, nil
	case "banned":
		return clientapi.WhoAmIResponse{}, api.NewError(api.KindForbidden, "account suspended")
	default:
		return clientapi.WhoAmIResponse{}, errors.New("token store unavailable: dial tcp 10.0.0.3:5432")
	}
}

func buildServer(t *testing.T, config Config) *Server {
	t.Helper()
	registry := NewRegistry()
	Register(registry, clientapi.WhoAmI, whoAmIHandler)
	Register(registry, clientapi.CreateRoom, func(ctx context.Context, request *api.IncomingRequest[clientapi.CreateRoomRequest]) (clientapi.CreateRoomResponse, error) {
		return clientapi.CreateRoomResponse{RoomID: ref.MustParseRoomID("!" + request.Value.Name + ":example.org")}, nil
	})
	if config.Logger == nil {
		config.Logger = discardLogger()
	}
	server, err := registry.Build(config)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return server
}

func serve(server http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)
	return recorder
}

func TestServeTypedHandler(t *testing.T) {
	server := buildServer(t, Config{})

	tests := []struct {
		name       string
		method     string
		target     string
		token      string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "authenticated",
			method:     http.MethodGet,
			target:     "/_matrix/client/v3/account/whoami",
			token:      "alice",
			wantStatus: http.StatusOK,
			wantBody:   `{"user_id":"@alice:example.org","device_id":"DEV"}`,
		},
		{
			name:       "legacy path",
			method:     http.MethodGet,
			target:     "/_matrix/client/r0/account/whoami?access_token=alice",
			wantStatus: http.StatusOK,
			wantBody:   `{"user_id":"@alice:example.org","device_id":"DEV"}`,
		},
		{
			name:       "missing token",
			method:     http.MethodGet,
			target:     "/_matrix/client/v3/account/whoami",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"errcode":"M_MISSING_TOKEN","error":"Missing access token"}`,
		},
		{
			name:       "handler envelope",
			method:     http.MethodGet,
			target:     "/_matrix/client/v3/account/whoami",
			token:      "banned",
			wantStatus: http.StatusForbidden,
			wantBody:   `{"errcode":"M_FORBIDDEN","error":"account suspended"}`,
		},
		{
			name:       "internal handler error is not leaked",
			method:     http.MethodGet,
			target:     "/_matrix/client/v3/account/whoami",
			token:      "other",
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"errcode":"M_UNKNOWN","error":"Internal server error"}`,
		},
		{
			name:       "decoded body",
			method:     http.MethodPost,
			target:     "/_matrix/client/v3/createRoom",
			token:      "alice",
			body:       `{"name":"ops"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"room_id":"!ops:example.org"}`,
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			target:     "/_matrix/client/v3/createRoom",
			token:      "alice",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing token checked before the body",
			method:     http.MethodPost,
			target:     "/_matrix/client/v3/createRoom",
			body:       `{"name":`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"errcode":"M_MISSING_TOKEN","error":"Missing access token"}`,
		},
		{
			name:       "unknown path",
			method:     http.MethodGet,
			target:     "/_matrix/client/v3/nothing/here",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := serve(server, tt.method, tt.target, tt.token, tt.body)
			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", recorder.Code, tt.wantStatus, recorder.Body)
			}
			if tt.wantBody != "" && recorder.Body.String() != tt.wantBody {
				t.Errorf("body = %s, want %s", recorder.Body, tt.wantBody)
			}
			if got := recorder.Header().Get("Content-Type"); got != "application/json" {
				t.Errorf("Content-Type = %q", got)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	server := buildServer(t, Config{})

	malformed := serve(server, http.MethodPost, "/_matrix/client/v3/createRoom", "alice", `{"name":`)
	envelope := api.FromWire(malformed.Code, malformed.Body.Bytes())
	if envelope.Kind != api.KindNotJSON {
		t.Errorf("malformed body errcode = %s, want M_NOT_JSON", envelope.Code)
	}

	unknown := serve(server, http.MethodGet, "/_matrix/client/v3/nothing/here", "", "")
	if envelope := api.FromWire(unknown.Code, unknown.Body.Bytes()); envelope.Kind != api.KindUnrecognizedRequest {
		t.Errorf("unknown path errcode = %s, want M_UNRECOGNIZED", envelope.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	server := buildServer(t, Config{})
	recorder := serve(server, http.MethodPut, "/_matrix/client/v3/account/whoami", "alice", `{}`)
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", recorder.Code)
	}
	if got := recorder.Header().Get("Allow"); got != http.MethodGet {
		t.Errorf("Allow = %q, want GET", got)
	}
	if envelope := api.FromWire(recorder.Code, recorder.Body.Bytes()); envelope.Kind != api.KindUnrecognizedRequest {
		t.Errorf("errcode = %s, want M_UNRECOGNIZED", envelope.Code)
	}
}

func TestRequestTooLarge(t *testing.T) {
	server := buildServer(t, Config{MaxRequestBytes: 16})
	recorder := serve(server, http.MethodPost, "/_matrix/client/v3/createRoom", "alice", `{"name":"`+strings.Repeat("x", 64)+`"}`)
	if recorder.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", recorder.Code)
	}
	if envelope := api.FromWire(recorder.Code, recorder.Body.Bytes()); envelope.Kind != api.KindTooLarge {
		t.Errorf("errcode = %s, want M_TOO_LARGE", envelope.Code)
	}
}

func TestUnsupportedContentEncoding(t *testing.T) {
	server := buildServer(t, Config{})
	request := httptest.NewRequest(http.MethodPost, "/_matrix/client/v3/createRoom", strings.NewReader("xx"))
	request.Header.Set("Content-Encoding", "br")
	request.Header.Set("Authorization", "Bearer alice")
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", recorder.Code)
	}
}

func TestRegisterFixture(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterFixture(clientapi.GetRoomAlias, http.StatusOK, []byte(`{"room_id":"!ops:example.org","servers":["example.org"]}`))
	registry.RegisterFixture(clientapi.GetSupportedVersions, http.StatusServiceUnavailable, []byte(`{"errcode":"M_UNKNOWN","error":"maintenance"}`))
	server, err := registry.Build(Config{Logger: discardLogger()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	recorder := serve(server, http.MethodGet, "/_matrix/client/v3/directory/room/%23ops%3Aexample.org", "", "")
	if recorder.Code != http.StatusOK || recorder.Body.String() != `{"room_id":"!ops:example.org","servers":["example.org"]}` {
		t.Errorf("alias fixture = %d %s", recorder.Code, recorder.Body)
	}

	recorder = serve(server, http.MethodGet, "/_matrix/client/v3/directory/room/not-an-alias", "", "")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("invalid alias status = %d, want 400", recorder.Code)
	}

	recorder = serve(server, http.MethodGet, "/_matrix/client/versions", "", "")
	if recorder.Code != http.StatusServiceUnavailable || recorder.Body.String() != `{"errcode":"M_UNKNOWN","error":"maintenance"}` {
		t.Errorf("versions fixture = %d %s", recorder.Code, recorder.Body)
	}
}

func TestServerMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	server := buildServer(t, Config{Registerer: registry})

	serve(server, http.MethodGet, "/_matrix/client/v3/account/whoami", "alice", "")
	serve(server, http.MethodGet, "/_matrix/client/v3/account/whoami", "alice", "")
	serve(server, http.MethodGet, "/_matrix/client/v3/account/whoami", "banned", "")
	serve(server, http.MethodGet, "/_matrix/client/v3/nothing/here", "", "")

	requests := server.metrics.requests
	if got := promtestutil.ToFloat64(requests.WithLabelValues("client.whoami", "200")); got != 2 {
		t.Errorf("whoami 200 = %v, want 2", got)
	}
	if got := promtestutil.ToFloat64(requests.WithLabelValues("client.whoami", "403")); got != 1 {
		t.Errorf("whoami 403 = %v, want 1", got)
	}
	if got := promtestutil.ToFloat64(requests.WithLabelValues("unmatched", "404")); got != 1 {
		t.Errorf("unmatched 404 = %v, want 1", got)
	}

	again := NewRegistry()
	Register(again, clientapi.WhoAmI, whoAmIHandler)
	if _, err := again.Build(Config{Registerer: registry}); err == nil {
		t.Error("Build registered the same metrics twice")
	}
}

func TestBuildRejects(t *testing.T) {
	t.Run("fixture that does not decode", func(t *testing.T) {
		registry := NewRegistry()
		registry.RegisterFixture(clientapi.GetRoomAlias, http.StatusOK, []byte(`{"servers":[]}`))
		if _, err := registry.Build(Config{}); err == nil {
			t.Fatal("Build accepted a fixture without room_id")
		}
	})

	t.Run("same endpoint twice", func(t *testing.T) {
		registry := NewRegistry()
		Register(registry, clientapi.WhoAmI, whoAmIHandler)
		Register(registry, clientapi.WhoAmI, whoAmIHandler)
		var configErr *api.ConfigurationError
		if _, err := registry.Build(Config{}); !errors.As(err, &configErr) {
			t.Fatalf("Build = %v, want *ConfigurationError", err)
		}
	})
}

func TestListener(t *testing.T) {
	server := buildServer(t, Config{})
	listener := NewListener(ListenerConfig{
		Address: "127.0.0.1:0",
		Handler: server,
		Logger:  discardLogger(),
	})

	ctx, cancel := context.WithCancel(t.Context())
	serveDone := make(chan error, 1)
	go func() { serveDone <- listener.Serve(ctx) }()

	testutil.RequireClosed(t, listener.Ready(), 5*time.Second, "listener ready")

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+listener.Addr().String()+"/_matrix/client/v3/account/whoami", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	request.Header.Set("Authorization", "Bearer alice")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	response.Body.Close()
	if response.StatusCode != http.StatusOK {
		t.Errorf("status = %d", response.StatusCode)
	}

	cancel()
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve after cancel"); err != nil {
		t.Errorf("Serve = %v", err)
	}
}
