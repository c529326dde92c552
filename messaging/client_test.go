// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/endpoints/clientapi"
	"github.com/bureau-foundation/matrixwire/lib/ref"
	"github.com/bureau-foundation/matrixwire/lib/testutil"
	"github.com/bureau-foundation/matrixwire/lib/wire"
)

// fakeHomeserver answers /versions and routes everything else to
// handle, keyed by "METHOD escaped-path".
type fakeHomeserver struct {
	versions      string
	versionsCalls atomic.Int32
	handle        func(writer http.ResponseWriter, request *http.Request, body []byte)
}

func (f *fakeHomeserver) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path == "/_matrix/client/versions" {
		f.versionsCalls.Add(1)
		writer.Header().Set("Content-Type", "application/json")
		io.WriteString(writer, f.versions)
		return
	}
	body, _ := io.ReadAll(request.Body)
	f.handle(writer, request, body)
}

func startHomeserver(t *testing.T, versions string, handle func(http.ResponseWriter, *http.Request, []byte)) (*httptest.Server, *fakeHomeserver) {
	t.Helper()
	fake := &fakeHomeserver{versions: versions, handle: handle}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return server, fake
}

func writeJSON(writer http.ResponseWriter, status int, body string) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	io.WriteString(writer, body)
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:6167/"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client.BaseURL() != "http://localhost:6167" {
			t.Errorf("BaseURL() = %q", client.BaseURL())
		}
	})

	for name, raw := range map[string]string{
		"empty URL":    "",
		"invalid URL":  "://invalid",
		"no scheme":    "matrix.example.org",
		"wrong scheme": "ftp://matrix.example.org",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewClient(ClientConfig{HomeserverURL: raw}); err == nil {
				t.Fatalf("expected error for %q", raw)
			}
		})
	}
}

func TestLoginAndNegotiatedPaths(t *testing.T) {
	server, fake := startHomeserver(t, `{"versions":["r0.6.1","v1.1"]}`,
		func(writer http.ResponseWriter, request *http.Request, body []byte) {
			switch request.Method + " " + request.URL.EscapedPath() {
			case "POST /_matrix/client/v3/login":
				var login map[string]any
				if err := json.Unmarshal(body, &login); err != nil {
					t.Errorf("login body: %v", err)
				}
				if login["password"] != "hunter2" {
					t.Errorf("password = %v", login["password"])
				}
				writeJSON(writer, http.StatusOK, `{"user_id":"@alice:example.org","access_token":"syt_token","device_id":"DEV"}`)
			case "GET /_matrix/client/v3/account/whoami":
				if got := request.Header.Get("Authorization"); got != "Bearer syt_token" {
					t.Errorf("Authorization = %q", got)
				}
				writeJSON(writer, http.StatusOK, `{"user_id":"@alice:example.org","device_id":"DEV"}`)
			default:
				t.Errorf("unexpected request %s %s", request.Method, request.URL.EscapedPath())
				writeJSON(writer, http.StatusNotFound, `{"errcode":"M_UNRECOGNIZED"}`)
			}
		})

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session, err := client.Login(t.Context(), clientapi.LoginRequest{
		Type:       clientapi.LoginTypePassword,
		Identifier: &clientapi.UserIdentifier{Type: "m.id.user", User: "alice"},
		Password:   "hunter2",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.UserID().String() != "@alice:example.org" || session.DeviceID() != "DEV" {
		t.Errorf("session = %s %s", session.UserID(), session.DeviceID())
	}

	userID, err := session.WhoAmI(t.Context())
	if err != nil {
		t.Fatalf("WhoAmI: %v", err)
	}
	if userID != session.UserID() {
		t.Errorf("WhoAmI = %s", userID)
	}
	if calls := fake.versionsCalls.Load(); calls != 1 {
		t.Errorf("/versions fetched %d times, want 1", calls)
	}

	client.ForgetVersions()
	if _, err := session.WhoAmI(t.Context()); err != nil {
		t.Fatalf("WhoAmI after ForgetVersions: %v", err)
	}
	if calls := fake.versionsCalls.Load(); calls != 2 {
		t.Errorf("/versions fetched %d times after ForgetVersions, want 2", calls)
	}
}

func TestPinnedVersionSkipsNegotiation(t *testing.T) {
	server, fake := startHomeserver(t, `{"versions":["v1.11"]}`,
		func(writer http.ResponseWriter, request *http.Request, body []byte) {
			want := "GET /_matrix/client/r0/directory/room/%23ops%3Aexample.org"
			if got := request.Method + " " + request.URL.EscapedPath(); got != want {
				t.Errorf("request = %s, want %s", got, want)
			}
			writeJSON(writer, http.StatusOK, `{"room_id":"!ops:example.org","servers":["example.org"]}`)
		})

	client, err := NewClient(ClientConfig{
		HomeserverURL: server.URL,
		HTTPClient:    server.Client(),
		Version:       &api.VersionR0_6_1,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session := client.SessionFromToken(ref.UserID{}, "tok")
	roomID, err := session.ResolveAlias(t.Context(), ref.MustParseRoomAlias("#ops:example.org"))
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if roomID.String() != "!ops:example.org" {
		t.Errorf("ResolveAlias = %s", roomID)
	}
	if calls := fake.versionsCalls.Load(); calls != 0 {
		t.Errorf("/versions fetched %d times with a pinned version", calls)
	}
}

func TestSendEventUsesFreshTransactionIDs(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server, _ := startHomeserver(t, `{"versions":["v1.1"]}`,
		func(writer http.ResponseWriter, request *http.Request, body []byte) {
			mu.Lock()
			paths = append(paths, request.URL.EscapedPath())
			mu.Unlock()
			if string(body) != `{"msgtype":"m.text","body":"hi"}` {
				t.Errorf("body = %s", body)
			}
			writeJSON(writer, http.StatusOK, `{"event_id":"$e1"}`)
		})

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session := client.SessionFromToken(ref.MustParseUserID("@bot:example.org"), "tok")
	content := wire.ObjectValue(wire.NewObject(
		wire.Member{Key: "msgtype", Value: wire.String("m.text")},
		wire.Member{Key: "body", Value: wire.String("hi")},
	))
	roomID := ref.MustParseRoomID("!r:example.org")
	for range 2 {
		eventID, err := session.SendEvent(t.Context(), roomID, "m.room.message", content)
		if err != nil {
			t.Fatalf("SendEvent: %v", err)
		}
		if eventID.String() != "$e1" {
			t.Errorf("EventID = %s", eventID)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(paths) != 2 || paths[0] == paths[1] {
		t.Fatalf("paths = %v, want two distinct transaction paths", paths)
	}
	prefix := "/_matrix/client/v3/rooms/%21r%3Aexample.org/send/m.room.message/"
	for _, path := range paths {
		if !strings.HasPrefix(path, prefix) || len(path) == len(prefix) {
			t.Errorf("path %q lacks a transaction ID under %s", path, prefix)
		}
	}
}

type roomTopic struct {
	Topic string `json:"topic"`
}

func TestGetState(t *testing.T) {
	server, _ := startHomeserver(t, `{"versions":["v1.1"]}`,
		func(writer http.ResponseWriter, request *http.Request, body []byte) {
			switch request.URL.EscapedPath() {
			case "/_matrix/client/v3/rooms/%21r%3Aexample.org/state/m.room.topic/":
				writeJSON(writer, http.StatusOK, `{"topic":"release planning"}`)
			default:
				writeJSON(writer, http.StatusNotFound, `{"errcode":"M_NOT_FOUND","error":"Event not found."}`)
			}
		})

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	session := client.SessionFromToken(ref.UserID{}, "tok")
	roomID := ref.MustParseRoomID("!r:example.org")

	topic, err := GetState[roomTopic](t.Context(), session, roomID, "m.room.topic", "")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if diff := cmp.Diff(roomTopic{Topic: "release planning"}, topic); diff != "" {
		t.Errorf("GetState mismatch (-want +got):\n%s", diff)
	}

	_, err = GetState[roomTopic](t.Context(), session, roomID, "m.room.name", "")
	if !api.IsErrorCode(err, api.KindNotFound) {
		t.Errorf("missing state = %v, want M_NOT_FOUND", err)
	}
	var envelope *api.ErrorEnvelope
	if !errors.As(err, &envelope) || envelope.Message != "Event not found." || envelope.Status() != http.StatusNotFound {
		t.Errorf("envelope = %+v", envelope)
	}
}

func TestAuthenticatedEndpointWithoutToken(t *testing.T) {
	server, _ := startHomeserver(t, `{"versions":["v1.1"]}`,
		func(writer http.ResponseWriter, request *http.Request, body []byte) {
			t.Errorf("unexpected request %s", request.URL.Path)
		})
	client, err := NewClient(ClientConfig{HomeserverURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = Do(t.Context(), client, clientapi.WhoAmI, clientapi.WhoAmIRequest{})
	if !errors.Is(err, api.ErrNeedsAuthentication) {
		t.Errorf("Do(WhoAmI) = %v, want ErrNeedsAuthentication", err)
	}
}

func TestVersionsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusBadGateway, `<html>bad gateway</html>`)
	}))
	defer server.Close()

	var logs bytes.Buffer
	client, err := NewClient(ClientConfig{
		HomeserverURL: server.URL,
		HTTPClient:    server.Client(),
		Logger:        slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.SessionFromToken(ref.UserID{}, "tok").WhoAmI(t.Context())
	var envelope *api.ErrorEnvelope
	if !errors.As(err, &envelope) || envelope.Code != "502" || !envelope.Synthesized() {
		t.Fatalf("WhoAmI = %v, want a synthesized 502 envelope", err)
	}
	if !strings.Contains(err.Error(), "negotiating protocol version") {
		t.Errorf("error %q does not mention negotiation", err)
	}
	if !strings.Contains(logs.String(), "error response without errcode") || !strings.Contains(logs.String(), "<html>bad gateway</html>") {
		t.Errorf("body snippet not logged:\n%s", logs.String())
	}
}

func TestServerVersionsWaitersHonorTheirContext(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if calls.Add(1) == 1 {
			close(arrived)
		}
		<-release
		writeJSON(writer, http.StatusOK, `{"versions":["v1.1"]}`)
	}))
	defer server.Close()
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }
	defer unblock()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	type result struct {
		supported *api.SupportedVersions
		err       error
	}
	first := make(chan result, 1)
	go func() {
		supported, err := client.ServerVersions(t.Context())
		first <- result{supported, err}
	}()
	testutil.RequireClosed(t, arrived, 5*time.Second, "versions request reaching the server")

	impatient := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
		defer cancel()
		_, err := client.ServerVersions(ctx)
		impatient <- err
	}()
	if err := testutil.RequireReceive(t, impatient, 5*time.Second, "caller with a 50ms deadline"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("impatient ServerVersions = %v, want DeadlineExceeded", err)
	}

	unblock()
	got := testutil.RequireReceive(t, first, 5*time.Second, "first ServerVersions")
	if got.err != nil || len(got.supported.Versions) != 1 {
		t.Fatalf("first ServerVersions = %+v, %v", got.supported, got.err)
	}
	if _, err := client.ServerVersions(t.Context()); err != nil {
		t.Fatalf("cached ServerVersions: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("/versions fetched %d times, want 1", n)
	}
}

func TestMetrics(t *testing.T) {
	server, _ := startHomeserver(t, `{"versions":["v1.1"]}`,
		func(writer http.ResponseWriter, request *http.Request, body []byte) {
			writeJSON(writer, http.StatusTooManyRequests, `{"errcode":"M_LIMIT_EXCEEDED","retry_after_ms":100}`)
		})

	registry := prometheus.NewRegistry()
	client, err := NewClient(ClientConfig{
		HomeserverURL: server.URL,
		HTTPClient:    server.Client(),
		Registerer:    registry,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = client.SessionFromToken(ref.UserID{}, "tok").CreateRoom(t.Context(), clientapi.CreateRoomRequest{Name: "x"})
	var envelope *api.ErrorEnvelope
	if !errors.As(err, &envelope) {
		t.Fatalf("CreateRoom = %v, want envelope", err)
	}
	if delay, ok := envelope.RetryAfter(); !ok || delay.Milliseconds() != 100 {
		t.Errorf("RetryAfter = %v, %v", delay, ok)
	}

	limited := client.metrics.requests.WithLabelValues(clientapi.CreateRoom.Metadata().Name, "429", "M_LIMIT_EXCEEDED")
	if got := promtestutil.ToFloat64(limited); got != 1 {
		t.Errorf("rate-limited counter = %v, want 1", got)
	}
	versions := client.metrics.requests.WithLabelValues(clientapi.GetSupportedVersions.Metadata().Name, "200", "")
	if got := promtestutil.ToFloat64(versions); got != 1 {
		t.Errorf("versions counter = %v, want 1", got)
	}

	if _, err := NewClient(ClientConfig{HomeserverURL: server.URL, Registerer: registry}); err == nil {
		t.Error("registering metrics twice on one registry succeeded")
	}
}

func TestExchangeSignedMessage(t *testing.T) {
	const signature = `X-Matrix origin="a.example.org",key="ed25519:1",sig="c2ln"`
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if got := request.Header.Get("Authorization"); got != signature {
			t.Errorf("Authorization = %q", got)
		}
		writeJSON(writer, http.StatusOK, `{}`)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	message := &api.OutgoingMessage{Endpoint: "test", Method: http.MethodGet, Path: "/x", NeedsSignature: true}
	if _, err := client.Exchange(t.Context(), message); err == nil {
		t.Fatal("Exchange sent an unsigned message")
	}
	message.Sign(signature)
	incoming, err := client.Exchange(t.Context(), message)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if incoming.StatusCode != http.StatusOK || message.BaseURL != "" {
		t.Errorf("status = %d, base URL mutated to %q", incoming.StatusCode, message.BaseURL)
	}
}

func TestNewTransactionID(t *testing.T) {
	first, second := NewTransactionID(), NewTransactionID()
	if first == second || first == "" {
		t.Errorf("transaction IDs %q and %q are not unique", first, second)
	}
}
