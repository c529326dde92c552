// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/matrixwire/api"
	"github.com/bureau-foundation/matrixwire/lib/ref"
)

func sampleOutgoing() *api.OutgoingMessage {
	return &api.OutgoingMessage{
		Endpoint: "client.send_message_event",
		Method:   http.MethodPut,
		BaseURL:  "https://matrix.example.org",
		Path:     "/_matrix/client/v3/rooms/%21r%3Aexample.org/send/m.room.message/1",
		Query:    []api.QueryPair{{Name: "server_name", Value: "a"}, {Name: "server_name", Value: "b"}},
		Header:   http.Header{"Authorization": {"Bearer t"}, "Content-Type": {"application/json"}},
		Body:     []byte(`{"body": "spacing kept",  "msgtype":"m.text"}`),
	}
}

func TestOutgoingMessageRoundTrip(t *testing.T) {
	original := sampleOutgoing()
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded api.OutgoingMessage
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(*original, decoded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Equal(decoded.Body, original.Body) {
		t.Errorf("JSON body bytes changed: %q", decoded.Body)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	first, err := Marshal(sampleOutgoing())
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(sampleOutgoing())
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestUnmarshalRejectsTrailingData(t *testing.T) {
	first, err := Marshal(api.OutgoingResponse{StatusCode: http.StatusOK})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Marshal(api.OutgoingResponse{StatusCode: http.StatusNoContent})
	if err != nil {
		t.Fatal(err)
	}

	var message api.IncomingMessage
	err = Unmarshal(append(first, second...), &message)
	if !errors.Is(err, ErrTrailingData) {
		t.Fatalf("Unmarshal = %v, want ErrTrailingData", err)
	}
	if err := Unmarshal(first, &message); err != nil || message.StatusCode != http.StatusOK {
		t.Errorf("Unmarshal(first) = %v, status %d", err, message.StatusCode)
	}
}

func TestDiagnoseShowsBodyBytes(t *testing.T) {
	data, err := Marshal(api.OutgoingResponse{StatusCode: http.StatusOK, Body: []byte("{}")})
	if err != nil {
		t.Fatal(err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"status": 200`) || !strings.Contains(notation, `h'7b7d'`) {
		t.Errorf("Diagnose = %s", notation)
	}
}

func TestIdentifiersAsTextStrings(t *testing.T) {
	type envelope struct {
		Room ref.RoomID `cbor:"room"`
		User ref.UserID `cbor:"user"`
	}
	original := envelope{Room: ref.MustParseRoomID("!r:example.org"), User: ref.MustParseUserID("@a:example.org")}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	notation, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"!r:example.org"`) || !strings.Contains(notation, `"@a:example.org"`) {
		t.Errorf("identifiers not encoded as text: %s", notation)
	}

	var decoded envelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("got %+v, want %+v", decoded, original)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{"status": 200, "from_the_future": true})
	if err != nil {
		t.Fatal(err)
	}
	var decoded api.IncomingMessage
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.StatusCode != 200 {
		t.Errorf("StatusCode = %d", decoded.StatusCode)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var message api.IncomingMessage
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &message); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}

func BenchmarkMarshal(b *testing.B) {
	message := sampleOutgoing()
	b.ReportAllocs()
	for b.Loop() {
		Marshal(message)
	}
}
