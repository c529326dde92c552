// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/matrixwire/lib/wire"
)

func TestRateLimitMapping(t *testing.T) {
	body := []byte(`{"errcode":"M_LIMIT_EXCEEDED","retry_after_ms":500}`)
	_, err := putState.ParseResponse(&IncomingMessage{StatusCode: http.StatusTooManyRequests, Body: body})

	var envelope *ErrorEnvelope
	if !errors.As(err, &envelope) {
		t.Fatalf("expected *ErrorEnvelope, got %v", err)
	}
	if envelope.Kind != KindLimitExceeded {
		t.Errorf("Kind = %s, want M_LIMIT_EXCEEDED", envelope.Kind)
	}
	retry, ok := envelope.Extra.Get("retry_after_ms")
	if !ok || !retry.Equal(wire.Int(500)) {
		t.Errorf("retry_after_ms = %v, %v", retry, ok)
	}
	if delay, ok := envelope.RetryAfter(); !ok || delay != 500*time.Millisecond {
		t.Errorf("RetryAfter = %v, %v", delay, ok)
	}
	if !IsErrorCode(err, KindLimitExceeded) {
		t.Error("IsErrorCode(KindLimitExceeded) = false")
	}

	status, value := envelope.ToWire()
	if status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", status)
	}
	if got := wire.Marshal(value); string(got) != string(body) {
		t.Errorf("re-encoded body = %s, want %s", got, body)
	}

	// A freshly constructed envelope gets 429 from the table.
	fresh := NewError(KindLimitExceeded, "")
	fresh.Extra.Set("retry_after_ms", wire.Int(500))
	response := putState.EncodeError(fresh)
	if response.StatusCode != http.StatusTooManyRequests {
		t.Errorf("EncodeError status = %d", response.StatusCode)
	}
	if string(response.Body) != string(body) {
		t.Errorf("EncodeError body = %s", response.Body)
	}
}

func TestUnrecognizedCodePassthrough(t *testing.T) {
	body := []byte(`{"errcode":"M_FUTURE_CODE","error":"x"}`)
	envelope := FromWire(http.StatusBadRequest, body)
	if envelope.Kind != KindUnrecognized {
		t.Errorf("Kind = %s, want unrecognized", envelope.Kind)
	}
	if envelope.Code != "M_FUTURE_CODE" || envelope.Message != "x" {
		t.Errorf("Code = %q, Message = %q", envelope.Code, envelope.Message)
	}
	status, value := envelope.ToWire()
	if status != http.StatusBadRequest {
		t.Errorf("status = %d", status)
	}
	if got := wire.Marshal(value); string(got) != string(body) {
		t.Errorf("re-encoded body = %s, want %s", got, body)
	}
}

func TestFromWirePreservesBody(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty error message", `{"errcode":"M_FUTURE_CODE","error":""}`},
		{"error before errcode", `{"error":"x","errcode":"M_FUTURE_CODE"}`},
		{"extras between", `{"soft_logout":true,"errcode":"M_UNKNOWN_TOKEN","retry":[1,2],"error":"gone"}`},
		{"known code with empty error", `{"error":"","errcode":"M_FORBIDDEN"}`},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			envelope := FromWire(http.StatusBadRequest, []byte(testCase.body))
			_, value := envelope.ToWire()
			if got := wire.Marshal(value); string(got) != testCase.body {
				t.Errorf("re-encoded body = %s, want %s", got, testCase.body)
			}
		})
	}

	t.Run("message set after decoding", func(t *testing.T) {
		envelope := FromWire(http.StatusBadRequest, []byte(`{"errcode":"M_FUTURE_CODE","extra":1}`))
		envelope.Message = "added"
		_, value := envelope.ToWire()
		if got := wire.Marshal(value); string(got) != `{"errcode":"M_FUTURE_CODE","extra":1,"error":"added"}` {
			t.Errorf("re-encoded body = %s", got)
		}
	})
}

func TestFromWireNeverFails(t *testing.T) {
	t.Run("no errcode", func(t *testing.T) {
		envelope := FromWire(http.StatusBadGateway, []byte(`{"error":"upstream down"}`))
		if envelope.Kind != KindUnrecognized || envelope.Code != "502" || !envelope.Synthesized() {
			t.Errorf("Kind = %s, Code = %q", envelope.Kind, envelope.Code)
		}
		if envelope.Message != "upstream down" {
			t.Errorf("Message = %q", envelope.Message)
		}
		_, value := envelope.ToWire()
		if got := wire.Marshal(value); string(got) != `{"error":"upstream down"}` {
			t.Errorf("re-encoded body = %s", got)
		}
	})

	t.Run("HTML body", func(t *testing.T) {
		envelope := FromWire(http.StatusServiceUnavailable, []byte("<html>maintenance</html>"))
		if envelope.Code != "503" {
			t.Errorf("Code = %q", envelope.Code)
		}
		if !strings.Contains(envelope.Message, "malformed") {
			t.Errorf("Message = %q, want a malformed-body description", envelope.Message)
		}
		if envelope.Status() != http.StatusServiceUnavailable {
			t.Errorf("Status = %d", envelope.Status())
		}
	})

	t.Run("empty body", func(t *testing.T) {
		envelope := FromWire(http.StatusNotFound, nil)
		if envelope.Code != "404" || envelope.Kind != KindUnrecognized {
			t.Errorf("Kind = %s, Code = %q", envelope.Kind, envelope.Code)
		}
	})

	t.Run("non-string errcode is kept as an extra", func(t *testing.T) {
		envelope := FromWire(http.StatusBadRequest, []byte(`{"errcode":42}`))
		if envelope.Code != "400" {
			t.Errorf("Code = %q", envelope.Code)
		}
		_, value := envelope.ToWire()
		if got := wire.Marshal(value); string(got) != `{"errcode":42}` {
			t.Errorf("re-encoded body = %s", got)
		}
	})
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		kind ErrorKind
		want int
	}{
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindUnknownToken, http.StatusUnauthorized},
		{KindMissingToken, http.StatusUnauthorized},
		{KindTooLarge, http.StatusRequestEntityTooLarge},
		{KindUnrecognizedRequest, http.StatusNotFound},
		{KindUserInUse, http.StatusBadRequest},
		{KindUnrecognized, http.StatusBadRequest},
	}
	for _, testCase := range cases {
		if got := NewError(testCase.kind, "").Status(); got != testCase.want {
			t.Errorf("%s status = %d, want %d", testCase.kind, got, testCase.want)
		}
	}

	overrides := map[ErrorKind]int{KindNotFound: http.StatusOK}
	if got := NewError(KindNotFound, "").StatusFor(overrides); got != http.StatusOK {
		t.Errorf("override ignored: %d", got)
	}
	explicit := &ErrorEnvelope{Kind: KindNotFound, StatusCode: http.StatusGone}
	if got := explicit.StatusFor(overrides); got != http.StatusGone {
		t.Errorf("explicit status ignored: %d", got)
	}
}

func TestErrorEnvelopeError(t *testing.T) {
	err := error(NewError(KindForbidden, "not allowed"))
	if got := err.Error(); got != "matrix: M_FORBIDDEN (403): not allowed" {
		t.Errorf("Error() = %q", got)
	}
	if NewUnrecognizedError("M_FORBIDDEN", "").Kind != KindForbidden {
		t.Error("NewUnrecognizedError did not resolve a known code")
	}
	if KindForCode("ORG_EXAMPLE_CUSTOM") != KindUnrecognized {
		t.Error("unknown code resolved to a known kind")
	}
}
