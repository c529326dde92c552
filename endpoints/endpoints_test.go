// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package endpoints

import (
	"net/http"
	"testing"

	"github.com/bureau-foundation/matrixwire/api"
)

func TestAllRoutesRegisterTogether(t *testing.T) {
	router, err := api.NewRouter(All()...)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/_matrix/client/versions", "client.get_supported_versions"},
		{http.MethodGet, "/_matrix/identity/versions", "identity.get_supported_versions"},
		{http.MethodPut, "/_matrix/federation/v1/send/abc", "federation.send_transaction"},
		{http.MethodPut, "/transactions/abc", "appservice.push_events"},
		{http.MethodPost, "/_matrix/push/v1/notify", "push.send_event_notification"},
		{http.MethodGet, "/_matrix/client/unstable/org.matrix.msc2946/rooms/%21a%3Ab/hierarchy", "client.get_hierarchy"},
	}
	for _, testCase := range cases {
		route, _, err := router.Lookup(testCase.method, testCase.path)
		if err != nil {
			t.Errorf("Lookup(%s %s): %v", testCase.method, testCase.path, err)
			continue
		}
		if got := route.Metadata().Name; got != testCase.want {
			t.Errorf("Lookup(%s %s) = %s, want %s", testCase.method, testCase.path, got, testCase.want)
		}
	}
}

func TestEveryEndpointValidates(t *testing.T) {
	for _, route := range All() {
		metadata := route.Metadata()
		if err := metadata.Validate(); err != nil {
			t.Errorf("%s: %v", metadata.Name, err)
		}
		if metadata.Description == "" {
			t.Errorf("%s has no description", metadata.Name)
		}
	}
}

func TestFind(t *testing.T) {
	if _, ok := Find("client.login"); !ok {
		t.Error("client.login not found")
	}
	if _, ok := Find("client.nope"); ok {
		t.Error("unknown name found")
	}
}
