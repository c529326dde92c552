// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

type emptyMessage struct{}

func simpleRoute(t *testing.T, name, method, template string) Route {
	t.Helper()
	endpoint, err := NewEndpoint[emptyMessage, emptyMessage](Metadata{
		Name:     name,
		Method:   method,
		Variants: []PathVariant{{Version: VersionV1_1, Template: pathtemplate.MustParse(template)}},
	})
	if err != nil {
		t.Fatalf("NewEndpoint(%s): %v", name, err)
	}
	return endpoint
}

func TestRouterRejectsAmbiguity(t *testing.T) {
	t.Run("same method overlap", func(t *testing.T) {
		_, err := NewRouter(
			simpleRoute(t, "by_alias", http.MethodGet, "/_matrix/client/v3/directory/room/{roomAlias}"),
			simpleRoute(t, "literal", http.MethodGet, "/_matrix/client/v3/directory/room/list"),
		)
		var configErr *ConfigurationError
		if !errors.As(err, &configErr) {
			t.Fatalf("expected *ConfigurationError, got %v", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := NewRouter(
			simpleRoute(t, "same", http.MethodGet, "/a"),
			simpleRoute(t, "same", http.MethodPost, "/b"),
		)
		var configErr *ConfigurationError
		if !errors.As(err, &configErr) {
			t.Fatalf("expected *ConfigurationError, got %v", err)
		}
	})

	t.Run("different methods share a path", func(t *testing.T) {
		_, err := NewRouter(
			simpleRoute(t, "get_rule", http.MethodGet, "/pushrules/{scope}/{kind}/{ruleId}"),
			simpleRoute(t, "set_rule", http.MethodPut, "/pushrules/{scope}/{kind}/{ruleId}"),
		)
		if err != nil {
			t.Fatalf("NewRouter: %v", err)
		}
	})
}

func TestRouterLookup(t *testing.T) {
	router := MustRouter(
		simpleRoute(t, "get_rule", http.MethodGet, "/pushrules/{scope}/{kind}/{ruleId}"),
		simpleRoute(t, "delete_rule", http.MethodDelete, "/pushrules/{scope}/{kind}/{ruleId}"),
		putState,
	)

	route, variant, err := router.Lookup(http.MethodDelete, "/pushrules/global/override/%2Erule")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if route.Metadata().Name != "delete_rule" || variant.Template.String() != "/pushrules/{scope}/{kind}/{ruleId}" {
		t.Errorf("Lookup = %s %s", route.Metadata().Name, variant)
	}

	route, variant, err = router.Lookup(http.MethodPut, "/_matrix/client/r0/rooms/%21r%3Ax/state/m.room.name/")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if route.Metadata().Name != putStateMetadata.Name || variant.Version != VersionR0_6_1 {
		t.Errorf("Lookup = %s %s", route.Metadata().Name, variant)
	}

	_, _, err = router.Lookup(http.MethodPost, "/pushrules/global/override/rule")
	if !IsDecodeError(err, MethodMismatch) {
		t.Errorf("POST lookup = %v, want MethodMismatch", err)
	}
	_, _, err = router.Lookup(http.MethodGet, "/pushrules/global")
	if !IsDecodeError(err, UnmatchedPath) {
		t.Errorf("short path lookup = %v, want UnmatchedPath", err)
	}

	want := []string{http.MethodDelete, http.MethodGet}
	if got := router.AllowedMethods("/pushrules/global/override/rule"); !cmp.Equal(got, want) {
		t.Errorf("AllowedMethods = %v, want %v", got, want)
	}
	if got := len(router.Routes()); got != 3 {
		t.Errorf("Routes() has %d entries", got)
	}
}
