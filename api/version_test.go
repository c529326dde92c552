// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		raw  string
		want Version
	}{
		{"r0.6.1", Version{Major: 0, Minor: 6, Patch: 1}},
		{"r0.0.0", Version{}},
		{"v1.1", Version{Major: 1, Minor: 1}},
		{"v1.11", Version{Major: 1, Minor: 11}},
	}
	for _, testCase := range cases {
		got, err := ParseVersion(testCase.raw)
		if err != nil {
			t.Errorf("ParseVersion(%q): %v", testCase.raw, err)
			continue
		}
		if got != testCase.want {
			t.Errorf("ParseVersion(%q) = %+v, want %+v", testCase.raw, got, testCase.want)
		}
		if got.String() != testCase.raw {
			t.Errorf("String() = %q, want %q", got.String(), testCase.raw)
		}
	}

	for _, raw := range []string{"", "1.1", "v1", "v0.1", "r1.0.0", "r0.6", "v1.01", "v1.x"} {
		if _, err := ParseVersion(raw); err == nil {
			t.Errorf("ParseVersion(%q) succeeded, want error", raw)
		}
	}
}

func TestVersionOrdering(t *testing.T) {
	ordered := []string{"r0.5.0", "r0.6.0", "r0.6.1", "v1.1", "v1.2", "v1.11"}
	for i := 1; i < len(ordered); i++ {
		older, newer := MustParseVersion(ordered[i-1]), MustParseVersion(ordered[i])
		if older.Compare(newer) >= 0 || newer.Compare(older) <= 0 {
			t.Errorf("expected %s < %s", older, newer)
		}
	}
	if VersionV1_1.Compare(MustParseVersion("v1.1")) != 0 {
		t.Error("equal versions compare unequal")
	}
}

// threeVariantMetadata lists v3 (unstable), v2 and v1 newest-first.
func threeVariantMetadata() Metadata {
	return Metadata{
		Name:   "test.thing",
		Method: http.MethodGet,
		Variants: []PathVariant{
			{Version: Version{Major: 3}, Template: pathtemplate.MustParse("/_matrix/test/unstable/thing"), Stability: Unstable, Feature: "org.example.thing"},
			{Version: Version{Major: 2}, Template: pathtemplate.MustParse("/_matrix/test/v2/thing")},
			{Version: Version{Major: 1}, Template: pathtemplate.MustParse("/_matrix/test/v1/thing")},
		},
	}
}

func TestSelectVariant(t *testing.T) {
	metadata := threeVariantMetadata()
	v1, v3 := Version{Major: 1}, Version{Major: 3}

	cases := []struct {
		name          string
		requested     *Version
		allowUnstable bool
		want          Version
	}{
		{"v3 stable only picks v2", &v3, false, Version{Major: 2}},
		{"v3 allowing unstable picks v3", &v3, true, Version{Major: 3}},
		{"no request picks newest stable", nil, false, Version{Major: 2}},
		{"no request ignores unstable even when allowed", nil, true, Version{Major: 2}},
		{"older request picks older variant", &v1, true, Version{Major: 1}},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			variant, err := SelectVariant(metadata, testCase.requested, testCase.allowUnstable)
			if err != nil {
				t.Fatalf("SelectVariant: %v", err)
			}
			if variant.Version != testCase.want {
				t.Errorf("selected %s, want %s", variant.Version, testCase.want)
			}
		})
	}

	t.Run("nothing old enough", func(t *testing.T) {
		_, err := SelectVariant(metadata, &VersionR0_6_1, true)
		if !IsDecodeError(err, NoMatchingVersion) {
			t.Fatalf("expected NoMatchingVersion, got %v", err)
		}
	})

	t.Run("experimental endpoint", func(t *testing.T) {
		experimental := Metadata{
			Name:         "test.experimental",
			Method:       http.MethodGet,
			Experimental: true,
			Variants: []PathVariant{
				{Version: VersionV1_2, Template: pathtemplate.MustParse("/_matrix/test/unstable/x"), Stability: Unstable},
			},
		}
		if _, err := SelectVariant(experimental, nil, false); !IsDecodeError(err, NoMatchingVersion) {
			t.Errorf("expected NoMatchingVersion without allowUnstable, got %v", err)
		}
		variant, err := SelectVariant(experimental, nil, true)
		if err != nil {
			t.Fatalf("SelectVariant: %v", err)
		}
		if variant.Stability != Unstable {
			t.Errorf("selected %s", variant)
		}
	})
}

func TestNegotiate(t *testing.T) {
	metadata := threeVariantMetadata()

	t.Run("unstable feature enabled", func(t *testing.T) {
		variant, err := Negotiate(metadata, SupportedVersions{
			Versions:         []string{"v1.0"},
			UnstableFeatures: map[string]bool{"org.example.thing": true},
		})
		if err != nil {
			t.Fatalf("Negotiate: %v", err)
		}
		if variant.Stability != Unstable {
			t.Errorf("selected %s", variant)
		}
	})

	t.Run("newest advertised stable", func(t *testing.T) {
		variant, err := Negotiate(metadata, SupportedVersions{
			Versions:         []string{"r0.6.1", "v2.0", "not-a-version"},
			UnstableFeatures: map[string]bool{"org.example.thing": false},
		})
		if err != nil {
			t.Fatalf("Negotiate: %v", err)
		}
		if variant.Version != (Version{Major: 2}) {
			t.Errorf("selected %s", variant)
		}
	})

	t.Run("server too old", func(t *testing.T) {
		_, err := Negotiate(metadata, SupportedVersions{Versions: []string{"r0.6.1"}})
		if !IsDecodeError(err, NoMatchingVersion) {
			t.Fatalf("expected NoMatchingVersion, got %v", err)
		}
	})
}

func TestMetadataValidate(t *testing.T) {
	template := func(raw string) pathtemplate.Template { return pathtemplate.MustParse(raw) }

	cases := map[string]Metadata{
		"no variants": {Name: "a", Method: http.MethodGet},
		"oldest first": {Name: "a", Method: http.MethodGet, Variants: []PathVariant{
			{Version: VersionR0_6_1, Template: template("/r0/a")},
			{Version: VersionV1_1, Template: template("/v3/a")},
		}},
		"duplicate stable": {Name: "a", Method: http.MethodGet, Variants: []PathVariant{
			{Version: VersionV1_1, Template: template("/v3/a")},
			{Version: VersionV1_1, Template: template("/v3/b")},
		}},
		"unstable before stable at same version": {Name: "a", Method: http.MethodGet, Variants: []PathVariant{
			{Version: VersionV1_1, Template: template("/unstable/a"), Stability: Unstable},
			{Version: VersionV1_1, Template: template("/v3/a")},
		}},
		"only unstable": {Name: "a", Method: http.MethodGet, Variants: []PathVariant{
			{Version: VersionV1_1, Template: template("/unstable/a"), Stability: Unstable},
		}},
		"overlapping variants with different placeholders": {Name: "a", Method: http.MethodGet, Variants: []PathVariant{
			{Version: VersionV1_2, Template: template("/rooms/{roomId}/x")},
			{Version: VersionV1_1, Template: template("/rooms/{alias}/x")},
		}},
		"missing template": {Name: "a", Method: http.MethodGet, Variants: []PathVariant{{Version: VersionV1_1}}},
		"no method":        {Name: "a", Variants: []PathVariant{{Version: VersionV1_1, Template: template("/a")}}},
	}
	for name, metadata := range cases {
		t.Run(name, func(t *testing.T) {
			var configErr *ConfigurationError
			if err := metadata.Validate(); !errors.As(err, &configErr) {
				t.Errorf("expected *ConfigurationError, got %v", err)
			}
		})
	}

	valid := Metadata{Name: "a", Method: http.MethodGet, Variants: []PathVariant{
		{Version: VersionV1_2, Template: template("/v1/rooms/{roomId}/hierarchy")},
		{Version: VersionV1_2, Template: template("/unstable/rooms/{roomId}/hierarchy"), Stability: Unstable},
		{Version: VersionV1_1, Template: template("/other/rooms/{roomId}/hierarchy"), Stability: Unstable},
	}}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
}
