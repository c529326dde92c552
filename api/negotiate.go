// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import "fmt"

// SelectVariant picks the path variant to use for an outgoing request.
//
// With a requested version, the result is the newest variant no newer
// than requested that is Stable, or of any stability when allowUnstable
// is set. Without one, the result is the newest Stable variant; the
// newest Unstable variant is used only when allowUnstable is set and the
// endpoint has no Stable variant at all. When nothing qualifies the
// result is a NoMatchingVersion DecodeError; there is no fallback to a
// variant outside the constraints.
func SelectVariant(metadata Metadata, requested *Version, allowUnstable bool) (PathVariant, error) {
	if requested != nil {
		for _, variant := range metadata.Variants {
			if variant.Version.Compare(*requested) > 0 {
				continue
			}
			if variant.Stability == Stable || allowUnstable {
				return variant, nil
			}
		}
		return PathVariant{}, noMatchingVersion(metadata, fmt.Sprintf("requested %s, allow unstable %t", requested, allowUnstable))
	}

	for _, variant := range metadata.Variants {
		if variant.Stability == Stable {
			return variant, nil
		}
	}
	if allowUnstable {
		for _, variant := range metadata.Variants {
			if variant.Stability == Unstable {
				return variant, nil
			}
		}
	}
	return PathVariant{}, noMatchingVersion(metadata, "no stable variant")
}

// SupportedVersions is the body of a GET /versions response from a
// client-server or identity server.
type SupportedVersions struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}

// Latest returns the newest advertised version this package can parse.
// Unparseable entries are ignored.
func (s SupportedVersions) Latest() (Version, bool) {
	var latest Version
	found := false
	for _, raw := range s.Versions {
		version, err := ParseVersion(raw)
		if err != nil {
			continue
		}
		if !found || version.Compare(latest) > 0 {
			latest, found = version, true
		}
	}
	return latest, found
}

// Supports reports whether the server advertises version or a newer one.
func (s SupportedVersions) Supports(version Version) bool {
	latest, ok := s.Latest()
	return ok && latest.Compare(version) >= 0
}

// Negotiate picks the newest variant a server can serve, judged by its
// /versions response. A Stable variant qualifies when the server
// advertises its version or a newer one; an Unstable variant qualifies
// when its Feature flag is enabled in unstable_features.
func Negotiate(metadata Metadata, supported SupportedVersions) (PathVariant, error) {
	for _, variant := range metadata.Variants {
		switch variant.Stability {
		case Stable:
			if supported.Supports(variant.Version) {
				return variant, nil
			}
		case Unstable:
			if variant.Feature != "" && supported.UnstableFeatures[variant.Feature] {
				return variant, nil
			}
		}
	}
	return PathVariant{}, noMatchingVersion(metadata, fmt.Sprintf("server advertises %v", supported.Versions))
}

func noMatchingVersion(metadata Metadata, detail string) *DecodeError {
	return &DecodeError{
		Kind:   NoMatchingVersion,
		Detail: fmt.Sprintf("%s: %s", metadata.Name, detail),
	}
}
