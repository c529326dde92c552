// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bureau-foundation/matrixwire/lib/pathtemplate"
)

// Stability marks a path variant as part of a released specification
// version or as an unstable (MSC-prefixed) path.
type Stability uint8

const (
	Stable Stability = iota
	Unstable
)

func (s Stability) String() string {
	if s == Unstable {
		return "unstable"
	}
	return "stable"
}

// PathVariant is one (version, template, stability) combination of an
// endpoint.
type PathVariant struct {
	// Version is the first specification version serving this path. For
	// unstable variants it is the version the unstable path targets.
	Version   Version
	Template  pathtemplate.Template
	Stability Stability
	// Feature is the unstable_features flag that advertises an unstable
	// variant ("org.matrix.msc2946"). Ignored for stable variants.
	Feature string
}

func (v PathVariant) String() string {
	return fmt.Sprintf("%s %s (%s)", v.Version, v.Template, v.Stability)
}

// AuthScheme is the kind of credential an endpoint's wire message
// carries.
type AuthScheme uint8

const (
	AuthNone AuthScheme = iota
	// AuthAccessToken: "Authorization: Bearer <token>".
	AuthAccessToken
	// AuthServerSignature: "Authorization: X-Matrix ..." computed by the
	// signing collaborator over the finished request.
	AuthServerSignature
)

func (s AuthScheme) String() string {
	switch s {
	case AuthNone:
		return "none"
	case AuthAccessToken:
		return "access-token"
	case AuthServerSignature:
		return "server-signature"
	default:
		return fmt.Sprintf("AuthScheme(%d)", uint8(s))
	}
}

// AuthRequirement records which credential slot an endpoint's messages
// have. Enforcement belongs to the transport; the builder only fills or
// reserves the slot.
type AuthRequirement struct {
	Scheme AuthScheme
	// Required distinguishes endpoints that reject anonymous callers
	// from those where a token is optional.
	Required bool
}

// Metadata is the static descriptor of one endpoint. Values are built
// once at package init and never modified.
type Metadata struct {
	// Name identifies the endpoint in errors, logs and metrics
	// ("client.create_room").
	Name        string
	Description string
	Method      string
	// Variants are ordered newest-first. At equal versions the Stable
	// variant comes before the Unstable one.
	Variants    []PathVariant
	Auth        AuthRequirement
	RateLimited bool
	// Experimental endpoints may consist of unstable variants only.
	Experimental bool
	// ErrorStatus overrides the default HTTP status for specific error
	// kinds when this endpoint encodes an ErrorEnvelope.
	ErrorStatus map[ErrorKind]int
}

// Validate checks the structural invariants of the declaration.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return configErrorf("", "endpoint has no name")
	}
	if m.Method == "" {
		return configErrorf(m.Name, "no HTTP method")
	}
	if len(m.Variants) == 0 {
		return configErrorf(m.Name, "no path variants")
	}
	if m.Auth.Scheme > AuthServerSignature {
		return configErrorf(m.Name, "unknown auth scheme %s", m.Auth.Scheme)
	}

	hasStable := false
	for index, variant := range m.Variants {
		if variant.Template.IsZero() {
			return configErrorf(m.Name, "variant %d has no path template", index)
		}
		if variant.Stability == Stable {
			hasStable = true
		}
		if index == 0 {
			continue
		}
		previous := m.Variants[index-1]
		switch order := previous.Version.Compare(variant.Version); {
		case order < 0:
			return configErrorf(m.Name, "variants not ordered newest-first: %s before %s", previous, variant)
		case order == 0 && previous.Stability == variant.Stability:
			return configErrorf(m.Name, "two %s variants for version %s", variant.Stability, variant.Version)
		case order == 0 && previous.Stability == Unstable:
			return configErrorf(m.Name, "unstable variant listed before stable variant at %s", variant.Version)
		}
	}
	if !hasStable && !m.Experimental {
		return configErrorf(m.Name, "no stable variant and not marked experimental")
	}

	for i := range m.Variants {
		for j := i + 1; j < len(m.Variants); j++ {
			left, right := m.Variants[i].Template, m.Variants[j].Template
			if !pathtemplate.Overlaps(left, right) {
				continue
			}
			if !samePlaceholders(left, right) {
				return configErrorf(m.Name, "variant paths %s and %s overlap with different placeholders", left, right)
			}
		}
	}
	return nil
}

func samePlaceholders(a, b pathtemplate.Template) bool {
	left, right := a.Placeholders(), b.Placeholders()
	slices.Sort(left)
	slices.Sort(right)
	return slices.Equal(left, right)
}

// clone returns a copy whose slices and maps are not shared with m.
func (m Metadata) clone() Metadata {
	m.Variants = slices.Clone(m.Variants)
	m.ErrorStatus = maps.Clone(m.ErrorStatus)
	return m
}
