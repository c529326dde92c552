// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// Version is a Matrix specification version. Two spellings exist on the
// wire: the legacy "r0.x.y" releases and the "vX.Y" releases that
// replaced them. r0 releases order before every v release.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Well-known versions used by the endpoint catalogues.
var (
	VersionR0_0_0 = Version{}
	VersionR0_6_1 = Version{Major: 0, Minor: 6, Patch: 1}
	VersionV1_1   = Version{Major: 1, Minor: 1}
	VersionV1_2   = Version{Major: 1, Minor: 2}
	VersionV1_11  = Version{Major: 1, Minor: 11}
)

// ParseVersion parses "r0.6.1" or "v1.11".
func ParseVersion(raw string) (Version, error) {
	switch {
	case strings.HasPrefix(raw, "r0."):
		parts := strings.Split(raw[len("r0."):], ".")
		if len(parts) != 2 {
			return Version{}, fmt.Errorf("api: version %q: want r0.MINOR.PATCH", raw)
		}
		minor, err := parseVersionNumber(raw, parts[0])
		if err != nil {
			return Version{}, err
		}
		patch, err := parseVersionNumber(raw, parts[1])
		if err != nil {
			return Version{}, err
		}
		return Version{Major: 0, Minor: minor, Patch: patch}, nil
	case strings.HasPrefix(raw, "v"):
		major, minorText, ok := strings.Cut(raw[1:], ".")
		if !ok {
			return Version{}, fmt.Errorf("api: version %q: want vMAJOR.MINOR", raw)
		}
		majorNumber, err := parseVersionNumber(raw, major)
		if err != nil {
			return Version{}, err
		}
		if majorNumber == 0 {
			return Version{}, fmt.Errorf("api: version %q: v releases start at v1", raw)
		}
		minor, err := parseVersionNumber(raw, minorText)
		if err != nil {
			return Version{}, err
		}
		return Version{Major: majorNumber, Minor: minor}, nil
	}
	return Version{}, fmt.Errorf("api: unrecognized version %q", raw)
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(raw string) Version {
	version, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return version
}

func parseVersionNumber(raw, part string) (int, error) {
	if part == "" || (len(part) > 1 && part[0] == '0') {
		return 0, fmt.Errorf("api: version %q: invalid component %q", raw, part)
	}
	number, err := strconv.Atoi(part)
	if err != nil || number < 0 {
		return 0, fmt.Errorf("api: version %q: invalid component %q", raw, part)
	}
	return number, nil
}

// String returns the wire spelling.
func (v Version) String() string {
	if v.Major == 0 {
		return fmt.Sprintf("r0.%d.%d", v.Minor, v.Patch)
	}
	return fmt.Sprintf("v%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or +1 as v is older than, equal to, or newer
// than other.
func (v Version) Compare(other Version) int {
	switch {
	case v.Major != other.Major:
		return cmp.Compare(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmp.Compare(v.Minor, other.Minor)
	default:
		return cmp.Compare(v.Patch, other.Patch)
	}
}

func (v Version) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Version) UnmarshalText(data []byte) error {
	parsed, err := ParseVersion(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
