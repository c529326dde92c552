// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
	"strings"
)

// ServerName is a homeserver name: a DNS name, IPv4 literal, or
// bracketed IPv6 literal, with an optional ":port" (for example
// "example.org", "matrix.example.org:8448", "[::1]:8008").
type ServerName struct {
	name string
}

// ParseServerName validates raw as a server name.
func ParseServerName(raw string) (ServerName, error) {
	if err := validateServerName(raw); err != nil {
		return ServerName{}, err
	}
	return ServerName{name: raw}, nil
}

// MustParseServerName is like ParseServerName but panics on error.
func MustParseServerName(raw string) ServerName {
	name, err := ParseServerName(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseServerName(%q): %v", raw, err))
	}
	return name
}

func (s ServerName) String() string { return s.name }

// IsZero reports whether s is the zero value.
func (s ServerName) IsZero() bool { return s.name == "" }

// Host returns the server name without its port.
func (s ServerName) Host() string {
	host, _ := splitHostPort(s.name)
	return host
}

// Port returns the explicit port, or 0 when none is given.
func (s ServerName) Port() int {
	_, port := splitHostPort(s.name)
	if port == "" {
		return 0
	}
	number, _ := strconv.Atoi(port)
	return number
}

func (s ServerName) MarshalText() ([]byte, error) { return []byte(s.name), nil }

func (s *ServerName) UnmarshalText(data []byte) error {
	parsed, err := ParseServerName(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// maxServerNameLength bounds server names. Matrix identifiers as a whole
// are limited to 255 bytes.
const maxServerNameLength = 255

func validateServerName(raw string) error {
	if raw == "" {
		return fmt.Errorf("empty server name")
	}
	if len(raw) > maxServerNameLength {
		return fmt.Errorf("server name longer than %d bytes", maxServerNameLength)
	}

	host, port := splitHostPort(raw)
	if port != "" || strings.HasSuffix(raw, ":") {
		if port == "" || len(port) > 5 {
			return fmt.Errorf("server name %q has an invalid port", raw)
		}
		for i := 0; i < len(port); i++ {
			if port[i] < '0' || port[i] > '9' {
				return fmt.Errorf("server name %q has an invalid port", raw)
			}
		}
	}

	if strings.HasPrefix(host, "[") {
		if !strings.HasSuffix(host, "]") || len(host) < 3 {
			return fmt.Errorf("server name %q has a malformed IPv6 literal", raw)
		}
		for _, c := range host[1 : len(host)-1] {
			if !(c == ':' || c == '.' || isHexDigit(c)) {
				return fmt.Errorf("server name %q has a malformed IPv6 literal", raw)
			}
		}
		return nil
	}

	if host == "" {
		return fmt.Errorf("server name %q has an empty host", raw)
	}
	for _, c := range host {
		if !(c == '-' || c == '.' || isAlphanumeric(c)) {
			return fmt.Errorf("server name %q contains invalid character %q", raw, c)
		}
	}
	return nil
}

// splitHostPort separates an optional trailing ":port". IPv6 literals are
// only split after their closing bracket.
func splitHostPort(raw string) (string, string) {
	if strings.HasPrefix(raw, "[") {
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			return raw, ""
		}
		rest := raw[end+1:]
		if strings.HasPrefix(rest, ":") {
			return raw[:end+1], rest[1:]
		}
		return raw, ""
	}
	colon := strings.LastIndexByte(raw, ':')
	if colon < 0 {
		return raw, ""
	}
	return raw[:colon], raw[colon+1:]
}

func isAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
