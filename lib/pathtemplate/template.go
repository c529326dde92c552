// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathtemplate parses, renders and matches the URL path templates
// that identify Matrix endpoints, such as
// "/_matrix/client/v3/rooms/{roomId}/state/{eventType}/{stateKey}".
//
// A template is a sequence of "/"-separated segments. Each segment is
// either a literal or a placeholder that occupies the whole segment.
// Placeholders are written {name}; the legacy :name form is accepted and
// means the same thing.
//
// Rendering percent-encodes every placeholder binding so it occupies
// exactly one segment, even when the value contains "/" (room aliases
// and state keys routinely do). Matching reverses this: each
// placeholder captures exactly one segment of the observed path and
// percent-decodes it. For every template t and bindings b covering its
// placeholders, Match(Render(b)) yields b again.
//
// Templates are immutable after Parse and safe for concurrent use.
package pathtemplate

import (
	"fmt"
	"net/url"
	"strings"
)

// Segment is one element of a template.
type Segment struct {
	// Literal is the segment text when Placeholder is empty.
	Literal string
	// Placeholder is the binding name for a placeholder segment.
	Placeholder string
}

// IsPlaceholder reports whether the segment captures a binding.
func (s Segment) IsPlaceholder() bool { return s.Placeholder != "" }

// Template is a parsed path template. The zero Template is invalid.
type Template struct {
	raw      string
	segments []Segment
}

// MissingPlaceholderError is returned by Render when a placeholder has
// no binding.
type MissingPlaceholderError struct {
	Template string
	Name     string
}

func (e *MissingPlaceholderError) Error() string {
	return fmt.Sprintf("pathtemplate: no binding for placeholder %q in %s", e.Name, e.Template)
}

// Parse validates and parses a template. The template must start with
// "/", placeholders must occupy whole segments, names must be non-empty
// and unique within the template.
func Parse(raw string) (Template, error) {
	if !strings.HasPrefix(raw, "/") {
		return Template{}, fmt.Errorf("pathtemplate: %q does not start with '/'", raw)
	}
	if strings.ContainsAny(raw, "?#") {
		return Template{}, fmt.Errorf("pathtemplate: %q contains a query or fragment", raw)
	}

	parts := strings.Split(raw[1:], "/")
	segments := make([]Segment, 0, len(parts))
	seen := make(map[string]bool)
	for index, part := range parts {
		name, isPlaceholder, err := placeholderName(part)
		if err != nil {
			return Template{}, fmt.Errorf("pathtemplate: %q segment %d: %w", raw, index, err)
		}
		if !isPlaceholder {
			segments = append(segments, Segment{Literal: part})
			continue
		}
		if seen[name] {
			return Template{}, fmt.Errorf("pathtemplate: %q declares placeholder %q twice", raw, name)
		}
		seen[name] = true
		segments = append(segments, Segment{Placeholder: name})
	}
	return Template{raw: raw, segments: segments}, nil
}

// MustParse is like Parse but panics on error. Use for package-level
// endpoint declarations, where a bad template is a programming error.
func MustParse(raw string) Template {
	template, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return template
}

func placeholderName(part string) (string, bool, error) {
	switch {
	case strings.HasPrefix(part, "{"):
		if !strings.HasSuffix(part, "}") {
			return "", false, fmt.Errorf("unterminated placeholder %q", part)
		}
		name := part[1 : len(part)-1]
		if name == "" || strings.ContainsAny(name, "{}:") {
			return "", false, fmt.Errorf("invalid placeholder name %q", part)
		}
		return name, true, nil
	case strings.HasPrefix(part, ":"):
		name := part[1:]
		if name == "" || strings.ContainsAny(name, "{}:") {
			return "", false, fmt.Errorf("invalid placeholder name %q", part)
		}
		return name, true, nil
	case strings.ContainsAny(part, "{}"):
		return "", false, fmt.Errorf("placeholder must occupy a whole segment: %q", part)
	}
	return "", false, nil
}

// String returns the template as written.
func (t Template) String() string { return t.raw }

// IsZero reports whether t was never parsed.
func (t Template) IsZero() bool { return t.raw == "" }

// Segments returns a copy of the parsed segments.
func (t Template) Segments() []Segment {
	copied := make([]Segment, len(t.segments))
	copy(copied, t.segments)
	return copied
}

// Placeholders returns the placeholder names in path order.
func (t Template) Placeholders() []string {
	var names []string
	for _, segment := range t.segments {
		if segment.IsPlaceholder() {
			names = append(names, segment.Placeholder)
		}
	}
	return names
}

// HasPlaceholder reports whether name is a placeholder of t.
func (t Template) HasPlaceholder(name string) bool {
	for _, segment := range t.segments {
		if segment.Placeholder == name {
			return true
		}
	}
	return false
}

// Render substitutes bindings into the template. Each binding is
// percent-encoded; literal segments are emitted unchanged. Bindings for
// names the template does not declare are ignored.
func (t Template) Render(bindings map[string]string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(t.raw) + 32)
	for _, segment := range t.segments {
		builder.WriteByte('/')
		if !segment.IsPlaceholder() {
			builder.WriteString(segment.Literal)
			continue
		}
		value, ok := bindings[segment.Placeholder]
		if !ok {
			return "", &MissingPlaceholderError{Template: t.raw, Name: segment.Placeholder}
		}
		builder.WriteString(EscapeSegment(value))
	}
	return builder.String(), nil
}

// Match tests an observed path against the template. On success it
// returns the percent-decoded placeholder bindings. The path must not
// include a query string. Literal comparison is case-sensitive.
func (t Template) Match(path string) (map[string]string, bool) {
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	parts := strings.Split(path[1:], "/")
	if len(parts) != len(t.segments) {
		return nil, false
	}

	bindings := make(map[string]string)
	for index, segment := range t.segments {
		part := parts[index]
		if !segment.IsPlaceholder() {
			if part != segment.Literal {
				return nil, false
			}
			continue
		}
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, false
		}
		bindings[segment.Placeholder] = decoded
	}
	return bindings, true
}

// Overlaps reports whether some concrete path could match both a and b.
// A placeholder can capture any segment, so two templates overlap when
// they have the same number of segments and every position either holds
// a placeholder in at least one template or the same literal in both.
func Overlaps(a, b Template) bool {
	if len(a.segments) != len(b.segments) {
		return false
	}
	for index := range a.segments {
		left, right := a.segments[index], b.segments[index]
		if left.IsPlaceholder() || right.IsPlaceholder() {
			continue
		}
		if left.Literal != right.Literal {
			return false
		}
	}
	return true
}

// EscapeSegment percent-encodes value for use as one path segment. Every
// byte except ASCII letters, digits and the unreserved marks "-._~" is
// encoded, so "/" and ":" and "!" never reach the path unescaped.
func EscapeSegment(value string) string {
	const upperHex = "0123456789ABCDEF"
	var builder strings.Builder
	builder.Grow(len(value) * 3)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			builder.WriteByte(c)
			continue
		}
		builder.WriteByte('%')
		builder.WriteByte(upperHex[c>>4])
		builder.WriteByte(upperHex[c&0x0f])
	}
	return builder.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
