// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomID is a server-assigned room ID such as "!n8f893n9:example.org".
type RoomID struct {
	id string
}

// ParseRoomID validates raw as a room ID.
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := splitIdentifier(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is like ParseRoomID but panics on error.
func MustParseRoomID(raw string) RoomID {
	id, err := ParseRoomID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomID(%q): %v", raw, err))
	}
	return id
}

func (r RoomID) String() string { return r.id }

// IsZero reports whether r is the zero value.
func (r RoomID) IsZero() bool { return r.id == "" }

func (r RoomID) MarshalText() ([]byte, error) { return []byte(r.id), nil }

func (r *RoomID) UnmarshalText(data []byte) error {
	parsed, err := ParseRoomID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RoomAlias is a human-readable room alias such as
// "#bureau/pipeline:example.org". Aliases may contain '/', which is why
// path rendering percent-encodes every placeholder.
type RoomAlias struct {
	alias string
}

// ParseRoomAlias validates raw as a room alias.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	if _, _, err := splitIdentifier(raw, '#', "room alias"); err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias is like ParseRoomAlias but panics on error.
func MustParseRoomAlias(raw string) RoomAlias {
	alias, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomAlias(%q): %v", raw, err))
	}
	return alias
}

func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether a is the zero value.
func (a RoomAlias) IsZero() bool { return a.alias == "" }

// Localpart returns the alias name between '#' and the first ':'.
func (a RoomAlias) Localpart() string {
	localpart, _, _ := splitIdentifier(a.alias, '#', "room alias")
	return localpart
}

func (a RoomAlias) MarshalText() ([]byte, error) { return []byte(a.alias), nil }

func (a *RoomAlias) UnmarshalText(data []byte) error {
	parsed, err := ParseRoomAlias(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// RoomIDOrAlias holds either a room ID or a room alias, for endpoints
// such as join that accept both. The variant is decided by the sigil.
type RoomIDOrAlias struct {
	value string
}

// ParseRoomIDOrAlias validates raw as a room ID ('!') or room alias
// ('#').
func ParseRoomIDOrAlias(raw string) (RoomIDOrAlias, error) {
	if raw == "" {
		return RoomIDOrAlias{}, fmt.Errorf("empty room ID or alias")
	}
	switch raw[0] {
	case '!':
		if _, err := ParseRoomID(raw); err != nil {
			return RoomIDOrAlias{}, err
		}
	case '#':
		if _, err := ParseRoomAlias(raw); err != nil {
			return RoomIDOrAlias{}, err
		}
	default:
		return RoomIDOrAlias{}, fmt.Errorf("room ID or alias must start with '!' or '#': %q", raw)
	}
	return RoomIDOrAlias{value: raw}, nil
}

// MustParseRoomIDOrAlias is like ParseRoomIDOrAlias but panics on error.
func MustParseRoomIDOrAlias(raw string) RoomIDOrAlias {
	value, err := ParseRoomIDOrAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomIDOrAlias(%q): %v", raw, err))
	}
	return value
}

// FromRoomID converts a room ID.
func FromRoomID(id RoomID) RoomIDOrAlias { return RoomIDOrAlias{value: id.id} }

// FromRoomAlias converts a room alias.
func FromRoomAlias(alias RoomAlias) RoomIDOrAlias { return RoomIDOrAlias{value: alias.alias} }

func (r RoomIDOrAlias) String() string { return r.value }

// IsZero reports whether r is the zero value.
func (r RoomIDOrAlias) IsZero() bool { return r.value == "" }

// IsRoomID reports whether r holds a room ID.
func (r RoomIDOrAlias) IsRoomID() bool { return r.value != "" && r.value[0] == '!' }

// IsRoomAlias reports whether r holds a room alias.
func (r RoomIDOrAlias) IsRoomAlias() bool { return r.value != "" && r.value[0] == '#' }

// RoomID returns the held room ID, or false when r holds an alias.
func (r RoomIDOrAlias) RoomID() (RoomID, bool) {
	if !r.IsRoomID() {
		return RoomID{}, false
	}
	return RoomID{id: r.value}, true
}

// RoomAlias returns the held alias, or false when r holds a room ID.
func (r RoomIDOrAlias) RoomAlias() (RoomAlias, bool) {
	if !r.IsRoomAlias() {
		return RoomAlias{}, false
	}
	return RoomAlias{alias: r.value}, true
}

// Server returns the server name of either form.
func (r RoomIDOrAlias) Server() ServerName {
	if r.value == "" {
		return ServerName{}
	}
	_, server, _ := splitIdentifier(r.value, r.value[0], "room ID or alias")
	return server
}

func (r RoomIDOrAlias) MarshalText() ([]byte, error) { return []byte(r.value), nil }

func (r *RoomIDOrAlias) UnmarshalText(data []byte) error {
	parsed, err := ParseRoomIDOrAlias(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
