// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object is a JSON object that keeps its members in insertion order.
// The zero Object is empty and ready to use. Keys are unique: setting an
// existing key replaces its value in place without moving it.
//
// Lookups are linear. Matrix bodies have tens of keys at most, and
// the ordering guarantee matters more than lookup cost.
type Object struct {
	members []Member
}

// NewObject returns an object holding members in order. Later duplicates
// of a key replace the earlier value.
func NewObject(members ...Member) Object {
	var object Object
	for _, member := range members {
		object.Set(member.Key, member.Value)
	}
	return object
}

// Len returns the number of members.
func (o Object) Len() int { return len(o.members) }

// Members returns the members in order. The returned slice is a copy.
func (o Object) Members() []Member {
	if len(o.members) == 0 {
		return nil
	}
	copied := make([]Member, len(o.members))
	copy(copied, o.members)
	return copied
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o.members))
	for i, member := range o.members {
		keys[i] = member.Key
	}
	return keys
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, member := range o.members {
		if member.Key == key {
			return member.Value, true
		}
	}
	return Value{}, false
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. A new key is appended at the end.
func (o *Object) Set(key string, value Value) {
	for i := range o.members {
		if o.members[i].Key == key {
			o.members[i].Value = value
			return
		}
	}
	o.members = append(o.members, Member{Key: key, Value: value})
}

// Delete removes key, keeping the order of the remaining members.
func (o *Object) Delete(key string) {
	for i := range o.members {
		if o.members[i].Key == key {
			o.members = append(o.members[:i:i], o.members[i+1:]...)
			return
		}
	}
}

// Clone returns a copy of o whose member slice is independent. Values
// themselves are shared.
func (o Object) Clone() Object {
	return Object{members: o.Members()}
}

// Equal reports whether o and other hold the same keys in the same order
// with equal values. A nil and an empty object are equal.
func (o Object) Equal(other Object) bool {
	if len(o.members) != len(other.members) {
		return false
	}
	for i := range o.members {
		if o.members[i].Key != other.members[i].Key {
			return false
		}
		if !o.members[i].Value.Equal(other.members[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) {
	return Marshal(ObjectValue(o)), nil
}

// UnmarshalJSON implements json.Unmarshaler. The input must be a JSON
// object.
func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	object, ok := parsed.AsObject()
	if !ok {
		return fmt.Errorf("%w: expected object, got %s", ErrMalformed, parsed.Kind())
	}
	*o = object
	return nil
}

// String returns the serialized form of o.
func (o Object) String() string {
	return string(Marshal(ObjectValue(o)))
}
