// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// Marshal serializes v. It never fails: every Value has exactly one
// encoding. Object members are written in insertion order, Raw spans
// are written unchanged, and no insignificant whitespace is added.
func Marshal(v Value) []byte {
	return AppendMarshal(nil, v)
}

// AppendMarshal appends the serialization of v to buffer.
func AppendMarshal(buffer []byte, v Value) []byte {
	switch v.kind {
	case KindNull:
		return append(buffer, "null"...)
	case KindBool:
		if v.boolean {
			return append(buffer, "true"...)
		}
		return append(buffer, "false"...)
	case KindNumber:
		return append(buffer, v.text...)
	case KindString:
		return appendQuoted(buffer, v.text)
	case KindArray:
		buffer = append(buffer, '[')
		for i, element := range v.array {
			if i > 0 {
				buffer = append(buffer, ',')
			}
			buffer = AppendMarshal(buffer, element)
		}
		return append(buffer, ']')
	case KindObject:
		buffer = append(buffer, '{')
		for i, member := range v.object.members {
			if i > 0 {
				buffer = append(buffer, ',')
			}
			buffer = appendQuoted(buffer, member.Key)
			buffer = append(buffer, ':')
			buffer = AppendMarshal(buffer, member.Value)
		}
		return append(buffer, '}')
	case KindRaw:
		if len(v.raw) == 0 {
			return append(buffer, "null"...)
		}
		return append(buffer, v.raw...)
	}
	return append(buffer, "null"...)
}

// appendQuoted writes s as a JSON string. Control characters are escaped,
// invalid UTF-8 is replaced with U+FFFD, and HTML characters are left
// alone.
func appendQuoted(buffer []byte, s string) []byte {
	buffer = append(buffer, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}
			buffer = append(buffer, s[start:i]...)
			switch c {
			case '"', '\\':
				buffer = append(buffer, '\\', c)
			case '\n':
				buffer = append(buffer, '\\', 'n')
			case '\r':
				buffer = append(buffer, '\\', 'r')
			case '\t':
				buffer = append(buffer, '\\', 't')
			case '\b':
				buffer = append(buffer, '\\', 'b')
			case '\f':
				buffer = append(buffer, '\\', 'f')
			default:
				buffer = append(buffer, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buffer = append(buffer, s[start:i]...)
			buffer = append(buffer, `�`...)
			i += size
			start = i
			continue
		}
		i += size
	}
	buffer = append(buffer, s[start:]...)
	return append(buffer, '"')
}
