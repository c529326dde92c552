// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// ErrTrailingData is returned by [Unmarshal] when data holds more than
// one envelope.
var ErrTrailingData = errors.New("codec: trailing data after CBOR item")

var (
	envelopeEncoder cbor.EncMode
	envelopeDecoder cbor.DecMode
)

func init() {
	encoding := cbor.CoreDetEncOptions()
	// ref.RoomID, ref.UserID and friends hold unexported state and
	// would otherwise encode as empty maps.
	encoding.TextMarshaler = cbor.TextMarshalerTextString
	encoder, err := encoding.EncMode()
	if err != nil {
		panic("codec: building CBOR encoder: " + err.Error())
	}

	decoder, err := cbor.DecOptions{
		// Header and query maps are string-keyed; any-typed targets get a
		// map type encoding/json also accepts.
		DefaultMapType:    reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler:   cbor.TextUnmarshalerTextString,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
		// Bodies are byte strings; a recorded envelope never nests deeply.
		MaxNestedLevels: 16,
	}.DecMode()
	if err != nil {
		panic("codec: building CBOR decoder: " + err.Error())
	}

	envelopeEncoder, envelopeDecoder = encoder, decoder
}

// Marshal encodes an envelope with Core Deterministic Encoding.
func Marshal(envelope any) ([]byte, error) {
	data, err := envelopeEncoder.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("codec: encoding %T: %w", envelope, err)
	}
	return data, nil
}

// Unmarshal decodes exactly one envelope from data into target.
func Unmarshal(data []byte, target any) error {
	rest, err := envelopeDecoder.UnmarshalFirst(data, target)
	if err != nil {
		return fmt.Errorf("codec: decoding %T: %w", target, err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w (%d bytes)", ErrTrailingData, len(rest))
	}
	return nil
}

// Diagnose renders data in CBOR diagnostic notation (RFC 8949 §8).
// Byte strings such as message bodies print as h'...'.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
