// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
)

// maxInputBytes bounds what ReadInput accepts from a file or stdin.
const maxInputBytes = 64 << 20

// ReadInput returns the contents of path, or of stdin when path is ""
// or "-".
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	source, name := stdin, "stdin"
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		source, name = file, path
	}
	data, err := io.ReadAll(io.LimitReader(source, maxInputBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	if len(data) > maxInputBytes {
		return nil, fmt.Errorf("reading %s: input exceeds %d bytes", name, maxInputBytes)
	}
	return data, nil
}
