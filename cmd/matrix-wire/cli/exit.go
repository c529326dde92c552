// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError requests a non-zero exit status without an extra error
// line; the command has already written its own output. "decode" uses
// it to report an error envelope it has printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode is checked by main to tell a handled exit from an error to
// display.
func (e *ExitError) ExitCode() int {
	return e.Code
}
