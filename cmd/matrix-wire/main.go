// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// matrix-wire inspects and exercises the Matrix endpoint catalogue: it
// lists endpoint descriptors, encodes and decodes wire messages offline,
// negotiates path variants against a /versions answer, calls a live
// homeserver and serves canned fixtures for tests.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own result return an exit code
		// instead of an error to display.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root(streams{in: os.Stdin, out: os.Stdout}).Execute(ctx, os.Args[1:])
}
