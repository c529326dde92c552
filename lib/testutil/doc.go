// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern for tests that wait on goroutines, such as a listener
// becoming ready or shutting down, so a hung goroutine fails the test
// instead of stalling the run.
package testutil
