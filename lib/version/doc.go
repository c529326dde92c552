// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for matrix-wire binaries.
//
// Version information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/bureau-foundation/matrixwire/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Builds without -ldflags fall back to the VCS stamp the Go toolchain
// embeds in the binary.
package version
