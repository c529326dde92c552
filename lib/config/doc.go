// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of the matrix-wire client
// and server embeddings.
//
// Configuration comes from a single file named by either the
// MATRIXWIRE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no fallback file.
//
// A file may carry development, staging and production sections that
// override base values when [Config].Environment matches.
//
// String values that name endpoints or addresses are expanded after
// loading: ${VAR} and ${VAR:-default} read the process environment.
// The access token itself never appears in the file; the file names the
// environment variable that holds it.
//
// This package depends on no other matrixwire packages.
package config
