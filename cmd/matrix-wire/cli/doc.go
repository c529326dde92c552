// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind matrix-wire: a tree
// of [Command] values with pflag-based flags bound from tagged parameter
// structs, typo suggestions, --json output and a terminal-aware logger.
package cli
