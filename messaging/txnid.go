// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/google/uuid"

	"github.com/bureau-foundation/matrixwire/lib/ref"
)

// NewTransactionID returns a fresh idempotency key for endpoints with a
// {txnId} path parameter. Reusing an ID makes the server return the
// result of the first request instead of acting again, so retries of
// one logical send must reuse the same value.
func NewTransactionID() ref.TransactionID {
	return ref.TransactionID(uuid.NewString())
}
