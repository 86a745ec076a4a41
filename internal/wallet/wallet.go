// Package wallet tracks per-client token balances. The game layer only
// applies deltas (stakes, payouts, bonus credits); balance reads serve the
// HTTP surface.
package wallet

import (
	"context"

	"github.com/google/uuid"
)

// Store is the balance backend. Two implementations exist: a Postgres-backed
// store for deployments and an in-memory store for tests and local runs
// without a database.
type Store interface {
	ApplyDelta(ctx context.Context, clientID uuid.UUID, delta int64) error
	Balance(ctx context.Context, clientID uuid.UUID) (int64, error)
}
