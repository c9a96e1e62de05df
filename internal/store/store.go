// Package store defines the persistence contract shared by every state backend.
package store

import (
	"context"

	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

// StateRepository loads and saves the complete state of one user. SaveState
// always receives the full mutated state; backends replace what they hold.
// Loading a user that has never been saved yields an empty state.
type StateRepository interface {
	LoadState(ctx context.Context, userID string) (*ledger.State, error)
	SaveState(ctx context.Context, userID string, state *ledger.State) error
	Close() error
}
