package exchange

import (
	"context"

	"bookswap/internal/ownership"
)

// Settlement is the terminal state written by UpdateStatus.
type Settlement struct {
	To             Status
	Resolution     Resolution
	ActedBy        string
	CounterpartyID string
}

type Repository interface {
	// Insert stores e as a new Pending exchange and fills in its ID and
	// timestamps.
	Insert(ctx context.Context, e *Exchange) error
	GetByID(ctx context.Context, id string) (Exchange, error)
	// GetForUpdate reads the stored record and, inside a transaction, locks
	// it until commit. CounterpartyID is only set if pinned.
	GetForUpdate(ctx context.Context, id string) (Exchange, error)
	ListFor(ctx context.Context, userID string, f ListFilter) ([]Exchange, int, error)
	// UpdateStatus applies s only if the stored status still equals
	// expected. It reports false, not an error, when the status moved.
	UpdateStatus(ctx context.Context, id string, expected Status, s Settlement) (bool, error)
}

// Tx is the set of stores available inside one unit of work.
type Tx interface {
	Exchanges() Repository
	Ledger() ownership.Ledger
}

// UnitOfWork runs fn atomically: either everything fn wrote through tx is
// committed, or none of it is. fn may be retried and must not have side
// effects outside tx.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// ActionObserver is told about every accept, refuse and cancel attempt.
type ActionObserver interface {
	ObserveAction(action, outcome string)
}
