// Package ownership records which user currently holds which book.
//
// A book has at most one holder. Holdings enter and leave a collection
// through the collection endpoints; the only other writer is the exchange
// coordinator, which re-points holdings with Transfer inside its own
// transaction.
package ownership

import (
	"context"
	"errors"
	"time"

	"bookswap/internal/platform/apperr"
)

// ErrStaleHolder is returned by Transfer when the book is no longer held by
// the expected user.
var ErrStaleHolder = errors.New("ownership: holder changed")

var (
	ErrAlreadyHeld     = apperr.Conflict(apperr.CodeAlreadyHeld, "book is already held by a member")
	ErrNotInCollection = apperr.NotFound(apperr.CodeNotInCollection, "book is not in your collection")
)

type Holding struct {
	ISBN       string    `json:"isbn"`
	Title      string    `json:"title,omitempty"`
	UserID     string    `json:"-"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Ledger is the read/transfer view of holdings used by exchanges. Inside a
// transaction, reads lock the rows they return until commit.
type Ledger interface {
	// HolderOf returns the current holder of isbn, or "" if nobody holds it.
	HolderOf(ctx context.Context, isbn string) (string, error)
	// HoldersOf returns the holders of the given books keyed by ISBN. Books
	// nobody holds are absent from the map.
	HoldersOf(ctx context.Context, isbns ...string) (map[string]string, error)
	Holds(ctx context.Context, userID, isbn string) (bool, error)
	// Transfer re-points isbn from one user to another, or fails with
	// ErrStaleHolder if from no longer holds it.
	Transfer(ctx context.Context, isbn, from, to string) error
}

type CollectionRepository interface {
	ListByUser(ctx context.Context, userID string) ([]Holding, error)
	Add(ctx context.Context, userID, isbn string) (Holding, error)
	Remove(ctx context.Context, userID, isbn string) error
}
