// Package memstore keeps books, holdings and exchanges in process memory.
//
// Units of work are serialized: Run takes the store lock, hands fn a copy of
// the data, and swaps the copy in only if fn succeeds. Reads outside Run see
// the last committed state.
package memstore

import (
	"context"
	"sync"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/exchange"
	"bookswap/internal/ownership"
)

type holding struct {
	userID     string
	acquiredAt time.Time
}

type record struct {
	ex  exchange.Exchange // CounterpartyID holds the pinned value only
	seq int64
}

type state struct {
	books     map[string]catalog.Book
	holdings  map[string]holding // by ISBN
	exchanges map[string]record  // by ID
	seq       int64
}

func newState() *state {
	return &state{
		books:     make(map[string]catalog.Book),
		holdings:  make(map[string]holding),
		exchanges: make(map[string]record),
	}
}

func (s *state) clone() *state {
	out := &state{
		books:     make(map[string]catalog.Book, len(s.books)),
		holdings:  make(map[string]holding, len(s.holdings)),
		exchanges: make(map[string]record, len(s.exchanges)),
		seq:       s.seq,
	}
	for k, v := range s.books {
		out.books[k] = v
	}
	for k, v := range s.holdings {
		out.holdings[k] = v
	}
	for k, v := range s.exchanges {
		out.exchanges[k] = v
	}
	return out
}

type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{state: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) view() *view {
	return &view{st: s.state, now: s.now}
}

// Run implements exchange.UnitOfWork.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, tx exchange.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := &view{st: s.state.clone(), now: s.now}
	if err := fn(ctx, work); err != nil {
		return err
	}
	// A caller that gave up must not see its unit applied.
	if err := ctx.Err(); err != nil {
		return err
	}
	s.state = work.st
	return nil
}

// Ping reports the store as always ready.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// exchange.Repository

func (s *Store) Insert(ctx context.Context, e *exchange.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Insert(ctx, e)
}

func (s *Store) GetByID(ctx context.Context, id string) (exchange.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetByID(ctx, id)
}

func (s *Store) GetForUpdate(ctx context.Context, id string) (exchange.Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetForUpdate(ctx, id)
}

func (s *Store) ListFor(ctx context.Context, userID string, f exchange.ListFilter) ([]exchange.Exchange, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListFor(ctx, userID, f)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, expected exchange.Status, st exchange.Settlement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().UpdateStatus(ctx, id, expected, st)
}

// ownership.Ledger

func (s *Store) HolderOf(ctx context.Context, isbn string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().HolderOf(ctx, isbn)
}

func (s *Store) HoldersOf(ctx context.Context, isbns ...string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().HoldersOf(ctx, isbns...)
}

func (s *Store) Holds(ctx context.Context, userID, isbn string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().Holds(ctx, userID, isbn)
}

func (s *Store) Transfer(ctx context.Context, isbn, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Transfer(ctx, isbn, from, to)
}

// ownership.CollectionRepository

func (s *Store) ListByUser(ctx context.Context, userID string) ([]ownership.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().ListByUser(ctx, userID)
}

func (s *Store) Add(ctx context.Context, userID, isbn string) (ownership.Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Add(ctx, userID, isbn)
}

func (s *Store) Remove(ctx context.Context, userID, isbn string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().Remove(ctx, userID, isbn)
}

// catalog.Repository

func (s *Store) GetByISBN(ctx context.Context, isbn string) (catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().GetByISBN(ctx, isbn)
}

func (s *Store) Exists(ctx context.Context, isbn string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view().Exists(ctx, isbn)
}

var (
	_ exchange.UnitOfWork            = (*Store)(nil)
	_ exchange.Repository            = (*Store)(nil)
	_ ownership.Ledger               = (*Store)(nil)
	_ ownership.CollectionRepository = (*Store)(nil)
	_ catalog.Repository             = (*Store)(nil)
)
