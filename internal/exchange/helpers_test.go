package exchange_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"bookswap/internal/catalog"
	"bookswap/internal/exchange"
	"bookswap/internal/memstore"
	"bookswap/internal/ownership"
	"bookswap/internal/testutil"

	"github.com/stretchr/testify/require"
)

const (
	alice = testutil.Alice
	bob   = testutil.Bob
	carol = testutil.Carol
	dave  = "user-dave"

	bookA = testutil.BookA
	bookB = testutil.BookB
	bookC = testutil.BookC
	// bookD is a second book held by alice.
	bookD = "444"
	// bookE is in the catalog but nobody holds it.
	bookE = "555"
)

func newStore(t *testing.T) *memstore.Store {
	t.Helper()
	books := append(slices.Clone(testutil.TestBooks),
		catalog.Book{ISBN: bookD, Title: "Solaris"},
		catalog.Book{ISBN: bookE, Title: "Ubik"},
	)
	holdings := testutil.TestHoldings()
	holdings[bookD] = alice

	s := memstore.New()
	require.NoError(t, s.Seed(memstore.SeedData{Books: books, Holdings: holdings}))
	return s
}

type fixture struct {
	store       *memstore.Store
	service     *exchange.Service
	coordinator *exchange.Coordinator
	observer    *recordingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newStore(t)
	obs := &recordingObserver{}
	return &fixture{
		store:       store,
		service:     exchange.NewService(store, store, store),
		coordinator: exchange.NewCoordinator(store, obs),
		observer:    obs,
	}
}

func (f *fixture) create(t *testing.T, initiator, offered, requested string) exchange.Exchange {
	t.Helper()
	e, err := f.service.Create(context.Background(), initiator, offered, requested)
	require.NoError(t, err)
	return e
}

func (f *fixture) holder(t *testing.T, isbn string) string {
	t.Helper()
	h, err := f.store.HolderOf(context.Background(), isbn)
	require.NoError(t, err)
	return h
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveAction(action, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, action+":"+outcome)
}

var errInjected = errors.New("injected storage failure")

// faultyUoW fails every Transfer after the first failAfter in a unit.
type faultyUoW struct {
	inner     exchange.UnitOfWork
	failAfter int
}

func (u *faultyUoW) Run(ctx context.Context, fn func(ctx context.Context, tx exchange.Tx) error) error {
	return u.inner.Run(ctx, func(ctx context.Context, tx exchange.Tx) error {
		return fn(ctx, &faultyTx{Tx: tx, failAfter: u.failAfter})
	})
}

type faultyTx struct {
	exchange.Tx
	failAfter int
	transfers int
}

func (t *faultyTx) Ledger() ownership.Ledger {
	return &faultyLedger{Ledger: t.Tx.Ledger(), tx: t}
}

type faultyLedger struct {
	ownership.Ledger
	tx *faultyTx
}

func (l *faultyLedger) Transfer(ctx context.Context, isbn, from, to string) error {
	l.tx.transfers++
	if l.tx.transfers > l.tx.failAfter {
		return errInjected
	}
	return l.Ledger.Transfer(ctx, isbn, from, to)
}

// racedUoW makes every conditional status write lose, as if another
// transaction had settled the exchange first.
type racedUoW struct {
	inner exchange.UnitOfWork
}

func (u *racedUoW) Run(ctx context.Context, fn func(ctx context.Context, tx exchange.Tx) error) error {
	return u.inner.Run(ctx, func(ctx context.Context, tx exchange.Tx) error {
		return fn(ctx, &racedTx{Tx: tx})
	})
}

type racedTx struct {
	exchange.Tx
}

func (t *racedTx) Exchanges() exchange.Repository {
	return &racedRepo{Repository: t.Tx.Exchanges()}
}

type racedRepo struct {
	exchange.Repository
}

func (r *racedRepo) UpdateStatus(ctx context.Context, id string, expected exchange.Status, s exchange.Settlement) (bool, error) {
	return false, nil
}
