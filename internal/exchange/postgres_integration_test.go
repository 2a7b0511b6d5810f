package exchange_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/exchange"
	"bookswap/internal/ownership"
	"bookswap/internal/platform/apperr"
	"bookswap/internal/platform/pgtx"
	"bookswap/internal/testutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DB_DSN, migrates it and empties every table.
// The test is skipped when no database is configured.
func openTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		t.Skipf("database unreachable: %v", err)
	}

	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok)
	dir := filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	require.NoError(t, goose.SetDialect("postgres"))
	require.NoError(t, goose.Up(db, dir))

	_, err = pool.Exec(ctx, `TRUNCATE exchanges, book_holdings, books CASCADE`)
	require.NoError(t, err)

	for _, b := range testutil.TestBooks {
		_, err := pool.Exec(ctx, `INSERT INTO books (isbn, title, author) VALUES ($1, $2, $3)`, b.ISBN, b.Title, b.Author)
		require.NoError(t, err)
	}
	for isbn, userID := range testutil.TestHoldings() {
		_, err := pool.Exec(ctx, `INSERT INTO book_holdings (isbn, user_id) VALUES ($1, $2)`, isbn, userID)
		require.NoError(t, err)
	}
	return pool
}

type pgFixture struct {
	service     *exchange.Service
	coordinator *exchange.Coordinator
	ledger      *ownership.PostgresLedger
	collection  *ownership.PostgresRepo
}

func newPGFixture(t *testing.T) *pgFixture {
	pool := openTestDB(t)
	uow := exchange.NewPostgresUnitOfWork(pgtx.NewRunner(pool, pgtx.WithMaxRetries(5)))
	books := catalog.NewService(catalog.NewPostgresRepo(pool, time.Second))
	return &pgFixture{
		service:     exchange.NewService(uow, exchange.NewPostgresRepo(pool, time.Second), books),
		coordinator: exchange.NewCoordinator(uow, nil),
		ledger:      ownership.NewPostgresLedger(pool),
		collection:  ownership.NewPostgresRepo(pool, 0),
	}
}

func TestPostgres_AcceptSwapsBooks(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	e, err := f.service.Create(ctx, alice, bookA, bookB)
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusPending, e.Status)
	assert.Equal(t, bob, e.CounterpartyID)

	got, err := f.coordinator.Accept(ctx, e.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, exchange.StatusConfirmed, got.Status)
	assert.Equal(t, exchange.ResolutionAccepted, got.Resolution)

	holders, err := f.ledger.HoldersOf(ctx, bookA, bookB)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{bookA: bob, bookB: alice}, holders)

	_, err = f.coordinator.Refuse(ctx, e.ID, bob)
	assert.True(t, apperr.IsCode(err, apperr.CodeExchangeNotPending), "got %v", err)
}

func TestPostgres_ListForRoles(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, alice, bookA, bookB)
	require.NoError(t, err)
	_, err = f.service.Create(ctx, carol, bookC, bookA)
	require.NoError(t, err)

	all, total, err := f.service.List(ctx, alice, exchange.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)

	incoming, total, err := f.service.List(ctx, alice, exchange.ListFilter{Role: exchange.RoleCounterparty})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, incoming, 1)
	assert.Equal(t, carol, incoming[0].InitiatorID)
}

func TestPostgres_ConcurrentAcceptsSettleOnce(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	toBob, err := f.service.Create(ctx, alice, bookA, bookB)
	require.NoError(t, err)
	toCarol, err := f.service.Create(ctx, alice, bookA, bookC)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, tc := range []struct{ id, actor string }{{toBob.ID, bob}, {toCarol.ID, carol}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.coordinator.Accept(ctx, tc.id, tc.actor)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.IsCode(err, apperr.CodeOfferedBookUnavailable), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	holders, err := f.ledger.HoldersOf(ctx, bookA, bookB, bookC)
	require.NoError(t, err)
	assert.Len(t, holders, 3)
	assert.NotEqual(t, alice, holders[bookA])
}

func TestPostgres_SettledCounterpartyStaysPinned(t *testing.T) {
	f := newPGFixture(t)
	ctx := context.Background()

	e, err := f.service.Create(ctx, alice, bookA, bookB)
	require.NoError(t, err)

	require.NoError(t, f.collection.Remove(ctx, bob, bookB))
	_, err = f.coordinator.Cancel(ctx, e.ID, alice)
	require.NoError(t, err)
	_, err = f.collection.Add(ctx, carol, bookB)
	require.NoError(t, err)

	_, err = f.service.Get(ctx, carol, e.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeExchangeNotFound), "got %v", err)

	_, total, err := f.service.List(ctx, carol, exchange.ListFilter{Role: exchange.RoleCounterparty})
	require.NoError(t, err)
	assert.Zero(t, total)
}
