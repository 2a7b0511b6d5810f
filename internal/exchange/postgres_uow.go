package exchange

import (
	"context"

	"bookswap/internal/ownership"
	"bookswap/internal/platform/pgtx"

	"github.com/jackc/pgx/v5"
)

// PostgresUnitOfWork runs each unit in one database transaction. Ledger reads
// inside the unit lock the holdings they return.
type PostgresUnitOfWork struct {
	runner *pgtx.Runner
}

func NewPostgresUnitOfWork(runner *pgtx.Runner) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{runner: runner}
}

func (u *PostgresUnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return u.runner.InTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &pgTx{
			exchanges: NewPostgresRepo(tx, 0),
			ledger:    ownership.NewPostgresLedger(tx).Locking(),
		})
	})
}

type pgTx struct {
	exchanges *PostgresRepo
	ledger    *ownership.PostgresLedger
}

func (t *pgTx) Exchanges() Repository     { return t.exchanges }
func (t *pgTx) Ledger() ownership.Ledger { return t.ledger }
