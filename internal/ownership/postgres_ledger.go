package ownership

import (
	"context"
	"errors"
	"slices"

	"bookswap/internal/platform/pgtx"

	"github.com/jackc/pgx/v5"
)

// PostgresLedger reads and re-points rows of book_holdings. It runs on a pool
// or on a transaction; use Locking inside a transaction to hold row locks on
// everything it reads.
type PostgresLedger struct {
	db   pgtx.DBTX
	lock bool
}

func NewPostgresLedger(db pgtx.DBTX) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Locking returns a ledger whose reads take FOR UPDATE row locks.
func (l *PostgresLedger) Locking() *PostgresLedger {
	return &PostgresLedger{db: l.db, lock: true}
}

func (l *PostgresLedger) suffix() string {
	if l.lock {
		return " FOR UPDATE"
	}
	return ""
}

func (l *PostgresLedger) HolderOf(ctx context.Context, isbn string) (string, error) {
	var userID string
	err := l.db.QueryRow(ctx, `SELECT user_id FROM book_holdings WHERE isbn = $1`+l.suffix(), isbn).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return userID, err
}

// HoldersOf locks rows in ISBN order so two transactions touching the same
// pair of books always queue instead of deadlocking.
func (l *PostgresLedger) HoldersOf(ctx context.Context, isbns ...string) (map[string]string, error) {
	keys := slices.Clone(isbns)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	rows, err := l.db.Query(ctx, `
		SELECT isbn, user_id
		FROM book_holdings
		WHERE isbn = ANY($1)
		ORDER BY isbn`+l.suffix(), keys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string, len(keys))
	for rows.Next() {
		var isbn, userID string
		if err := rows.Scan(&isbn, &userID); err != nil {
			return nil, err
		}
		out[isbn] = userID
	}
	return out, rows.Err()
}

func (l *PostgresLedger) Holds(ctx context.Context, userID, isbn string) (bool, error) {
	holder, err := l.HolderOf(ctx, isbn)
	if err != nil {
		return false, err
	}
	return holder != "" && holder == userID, nil
}

func (l *PostgresLedger) Transfer(ctx context.Context, isbn, from, to string) error {
	const updateSQL = `
		UPDATE book_holdings
		SET user_id = $3, acquired_at = clock_timestamp(), updated_at = clock_timestamp()
		WHERE isbn = $1 AND user_id = $2
	`
	tag, err := l.db.Exec(ctx, updateSQL, isbn, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrStaleHolder
	}
	return nil
}
