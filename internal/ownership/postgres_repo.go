package ownership

import (
	"context"
	"time"

	"bookswap/internal/catalog"
	"bookswap/internal/platform/pgtx"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresRepo bounds each statement by timeout. A zero timeout leaves
// deadlines to the caller.
func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID string) ([]Holding, error) {
	const query = `
		SELECT h.isbn, b.title, h.user_id, h.acquired_at
		FROM book_holdings h
		JOIN books b ON b.isbn = h.isbn
		WHERE h.user_id = $1
		ORDER BY h.acquired_at DESC, h.isbn ASC
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Holding{}
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.ISBN, &h.Title, &h.UserID, &h.AcquiredAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Add(ctx context.Context, userID, isbn string) (Holding, error) {
	const insertSQL = `
		INSERT INTO book_holdings (isbn, user_id)
		VALUES ($1, $2)
		RETURNING acquired_at, (SELECT title FROM books WHERE isbn = $1)
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	h := Holding{ISBN: isbn, UserID: userID}
	err := r.db.QueryRow(timeoutCtx, insertSQL, isbn, userID).Scan(&h.AcquiredAt, &h.Title)
	switch {
	case pgtx.IsUniqueViolation(err):
		return Holding{}, ErrAlreadyHeld
	case pgtx.IsForeignKeyViolation(err):
		return Holding{}, catalog.ErrBookNotFound
	case err != nil:
		return Holding{}, err
	}
	return h, nil
}

func (r *PostgresRepo) Remove(ctx context.Context, userID, isbn string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM book_holdings WHERE isbn = $1 AND user_id = $2`, isbn, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotInCollection
	}
	return nil
}
