package exchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookswap/internal/platform/pgtx"

	"github.com/jackc/pgx/v5"
)

type PostgresRepo struct {
	db      pgtx.DBTX
	timeout time.Duration
}

// NewPostgresRepo runs statements on db, which may be a pool or a
// transaction. A zero timeout leaves deadlines to the caller.
func NewPostgresRepo(db pgtx.DBTX, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

const counterpartyExpr = `CASE WHEN e.status = 'PENDING' THEN h.user_id ELSE e.counterparty_id END`

// The counterparty of a pending exchange is the current holder of the
// requested book; a settled one keeps the holder pinned at settlement.
const selectExchange = `
	SELECT e.id, e.initiator_id, e.offered_isbn, e.requested_isbn,
	       COALESCE(` + counterpartyExpr + `, ''),
	       e.status, COALESCE(e.resolution, ''), COALESCE(e.acted_by, ''),
	       e.created_at, e.updated_at
	FROM exchanges e
	LEFT JOIN book_holdings h ON h.isbn = e.requested_isbn
`

func scanExchange(row pgx.Row) (Exchange, error) {
	var e Exchange
	err := row.Scan(
		&e.ID, &e.InitiatorID, &e.OfferedISBN, &e.RequestedISBN,
		&e.CounterpartyID,
		&e.Status, &e.Resolution, &e.ActedBy,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *PostgresRepo) Insert(ctx context.Context, e *Exchange) error {
	const insertSQL = `
		INSERT INTO exchanges (initiator_id, offered_isbn, requested_isbn, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	e.Status = StatusPending
	err := r.db.QueryRow(timeoutCtx, insertSQL, e.InitiatorID, e.OfferedISBN, e.RequestedISBN, e.Status).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Exchange, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	e, err := scanExchange(r.db.QueryRow(timeoutCtx, selectExchange+`WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Exchange{}, ErrNotFound
	}
	return e, err
}

func (r *PostgresRepo) GetForUpdate(ctx context.Context, id string) (Exchange, error) {
	const query = `
		SELECT id, initiator_id, offered_isbn, requested_isbn,
		       COALESCE(counterparty_id, ''),
		       status, COALESCE(resolution, ''), COALESCE(acted_by, ''),
		       created_at, updated_at
		FROM exchanges
		WHERE id = $1
		FOR UPDATE
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	e, err := scanExchange(r.db.QueryRow(timeoutCtx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Exchange{}, ErrNotFound
	}
	return e, err
}

func (r *PostgresRepo) ListFor(ctx context.Context, userID string, f ListFilter) ([]Exchange, int, error) {
	f = f.normalized()

	var where string
	switch f.Role {
	case RoleInitiator:
		where = `WHERE e.initiator_id = $1`
	case RoleCounterparty:
		where = `WHERE ` + counterpartyExpr + ` = $1 AND e.initiator_id <> $1`
	default:
		where = `WHERE (e.initiator_id = $1 OR ` + counterpartyExpr + ` = $1)`
	}
	args := []any{userID}
	if f.Status != "" {
		where += ` AND e.status = $2`
		args = append(args, f.Status)
	}

	countSQL := `SELECT COUNT(*) FROM exchanges e LEFT JOIN book_holdings h ON h.isbn = e.requested_isbn ` + where
	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf("%s%s ORDER BY e.created_at DESC, e.id DESC LIMIT $%d OFFSET $%d",
		selectExchange, where, len(args)+1, len(args)+2)
	timeoutCtx2, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(timeoutCtx2, dataSQL, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Exchange{}
	for rows.Next() {
		e, err := scanExchange(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, id string, expected Status, s Settlement) (bool, error) {
	const updateSQL = `
		UPDATE exchanges
		SET status = $3,
		    resolution = NULLIF($4, ''),
		    acted_by = NULLIF($5, ''),
		    counterparty_id = COALESCE(NULLIF($6, ''), counterparty_id),
		    updated_at = clock_timestamp()
		WHERE id = $1 AND status = $2
	`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, updateSQL, id, expected, s.To, s.Resolution, s.ActedBy, s.CounterpartyID)
	if err != nil {
		return false, fmt.Errorf("update exchange status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
