package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const query = `
		SELECT isbn, title, author, publisher, language, created_at, updated_at
		FROM books
		WHERE isbn = $1
	`
	var b Book
	err := r.db.QueryRow(ctx, query, isbn).Scan(
		&b.ISBN, &b.Title, &b.Author, &b.Publisher, &b.Language, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrBookNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) Exists(ctx context.Context, isbn string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE isbn = $1)`, isbn).Scan(&ok)
	return ok, err
}
