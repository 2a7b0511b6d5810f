// Package catalog answers "does this ISBN exist" and serves book metadata
// from the books table. It is read-only.
package catalog

import (
	"context"
	"time"
)

type Book struct {
	ISBN      string    `json:"isbn"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	Publisher string    `json:"publisher,omitempty"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

//go:generate mockgen -source=catalog.go -destination=mock_repository.go -package=catalog

type Repository interface {
	GetByISBN(ctx context.Context, isbn string) (Book, error)
	Exists(ctx context.Context, isbn string) (bool, error)
}

// Lookup is the view of the catalog other packages depend on.
type Lookup interface {
	Exists(ctx context.Context, isbn string) (bool, error)
}
