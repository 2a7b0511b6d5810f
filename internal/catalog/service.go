package catalog

import (
	"context"

	"bookswap/internal/platform/apperr"
)

var ErrBookNotFound = apperr.NotFound(apperr.CodeBookNotFound, "book not found in catalog")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, error) {
	return s.repo.GetByISBN(ctx, isbn)
}

func (s *Service) Exists(ctx context.Context, isbn string) (bool, error) {
	return s.repo.Exists(ctx, isbn)
}
