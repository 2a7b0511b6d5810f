package ownership

import (
	"context"
	"fmt"

	"bookswap/internal/catalog"
	"bookswap/internal/platform/apperr"

	log "github.com/sirupsen/logrus"
)

type Service struct {
	repo    CollectionRepository
	catalog catalog.Lookup
}

func NewService(repo CollectionRepository, lookup catalog.Lookup) *Service {
	return &Service{repo: repo, catalog: lookup}
}

func (s *Service) List(ctx context.Context, userID string) ([]Holding, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add puts isbn in userID's collection. The book must exist in the catalog
// and must not be held by anyone yet.
func (s *Service) Add(ctx context.Context, userID, isbn string) (Holding, error) {
	ok, err := s.catalog.Exists(ctx, isbn)
	if err != nil {
		return Holding{}, fmt.Errorf("catalog lookup: %w", err)
	}
	if !ok {
		return Holding{}, apperr.NotFound(apperr.CodeBookNotFound, fmt.Sprintf("book %s not found in catalog", isbn))
	}

	h, err := s.repo.Add(ctx, userID, isbn)
	if err != nil {
		return Holding{}, err
	}
	log.WithFields(log.Fields{"user_id": userID, "isbn": isbn}).Info("book added to collection")
	return h, nil
}

// Remove takes isbn out of userID's collection. Pending exchanges that
// involve the book are left alone and fail when someone acts on them.
func (s *Service) Remove(ctx context.Context, userID, isbn string) error {
	if err := s.repo.Remove(ctx, userID, isbn); err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "isbn": isbn}).Info("book removed from collection")
	return nil
}
