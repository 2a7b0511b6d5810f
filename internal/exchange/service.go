package exchange

import (
	"context"
	"fmt"

	"bookswap/internal/catalog"
	"bookswap/internal/platform/apperr"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Service creates exchanges and serves reads. State changes after creation
// go through Coordinator.
type Service struct {
	uow     UnitOfWork
	repo    Repository
	catalog catalog.Lookup
}

func NewService(uow UnitOfWork, repo Repository, lookup catalog.Lookup) *Service {
	return &Service{uow: uow, repo: repo, catalog: lookup}
}

// Create proposes to trade offeredISBN, which initiatorID must hold, for
// requestedISBN, which some other member must hold.
func (s *Service) Create(ctx context.Context, initiatorID, offeredISBN, requestedISBN string) (Exchange, error) {
	if offeredISBN == requestedISBN {
		return Exchange{}, ErrSameISBN
	}
	for _, isbn := range []string{offeredISBN, requestedISBN} {
		ok, err := s.catalog.Exists(ctx, isbn)
		if err != nil {
			return Exchange{}, fmt.Errorf("catalog lookup: %w", err)
		}
		if !ok {
			return Exchange{}, apperr.NotFound(apperr.CodeBookNotFound, fmt.Sprintf("book %s not found in catalog", isbn))
		}
	}

	var out Exchange
	err := s.uow.Run(ctx, func(ctx context.Context, tx Tx) error {
		holders, err := tx.Ledger().HoldersOf(ctx, offeredISBN, requestedISBN)
		if err != nil {
			return err
		}
		if holders[offeredISBN] != initiatorID {
			return ErrOfferedNotHeld
		}
		switch holders[requestedISBN] {
		case initiatorID:
			return ErrSelfBarter
		case "":
			return ErrRequestedUnavailable
		}

		e := Exchange{
			InitiatorID:   initiatorID,
			OfferedISBN:   offeredISBN,
			RequestedISBN: requestedISBN,
		}
		if err := tx.Exchanges().Insert(ctx, &e); err != nil {
			return err
		}
		out, err = tx.Exchanges().GetByID(ctx, e.ID)
		return err
	})
	if err != nil {
		return Exchange{}, err
	}

	log.WithFields(log.Fields{
		"exchange_id":    out.ID,
		"initiator_id":   initiatorID,
		"offered_isbn":   offeredISBN,
		"requested_isbn": requestedISBN,
	}).Info("exchange created")
	return out, nil
}

// Get returns the exchange if userID is its initiator or counterparty. Other
// users get ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, id string) (Exchange, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Exchange{}, ErrNotFound
	}
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Exchange{}, err
	}
	if e.InitiatorID != userID && e.CounterpartyID != userID {
		return Exchange{}, ErrNotFound
	}
	return e, nil
}

func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]Exchange, int, error) {
	return s.repo.ListFor(ctx, userID, f.normalized())
}
