package exchange

import (
	"context"
	"errors"
	"fmt"

	"bookswap/internal/ownership"
	"bookswap/internal/platform/apperr"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Coordinator settles exchanges. Each action re-reads the exchange and the
// holders of both books inside one unit of work, decides with Decide, and
// writes the new status with a conditional update. On accept it also swaps
// both books in the same unit, so either everything commits or nothing does.
type Coordinator struct {
	uow     UnitOfWork
	metrics ActionObserver
}

// NewCoordinator builds a Coordinator. metrics may be nil.
func NewCoordinator(uow UnitOfWork, metrics ActionObserver) *Coordinator {
	return &Coordinator{uow: uow, metrics: metrics}
}

func (c *Coordinator) Accept(ctx context.Context, id, actorID string) (Exchange, error) {
	return c.act(ctx, id, actorID, ActionAccept)
}

func (c *Coordinator) Refuse(ctx context.Context, id, actorID string) (Exchange, error) {
	return c.act(ctx, id, actorID, ActionRefuse)
}

func (c *Coordinator) Cancel(ctx context.Context, id, actorID string) (Exchange, error) {
	return c.act(ctx, id, actorID, ActionCancel)
}

func (c *Coordinator) act(ctx context.Context, id, actorID string, action Action) (Exchange, error) {
	if _, err := uuid.Parse(id); err != nil {
		c.observe(action, ErrNotFound)
		return Exchange{}, ErrNotFound
	}

	var (
		out Exchange
		tr  Transition
	)
	err := c.uow.Run(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		out, tr, err = settle(ctx, tx, id, actorID, action)
		return err
	})
	c.observe(action, err)
	if err != nil {
		return Exchange{}, err
	}

	log.WithFields(log.Fields{
		"exchange_id": id,
		"action":      action,
		"actor":       actorID,
		"from":        tr.From,
		"to":          tr.To,
	}).Info("exchange settled")
	return out, nil
}

func settle(ctx context.Context, tx Tx, id, actorID string, action Action) (Exchange, Transition, error) {
	ex, err := tx.Exchanges().GetForUpdate(ctx, id)
	if err != nil {
		return Exchange{}, Transition{}, err
	}
	holders, err := tx.Ledger().HoldersOf(ctx, ex.OfferedISBN, ex.RequestedISBN)
	if err != nil {
		return Exchange{}, Transition{}, err
	}

	tr, err := Decide(Facts{
		Status:         ex.Status,
		IsInitiator:    ex.InitiatorID == actorID,
		HoldsRequested: holders[ex.RequestedISBN] == actorID,
	}, action)
	if err != nil {
		return Exchange{}, Transition{}, err
	}
	if tr.Transfer && holders[ex.OfferedISBN] != ex.InitiatorID {
		return Exchange{}, Transition{}, ErrOfferedUnavailable
	}

	ok, err := tx.Exchanges().UpdateStatus(ctx, id, StatusPending, Settlement{
		To:             tr.To,
		Resolution:     tr.Resolution,
		ActedBy:        actorID,
		CounterpartyID: holders[ex.RequestedISBN],
	})
	if err != nil {
		return Exchange{}, Transition{}, err
	}
	if !ok {
		return Exchange{}, Transition{}, ErrConcurrentUpdate
	}

	if tr.Transfer {
		if err := tx.Ledger().Transfer(ctx, ex.OfferedISBN, ex.InitiatorID, actorID); err != nil {
			return Exchange{}, Transition{}, transferError(err, ErrOfferedUnavailable)
		}
		if err := tx.Ledger().Transfer(ctx, ex.RequestedISBN, actorID, ex.InitiatorID); err != nil {
			return Exchange{}, Transition{}, transferError(err, ErrConcurrentUpdate)
		}
	}

	out, err := tx.Exchanges().GetByID(ctx, id)
	if err != nil {
		return Exchange{}, Transition{}, err
	}
	return out, tr, nil
}

func transferError(err error, stale *apperr.Error) error {
	if errors.Is(err, ownership.ErrStaleHolder) {
		return stale.Wrap(err)
	}
	return fmt.Errorf("transfer: %w", err)
}

func (c *Coordinator) observe(action Action, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.CodeOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	c.metrics.ObserveAction(string(action), outcome)
}
