package exchange_test

import (
	"context"
	"testing"

	"bookswap/internal/exchange"
	"bookswap/internal/platform/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name      string
		initiator string
		offered   string
		requested string
		wantKind  error
		wantCode  apperr.Code
	}{
		{"same isbn", alice, bookA, bookA, apperr.ErrValidation, apperr.CodeSameISBN},
		{"unknown offered book", alice, "999", bookB, apperr.ErrNotFound, apperr.CodeBookNotFound},
		{"unknown requested book", alice, bookA, "999", apperr.ErrNotFound, apperr.CodeBookNotFound},
		{"offered book not held", alice, bookC, bookB, apperr.ErrConflict, apperr.CodeOfferedBookNotHeld},
		{"already holds requested", alice, bookA, bookD, apperr.ErrValidation, apperr.CodeSelfBarter},
		{"requested book unheld", alice, bookA, bookE, apperr.ErrConflict, apperr.CodeRequestedBookUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.service.Create(context.Background(), tt.initiator, tt.offered, tt.requested)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.Equal(t, tt.wantCode, apperr.CodeOf(err))

			list, total, err := f.service.List(context.Background(), tt.initiator, exchange.ListFilter{})
			require.NoError(t, err)
			assert.Zero(t, total)
			assert.Empty(t, list)
		})
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	e := f.create(t, alice, bookA, bookB)

	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)
	assert.Equal(t, alice, e.InitiatorID)
	assert.Equal(t, bookA, e.OfferedISBN)
	assert.Equal(t, bookB, e.RequestedISBN)
	assert.Equal(t, exchange.StatusPending, e.Status)
	assert.Equal(t, exchange.ResolutionNone, e.Resolution)
	assert.False(t, e.CreatedAt.IsZero())

	// Creating an exchange moves nothing.
	assert.Equal(t, alice, f.holder(t, bookA))
	assert.Equal(t, bob, f.holder(t, bookB))
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.create(t, alice, bookA, bookB)

	for _, user := range []string{alice, bob} {
		got, err := f.service.Get(ctx, user, e.ID)
		require.NoError(t, err, user)
		assert.Equal(t, e.ID, got.ID)
	}

	_, err := f.service.Get(ctx, carol, e.ID)
	assert.True(t, apperr.IsCode(err, apperr.CodeExchangeNotFound))

	_, err = f.service.Get(ctx, alice, "nope")
	assert.True(t, apperr.IsCode(err, apperr.CodeExchangeNotFound))
}

func TestList_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.create(t, alice, bookA, bookB)
	theirs := f.create(t, carol, bookC, bookA)
	_, err := f.coordinator.Cancel(ctx, mine.ID, alice)
	require.NoError(t, err)

	list, total, err := f.service.List(ctx, alice, exchange.ListFilter{Role: exchange.RoleAny})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, list, 2)

	list, _, err = f.service.List(ctx, alice, exchange.ListFilter{Role: exchange.RoleCounterparty})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, theirs.ID, list[0].ID)

	list, _, err = f.service.List(ctx, alice, exchange.ListFilter{Role: exchange.RoleInitiator, Status: exchange.StatusCancelled})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, _, err = f.service.List(ctx, alice, exchange.ListFilter{Status: exchange.StatusConfirmed})
	require.NoError(t, err)
	assert.Empty(t, list)
}
