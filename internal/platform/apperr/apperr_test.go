package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("accept: %w", Conflict(CodeExchangeNotPending, "exchange no longer pending"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, CodeExchangeNotPending, CodeOf(err))
	assert.True(t, IsCode(err, CodeExchangeNotPending))
}

func TestWrapKeepsKindAndCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Conflict(CodeAlreadyHeld, "book already held").Wrap(cause)

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "book already held: duplicate key", err.Error())
}

func TestWrapDoesNotMutateOriginal(t *testing.T) {
	base := NotFound(CodeBookNotFound, "book not found")
	_ = base.Wrap(errors.New("boom"))

	assert.Nil(t, base.Cause)
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}
