package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookswap/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", apperr.Validation(apperr.CodeSameISBN, "same isbn"), http.StatusBadRequest, "SAME_ISBN"},
		{"not found", apperr.NotFound(apperr.CodeExchangeNotFound, "exchange not found"), http.StatusNotFound, "EXCHANGE_NOT_FOUND"},
		{"forbidden", apperr.Forbidden(apperr.CodeNotInitiator, "not yours"), http.StatusForbidden, "NOT_INITIATOR"},
		{"conflict", apperr.Conflict(apperr.CodeExchangeNotPending, "no longer pending"), http.StatusConflict, "EXCHANGE_NOT_PENDING"},
		{"wrapped conflict", fmt.Errorf("accept: %w", apperr.Conflict(apperr.CodeConcurrentUpdate, "raced")), http.StatusConflict, "CONCURRENT_UPDATE"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/v1/exchanges", nil)

			WriteError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestWriteError_DoesNotLeakCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	err := apperr.Conflict(apperr.CodeConcurrentUpdate, "exchange was modified concurrently").Wrap(errors.New("secret db detail"))

	WriteError(w, r, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotContains(t, w.Body.String(), "secret db detail")
}
