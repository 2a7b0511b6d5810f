package httpx

import (
	"errors"
	"net/http"

	"bookswap/internal/platform/apperr"

	log "github.com/sirupsen/logrus"
)

// WriteError renders err with the status matching its kind. Errors that are
// not classified are logged and reported as INTERNAL_ERROR without detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		JSONError(w, r, StatusFor(appErr), string(appErr.Code), appErr.Message, nil)
		return
	}

	log.WithError(err).WithFields(log.Fields{
		"request_id": RequestIDFrom(r),
		"path":       r.URL.Path,
	}).Error("internal error")
	JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

func StatusFor(err *apperr.Error) int {
	switch err.Kind {
	case apperr.ErrValidation:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
