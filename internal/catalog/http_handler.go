package catalog

import (
	"net/http"

	"bookswap/internal/httpx"
)

type HTTPHandler struct {
	svc *Service
}

func NewHTTPHandler(svc *Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

// GetByISBN handles GET /v1/catalog/books/{isbn}
// @Summary Get a catalog book
// @Description Look up a book in the catalog by ISBN
// @Tags catalog
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} httpx.SuccessResponse{data=Book}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/catalog/books/{isbn} [get]
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	isbn := r.PathValue("isbn")
	if !httpx.ValidISBN(isbn) {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ISBN", "ISBN is invalid", nil)
		return
	}

	book, err := h.svc.GetByISBN(r.Context(), isbn)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, book, nil)
}
