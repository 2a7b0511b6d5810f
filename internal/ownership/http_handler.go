package ownership

import (
	"net/http"

	"bookswap/internal/httpx"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type addReq struct {
	ISBN string `json:"isbn" validate:"required,isbn"`
}

// List handles GET /v1/me/collection
// @Summary List my collection
// @Description Books the caller currently holds
// @Tags collection
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse{data=[]Holding}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /v1/me/collection [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	holdings, err := h.service.List(r.Context(), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, holdings, map[string]any{"total": len(holdings)})
}

// Add handles POST /v1/me/collection
// @Summary Add a book to my collection
// @Description Registers the caller as holder of a catalog book nobody holds yet
// @Tags collection
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body addReq true "Book to add"
// @Success 201 {object} httpx.SuccessResponse{data=Holding}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/me/collection [post]
func (h *HTTPHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req addReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	holding, err := h.service.Add(r.Context(), userID, req.ISBN)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONCreated(w, r, holding)
}

// Remove handles DELETE /v1/me/collection/{isbn}
// @Summary Remove a book from my collection
// @Description Pending exchanges on the book fail when acted on
// @Tags collection
// @Produce json
// @Security Bearer
// @Param isbn path string true "ISBN"
// @Success 204
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/me/collection/{isbn} [delete]
func (h *HTTPHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	isbn := r.PathValue("isbn")
	if !httpx.ValidISBN(isbn) {
		httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_ISBN", "ISBN is invalid", nil)
		return
	}

	if err := h.service.Remove(r.Context(), userID, isbn); err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONNoContent(w)
}

// Register mounts the collection routes on mux behind auth.
func (h *HTTPHandler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("GET /v1/me/collection", auth(http.HandlerFunc(h.List)))
	mux.Handle("POST /v1/me/collection", auth(http.HandlerFunc(h.Add)))
	mux.Handle("DELETE /v1/me/collection/{isbn}", auth(http.HandlerFunc(h.Remove)))
}
