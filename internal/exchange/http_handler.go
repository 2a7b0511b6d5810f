package exchange

import (
	"context"
	"net/http"
	"strconv"

	"bookswap/internal/httpx"
)

type HTTPHandler struct {
	service     *Service
	coordinator *Coordinator
}

func NewHTTPHandler(service *Service, coordinator *Coordinator) *HTTPHandler {
	return &HTTPHandler{service: service, coordinator: coordinator}
}

type createReq struct {
	OfferedISBN   string `json:"offered_isbn" validate:"required,isbn"`
	RequestedISBN string `json:"requested_isbn" validate:"required,isbn"`
}

// Create handles POST /v1/exchanges
// @Summary Propose a barter
// @Description Offer one of your books in exchange for a book held by another member
// @Tags exchanges
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body createReq true "Barter proposal"
// @Success 201 {object} httpx.SuccessResponse{data=Exchange}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/exchanges [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req createReq
	if !httpx.DecodeAndValidate(w, r, &req) {
		return
	}

	e, err := h.service.Create(r.Context(), userID, req.OfferedISBN, req.RequestedISBN)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONCreated(w, r, e)
}

// List handles GET /v1/exchanges?role=&status=&limit=&offset=
// @Summary List my exchanges
// @Description Exchanges the caller initiated or is the counterparty of, newest first
// @Tags exchanges
// @Produce json
// @Security Bearer
// @Param role query string false "initiator, counterparty or any"
// @Param status query string false "PENDING, CONFIRMED or CANCELLED"
// @Param limit query int false "Items per page" default(20)
// @Param offset query int false "Items to skip" default(0)
// @Success 200 {object} httpx.SuccessResponse{data=[]Exchange}
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /v1/exchanges [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	query := r.URL.Query()
	role, err := ParseRole(query.Get("role"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	var status Status
	if raw := query.Get("status"); raw != "" {
		if status, err = ParseStatus(raw); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	f := ListFilter{Role: role, Status: status, Limit: limit, Offset: offset}.normalized()
	exchanges, total, err := h.service.List(r.Context(), userID, f)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, exchanges, map[string]any{
		"total":  total,
		"limit":  f.Limit,
		"offset": f.Offset,
	})
}

// Get handles GET /v1/exchanges/{id}
// @Summary Get an exchange
// @Description Visible to its initiator and counterparty only
// @Tags exchanges
// @Produce json
// @Security Bearer
// @Param id path string true "Exchange ID"
// @Success 200 {object} httpx.SuccessResponse{data=Exchange}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /v1/exchanges/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	e, err := h.service.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, e, nil)
}

// Accept handles POST /v1/exchanges/{id}/accept
// @Summary Accept a barter
// @Description Confirms the exchange and swaps both books atomically
// @Tags exchanges
// @Produce json
// @Security Bearer
// @Param id path string true "Exchange ID"
// @Success 200 {object} httpx.SuccessResponse{data=Exchange}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/exchanges/{id}/accept [post]
func (h *HTTPHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.coordinator.Accept)
}

// Refuse handles POST /v1/exchanges/{id}/refuse
// @Summary Refuse a barter
// @Description Cancels a pending exchange on behalf of the holder of the requested book
// @Tags exchanges
// @Produce json
// @Security Bearer
// @Param id path string true "Exchange ID"
// @Success 200 {object} httpx.SuccessResponse{data=Exchange}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/exchanges/{id}/refuse [post]
func (h *HTTPHandler) Refuse(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.coordinator.Refuse)
}

// Cancel handles POST /v1/exchanges/{id}/cancel
// @Summary Cancel a barter
// @Description Withdraws a pending exchange; initiator only
// @Tags exchanges
// @Produce json
// @Security Bearer
// @Param id path string true "Exchange ID"
// @Success 200 {object} httpx.SuccessResponse{data=Exchange}
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /v1/exchanges/{id}/cancel [post]
func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, h.coordinator.Cancel)
}

func (h *HTTPHandler) act(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actorID string) (Exchange, error)) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	e, err := fn(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	httpx.JSONSuccess(w, r, e, nil)
}

// Register mounts the exchange routes on mux behind auth.
func (h *HTTPHandler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("POST /v1/exchanges", auth(http.HandlerFunc(h.Create)))
	mux.Handle("GET /v1/exchanges", auth(http.HandlerFunc(h.List)))
	mux.Handle("GET /v1/exchanges/{id}", auth(http.HandlerFunc(h.Get)))
	mux.Handle("POST /v1/exchanges/{id}/accept", auth(http.HandlerFunc(h.Accept)))
	mux.Handle("POST /v1/exchanges/{id}/refuse", auth(http.HandlerFunc(h.Refuse)))
	mux.Handle("POST /v1/exchanges/{id}/cancel", auth(http.HandlerFunc(h.Cancel)))
}
