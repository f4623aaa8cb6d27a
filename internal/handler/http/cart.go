package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/service"
	"github.com/unseen32online/UNSEEN.IL/pkg/httputil"
	"github.com/unseen32online/UNSEEN.IL/pkg/middleware"
	"github.com/unseen32online/UNSEEN.IL/pkg/validator"
)

// CartHandler serves the session cart.
type CartHandler struct {
	carts  *service.CartService
	logger *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// --- Request DTOs ---

type ItemKeyRequest struct {
	ProductID string `json:"product_id" validate:"notblank,max=100"`
	Size      string `json:"size" validate:"max=20"`
	Color     string `json:"color" validate:"max=40"`
}

func (r ItemKeyRequest) key() domain.ItemKey {
	return domain.ItemKey{ProductID: r.ProductID, Size: r.Size, Color: r.Color}
}

type SetQuantityRequest struct {
	ItemKeyRequest
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// CartResponse is the cart view returned by every cart endpoint.
type CartResponse struct {
	SessionID string            `json:"session_id"`
	Items     []domain.LineItem `json:"items"`
	Total     decimal.Decimal   `json:"total"`
	Count     int               `json:"count"`
}

func newCartResponse(l *service.CartLedger) CartResponse {
	items := l.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponse{SessionID: l.SessionID(), Items: items, Total: l.Total(), Count: l.Count()}
}

// session returns the request's session id. When create is set and the
// header is missing, a new session is started and echoed back in the
// response header.
func session(w http.ResponseWriter, r *http.Request, create bool) string {
	id := strings.TrimSpace(r.Header.Get(middleware.SessionHeader))
	if id == "" && create {
		id = uuid.NewString()
	}
	if id != "" {
		w.Header().Set(middleware.SessionHeader, id)
	}
	return id
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.carts.Get(r.Context(), session(w, r, false))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(ledger)})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req ItemKeyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ledger, err := h.carts.AddItem(r.Context(), session(w, r, true), req.ProductID, req.Size, req.Color)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(ledger)})
}

// SetQuantity handles PUT /api/v1/cart/items
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ledger, err := h.carts.SetQuantity(r.Context(), session(w, r, false), req.key(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(ledger)})
}

// RemoveItem handles DELETE /api/v1/cart/items
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req ItemKeyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ledger, err := h.carts.RemoveItem(r.Context(), session(w, r, false), req.key())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(ledger)})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.carts.Clear(r.Context(), session(w, r, false))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(ledger)})
}

// decodeAndValidate writes the error response itself and reports whether
// the handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httputil.DecodeJSON(w, r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}
