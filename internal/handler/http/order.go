package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/repository"
	"github.com/unseen32online/UNSEEN.IL/internal/service"
	"github.com/unseen32online/UNSEEN.IL/pkg/httputil"
	"github.com/unseen32online/UNSEEN.IL/pkg/pagination"
)

const defaultOrderLimit = 50

// OrderHandler serves order lookups and operator edits.
type OrderHandler struct {
	orders   *service.OrderService
	maxLimit int
	logger   *slog.Logger
}

// NewOrderHandler creates an order handler. maxLimit bounds ?limit= on
// list requests.
func NewOrderHandler(orders *service.OrderService, maxLimit int, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, maxLimit: maxLimit, logger: logger}
}

// UpdateOrderRequest is the JSON body for PATCH /api/v1/orders/{id}.
type UpdateOrderRequest struct {
	Status         *string `json:"status" validate:"omitempty,oneof=pending_payment payment_confirmed processing shipped delivered cancelled"`
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
	TrackingNumber *string `json:"tracking_number" validate:"omitempty,max=100"`
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r, defaultOrderLimit, h.maxLimit)
	q := r.URL.Query()

	filter := repository.OrderFilter{
		Status:        domain.OrderStatus(q.Get("status")),
		CustomerEmail: q.Get("customer_email"),
		Limit:         page.Offset + page.Limit,
	}

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: httputil.NewListResponse(pagination.Window(orders, page), page.Limit),
	})
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	order, err := h.orders.GetByID(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// GetOrderByNumber handles GET /api/v1/orders/number/{orderNumber}
func (h *OrderHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetByNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateOrder handles PATCH /api/v1/orders/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := service.UpdateOrderInput{Notes: req.Notes, TrackingNumber: req.TrackingNumber}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		in.Status = &status
	}

	order, err := h.orders.UpdateOrder(r.Context(), id.String(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
