package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unseen32online/UNSEEN.IL/internal/domain"
	"github.com/unseen32online/UNSEEN.IL/internal/service"
	apperrors "github.com/unseen32online/UNSEEN.IL/pkg/errors"
	"github.com/unseen32online/UNSEEN.IL/pkg/httputil"
)

// CheckoutHandler runs checkouts and payment retries.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, logger: logger}
}

// --- Request DTOs ---
// Presence of required fields is checked by the checkout compiler so that
// the shopper gets one message for the first missing field. The tags here
// only bound sizes and shapes.

type CustomerRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"max=254"`
	Phone     string `json:"phone" validate:"max=30"`
}

type AddressRequest struct {
	Street     string `json:"street" validate:"max=200"`
	City       string `json:"city" validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country" validate:"max=60"`
}

type PaymentRequest struct {
	CardNumber     string `json:"card_number" validate:"max=30"`
	CardholderName string `json:"cardholder_name" validate:"max=100"`
	Expiry         string `json:"expiry" validate:"max=7"`
	CVV            string `json:"cvv" validate:"max=4"`
}

func (p PaymentRequest) instrument() domain.PaymentInstrument {
	return domain.PaymentInstrument{
		CardNumber:     p.CardNumber,
		CardholderName: p.CardholderName,
		Expiry:         p.Expiry,
		CVV:            p.CVV,
	}
}

type CheckoutRequest struct {
	Customer        CustomerRequest `json:"customer"`
	ShippingAddress AddressRequest  `json:"shipping_address"`
	ShippingMethod  string          `json:"shipping_method" validate:"omitempty,oneof=standard express"`
	Payment         PaymentRequest  `json:"payment"`
}

func (req CheckoutRequest) input() service.CheckoutInput {
	method := domain.ShippingMethod(req.ShippingMethod)
	if method == "" {
		method = domain.ShippingStandard
	}
	return service.CheckoutInput{
		Customer: domain.CustomerInfo{
			FirstName: req.Customer.FirstName,
			LastName:  req.Customer.LastName,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		Address: domain.Address{
			Street:     req.ShippingAddress.Street,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		ShippingMethod: method,
		Payment:        req.Payment.instrument(),
	}
}

// --- Handlers ---

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.checkout.Checkout(r.Context(), session(w, r, false), req.input())
	if err != nil {
		h.writeCheckoutError(w, r, order, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// RetryPayment handles POST /api/v1/orders/{id}/payment
func (h *CheckoutHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req PaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	order, err := h.checkout.RetryPayment(r.Context(), session(w, r, false), id.String(), req.instrument())
	if err != nil {
		h.writeCheckoutError(w, r, order, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// writeCheckoutError adds the order reference to a payment failure so the
// shopper can retry against the same order.
func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, r *http.Request, order *domain.Order, err error) {
	if order == nil || !errors.Is(err, apperrors.ErrPaymentFailed) {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteErrorWithDetails(w, r, err, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"status":       order.Status,
	}, h.logger)
}
