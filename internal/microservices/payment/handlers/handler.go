package handlers

import (
	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/microservices/payment/service"

	"github.com/go-chi/chi/v5"
)

// CashierKeyHeader authenticates staff-only routes.
const CashierKeyHeader = "X-Cashier-Key"

type Handler struct {
	PaymentHandler *PaymentHandler
	cashierKey     string
}

func New(s *service.Service, cashierKey string) *Handler {
	return &Handler{
		PaymentHandler: NewPaymentHandler(s.ReconcilerService),
		cashierKey:     cashierKey,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/v1/payments/notifications", h.PaymentHandler.Notification)
	r.Post("/api/v1/payments/{transaction_id}/sync", h.PaymentHandler.Sync)
	r.With(httpx.RequireKey(CashierKeyHeader, h.cashierKey)).
		Post("/api/v1/orders/{order_number}/cash-confirmation", h.PaymentHandler.ConfirmCash)
}
