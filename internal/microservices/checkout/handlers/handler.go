package handlers

import (
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/microservices/checkout/service"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	CheckoutHandler *CheckoutHandler
}

func New(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		CheckoutHandler: NewCheckoutHandler(s.CheckoutService, log),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/v1/checkout", h.CheckoutHandler.Checkout)
}
