package handler

import "github.com/go-chi/chi/v5"

func Routes(r chi.Router, h *TrackerHandler) {
	r.Get("/api/v1/orders/{order_number}", h.GetOrder)
	r.Get("/api/v1/orders/{order_number}/payment-timeline", h.GetPaymentTimeline)
}
