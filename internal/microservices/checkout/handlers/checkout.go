package handlers

import (
	"encoding/json"
	"net/http"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/common/logger"
	dto "restaurant-checkout/internal/microservices/checkout/domain/dto"
	"restaurant-checkout/internal/microservices/checkout/service"
)

const maxBody = 1 << 20

type CheckoutHandler struct {
	service service.CheckoutServiceInterface
	log     *logger.Logger
}

func NewCheckoutHandler(s service.CheckoutServiceInterface, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: s, log: log}
}

func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&req); err != nil {
		httpx.WriteProblem(w, r, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	resp, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		h.log.With(httpx.RequestID(r.Context())).Info("checkout_rejected", map[string]any{
			"table_code": req.TableCode,
			"reason":     err.Error(),
		})
		httpx.WriteError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, resp)
}
