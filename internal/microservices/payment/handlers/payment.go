package handlers

import (
	"io"
	"net/http"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/domain"
	"restaurant-checkout/internal/microservices/payment/service"

	"github.com/go-chi/chi/v5"
)

const maxNotificationBody = 64 << 10

type PaymentHandler struct {
	service service.ReconcilerServiceInterface
}

func NewPaymentHandler(s service.ReconcilerServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type reconcileResponse struct {
	Status         string `json:"status"`
	OrderNumber    string `json:"order_number"`
	TransactionID  string `json:"transaction_id,omitempty"`
	PreviousStatus string `json:"previous_status"`
	PaymentStatus  string `json:"payment_status"`
	Outcome        string `json:"outcome"`
}

func toResponse(res domain.ReconcileResult) reconcileResponse {
	return reconcileResponse{
		Status:         "ok",
		OrderNumber:    res.OrderNumber,
		TransactionID:  res.TransactionID,
		PreviousStatus: string(res.Previous),
		PaymentStatus:  string(res.Plan.Status),
		Outcome:        string(res.Plan.Outcome),
	}
}

// Notification acknowledges with 200 whenever the delivery was recorded, even
// if it changed nothing, so the gateway stops retrying it.
func (h *PaymentHandler) Notification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBody))
	if err != nil {
		httpx.WriteProblem(w, r, http.StatusBadRequest, "validation_error", "unreadable body")
		return
	}
	res, err := h.service.HandleNotification(r.Context(), body)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(res))
}

func (h *PaymentHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.SyncStatus(r.Context(), chi.URLParam(r, "transaction_id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(res))
}

func (h *PaymentHandler) ConfirmCash(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.ConfirmCash(r.Context(), chi.URLParam(r, "order_number"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toResponse(res))
}
