package handler

import (
	"net/http"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/microservices/tracker/service"

	"github.com/go-chi/chi/v5"
)

type TrackerHandler struct {
	service service.TrackerServiceInterface
}

func NewTrackerHandler(svc service.TrackerServiceInterface) *TrackerHandler {
	return &TrackerHandler{service: svc}
}

func (h *TrackerHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "order_number"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, v)
}

func (h *TrackerHandler) GetPaymentTimeline(w http.ResponseWriter, r *http.Request) {
	limit := httpx.AtoiDefault(r.URL.Query().Get("limit"), 50)
	offset := httpx.AtoiDefault(r.URL.Query().Get("offset"), 0)
	tl, err := h.service.GetPaymentTimeline(r.Context(), chi.URLParam(r, "order_number"), limit, offset)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tl)
}
