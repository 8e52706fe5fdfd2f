package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/domain"
	dto "restaurant-checkout/internal/microservices/checkout/domain/dto"
	"restaurant-checkout/internal/microservices/checkout/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type stubService struct {
	got  dto.CheckoutRequest
	resp dto.CheckoutResponse
	err  error
}

func (s *stubService) Checkout(_ context.Context, req dto.CheckoutRequest) (dto.CheckoutResponse, error) {
	s.got = req
	return s.resp, s.err
}

func newRouter(svc *stubService) http.Handler {
	h := New(&service.Service{CheckoutService: svc}, logger.NewWithWriter("test", io.Discard))
	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	h.Routes(r)
	return r
}

func TestCheckoutHandler(t *testing.T) {
	body := `{"table_code":"T1","payment_method":"online","items":[{"menu_item_id":1,"quantity":2,"unit_price":"25000","modifiers":[{"modifier_id":7,"quantity":1,"unit_price":3000}]}]}`

	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"created", body, nil, http.StatusCreated},
		{"bad json", `{"table_code":`, nil, http.StatusBadRequest},
		{"validation", body, domain.ValidationError{Field: "items[0].quantity", Message: "must be between 1 and 99"}, http.StatusBadRequest},
		{"unknown table", body, domain.NotFound("table", "T1"), http.StatusNotFound},
		{"gateway down", body, fmt.Errorf("%w: timeout", domain.ErrUpstream), http.StatusBadGateway},
		{"overloaded", body, domain.ErrOverloaded, http.StatusServiceUnavailable},
		{"storage", body, fmt.Errorf("%w: secret dsn detail", domain.ErrPersistence), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{
				err:  tt.err,
				resp: dto.CheckoutResponse{Order: dto.OrderView{OrderNumber: "ORD-20240101-000001", TotalAmount: decimal.NewFromInt(53000)}},
			}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(tt.body))
			newRouter(svc).ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.code, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "secret dsn detail") {
				t.Errorf("internal error detail leaked")
			}
			if tt.code == http.StatusCreated {
				var out map[string]any
				if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
					t.Fatal(err)
				}
				if svc.got.Items[0].Modifiers[0].UnitPrice.String() != "3000" {
					t.Errorf("modifier price decoded as %s", svc.got.Items[0].Modifiers[0].UnitPrice)
				}
			}
		})
	}
}
