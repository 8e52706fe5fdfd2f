package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"restaurant-checkout/internal/domain"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		typ  string
	}{
		{"validation", domain.ValidationError{Field: "lines[0].quantity", Message: "must be between 1 and 99"}, 400, "validation_error"},
		{"wrapped validation", fmt.Errorf("checkout: %w", domain.ValidationError{Field: "table_code", Message: "required"}), 400, "validation_error"},
		{"not found", domain.NotFound("table", "T9"), 404, "not_found"},
		{"signature", domain.ErrAuthenticity, 403, "invalid_signature"},
		{"conflict", domain.ErrConflict, 409, "conflict"},
		{"upstream", fmt.Errorf("%w: timeout", domain.ErrUpstream), 502, "payment_gateway_error"},
		{"overloaded", domain.ErrOverloaded, 503, "overloaded"},
		{"storage", fmt.Errorf("%w: connection reset", domain.ErrPersistence), 500, "internal_error"},
		{"unknown", errors.New("boom"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			WriteError(rec, req, tt.err)

			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["type"] != tt.typ {
				t.Errorf("type = %v, want %s", body["type"], tt.typ)
			}
			if tt.code == 500 && body["detail"] != "internal error" {
				t.Errorf("internal detail leaked: %v", body["detail"])
			}
		})
	}
}

func TestRequireKey(t *testing.T) {
	h := RequireKey("X-Cashier-Key", "staff-secret-key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "staff-secret-key", http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "staff-secret-kez", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Cashier-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(rec, req)
	if seen != "abc" || rec.Header().Get(RequestIDHeader) != "abc" {
		t.Errorf("propagated id = %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc" {
		t.Errorf("minted id = %q", seen)
	}
}
