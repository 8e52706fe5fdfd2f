package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"restaurant-checkout/internal/common/metrics"
)

func TestHealth(t *testing.T) {
	up := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks []Check
		code   int
		state  string
	}{
		{"all up", []Check{{"postgres", up}, {"rabbitmq", up}}, http.StatusOK, "ok"},
		{"broker down", []Check{{"postgres", up}, {"rabbitmq", down}}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewRouter(metrics.New("test"), tt.checks...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Status != tt.state || len(body.Checks) != len(tt.checks) {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestMetricsCountsRoutes(t *testing.T) {
	r := NewRouter(metrics.New("test"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `restaurant_test_http_requests_total{route="/health",status="200"} 1`) {
		t.Errorf("request counter missing:\n%s", rec.Body.String())
	}
}
