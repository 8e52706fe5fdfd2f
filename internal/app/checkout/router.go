package checkout

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/common/metrics"

	"github.com/go-chi/chi/v5"
)

// Check is a named dependency probe used by /health.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// NewRouter returns the base router carrying request ids, request counting,
// /health and /metrics. Service routes are mounted on top of it.
func NewRouter(m *metrics.Metrics, checks ...Check) chi.Router {
	r := chi.NewRouter()
	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.CountRequests(func(route string, status int) {
		m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	}))
	r.Get("/health", health(checks))
	r.Method(http.MethodGet, "/metrics", m.Handler())
	return r
}

func health(checks []Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				status[c.Name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[c.Name] = "up"
		}
		state := "ok"
		if code != http.StatusOK {
			state = "degraded"
		}
		httpx.WriteJSON(w, code, map[string]any{"status": state, "checks": status})
	}
}
