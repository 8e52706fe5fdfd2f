package httpx

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"restaurant-checkout/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ctxKey struct{}

const RequestIDHeader = "X-Request-ID"

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteProblem writes a simplified RFC 7807 body.
func WriteProblem(w http.ResponseWriter, r *http.Request, code int, typ, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":       typ,
		"title":      http.StatusText(code),
		"status":     code,
		"detail":     detail,
		"request_id": RequestID(r.Context()),
	})
}

// WriteError maps the domain error taxonomy onto HTTP. Storage and unknown
// errors never leak their detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var ve domain.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteProblem(w, r, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, domain.ErrValidation):
		WriteProblem(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrAuthenticity):
		WriteProblem(w, r, http.StatusForbidden, "invalid_signature", "signature verification failed")
	case errors.Is(err, domain.ErrConflict):
		WriteProblem(w, r, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrUpstream):
		WriteProblem(w, r, http.StatusBadGateway, "payment_gateway_error", "payment gateway is unavailable, please retry")
	case errors.Is(err, domain.ErrOverloaded):
		WriteProblem(w, r, http.StatusServiceUnavailable, "overloaded", err.Error())
	default:
		WriteProblem(w, r, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// RequestIDMiddleware propagates X-Request-ID or mints a new one.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// CountRequests calls observe with the matched chi route pattern and status code.
func CountRequests(observe func(route string, status int)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			observe(route, rec.status)
		})
	}
}

// RequireKey rejects requests whose header does not carry key.
func RequireKey(header, key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				WriteProblem(w, r, http.StatusUnauthorized, "unauthorized", "missing or invalid "+header)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func AtoiDefault(s string, d int) int {
	if s == "" {
		return d
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return n
}
