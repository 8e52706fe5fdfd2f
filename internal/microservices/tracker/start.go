package tracker

import (
	"restaurant-checkout/internal/microservices/tracker/handler"
	"restaurant-checkout/internal/microservices/tracker/repository"
	"restaurant-checkout/internal/microservices/tracker/service"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Mount registers the read-only order and payment timeline routes.
func Mount(r chi.Router, db *pgxpool.Pool) {
	svc := service.NewTrackerService(repository.NewTrackerRepo(db))
	handler.Routes(r, handler.NewTrackerHandler(svc))
}
