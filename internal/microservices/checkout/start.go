package checkout

import (
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/microservices/checkout/handlers"
	"restaurant-checkout/internal/microservices/checkout/repository"
	"restaurant-checkout/internal/microservices/checkout/service"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Mount(r chi.Router, db *pgxpool.Pool, gw service.IntentCreator, log *logger.Logger, m *metrics.Metrics, gwCfg config.GatewayConfig, maxConcurrent int) {
	repo := repository.New(db)
	svc := service.New(*repo, gw, log, m, gwCfg, maxConcurrent)
	handlers.New(svc, log).Routes(r)
}
