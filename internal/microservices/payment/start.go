package payment

import (
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/microservices/payment/handlers"
	"restaurant-checkout/internal/microservices/payment/repository"
	"restaurant-checkout/internal/microservices/payment/service"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func Mount(r chi.Router, db *pgxpool.Pool, gw service.StatusQuerier, log *logger.Logger, m *metrics.Metrics, gwCfg config.GatewayConfig, cashierKey string) {
	repo := repository.New(db)
	handlers.New(service.New(*repo, gw, log, m, gwCfg), cashierKey).Routes(r)
}
