package service

import (
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/microservices/checkout/repository"
)

type Service struct {
	CheckoutService CheckoutServiceInterface
}

func New(repo repository.Repository, gw IntentCreator, log *logger.Logger, m *metrics.Metrics, gwCfg config.GatewayConfig, maxConcurrent int) *Service {
	return &Service{
		CheckoutService: NewCheckoutService(repo.CheckoutRepo, gw, log, m, gwCfg, maxConcurrent),
	}
}
