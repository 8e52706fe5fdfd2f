package service

import (
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/microservices/payment/gateway"
	"restaurant-checkout/internal/microservices/payment/repository"
)

type Service struct {
	ReconcilerService ReconcilerServiceInterface
}

func New(repo repository.Repository, gw StatusQuerier, log *logger.Logger, m *metrics.Metrics, gwCfg config.GatewayConfig) *Service {
	return &Service{
		ReconcilerService: NewReconcilerService(
			repo.PaymentRepo,
			gateway.NewVerifier(gwCfg.ServerKey),
			gw,
			log,
			m,
			gwCfg.CurrencyExponent,
			gwCfg.Timeout,
		),
	}
}
