package notificator

import (
	"context"
	"errors"

	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/connections/rabbitmq"
	"restaurant-checkout/internal/microservices/notificator/service"
)

func Start(ctx context.Context, rmqClient *rabbitmq.Client, log *logger.Logger, m *metrics.Metrics, prefetch, workers int) error {
	deliveries, err := rmqClient.Consume(rabbitmq.NotificationsQueue, "notification-subscriber", prefetch)
	if err != nil {
		return err
	}
	log.Info("consumer_started", map[string]any{"queue": rabbitmq.NotificationsQueue, "prefetch": prefetch, "workers": workers})
	if err := service.NewNotificatorService(log, m).Notify(ctx, deliveries, workers); err != nil {
		return err
	}
	if ctx.Err() == nil {
		return errors.New("rabbitmq delivery channel closed")
	}
	return nil
}
