package notify

import (
	"context"
	"net/http"
	"strconv"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/connections/rabbitmq"
	"restaurant-checkout/internal/microservices/notificator"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

// Run consumes the notifications queue. When port is non-zero it also
// serves /metrics on that port.
func Run(ctx context.Context, cfg config.Config, port, prefetch, workers int) error {
	lg := logger.New("notification-subscriber")
	m := metrics.New("notificator")

	mq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mq.Close()
	if err := mq.DeclareTopology(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if port > 0 {
		r := chi.NewRouter()
		r.Method(http.MethodGet, "/metrics", m.Handler())
		g.Go(func() error { return httpx.New(":"+strconv.Itoa(port), r).Run(gctx) })
	}
	g.Go(func() error { return notificator.Start(gctx, mq, lg, m, prefetch, workers) })
	return g.Wait()
}
