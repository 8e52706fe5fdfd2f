package checkout

import (
	"context"
	"strconv"

	"restaurant-checkout/internal/common/httpx"
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/common/metrics"
	"restaurant-checkout/internal/config"
	"restaurant-checkout/internal/connections/database"
	"restaurant-checkout/internal/connections/rabbitmq"
	checkoutsvc "restaurant-checkout/internal/microservices/checkout"
	"restaurant-checkout/internal/microservices/payment"
	"restaurant-checkout/internal/microservices/payment/gateway"
	"restaurant-checkout/internal/microservices/tracker"
	"restaurant-checkout/internal/outbox"

	"golang.org/x/sync/errgroup"
)

// Run serves checkout, payment reconciliation and order tracking on one port
// and relays the outbox until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, port, maxConc int) error {
	lg := logger.New("checkout-service")
	m := metrics.New("checkout")

	pool, err := database.ConnectDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	lg.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Database})

	applied, err := database.Migrate(ctx, pool)
	if err != nil {
		return err
	}
	lg.Info("migrations_applied", map[string]any{"files": applied})

	mq, err := rabbitmq.Dial(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mq.Close()
	if err := mq.DeclareTopology(); err != nil {
		return err
	}
	lg.Info("rabbitmq_connected", map[string]any{"exchange": rabbitmq.NotificationsExchange})

	gw := gateway.NewClient(cfg.Gateway, m)

	r := NewRouter(m,
		Check{Name: "postgres", Ping: pool.Ping},
		Check{Name: "rabbitmq", Ping: func(context.Context) error { return mq.Ping() }},
	)
	checkoutsvc.Mount(r, pool, gw, lg, m, cfg.Gateway, maxConc)
	payment.Mount(r, pool, gw, lg, m, cfg.Gateway, cfg.Cashier.Key)
	tracker.Mount(r, pool)

	relay := outbox.NewRelay(outbox.NewPgStore(pool), mq, lg, m, cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("http_listening", map[string]any{"port": port, "max_concurrent": maxConc})
		return httpx.New(":"+strconv.Itoa(port), r).Run(gctx)
	})
	g.Go(func() error { return relay.Run(gctx) })
	return g.Wait()
}
