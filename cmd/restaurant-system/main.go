package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"restaurant-checkout/internal/app/checkout"
	"restaurant-checkout/internal/app/notify"
	"restaurant-checkout/internal/common/logger"
	"restaurant-checkout/internal/config"
)

const usage = "checkout-service | notification-subscriber"

func main() {
	mode := flag.String("mode", "", usage)
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml or deploy/config.example.yaml)")
	port := flag.Int("port", 0, "http port (checkout-service: api, notification-subscriber: metrics)")
	maxConc := flag.Int("max-concurrent", 50, "checkout-service: max concurrent checkouts")
	prefetch := flag.Int("prefetch", 10, "notification-subscriber: RabbitMQ prefetch")
	workers := flag.Int("workers", 4, "notification-subscriber: parallel handlers")
	flag.Parse()

	lg := logger.New("bootstrap")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := *cfgPath
	if path == "" {
		found, err := config.FindConfig()
		if err != nil {
			lg.Error("config_not_found", err, nil)
			os.Exit(2)
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		lg.Error("config_invalid", err, map[string]any{"path": path})
		os.Exit(2)
	}

	switch *mode {
	case "checkout-service":
		if *port == 0 {
			*port = 3000
		}
		lg.Info("service_started", map[string]any{"service": "checkout-service", "port": *port, "max_concurrent": *maxConc})
		err = checkout.Run(ctx, *cfg, *port, *maxConc)
	case "notification-subscriber":
		lg.Info("service_started", map[string]any{"service": "notification-subscriber", "prefetch": *prefetch, "workers": *workers})
		err = notify.Run(ctx, *cfg, *port, *prefetch, *workers)
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: "+usage)
		os.Exit(2)
	}
	if err != nil {
		lg.Error("fatal", err, nil)
		os.Exit(1)
	}
	lg.Info("service_stopped", map[string]any{"service": *mode})
}
