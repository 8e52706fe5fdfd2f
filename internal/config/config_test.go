package config

import (
	"strings"
	"testing"
	"time"
)

const sample = `
database:
  host: localhost
  user: restaurant
  password: secret
  database: restaurant_db
rabbitmq:
  host: localhost
  user: guest
  password: guest
gateway:
  server_key: SB-server-key
  snap_url: https://app.sandbox.example.com
  api_url: https://api.sandbox.example.com
  merchant_prefix: TBL
  timeout: 5s
cashier:
  key: cashier-terminal-key
`

func TestParseDefaults(t *testing.T) {
	t.Setenv("GATEWAY_SERVER_KEY", "")
	t.Setenv("DATABASE_PASSWORD", "")
	t.Setenv("RABBITMQ_PASSWORD", "")
	t.Setenv("CASHIER_KEY", "")

	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.Port != 5432 || cfg.RabbitMQ.Port != 5672 {
		t.Errorf("default ports = %d/%d", cfg.Database.Port, cfg.RabbitMQ.Port)
	}
	if cfg.RabbitMQ.VHost != "/" {
		t.Errorf("vhost = %q", cfg.RabbitMQ.VHost)
	}
	if cfg.Gateway.Timeout != 5*time.Second {
		t.Errorf("timeout = %s", cfg.Gateway.Timeout)
	}
	if cfg.Gateway.MerchantPrefix != "TBL" {
		t.Errorf("prefix = %q", cfg.Gateway.MerchantPrefix)
	}
	if cfg.Outbox.BatchSize != 50 || cfg.Outbox.PollInterval != time.Second {
		t.Errorf("outbox = %+v", cfg.Outbox)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("GATEWAY_SERVER_KEY", "from-env")
	t.Setenv("DATABASE_PASSWORD", "db-env")
	t.Setenv("RABBITMQ_PASSWORD", "mq-env")
	t.Setenv("CASHIER_KEY", "cashier-key-from-env")

	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Gateway.ServerKey != "from-env" {
		t.Errorf("server key = %q", cfg.Gateway.ServerKey)
	}
	if cfg.Database.Password != "db-env" || cfg.RabbitMQ.Password != "mq-env" {
		t.Errorf("passwords = %q/%q", cfg.Database.Password, cfg.RabbitMQ.Password)
	}
	if cfg.Cashier.Key != "cashier-key-from-env" {
		t.Errorf("cashier key = %q", cfg.Cashier.Key)
	}
}

func TestParseInvalid(t *testing.T) {
	t.Setenv("GATEWAY_SERVER_KEY", "")
	t.Setenv("CASHIER_KEY", "")

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing everything", "{}", "database.host is required"},
		{"bad yaml", "database: [", "parse config"},
		{
			name: "prefix with dash",
			yaml: strings.Replace(sample, "merchant_prefix: TBL", "merchant_prefix: T-B", 1),
			want: "merchant_prefix",
		},
		{
			name: "missing server key",
			yaml: strings.Replace(sample, "server_key: SB-server-key", "server_key: \"\"", 1),
			want: "gateway.server_key is required",
		},
		{
			name: "short cashier key",
			yaml: strings.Replace(sample, "key: cashier-terminal-key", "key: abc", 1),
			want: "cashier.key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
