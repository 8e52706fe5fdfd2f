package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Cashier  CashierConfig  `yaml:"cashier"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	UseTLS   bool   `yaml:"use_tls"`
}

// GatewayConfig points at the hosted payment page API (snap_url) and the core API (api_url).
type GatewayConfig struct {
	ServerKey        string        `yaml:"server_key"`
	SnapURL          string        `yaml:"snap_url"`
	APIURL           string        `yaml:"api_url"`
	MerchantPrefix   string        `yaml:"merchant_prefix"`
	CurrencyExponent int32         `yaml:"currency_exponent"`
	Timeout          time.Duration `yaml:"timeout"`
}

// CashierConfig holds the shared key staff terminals send to confirm cash payments.
type CashierConfig struct {
	Key string `yaml:"key"`
}

type OutboxConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Load reads the YAML file at path, fills defaults, applies secret overrides
// from the environment and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = 10
	}
	if c.RabbitMQ.Port == 0 {
		c.RabbitMQ.Port = 5672
	}
	if c.RabbitMQ.VHost == "" {
		c.RabbitMQ.VHost = "/"
	}
	if c.Gateway.MerchantPrefix == "" {
		c.Gateway.MerchantPrefix = "RST"
	}
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 10 * time.Second
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 50
	}
	if c.Outbox.PollInterval == 0 {
		c.Outbox.PollInterval = time.Second
	}
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Gateway.ServerKey, "GATEWAY_SERVER_KEY")
	setFromEnv(&c.Database.Password, "DATABASE_PASSWORD")
	setFromEnv(&c.RabbitMQ.Password, "RABBITMQ_PASSWORD")
	setFromEnv(&c.Cashier.Key, "CASHIER_KEY")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("database.database is required"))
	}
	if c.RabbitMQ.Host == "" {
		errs = append(errs, errors.New("rabbitmq.host is required"))
	}
	if c.Gateway.ServerKey == "" {
		errs = append(errs, errors.New("gateway.server_key is required"))
	}
	if len(c.Cashier.Key) < 16 {
		errs = append(errs, errors.New("cashier.key must be at least 16 characters"))
	}
	if c.Gateway.SnapURL == "" || c.Gateway.APIURL == "" {
		errs = append(errs, errors.New("gateway.snap_url and gateway.api_url are required"))
	}
	if strings.Contains(c.Gateway.MerchantPrefix, "-") {
		errs = append(errs, errors.New("gateway.merchant_prefix must not contain '-'"))
	}
	if c.Gateway.CurrencyExponent < 0 || c.Gateway.CurrencyExponent > 3 {
		errs = append(errs, errors.New("gateway.currency_exponent must be between 0 and 3"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
