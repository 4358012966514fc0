// Package config содержит логику чтения конфигурации магазина.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultSessionTTL = 30 * time.Minute
)

// Config содержит параметры конфигурации магазина.
type Config struct {
	RunAddress    string        `env:"RUN_ADDRESS"`
	DatabaseURI   string        `env:"DATABASE_URI"`
	CatalogSource string        `env:"CATALOG_SOURCE"`
	AMQPURL       string        `env:"AMQP_URL"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for receipts; in-memory storage when empty")
	flag.StringVar(&cfg.CatalogSource, "c", "", "catalog source: file path or http(s) URL; built-in catalog when empty")
	flag.StringVar(&cfg.AMQPURL, "q", "", "RabbitMQ URL for cart paid events")
	flag.StringVar(&cfg.SessionSecret, "s", "", "secret for signing session cookies")
	flag.DurationVar(&cfg.SessionTTL, "t", defaultSessionTTL, "idle time after which a cart is dropped")

	flag.Parse()

	if fromEnv.RunAddress != "" {
		cfg.RunAddress = fromEnv.RunAddress
	}
	if fromEnv.DatabaseURI != "" {
		cfg.DatabaseURI = fromEnv.DatabaseURI
	}
	if fromEnv.CatalogSource != "" {
		cfg.CatalogSource = fromEnv.CatalogSource
	}
	if fromEnv.AMQPURL != "" {
		cfg.AMQPURL = fromEnv.AMQPURL
	}
	if fromEnv.SessionSecret != "" {
		cfg.SessionSecret = fromEnv.SessionSecret
	}
	if fromEnv.SessionTTL != 0 {
		cfg.SessionTTL = fromEnv.SessionTTL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.SessionTTL < 0 {
		return nil, fmt.Errorf("session ttl must not be negative: %s", cfg.SessionTTL)
	}

	return cfg, nil
}
