package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv                  string `envconfig:"APP_ENV" default:"production"`
	Port                    string `envconfig:"PORT" default:"8080"`
	AllowedOrigin           string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`
	DatabaseURL             string `envconfig:"DATABASE_URL"`
	AutoMigrate             bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	RedisAddr               string `envconfig:"REDIS_ADDR"`
	RedisPassword           string `envconfig:"REDIS_PASSWORD"`
	RedisDB                 int    `envconfig:"REDIS_DB" default:"0"`
	ProductCacheTTLSeconds  int    `envconfig:"PRODUCT_CACHE_TTL_SECONDS" default:"30"`
	EventsChannel           string `envconfig:"EVENTS_CHANNEL" default:"savdo.sales"`
	AuthSecret              string `envconfig:"AUTH_SECRET"`
	AccessTokenTTLMinutes   int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"480"`
	LogLevel                string `envconfig:"LOG_LEVEL"`
	LogEncoding             string `envconfig:"LOG_ENCODING"`
	PendingSalesDefaultPage int    `envconfig:"PENDING_SALES_PAGE_SIZE" default:"50"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	if cfg.ProductCacheTTLSeconds < 1 {
		cfg.ProductCacheTTLSeconds = 30
	}
	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.PendingSalesDefaultPage < 1 {
		cfg.PendingSalesDefaultPage = 50
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsDev() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func (c Config) ProductCacheTTL() time.Duration {
	return time.Duration(c.ProductCacheTTLSeconds) * time.Second
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}
