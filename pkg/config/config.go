package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all environment-driven configuration for the control plane
type Config struct {
	Port        int
	Environment string

	DBPath        string
	HelmChartPath string
	Kubeconfig    string // empty means in-cluster
	BaseDomain    string

	MaxStores        int
	ProvisionTimeout time.Duration

	RateLimitWindow      time.Duration
	RateLimitMaxRequests int
	RateLimitMaxCreates  int

	WPAdminUser  string
	WPAdminEmail string
}

// Load reads configuration from the environment, applying defaults for
// anything unset. It returns an error for values that fail to parse.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("NODE_ENV", "development"),
		DBPath:        getEnv("DB_PATH", "./data/storefront.db"),
		HelmChartPath: getEnv("HELM_CHART_PATH", "./charts/woocommerce"),
		Kubeconfig:    os.Getenv("KUBECONFIG"),
		BaseDomain:    getEnv("BASE_DOMAIN", "127.0.0.1.nip.io"),
		WPAdminUser:   getEnv("WP_ADMIN_USER", "admin"),
		WPAdminEmail:  getEnv("WP_ADMIN_EMAIL", "admin@example.com"),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", 3001); err != nil {
		return nil, err
	}
	if cfg.MaxStores, err = getEnvInt("MAX_STORES", 10); err != nil {
		return nil, err
	}

	provisionTimeoutMS, err := getEnvInt("PROVISION_TIMEOUT_MS", 600000)
	if err != nil {
		return nil, err
	}
	cfg.ProvisionTimeout = time.Duration(provisionTimeoutMS) * time.Millisecond

	rateWindowMS, err := getEnvInt("RATE_LIMIT_WINDOW_MS", 60000)
	if err != nil {
		return nil, err
	}
	cfg.RateLimitWindow = time.Duration(rateWindowMS) * time.Millisecond

	if cfg.RateLimitMaxRequests, err = getEnvInt("RATE_LIMIT_MAX_REQUESTS", 30); err != nil {
		return nil, err
	}
	if cfg.RateLimitMaxCreates, err = getEnvInt("RATE_LIMIT_MAX_CREATES", 5); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production semantics
// (fixed 500 messages, no stack traces in responses, JSON logs).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxStores < 1 {
		return fmt.Errorf("MAX_STORES must be at least 1, got %d", c.MaxStores)
	}
	if c.ProvisionTimeout <= 0 {
		return fmt.Errorf("PROVISION_TIMEOUT_MS must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_MS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
