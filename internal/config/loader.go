// Package config provides configuration management for the arb-hedger engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "ARB_HEDGER"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	setDefaults(v)

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration, tolerating a missing file
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// app.log_level -> ARB_HEDGER_APP_LOG_LEVEL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("provider.mode", "live")
	v.SetDefault("provider.timeout_seconds", 10)
	v.SetDefault("provider.max_retries", 2)
	v.SetDefault("provider.rate_limit", 5.0)

	v.SetDefault("eligibility.cache_ttl_seconds", 300)

	v.SetDefault("arbitrage.bankroll", 1000.0)
	v.SetDefault("arbitrage.min_profit_pct", 0.5)
	v.SetDefault("arbitrage.safety_margin", 0.005)
	v.SetDefault("arbitrage.quote_max_age_seconds", 600)
	v.SetDefault("arbitrage.freshness_ceiling_seconds", 300)
	v.SetDefault("arbitrage.quote_saturation", 10)
	v.SetDefault("arbitrage.recency_weight", 0.6)
	v.SetDefault("arbitrage.count_weight", 0.4)
	v.SetDefault("arbitrage.validity_prematch_seconds", 120)
	v.SetDefault("arbitrage.validity_live_seconds", 30)
	v.SetDefault("arbitrage.workers", 8)

	v.SetDefault("hedge.fresh_window_seconds", 300)
	v.SetDefault("hedge.decay_window_seconds", 600)
	v.SetDefault("hedge.confidence_floor", 0.3)
	v.SetDefault("hedge.suggestion_ttl_seconds", 60)

	v.SetDefault("budget.policy", "skip")

	v.SetDefault("schedule.prematch_interval_seconds", 900)
	v.SetDefault("schedule.live_interval_seconds", 60)
	v.SetDefault("schedule.arbitrage_interval_seconds", 30)
	v.SetDefault("schedule.hedge_interval_seconds", 30)
	v.SetDefault("schedule.cleanup_interval_seconds", 300)
	v.SetDefault("schedule.quote_retention_hours", 24)

	v.SetDefault("api.port", 8081)
	v.SetDefault("redis.stream", "opportunities.detected")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("health.port", "8080")
}
