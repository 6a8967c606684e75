// Package config provides configuration management for the arb-hedger engine.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Provider    ProviderConfig    `mapstructure:"provider" validate:"required"`
	Eligibility EligibilityConfig `mapstructure:"eligibility" validate:"required"`
	Arbitrage   ArbitrageConfig   `mapstructure:"arbitrage" validate:"required"`
	Hedge       HedgeConfig       `mapstructure:"hedge" validate:"required"`
	Budget      BudgetConfig      `mapstructure:"budget" validate:"required"`
	Schedule    ScheduleConfig    `mapstructure:"schedule" validate:"required"`
	API         APIConfig         `mapstructure:"api"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Health      HealthConfig      `mapstructure:"health"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ProviderConfig represents the external odds provider
type ProviderConfig struct {
	// Mode is "live" for the HTTP provider or "simulated" for the labelled degraded mode
	Mode           string   `mapstructure:"mode" validate:"required,oneof=live simulated"`
	BaseURL        string   `mapstructure:"base_url" validate:"required,url"`
	APIKey         string   `mapstructure:"api_key"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries     int      `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"required,gt=0"`
	Sports         []string `mapstructure:"sports" validate:"required,min=1"`
	Markets        []string `mapstructure:"markets" validate:"required,min=1,markets"`
	// Jurisdictions used by scheduled ingestion; manual scans supply their own
	Jurisdictions []string `mapstructure:"jurisdictions" validate:"required,min=1"`
}

// EligibilityConfig holds the jurisdiction to sportsbook reference mapping
type EligibilityConfig struct {
	Jurisdictions   map[string][]string `mapstructure:"jurisdictions" validate:"required,min=1"`
	CacheTTLSeconds int                 `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// ArbitrageConfig represents detection and stake parameters
type ArbitrageConfig struct {
	Bankroll                float64 `mapstructure:"bankroll" validate:"required,gt=0"`
	MinProfitPct            float64 `mapstructure:"min_profit_pct" validate:"gte=0"`
	SafetyMargin            float64 `mapstructure:"safety_margin" validate:"gte=0,lt=0.5"`
	QuoteMaxAgeSeconds      int     `mapstructure:"quote_max_age_seconds" validate:"required,gt=0"`
	FreshnessCeilingSeconds int     `mapstructure:"freshness_ceiling_seconds" validate:"required,gt=0"`
	QuoteSaturation         int     `mapstructure:"quote_saturation" validate:"required,gt=0"`
	RecencyWeight           float64 `mapstructure:"recency_weight" validate:"gte=0,lte=1"`
	CountWeight             float64 `mapstructure:"count_weight" validate:"gte=0,lte=1"`
	ValidityPrematchSeconds int     `mapstructure:"validity_prematch_seconds" validate:"required,gt=0"`
	ValidityLiveSeconds     int     `mapstructure:"validity_live_seconds" validate:"required,gt=0"`
	Workers                 int     `mapstructure:"workers" validate:"required,gt=0"`
}

// HedgeConfig represents hedge confidence and expiry parameters
type HedgeConfig struct {
	FreshWindowSeconds   int     `mapstructure:"fresh_window_seconds" validate:"required,gt=0"`
	DecayWindowSeconds   int     `mapstructure:"decay_window_seconds" validate:"required,gt=0"`
	ConfidenceFloor      float64 `mapstructure:"confidence_floor" validate:"gt=0,lt=1"`
	SuggestionTTLSeconds int     `mapstructure:"suggestion_ttl_seconds" validate:"required,gt=0"`
}

// BudgetConfig represents the provider credit budget policy
type BudgetConfig struct {
	Limit                   int    `mapstructure:"limit" validate:"required,gt=0"`
	Policy                  string `mapstructure:"policy" validate:"required,budgetpolicy"`
	ReserveFloor            int    `mapstructure:"reserve_floor" validate:"gte=0"`
	ThrottleBelow           int    `mapstructure:"throttle_below" validate:"gte=0"`
	ThrottleIntervalSeconds int    `mapstructure:"throttle_interval_seconds" validate:"gte=0"`
}

// ScheduleConfig represents job cadences
type ScheduleConfig struct {
	PrematchIntervalSeconds  int `mapstructure:"prematch_interval_seconds" validate:"required,gt=0"`
	LiveIntervalSeconds      int `mapstructure:"live_interval_seconds" validate:"required,gt=0"`
	ArbitrageIntervalSeconds int `mapstructure:"arbitrage_interval_seconds" validate:"required,gt=0"`
	HedgeIntervalSeconds     int `mapstructure:"hedge_interval_seconds" validate:"required,gt=0"`
	CleanupIntervalSeconds   int `mapstructure:"cleanup_interval_seconds" validate:"required,gt=0"`
	QuoteRetentionHours      int `mapstructure:"quote_retention_hours" validate:"required,gt=0"`
}

// APIConfig represents the HTTP API
type APIConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RedisConfig represents the opportunity stream
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Stream   string `mapstructure:"stream"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// HealthConfig represents the HTTP and gRPC health endpoints
type HealthConfig struct {
	Port     string `mapstructure:"port"`
	GRPCPort int    `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region" validate:"required_if=Enabled true"`
	Name    string `mapstructure:"name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsSimulated reports whether the provider runs in the labelled degraded mode
func (c *Config) IsSimulated() bool {
	return c.Provider.Mode == "simulated"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ProviderTimeout returns the per-request provider timeout
func (p ProviderConfig) ProviderTimeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// QuoteMaxAge returns the recency cutoff applied to quotes
func (a ArbitrageConfig) QuoteMaxAge() time.Duration {
	return time.Duration(a.QuoteMaxAgeSeconds) * time.Second
}

// Validity returns the opportunity validity window for live or pre-match legs
func (a ArbitrageConfig) Validity(live bool) time.Duration {
	if live {
		return time.Duration(a.ValidityLiveSeconds) * time.Second
	}
	return time.Duration(a.ValidityPrematchSeconds) * time.Second
}

// QuoteRetention returns how long quotes are kept before cleanup
func (s ScheduleConfig) QuoteRetention() time.Duration {
	return time.Duration(s.QuoteRetentionHours) * time.Hour
}
