// Package config provides configuration management for the arb-hedger engine.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/arb-hedger/internal/models"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("markets", validateMarkets)
	_ = v.RegisterValidation("budgetpolicy", validateBudgetPolicy)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateMarkets accepts any market key models.ParseMarketKind understands
func validateMarkets(fl validator.FieldLevel) bool {
	markets, ok := fl.Field().Interface().([]string)
	if !ok || len(markets) == 0 {
		return false
	}
	for _, market := range markets {
		if _, err := models.ParseMarketKind(market); err != nil {
			return false
		}
	}
	return true
}

func validateBudgetPolicy(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "skip", "throttle", "ignore":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.IsSimulated() {
			return fmt.Errorf("simulated provider mode is not allowed in production")
		}
	}

	if cfg.Provider.Mode == "live" && cfg.Provider.APIKey == "" {
		return fmt.Errorf("provider api_key is required in live mode: %w", models.ErrMissingProviderKey)
	}

	if math.Abs(cfg.Arbitrage.RecencyWeight+cfg.Arbitrage.CountWeight-1) > 1e-9 {
		return fmt.Errorf("arbitrage recency_weight and count_weight must sum to 1")
	}

	if cfg.Schedule.LiveIntervalSeconds > cfg.Schedule.PrematchIntervalSeconds {
		return fmt.Errorf("schedule live_interval_seconds must not exceed prematch_interval_seconds")
	}

	if cfg.Hedge.SuggestionTTLSeconds >= cfg.Arbitrage.ValidityPrematchSeconds {
		return fmt.Errorf("hedge suggestion_ttl_seconds must be shorter than arbitrage validity_prematch_seconds")
	}

	if cfg.Budget.ReserveFloor >= cfg.Budget.Limit {
		return fmt.Errorf("budget reserve_floor must be below limit")
	}

	if cfg.Budget.Policy == "throttle" && cfg.Budget.ThrottleIntervalSeconds <= 0 {
		return fmt.Errorf("budget throttle policy requires throttle_interval_seconds > 0")
	}

	for _, j := range cfg.Provider.Jurisdictions {
		if _, ok := cfg.Eligibility.Jurisdictions[j]; !ok {
			return fmt.Errorf("provider jurisdiction %q has no eligibility mapping", j)
		}
	}

	if cfg.Redis.Enabled && cfg.Redis.URL == "" {
		return fmt.Errorf("redis url is required when redis is enabled")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	return nil
}

// tagHints explains the custom and enum-style tags in plain words
var tagHints = map[string]string{
	"environment":  "must be one of development, staging, production",
	"loglevel":     "must be one of debug, info, warn, error",
	"budgetpolicy": "must be one of skip, throttle, ignore",
	"markets":      "contains an unknown market key",
	"required":     "is required",
	"url":          "must be a valid URL",
}

// formatValidationErrors lists every failed field by its config path
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fe := range validationErrors {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if hint, ok := tagHints[fe.Tag()]; ok {
			fmt.Fprintf(&b, "- %s %s\n", field, hint)
			continue
		}
		if fe.Param() != "" {
			fmt.Fprintf(&b, "- %s fails %s=%s (got %v)\n", field, fe.Tag(), fe.Param(), fe.Value())
			continue
		}
		fmt.Fprintf(&b, "- %s fails %s\n", field, fe.Tag())
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() && isTestCredential(cfg.Provider.APIKey) {
		return fmt.Errorf("production environment should not use a test provider api key")
	}
	return nil
}

// testKeyMarkers identify placeholder provider keys
var testKeyMarkers = []string{"test", "demo", "example", "placeholder", "your_"}

func isTestCredential(credential string) bool {
	lower := strings.ToLower(credential)
	for _, marker := range testKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
