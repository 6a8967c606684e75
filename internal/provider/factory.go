package provider

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/config"
	"github.com/yourusername/arb-hedger/internal/models"
)

const (
	ModeLive      = "live"
	ModeSimulated = "simulated"
)

// New creates the provider selected by cfg.Mode. Live mode with no API key
// fails with ErrMissingProviderKey; it never degrades to simulated data.
func New(cfg config.ProviderConfig, logger *logrus.Logger) (OddsProvider, error) {
	switch cfg.Mode {
	case ModeLive, "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("provider %s: %w", oddsAPIName, models.ErrMissingProviderKey)
		}
		httpCfg := DefaultHTTPClientConfig()
		httpCfg.Timeout = cfg.ProviderTimeout()
		httpCfg.MaxRetries = cfg.MaxRetries
		if cfg.RateLimit > 0 {
			httpCfg.RateLimit = cfg.RateLimit
		}
		return NewOddsAPIProvider(NewRateLimitedHTTPClient(httpCfg, logger), cfg.BaseURL, cfg.APIKey, logger)
	case ModeSimulated:
		return NewSimulatedProvider(1, 4, logger), nil
	default:
		return nil, models.InvalidInputf("unknown provider mode %q", cfg.Mode)
	}
}
