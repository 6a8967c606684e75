package main

import (
	"time"

	"github.com/yourusername/arb-hedger/internal/arbitrage"
	"github.com/yourusername/arb-hedger/internal/budget"
	"github.com/yourusername/arb-hedger/internal/config"
	"github.com/yourusername/arb-hedger/internal/hedge"
	"github.com/yourusername/arb-hedger/internal/service"
)

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func detectorConfig(cfg config.ArbitrageConfig) arbitrage.Config {
	return arbitrage.Config{
		Bankroll:         cfg.Bankroll,
		SafetyMargin:     cfg.SafetyMargin,
		FreshnessCeiling: seconds(cfg.FreshnessCeilingSeconds),
		QuoteSaturation:  cfg.QuoteSaturation,
		RecencyWeight:    cfg.RecencyWeight,
		CountWeight:      cfg.CountWeight,
		ValidityPrematch: cfg.Validity(false),
		ValidityLive:     cfg.Validity(true),
	}
}

func hedgeConfig(cfg config.HedgeConfig) hedge.Config {
	return hedge.Config{
		FreshWindow:     seconds(cfg.FreshWindowSeconds),
		DecayWindow:     seconds(cfg.DecayWindowSeconds),
		ConfidenceFloor: cfg.ConfidenceFloor,
		SuggestionTTL:   seconds(cfg.SuggestionTTLSeconds),
	}
}

func budgetConfig(cfg config.BudgetConfig) budget.Config {
	return budget.Config{
		Limit:            cfg.Limit,
		Policy:           budget.Policy(cfg.Policy),
		ReserveFloor:     cfg.ReserveFloor,
		ThrottleBelow:    cfg.ThrottleBelow,
		ThrottleInterval: seconds(cfg.ThrottleIntervalSeconds),
	}
}

func ingestionConfig(cfg *config.Config) service.IngestionConfig {
	return service.IngestionConfig{
		Sports:        cfg.Provider.Sports,
		Markets:       cfg.Provider.Markets,
		Jurisdictions: cfg.Provider.Jurisdictions,
		FetchTimeout:  cfg.Provider.ProviderTimeout(),
		QuoteMaxAge:   cfg.Arbitrage.QuoteMaxAge(),
	}
}

func arbitrageConfig(cfg *config.Config) service.ArbitrageConfig {
	return service.ArbitrageConfig{
		MinProfitPct:  cfg.Arbitrage.MinProfitPct,
		QuoteMaxAge:   cfg.Arbitrage.QuoteMaxAge(),
		Workers:       cfg.Arbitrage.Workers,
		Jurisdictions: cfg.Provider.Jurisdictions,
	}
}
