// Package provider fetches odds from the external odds API, or from the
// explicitly labelled simulated source.
package provider

import (
	"context"

	"github.com/yourusername/arb-hedger/internal/models"
)

// OddsProvider fetches one sport's events and quotes per call
type OddsProvider interface {
	// FetchOdds retrieves events for req.Sport with quotes from req.Bookmakers
	FetchOdds(ctx context.Context, req FetchRequest) (*FetchResult, error)

	// Name returns the provider name used in logs and errors
	Name() string

	// Provenance tags every quote this provider returns
	Provenance() models.Provenance
}

// FetchRequest selects one sport endpoint
type FetchRequest struct {
	Sport      string
	Markets    []string
	Bookmakers []string
	LiveOnly   bool
}

// FetchResult is one sport's batch plus the credit usage the call reported
type FetchResult struct {
	Events   []models.Event
	Usage    models.CreditUsage
	Requests int
}

// QuoteCount returns the number of quotes across all events
func (r *FetchResult) QuoteCount() int {
	n := 0
	for i := range r.Events {
		for _, m := range r.Events[i].Markets {
			n += len(m.Quotes)
		}
	}
	return n
}
