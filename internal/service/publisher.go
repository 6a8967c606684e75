package service

import (
	"context"
	"errors"

	"github.com/yourusername/arb-hedger/internal/models"
)

// OpportunityPublisher pushes a ranked batch of opportunities to subscribers
type OpportunityPublisher interface {
	Publish(ctx context.Context, opps []*models.ArbitrageOpportunity) error
}

// Publishers fans a batch out to several publishers
type Publishers []OpportunityPublisher

// Publish calls every publisher and joins their errors
func (p Publishers) Publish(ctx context.Context, opps []*models.ArbitrageOpportunity) error {
	var errs []error
	for _, pub := range p {
		if pub == nil {
			continue
		}
		if err := pub.Publish(ctx, opps); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Auditor records user-initiated state changes
type Auditor interface {
	LogScanConfirmed(actor string, jurisdictions, sports []string, estimatedCredits int)
	LogBetStateChange(actor, betID, oldState, newState string)
	LogManualTrigger(actor, jobName string)
}
