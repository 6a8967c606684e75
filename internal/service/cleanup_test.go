package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupDeletesExpiredAndRetained(t *testing.T) {
	opps := new(MockOpportunityRepository)
	hedges := new(MockHedgeRepository)
	quotes := new(MockQuoteRepository)

	opps.On("DeleteExpired", context.Background(), testNow).Return(int64(3), nil)
	hedges.On("DeleteExpired", context.Background(), testNow).Return(int64(2), nil)
	quotes.On("DeleteOlderThan", context.Background(), testNow.Add(-24*time.Hour)).Return(int64(40), nil)

	svc := NewCleanupService(opps, hedges, quotes, 24*time.Hour, quietLogger())
	svc.now = func() time.Time { return testNow }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{Opportunities: 3, Hedges: 2, Quotes: 40}, *result)
}

func TestCleanupStopsOnError(t *testing.T) {
	opps := new(MockOpportunityRepository)
	hedges := new(MockHedgeRepository)
	quotes := new(MockQuoteRepository)
	opps.On("DeleteExpired", context.Background(), testNow).Return(int64(0), assert.AnError)

	svc := NewCleanupService(opps, hedges, quotes, 24*time.Hour, quietLogger())
	svc.now = func() time.Time { return testNow }

	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	hedges.AssertNotCalled(t, "DeleteExpired")
}
