// Package publisher pushes detected opportunities onto a Redis stream for
// downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/arb-hedger/internal/models"
)

// DefaultMaxLen caps the stream length; trimming is approximate
const DefaultMaxLen = 10000

// StreamAdder is the subset of the Redis client the publisher uses
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher publishes opportunities to a Redis stream
type StreamPublisher struct {
	client StreamAdder
	stream string
	maxLen int64
	logger *logrus.Entry
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client StreamAdder, stream string, log *logrus.Logger) *StreamPublisher {
	return &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: DefaultMaxLen,
		logger: log.WithField("component", "stream_publisher"),
	}
}

// NewRedisClient parses url and returns a connected client
func NewRedisClient(ctx context.Context, url, password string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// PublishOpportunity adds one opportunity as a stream entry
func (p *StreamPublisher) PublishOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("failed to marshal opportunity: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"market_id":   opp.MarketID,
			"profit_pct":  opp.ProfitPct,
			"provenance":  string(opp.Provenance),
			"opportunity": string(payload),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

// Publish adds a ranked batch in order, stopping at the first failure
func (p *StreamPublisher) Publish(ctx context.Context, opps []*models.ArbitrageOpportunity) error {
	for _, opp := range opps {
		if err := p.PublishOpportunity(ctx, opp); err != nil {
			return err
		}
	}
	if len(opps) > 0 {
		p.logger.WithFields(logrus.Fields{"stream": p.stream, "count": len(opps)}).Debug("Opportunities published")
	}
	return nil
}
