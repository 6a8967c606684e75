package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/models"
)

// PostgresOpportunityRepository implements OpportunityRepository for PostgreSQL.
// Rows are insert-only; cleanup deletes them once expired.
type PostgresOpportunityRepository struct {
	db *database.DB
}

// NewPostgresOpportunityRepository creates a new opportunity repository
func NewPostgresOpportunityRepository(db *database.DB) OpportunityRepository {
	return &PostgresOpportunityRepository{db: db}
}

// InsertBatch inserts opportunities in a single transaction
func (r *PostgresOpportunityRepository) InsertBatch(ctx context.Context, opps []*models.ArbitrageOpportunity) error {
	if len(opps) == 0 {
		return nil
	}

	query := `
		INSERT INTO opportunities (id, event_id, market_id, legs, total_implied, profit_pct, bankroll,
		                           locked_profit, validity_seconds, confidence, jurisdictions, provenance,
		                           created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, opp := range opps {
			if opp.ID == uuid.Nil {
				opp.ID = uuid.New()
			}
			legs, err := json.Marshal(opp.Legs)
			if err != nil {
				return fmt.Errorf("failed to encode opportunity legs: %w", err)
			}
			jurisdictions := opp.Jurisdictions
			if jurisdictions == nil {
				jurisdictions = []string{}
			}
			batch.Queue(query,
				opp.ID, opp.EventID, opp.MarketID, legs, opp.TotalImplied, opp.ProfitPct, opp.Bankroll,
				opp.LockedProfit, opp.ValiditySeconds, opp.Confidence, jurisdictions, string(opp.Provenance),
				opp.CreatedAt, opp.ExpiresAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		for range opps {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert opportunity: %w", err)
			}
		}
		return results.Close()
	})
}

// ListActive returns opportunities that have not expired at now, best first
func (r *PostgresOpportunityRepository) ListActive(ctx context.Context, now time.Time) ([]*models.ArbitrageOpportunity, error) {
	query := `
		SELECT id, event_id, market_id, legs, total_implied, profit_pct, bankroll, locked_profit,
		       validity_seconds, confidence, jurisdictions, provenance, created_at, expires_at
		FROM opportunities
		WHERE expires_at > $1
		ORDER BY locked_profit DESC, confidence DESC, expires_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active opportunities: %w", err)
	}
	defer rows.Close()

	var opps []*models.ArbitrageOpportunity
	for rows.Next() {
		opp := &models.ArbitrageOpportunity{}
		var legs []byte
		var provenance string
		err := rows.Scan(
			&opp.ID, &opp.EventID, &opp.MarketID, &legs, &opp.TotalImplied, &opp.ProfitPct, &opp.Bankroll,
			&opp.LockedProfit, &opp.ValiditySeconds, &opp.Confidence, &opp.Jurisdictions, &provenance,
			&opp.CreatedAt, &opp.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		if err := json.Unmarshal(legs, &opp.Legs); err != nil {
			return nil, fmt.Errorf("failed to decode opportunity legs: %w", err)
		}
		opp.Provenance = models.Provenance(provenance)
		opps = append(opps, opp)
	}
	return opps, rows.Err()
}

// DeleteExpired removes opportunities whose expiry is at or before now
func (r *PostgresOpportunityRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM opportunities WHERE expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired opportunities: %w", err)
	}
	return tag.RowsAffected(), nil
}
