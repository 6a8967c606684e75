package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/models"
)

// PostgresHedgeSuggestionRepository implements HedgeSuggestionRepository for PostgreSQL
type PostgresHedgeSuggestionRepository struct {
	db *database.DB
}

// NewPostgresHedgeSuggestionRepository creates a new hedge suggestion repository
func NewPostgresHedgeSuggestionRepository(db *database.DB) HedgeSuggestionRepository {
	return &PostgresHedgeSuggestionRepository{db: db}
}

// Create inserts a hedge suggestion
func (r *PostgresHedgeSuggestionRepository) Create(ctx context.Context, s *models.HedgeSuggestion) error {
	if s.LockedProfitLow <= 0 {
		return models.InvalidInputf("hedge suggestion must lock a positive profit")
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	legs, err := json.Marshal(s.Legs)
	if err != nil {
		return fmt.Errorf("failed to encode hedge legs: %w", err)
	}

	query := `
		INSERT INTO hedge_suggestions (id, bet_id, legs, locked_profit_low, locked_profit_high,
		                               rationale, confidence, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.GetPool().Exec(ctx, query,
		s.ID, s.BetID, legs, s.LockedProfitLow, s.LockedProfitHigh, s.Rationale, s.Confidence, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create hedge suggestion: %w", err)
	}
	return nil
}

// ListByBet returns unexpired suggestions for a bet, newest first
func (r *PostgresHedgeSuggestionRepository) ListByBet(ctx context.Context, betID uuid.UUID, now time.Time) ([]*models.HedgeSuggestion, error) {
	query := `
		SELECT id, bet_id, legs, locked_profit_low, locked_profit_high, rationale, confidence, created_at, expires_at
		FROM hedge_suggestions
		WHERE bet_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.GetPool().Query(ctx, query, betID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query hedge suggestions: %w", err)
	}
	defer rows.Close()

	var out []*models.HedgeSuggestion
	for rows.Next() {
		s := &models.HedgeSuggestion{}
		var legs []byte
		err := rows.Scan(&s.ID, &s.BetID, &legs, &s.LockedProfitLow, &s.LockedProfitHigh,
			&s.Rationale, &s.Confidence, &s.CreatedAt, &s.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hedge suggestion: %w", err)
		}
		if err := json.Unmarshal(legs, &s.Legs); err != nil {
			return nil, fmt.Errorf("failed to decode hedge legs: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteExpired removes suggestions whose expiry is at or before now
func (r *PostgresHedgeSuggestionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM hedge_suggestions WHERE expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired hedge suggestions: %w", err)
	}
	return tag.RowsAffected(), nil
}
