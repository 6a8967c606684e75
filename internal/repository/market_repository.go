package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/models"
)

// PostgresMarketRepository implements MarketRepository for PostgreSQL
type PostgresMarketRepository struct {
	db *database.DB
}

// NewPostgresMarketRepository creates a new market repository
func NewPostgresMarketRepository(db *database.DB) MarketRepository {
	return &PostgresMarketRepository{db: db}
}

// Upsert inserts a market or refreshes its start time. The outcome set of an
// existing market is never rewritten.
func (r *PostgresMarketRepository) Upsert(ctx context.Context, market *models.Market) error {
	query := `
		INSERT INTO markets (id, event_id, kind, line, outcomes, starts_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET starts_at = EXCLUDED.starts_at, updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		market.ID, market.EventID, string(market.Kind), market.Line, market.Outcomes, market.StartsAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert market: %w", err)
	}
	return nil
}

// GetByID retrieves a market by ID
func (r *PostgresMarketRepository) GetByID(ctx context.Context, id string) (*models.Market, error) {
	query := `SELECT id, event_id, kind, line, outcomes, starts_at FROM markets WHERE id = $1`

	market, err := scanMarket(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}
	return market, nil
}

// ListActive returns markets whose event starts at or after startsAfter
func (r *PostgresMarketRepository) ListActive(ctx context.Context, startsAfter time.Time) ([]*models.Market, error) {
	query := `
		SELECT id, event_id, kind, line, outcomes, starts_at
		FROM markets
		WHERE starts_at >= $1
		ORDER BY starts_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, startsAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to query active markets: %w", err)
	}
	defer rows.Close()

	var markets []*models.Market
	for rows.Next() {
		market, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan market: %w", err)
		}
		markets = append(markets, market)
	}
	return markets, rows.Err()
}

func scanMarket(row pgx.Row) (*models.Market, error) {
	m := &models.Market{}
	var kind string
	if err := row.Scan(&m.ID, &m.EventID, &kind, &m.Line, &m.Outcomes, &m.StartsAt); err != nil {
		return nil, err
	}
	m.Kind = models.MarketKind(kind)
	return m, nil
}
