package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/models"
)

const quoteColumns = "id, event_id, market_id, sportsbook, outcome_id, price, is_live, jurisdictions, captured_at, provenance"

// PostgresQuoteRepository implements QuoteRepository for PostgreSQL
type PostgresQuoteRepository struct {
	db *database.DB
}

// NewPostgresQuoteRepository creates a new quote repository
func NewPostgresQuoteRepository(db *database.DB) QuoteRepository {
	return &PostgresQuoteRepository{db: db}
}

// InsertBatch inserts quotes using COPY; quotes without an ID get one
func (r *PostgresQuoteRepository) InsertBatch(ctx context.Context, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}

	columns := []string{"id", "event_id", "market_id", "sportsbook", "outcome_id", "price", "is_live", "jurisdictions", "captured_at", "provenance"}

	rows := make([][]interface{}, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		jurisdictions := q.Jurisdictions
		if jurisdictions == nil {
			jurisdictions = []string{}
		}
		rows[i] = []interface{}{
			q.ID, q.EventID, q.MarketID, q.Sportsbook, q.OutcomeID,
			q.Price, q.IsLive, jurisdictions, q.CapturedAt, string(q.Provenance),
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"quotes"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert quotes: %w", err)
	}
	if count != int64(len(quotes)) {
		return fmt.Errorf("inserted %d quotes, expected %d", count, len(quotes))
	}
	return nil
}

// ListRecentByMarket returns quotes for one market captured at or after since
func (r *PostgresQuoteRepository) ListRecentByMarket(ctx context.Context, marketID string, since time.Time) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes
		WHERE market_id = $1 AND captured_at >= $2
		ORDER BY captured_at DESC`

	rows, err := r.db.GetPool().Query(ctx, query, marketID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes by market: %w", err)
	}
	return collectQuotes(rows)
}

// ListRecent returns every quote captured at or after since
func (r *PostgresQuoteRepository) ListRecent(ctx context.Context, since time.Time) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + `
		FROM quotes
		WHERE captured_at >= $1
		ORDER BY market_id, captured_at DESC`

	rows, err := r.db.GetPool().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent quotes: %w", err)
	}
	return collectQuotes(rows)
}

// DeleteOlderThan removes quotes captured before cutoff
func (r *PostgresQuoteRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, "DELETE FROM quotes WHERE captured_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old quotes: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectQuotes(rows pgx.Rows) ([]models.Quote, error) {
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		var q models.Quote
		var provenance string
		err := rows.Scan(
			&q.ID, &q.EventID, &q.MarketID, &q.Sportsbook, &q.OutcomeID,
			&q.Price, &q.IsLive, &q.Jurisdictions, &q.CapturedAt, &provenance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		q.Provenance = models.Provenance(provenance)
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
