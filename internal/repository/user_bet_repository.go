package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/models"
)

const userBetColumns = `id, user_id, event_id, market_id, sportsbook, outcome_id, stake, price_at_bet,
		       is_tracked, status, event_starts_at, created_at, updated_at`

const uniqueViolation = "23505"

// PostgresUserBetRepository implements UserBetRepository for PostgreSQL
type PostgresUserBetRepository struct {
	db *database.DB
}

// NewPostgresUserBetRepository creates a new user bet repository
func NewPostgresUserBetRepository(db *database.DB) UserBetRepository {
	return &PostgresUserBetRepository{db: db}
}

// Create inserts a new user bet
func (r *PostgresUserBetRepository) Create(ctx context.Context, bet *models.UserBet) error {
	query := `
		INSERT INTO user_bets (id, user_id, event_id, market_id, sportsbook, outcome_id, stake, price_at_bet,
		                       is_tracked, status, event_starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	var startsAt *time.Time
	if !bet.EventStartsAt.IsZero() {
		startsAt = &bet.EventStartsAt
	}

	_, err := r.db.GetPool().Exec(ctx, query,
		bet.ID, bet.UserID, bet.EventID, bet.MarketID, bet.Sportsbook, bet.OutcomeID, bet.Stake, bet.PriceAtBet,
		bet.IsTracked, string(bet.Status), startsAt, bet.CreatedAt, bet.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("user bet %s: %w", bet.ID, models.ErrDuplicateKey)
	}
	if err != nil {
		return fmt.Errorf("failed to create user bet: %w", err)
	}
	return nil
}

// GetByID retrieves a user bet by ID
func (r *PostgresUserBetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserBet, error) {
	query := `SELECT ` + userBetColumns + ` FROM user_bets WHERE id = $1`

	bet, err := scanUserBet(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user bet: %w", err)
	}
	return bet, nil
}

// ListTracked returns pending bets with tracking enabled
func (r *PostgresUserBetRepository) ListTracked(ctx context.Context) ([]*models.UserBet, error) {
	query := `SELECT ` + userBetColumns + `
		FROM user_bets
		WHERE is_tracked = TRUE AND status = 'pending'
		ORDER BY created_at ASC`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked bets: %w", err)
	}
	defer rows.Close()

	var bets []*models.UserBet
	for rows.Next() {
		bet, err := scanUserBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user bet: %w", err)
		}
		bets = append(bets, bet)
	}
	return bets, rows.Err()
}

// UpdateTracking toggles hedge monitoring for a bet
func (r *PostgresUserBetRepository) UpdateTracking(ctx context.Context, id uuid.UUID, tracked bool) error {
	tag, err := r.db.GetPool().Exec(ctx,
		"UPDATE user_bets SET is_tracked = $2, updated_at = NOW() WHERE id = $1", id, tracked)
	if err != nil {
		return fmt.Errorf("failed to update bet tracking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Settle records a terminal status. Settled bets stop being tracked.
func (r *PostgresUserBetRepository) Settle(ctx context.Context, id uuid.UUID, status models.BetStatus) error {
	if !status.IsSettlement() {
		return models.InvalidInputf("status %q is not a settlement", status)
	}

	tag, err := r.db.GetPool().Exec(ctx,
		"UPDATE user_bets SET status = $2, is_tracked = FALSE, updated_at = NOW() WHERE id = $1 AND status = 'pending'",
		id, string(status))
	if err != nil {
		return fmt.Errorf("failed to settle bet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func scanUserBet(row pgx.Row) (*models.UserBet, error) {
	bet := &models.UserBet{}
	var status string
	var startsAt *time.Time
	err := row.Scan(
		&bet.ID, &bet.UserID, &bet.EventID, &bet.MarketID, &bet.Sportsbook, &bet.OutcomeID, &bet.Stake, &bet.PriceAtBet,
		&bet.IsTracked, &status, &startsAt, &bet.CreatedAt, &bet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bet.Status = models.BetStatus(status)
	if startsAt != nil {
		bet.EventStartsAt = *startsAt
	}
	return bet, nil
}
