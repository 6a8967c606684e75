package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/arb-hedger/internal/database"
	"github.com/yourusername/arb-hedger/internal/models"
)

// PostgresJobRunRepository implements JobRunRepository for PostgreSQL
type PostgresJobRunRepository struct {
	db *database.DB
}

// NewPostgresJobRunRepository creates a new job run repository
func NewPostgresJobRunRepository(db *database.DB) JobRunRepository {
	return &PostgresJobRunRepository{db: db}
}

// Create records the start of a run
func (r *PostgresJobRunRepository) Create(ctx context.Context, run *models.JobRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO job_runs (id, job_name, trigger, state, started_at, error, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.JobName, string(run.Trigger), string(run.State), run.StartedAt, run.Error, run.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to create job run: %w", err)
	}
	return nil
}

// Finish records the terminal state of a run
func (r *PostgresJobRunRepository) Finish(ctx context.Context, run *models.JobRun) error {
	query := `
		UPDATE job_runs SET state = $2, finished_at = $3, error = $4, summary = $5
		WHERE id = $1
	`
	tag, err := r.db.GetPool().Exec(ctx, query,
		run.ID, string(run.State), run.FinishedAt, run.Error, run.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to finish job run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListRecent returns the latest runs, optionally filtered by job name
func (r *PostgresJobRunRepository) ListRecent(ctx context.Context, jobName string, limit int) ([]*models.JobRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, job_name, trigger, state, started_at, finished_at, error, summary
		FROM job_runs
		WHERE ($1 = '' OR job_name = $1)
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, jobName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query job runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.JobRun
	for rows.Next() {
		run := &models.JobRun{}
		var trigger, state string
		err := rows.Scan(&run.ID, &run.JobName, &trigger, &state, &run.StartedAt, &run.FinishedAt, &run.Error, &run.Summary)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		run.Trigger = models.JobTrigger(trigger)
		run.State = models.JobState(state)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
