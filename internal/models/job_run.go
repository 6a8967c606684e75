package models

import (
	"time"

	"github.com/google/uuid"
)

// JobState is the lifecycle state of a single job run
type JobState string

const (
	JobStateIdle    JobState = "idle"
	JobStateRunning JobState = "running"
	JobStateSuccess JobState = "success"
	JobStateFailed  JobState = "failed"
)

// JobTrigger records why a run started
type JobTrigger string

const (
	JobTriggerScheduled JobTrigger = "scheduled"
	JobTriggerManual    JobTrigger = "manual"
)

// JobRun is the durable record of one job execution
type JobRun struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	JobName    string     `db:"job_name" json:"job_name"`
	Trigger    JobTrigger `db:"trigger" json:"trigger"`
	State      JobState   `db:"state" json:"state"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	Error      string     `db:"error" json:"error,omitempty"`
	Summary    string     `db:"summary" json:"summary,omitempty"`
}

// Duration returns how long the run took, or zero while running
func (r *JobRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IsTerminal reports whether the run reached success or failure
func (r *JobRun) IsTerminal() bool {
	return r.State == JobStateSuccess || r.State == JobStateFailed
}
