package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/halver/lifeops/internal/model"
	"github.com/halver/lifeops/internal/platform"
)

// DefaultRunPageSize is how many runs list_runs returns at most.
const DefaultRunPageSize = 50

type RunService struct {
	db DB
}

func NewRunService(db DB) *RunService {
	return &RunService{db: db}
}

// Trigger enqueues a run for the cronjob by inserting a pending row. The
// insert is guarded so a cronjob can have at most one pending or running run;
// a second trigger returns ErrDuplicateRun. Execution itself happens in the
// external engine that consumes pending rows.
func (s *RunService) Trigger(ctx context.Context, ownerID, cronJobID string) (*model.CronJobRun, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cronjobs WHERE id = $1 AND owner_id = $2)`,
		cronJobID, ownerID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check cronjob %s: %w", cronJobID, err)
	}
	if !exists {
		return nil, fmt.Errorf("cronjob %s: not found", cronJobID)
	}
	return s.enqueue(ctx, cronJobID)
}

// TriggerScheduled enqueues a run on behalf of the scheduler. Ownership has
// already been established by the due-job query.
func (s *RunService) TriggerScheduled(ctx context.Context, cronJobID string) (*model.CronJobRun, error) {
	return s.enqueue(ctx, cronJobID)
}

func (s *RunService) enqueue(ctx context.Context, cronJobID string) (*model.CronJobRun, error) {
	run := &model.CronJobRun{
		ID:        platform.NewID(),
		CronJobID: cronJobID,
		Status:    model.RunStatusPending,
		StartedAt: time.Now(),
	}

	// Single-statement guard: the row is only inserted when no pending or
	// running run exists for this cronjob.
	err := s.db.QueryRow(ctx,
		`INSERT INTO cronjob_runs (id, cronjob_id, status, started_at)
		 SELECT $1, $2, $3, $4
		 WHERE NOT EXISTS (
		   SELECT 1 FROM cronjob_runs WHERE cronjob_id = $2 AND status IN ('pending', 'running')
		 )
		 RETURNING id`,
		run.ID, cronJobID, run.Status, run.StartedAt,
	).Scan(&run.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDuplicateRun
		}
		return nil, fmt.Errorf("enqueue run for cronjob %s: %w", cronJobID, err)
	}
	return run, nil
}

func (s *RunService) GetByID(ctx context.Context, ownerID, id string) (*model.CronJobRun, error) {
	var run model.CronJobRun
	err := s.db.QueryRow(ctx,
		`SELECT r.id, r.cronjob_id, r.status, r.started_at, r.completed_at, r.logs, r.error, r.artifacts
		 FROM cronjob_runs r JOIN cronjobs c ON r.cronjob_id = c.id
		 WHERE r.id = $1 AND c.owner_id = $2`, id, ownerID,
	).Scan(&run.ID, &run.CronJobID, &run.Status, &run.StartedAt, &run.CompletedAt,
		&run.Logs, &run.Error, &run.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

// ListByCronJob returns the most recent runs for a cronjob, newest first.
func (s *RunService) ListByCronJob(ctx context.Context, ownerID, cronJobID string, limit int) ([]model.CronJobRun, error) {
	if limit <= 0 || limit > DefaultRunPageSize {
		limit = DefaultRunPageSize
	}

	rows, err := s.db.Query(ctx,
		`SELECT r.id, r.cronjob_id, r.status, r.started_at, r.completed_at, r.logs, r.error, r.artifacts
		 FROM cronjob_runs r JOIN cronjobs c ON r.cronjob_id = c.id
		 WHERE r.cronjob_id = $1 AND c.owner_id = $2
		 ORDER BY r.started_at DESC
		 LIMIT $3`, cronJobID, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs for cronjob %s: %w", cronJobID, err)
	}
	defer rows.Close()

	var runs []model.CronJobRun
	for rows.Next() {
		var run model.CronJobRun
		if err := rows.Scan(&run.ID, &run.CronJobID, &run.Status, &run.StartedAt,
			&run.CompletedAt, &run.Logs, &run.Error, &run.Artifacts); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
