package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
)

// scheduledJob is the slice of a cronjob the planner needs.
type scheduledJob struct {
	ID       string
	Schedule string
	Timezone string
}

// Planner periodically scans active cron-triggered cronjobs and enqueues a
// pending run for each one whose schedule fired since the previous tick.
// Execution itself happens in the engine that consumes pending runs.
type Planner struct {
	db       core.DB
	runs     *core.RunService
	logger   zerolog.Logger
	interval time.Duration

	now func() time.Time
}

func NewPlanner(db core.DB, services *core.Services, logger zerolog.Logger, interval time.Duration) *Planner {
	return &Planner{
		db:       db,
		runs:     services.Run,
		logger:   logger.With().Str("component", "planner").Logger(),
		interval: interval,
		now:      time.Now,
	}
}

// Run ticks until the context is cancelled.
func (p *Planner) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info().Dur("interval", p.interval).Msg("planner started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("planner stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.logger.Error().Err(err).Msg("planner tick failed")
			}
		}
	}
}

// Tick enqueues runs for every cronjob due in the window (now-interval, now].
// Duplicate enqueues are absorbed by the single-pending-run guard, so a tick
// overlapping a manual trigger is harmless.
func (p *Planner) Tick(ctx context.Context) error {
	jobs, err := p.listScheduled(ctx)
	if err != nil {
		return err
	}

	now := p.now()
	enqueued := 0
	for _, job := range jobs {
		due, err := p.dueAt(job, now)
		if err != nil {
			p.logger.Warn().Err(err).Str("cronjob_id", job.ID).Msg("skipping cronjob with bad schedule")
			continue
		}
		if !due {
			continue
		}

		if _, err := p.runs.TriggerScheduled(ctx, job.ID); err != nil {
			if errors.Is(err, core.ErrDuplicateRun) {
				p.logger.Debug().Str("cronjob_id", job.ID).Msg("run already in flight, skipping")
				continue
			}
			p.logger.Error().Err(err).Str("cronjob_id", job.ID).Msg("failed to enqueue run")
			continue
		}
		enqueued++
	}

	if enqueued > 0 {
		p.logger.Info().Int("enqueued", enqueued).Int("scanned", len(jobs)).Msg("planner tick")
	}
	return nil
}

// dueAt reports whether the job's schedule fired in the window ending at now.
func (p *Planner) dueAt(job scheduledJob, now time.Time) (bool, error) {
	sched, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return false, fmt.Errorf("parse schedule %q: %w", job.Schedule, err)
	}
	loc, err := time.LoadLocation(job.Timezone)
	if err != nil {
		loc = time.UTC
	}

	windowStart := now.Add(-p.interval).In(loc)
	next := sched.Next(windowStart)
	return !next.After(now), nil
}

func (p *Planner) listScheduled(ctx context.Context) ([]scheduledJob, error) {
	rows, err := p.db.Query(ctx,
		`SELECT id, schedule, timezone FROM cronjobs WHERE status = $1 AND trigger_type = $2`,
		model.StatusActive, model.TriggerCron)
	if err != nil {
		return nil, fmt.Errorf("list scheduled cronjobs: %w", err)
	}
	defer rows.Close()

	var jobs []scheduledJob
	for rows.Next() {
		var job scheduledJob
		if err := rows.Scan(&job.ID, &job.Schedule, &job.Timezone); err != nil {
			return nil, fmt.Errorf("scan scheduled cronjob: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled cronjobs: %w", err)
	}
	return jobs, nil
}
