package core

import (
	"context"
	"fmt"
)

// DashboardStats holds aggregate counts for one owner.
type DashboardStats struct {
	Cronjobs        int           `json:"cronjobs"`
	CronjobsActive  int           `json:"cronjobs_active"`
	CronjobsPaused  int           `json:"cronjobs_paused"`
	CronjobsDraft   int           `json:"cronjobs_draft"`
	CronjobsByLevel []LevelCount  `json:"cronjobs_by_level"`
	Runs24h         int           `json:"runs_24h"`
	RunsByStatus    []StatusCount `json:"runs_by_status"`
	FailureRate24h  *float64      `json:"failure_rate_24h"`
	Integrations    int           `json:"integrations"`
}

// StatusCount holds a count grouped by status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// LevelCount holds a cronjob count grouped by automation level.
type LevelCount struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

// DashboardService queries aggregate stats.
type DashboardService struct {
	db DB
}

func NewDashboardService(db DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats returns aggregate counts for the owner using a single CTE query,
// plus two group-by queries.
func (s *DashboardService) Stats(ctx context.Context, ownerID string) (*DashboardStats, error) {
	const countsQuery = `
		WITH cronjob_count AS (
			SELECT count(*) AS c FROM cronjobs WHERE owner_id = $1
		), cronjob_active AS (
			SELECT count(*) AS c FROM cronjobs WHERE owner_id = $1 AND status = 'active'
		), cronjob_paused AS (
			SELECT count(*) AS c FROM cronjobs WHERE owner_id = $1 AND status = 'paused'
		), cronjob_draft AS (
			SELECT count(*) AS c FROM cronjobs WHERE owner_id = $1 AND status = 'draft'
		), runs_24h AS (
			SELECT count(*) AS c FROM cronjob_runs r
			JOIN cronjobs c2 ON r.cronjob_id = c2.id
			WHERE c2.owner_id = $1 AND r.started_at > now() - interval '24 hours'
		), failed_24h AS (
			SELECT count(*) AS c FROM cronjob_runs r
			JOIN cronjobs c2 ON r.cronjob_id = c2.id
			WHERE c2.owner_id = $1 AND r.status = 'failed' AND r.started_at > now() - interval '24 hours'
		), integration_count AS (
			SELECT count(*) AS c FROM integrations WHERE owner_id = $1 AND status = 'connected'
		)
		SELECT cronjob_count.c, cronjob_active.c, cronjob_paused.c, cronjob_draft.c,
		       runs_24h.c, failed_24h.c, integration_count.c
		FROM cronjob_count, cronjob_active, cronjob_paused, cronjob_draft,
		     runs_24h, failed_24h, integration_count`

	var stats DashboardStats
	var failed24h int
	err := s.db.QueryRow(ctx, countsQuery, ownerID).Scan(
		&stats.Cronjobs, &stats.CronjobsActive, &stats.CronjobsPaused, &stats.CronjobsDraft,
		&stats.Runs24h, &failed24h, &stats.Integrations,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	if stats.Runs24h > 0 {
		rate := float64(failed24h) / float64(stats.Runs24h)
		stats.FailureRate24h = &rate
	}

	rows, err := s.db.Query(ctx,
		`SELECT r.status, count(*) FROM cronjob_runs r
		 JOIN cronjobs c ON r.cronjob_id = c.id
		 WHERE c.owner_id = $1 GROUP BY r.status ORDER BY r.status`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("dashboard runs by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan run status count: %w", err)
		}
		stats.RunsByStatus = append(stats.RunsByStatus, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run status counts: %w", err)
	}

	levelRows, err := s.db.Query(ctx,
		`SELECT automation_level, count(*) FROM cronjobs
		 WHERE owner_id = $1 GROUP BY automation_level ORDER BY automation_level`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("dashboard cronjobs by level: %w", err)
	}
	defer levelRows.Close()
	for levelRows.Next() {
		var lc LevelCount
		if err := levelRows.Scan(&lc.Level, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan level count: %w", err)
		}
		stats.CronjobsByLevel = append(stats.CronjobsByLevel, lc)
	}
	if err := levelRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate level counts: %w", err)
	}

	return &stats, nil
}
