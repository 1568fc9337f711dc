package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/halver/lifeops/internal/model"
)

type CronJobService struct {
	db DB
}

func NewCronJobService(db DB) *CronJobService {
	return &CronJobService{db: db}
}

const cronJobColumns = `id, owner_id, name, description, schedule, timezone, target, trigger_type,
	 automation_level, status, payload, constraints, safety_rails, retry_policy, dead_letter_policy,
	 created_at, updated_at`

func (s *CronJobService) Create(ctx context.Context, cronJob *model.CronJob) error {
	payload, retryPolicy, dlqPolicy, err := marshalCronJobJSON(cronJob)
	if err != nil {
		return fmt.Errorf("create cronjob: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO cronjobs (id, owner_id, name, description, schedule, timezone, target, trigger_type,
		 automation_level, status, payload, constraints, safety_rails, retry_policy, dead_letter_policy,
		 created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		cronJob.ID, cronJob.OwnerID, cronJob.Name, cronJob.Description, cronJob.Schedule,
		cronJob.Timezone, cronJob.Target, cronJob.TriggerType, cronJob.AutomationLevel,
		cronJob.Status, payload, cronJob.Constraints, cronJob.SafetyRails, retryPolicy, dlqPolicy,
		cronJob.CreatedAt, cronJob.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cronjob: %w", err)
	}
	return nil
}

func (s *CronJobService) GetByID(ctx context.Context, ownerID, id string) (*model.CronJob, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+cronJobColumns+` FROM cronjobs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	cronJob, err := scanCronJob(row)
	if err != nil {
		return nil, fmt.Errorf("get cronjob %s: %w", id, err)
	}
	return cronJob, nil
}

// List returns the owner's cronjobs ordered by updated_at descending. The
// cursor is "<updated_at RFC3339Nano>|<id>" from the last item of the
// previous page.
func (s *CronJobService) List(ctx context.Context, ownerID string, limit int, cursor string) ([]model.CronJob, bool, error) {
	query := `SELECT ` + cronJobColumns + ` FROM cronjobs WHERE owner_id = $1`
	args := []any{ownerID}
	argIdx := 2

	if cursor != "" {
		ts, id, err := decodeCursor(cursor)
		if err != nil {
			return nil, false, err
		}
		query += fmt.Sprintf(` AND (updated_at, id) < ($%d, $%d)`, argIdx, argIdx+1)
		args = append(args, ts, id)
		argIdx += 2
	}

	query += ` ORDER BY updated_at DESC, id DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list cronjobs: %w", err)
	}
	defer rows.Close()

	var cronJobs []model.CronJob
	for rows.Next() {
		cronJob, err := scanCronJob(rows)
		if err != nil {
			return nil, false, fmt.Errorf("scan cronjob: %w", err)
		}
		cronJobs = append(cronJobs, *cronJob)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate cronjobs: %w", err)
	}

	hasMore := len(cronJobs) > limit
	if hasMore {
		cronJobs = cronJobs[:limit]
	}
	return cronJobs, hasMore, nil
}

func (s *CronJobService) Update(ctx context.Context, cronJob *model.CronJob) error {
	payload, retryPolicy, dlqPolicy, err := marshalCronJobJSON(cronJob)
	if err != nil {
		return fmt.Errorf("update cronjob: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE cronjobs SET name = $1, description = $2, schedule = $3, timezone = $4, target = $5,
		 trigger_type = $6, automation_level = $7, status = $8, payload = $9, constraints = $10,
		 safety_rails = $11, retry_policy = $12, dead_letter_policy = $13, updated_at = $14
		 WHERE id = $15 AND owner_id = $16`,
		cronJob.Name, cronJob.Description, cronJob.Schedule, cronJob.Timezone, cronJob.Target,
		cronJob.TriggerType, cronJob.AutomationLevel, cronJob.Status, payload, cronJob.Constraints,
		cronJob.SafetyRails, retryPolicy, dlqPolicy, cronJob.UpdatedAt, cronJob.ID, cronJob.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update cronjob %s: %w", cronJob.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update cronjob %s: not found", cronJob.ID)
	}
	return nil
}

func (s *CronJobService) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM cronjobs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete cronjob %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete cronjob %s: not found", id)
	}
	return nil
}

// SetStatus moves a cronjob between active, paused, and draft.
func (s *CronJobService) SetStatus(ctx context.Context, ownerID, id, status string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE cronjobs SET status = $1, updated_at = now() WHERE id = $2 AND owner_id = $3`,
		status, id, ownerID)
	if err != nil {
		return fmt.Errorf("set cronjob %s status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set cronjob %s status: not found", id)
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanCronJob(row scanner) (*model.CronJob, error) {
	var c model.CronJob
	var payload, retryPolicy, dlqPolicy []byte
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.Schedule, &c.Timezone,
		&c.Target, &c.TriggerType, &c.AutomationLevel, &c.Status, &payload, &c.Constraints,
		&c.SafetyRails, &retryPolicy, &dlqPolicy, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &c.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	if len(retryPolicy) > 0 {
		if err := json.Unmarshal(retryPolicy, &c.RetryPolicy); err != nil {
			return nil, fmt.Errorf("decode retry policy: %w", err)
		}
	}
	if len(dlqPolicy) > 0 {
		if err := json.Unmarshal(dlqPolicy, &c.DeadLetterPolicy); err != nil {
			return nil, fmt.Errorf("decode dead letter policy: %w", err)
		}
	}
	return &c, nil
}

func marshalCronJobJSON(c *model.CronJob) (payload, retryPolicy, dlqPolicy []byte, err error) {
	if payload, err = json.Marshal(c.Payload); err != nil {
		return nil, nil, nil, fmt.Errorf("encode payload: %w", err)
	}
	if retryPolicy, err = json.Marshal(c.RetryPolicy); err != nil {
		return nil, nil, nil, fmt.Errorf("encode retry policy: %w", err)
	}
	if dlqPolicy, err = json.Marshal(c.DeadLetterPolicy); err != nil {
		return nil, nil, nil, fmt.Errorf("encode dead letter policy: %w", err)
	}
	return payload, retryPolicy, dlqPolicy, nil
}

// EncodeCursor builds the pagination cursor for a list page ending at c.
func EncodeCursor(c *model.CronJob) string {
	return c.UpdatedAt.UTC().Format(time.RFC3339Nano) + "|" + c.ID
}

func decodeCursor(cursor string) (time.Time, string, error) {
	tsStr, id, ok := strings.Cut(cursor, "|")
	if !ok {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed cursor: %w", err)
	}
	return ts, id, nil
}
