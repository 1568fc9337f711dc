// Package demo holds the bundled demo records the dashboard shows when no
// real data exists yet, and a seeder that loads them into the database.
package demo

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
)

//go:embed cronjobs.yaml
var cronjobsYAML []byte

type seedFile struct {
	OwnerID  string         `yaml:"owner_id"`
	CronJobs []cronJobEntry `yaml:"cronjobs"`
	Runs     []runEntry     `yaml:"runs"`
}

type cronJobEntry struct {
	ID              string                   `yaml:"id"`
	Name            string                   `yaml:"name"`
	Description     string                   `yaml:"description"`
	Schedule        string                   `yaml:"schedule"`
	Timezone        string                   `yaml:"timezone"`
	Target          string                   `yaml:"target"`
	TriggerType     string                   `yaml:"trigger_type"`
	AutomationLevel string                   `yaml:"automation_level"`
	Status          string                   `yaml:"status"`
	PromptTemplate  string                   `yaml:"prompt_template"`
	Variables       map[string]variableEntry `yaml:"variables"`
	Constraints     []string                 `yaml:"constraints"`
	SafetyRails     []string                 `yaml:"safety_rails"`
}

type variableEntry struct {
	Type   string `yaml:"type"`
	Sample string `yaml:"sample"`
}

type runEntry struct {
	ID              string         `yaml:"id"`
	CronJobID       string         `yaml:"cronjob_id"`
	Status          string         `yaml:"status"`
	MinutesAgo      int            `yaml:"minutes_ago"`
	DurationSeconds int            `yaml:"duration_seconds"`
	Logs            string         `yaml:"logs"`
	Error           string         `yaml:"error"`
	Artifacts       map[string]any `yaml:"artifacts"`
}

// Load parses the embedded seed data. Cronjob entries are passed through the
// regular validation path so demo records always match current normalization
// rules.
func Load() (string, []model.CronJob, []model.CronJobRun, error) {
	var file seedFile
	if err := yaml.Unmarshal(cronjobsYAML, &file); err != nil {
		return "", nil, nil, fmt.Errorf("parse demo seed: %w", err)
	}

	now := time.Now()
	cronJobs := make([]model.CronJob, 0, len(file.CronJobs))
	for _, entry := range file.CronJobs {
		draft := core.CronJobDraft{
			Name:            entry.Name,
			Description:     entry.Description,
			Schedule:        entry.Schedule,
			Timezone:        entry.Timezone,
			Target:          entry.Target,
			TriggerType:     entry.TriggerType,
			AutomationLevel: entry.AutomationLevel,
			Status:          entry.Status,
			PromptTemplate:  entry.PromptTemplate,
			Constraints:     entry.Constraints,
			SafetyRails:     entry.SafetyRails,
		}
		if len(entry.Variables) > 0 {
			draft.VariableSchema = make(map[string]core.VariableDraft, len(entry.Variables))
			for name, v := range entry.Variables {
				draft.VariableSchema[name] = core.VariableDraft{Type: v.Type, Sample: v.Sample}
			}
		}

		cronJob, fieldErrs := core.ValidateCronJob(draft)
		if fieldErrs != nil {
			return "", nil, nil, fmt.Errorf("demo cronjob %s: %s", entry.Name, fieldErrs.Error())
		}
		cronJob.ID = entry.ID
		cronJob.OwnerID = file.OwnerID
		cronJob.CreatedAt = now
		cronJob.UpdatedAt = now
		cronJobs = append(cronJobs, *cronJob)
	}

	runs := make([]model.CronJobRun, 0, len(file.Runs))
	for _, entry := range file.Runs {
		run := model.CronJobRun{
			ID:        entry.ID,
			CronJobID: entry.CronJobID,
			Status:    entry.Status,
			StartedAt: now.Add(-time.Duration(entry.MinutesAgo) * time.Minute),
		}
		if entry.DurationSeconds > 0 {
			completed := run.StartedAt.Add(time.Duration(entry.DurationSeconds) * time.Second)
			run.CompletedAt = &completed
		}
		if entry.Logs != "" {
			logs := entry.Logs
			run.Logs = &logs
		}
		if entry.Error != "" {
			errMsg := entry.Error
			run.Error = &errMsg
		}
		if len(entry.Artifacts) > 0 {
			raw, err := json.Marshal(entry.Artifacts)
			if err != nil {
				return "", nil, nil, fmt.Errorf("demo run %s artifacts: %w", entry.ID, err)
			}
			run.Artifacts = raw
		}
		runs = append(runs, run)
	}

	return file.OwnerID, cronJobs, runs, nil
}

// Seed inserts the demo records, replacing any previous demo rows.
func Seed(ctx context.Context, db core.DB) error {
	ownerID, cronJobs, runs, err := Load()
	if err != nil {
		return err
	}

	if _, err := db.Exec(ctx, `DELETE FROM cronjobs WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("clear demo cronjobs: %w", err)
	}

	svc := core.NewCronJobService(db)
	for i := range cronJobs {
		if err := svc.Create(ctx, &cronJobs[i]); err != nil {
			return fmt.Errorf("seed cronjob %s: %w", cronJobs[i].Name, err)
		}
	}

	for _, run := range runs {
		_, err := db.Exec(ctx,
			`INSERT INTO cronjob_runs (id, cronjob_id, status, started_at, completed_at, logs, error, artifacts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			run.ID, run.CronJobID, run.Status, run.StartedAt, run.CompletedAt, run.Logs, run.Error, run.Artifacts)
		if err != nil {
			return fmt.Errorf("seed run %s: %w", run.ID, err)
		}
	}

	if _, err := db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, display_name, email, timezone, plan)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO NOTHING`,
		ownerID, "Demo User", "demo@lifeops.local", "UTC", "free"); err != nil {
		return fmt.Errorf("seed demo profile: %w", err)
	}

	return nil
}
