package model

import (
	"encoding/json"
	"time"
)

// CronJobRun is one execution attempt of a cronjob. Rows are created in
// pending state; the execution engine transitions them to running and then
// terminally to success or failed.
type CronJobRun struct {
	ID          string          `json:"id"`
	CronJobID   string          `json:"cronjob_id"`
	Status      string          `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Logs        *string         `json:"logs,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Artifacts   json.RawMessage `json:"artifacts,omitempty"`
}

// Terminal reports whether the run has reached a final state.
func (r *CronJobRun) Terminal() bool {
	return r.Status == RunStatusSuccess || r.Status == RunStatusFailed
}
