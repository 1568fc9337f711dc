package model

import "time"

// CronJob is a persisted definition of a scheduled or triggerable automation
// task. Schedules are five-field cron expressions evaluated in Timezone.
type CronJob struct {
	ID               string           `json:"id"`
	OwnerID          string           `json:"owner_id"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Schedule         string           `json:"schedule"`
	Timezone         string           `json:"timezone"`
	Target           string           `json:"target"`
	TriggerType      string           `json:"trigger_type"`
	AutomationLevel  string           `json:"automation_level"`
	Status           string           `json:"status"`
	Payload          Payload          `json:"payload"`
	Constraints      []string         `json:"constraints"`
	SafetyRails      []string         `json:"safety_rails"`
	RetryPolicy      RetryPolicy      `json:"retry_policy"`
	DeadLetterPolicy DeadLetterPolicy `json:"dead_letter_policy"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Payload carries the prompt template and its variable schema. Variable names
// are stored with {{ }} delimiters.
type Payload struct {
	PromptTemplate string                  `json:"prompt_template,omitempty"`
	VariableSchema map[string]VariableSpec `json:"variable_schema,omitempty"`
	SampleValues   map[string]any          `json:"sample_values,omitempty"`
}

// VariableSpec describes one template variable.
type VariableSpec struct {
	Type   string `json:"type"`
	Sample string `json:"sample,omitempty"`
}

// RetryPolicy controls re-execution of failed runs.
type RetryPolicy struct {
	MaxRetries int `json:"max_retries"`
	BackoffMS  int `json:"backoff_ms"`
}

// DeadLetterPolicy routes permanently failed runs to a separate target after
// retries are exhausted.
type DeadLetterPolicy struct {
	Enabled             bool   `json:"enabled,omitempty"`
	MaxRetriesBeforeDLQ int    `json:"max_retries_before_dlq,omitempty"`
	DLQTarget           string `json:"dlq_target,omitempty"`
}

// DefaultRetryPolicy is applied when a cronjob is created without one.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 3, BackoffMS: 1000}

// DefaultSchedule is the schedule applied when none is provided server-side.
const DefaultSchedule = "0 9 * * *"
