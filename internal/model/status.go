package model

// Cronjob status constants.
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusDraft  = "draft"
)

// Run status constants.
const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
)

// Trigger type constants.
const (
	TriggerCron    = "cron"
	TriggerManual  = "manual"
	TriggerWebhook = "webhook"
)

// CronjobStatuses lists every valid cronjob status.
var CronjobStatuses = []string{StatusActive, StatusPaused, StatusDraft}

// RunStatuses lists every valid run status.
var RunStatuses = []string{RunStatusPending, RunStatusRunning, RunStatusSuccess, RunStatusFailed}

// TriggerTypes lists every valid trigger type.
var TriggerTypes = []string{TriggerCron, TriggerManual, TriggerWebhook}
