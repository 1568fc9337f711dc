package request

import "github.com/halver/lifeops/internal/core"

// CreateCronJob is the wire form of a new cronjob. Required-field and
// cron-syntax checks live in core.ValidateCronJob so the dashboard gets
// per-field messages; the validate tags here only bound sizes.
type CreateCronJob struct {
	Name            string `json:"name" validate:"omitempty,max=255"`
	Description     string `json:"description" validate:"omitempty,max=4096"`
	Schedule        string `json:"schedule" validate:"omitempty,max=255"`
	Timezone        string `json:"timezone" validate:"omitempty,max=64"`
	Target          string `json:"target" validate:"omitempty,max=255"`
	TriggerType     string `json:"trigger_type" validate:"omitempty,max=32"`
	AutomationLevel string `json:"automation_level" validate:"omitempty,max=64"`
	Status          string `json:"status" validate:"omitempty,max=32"`

	Payload     *CronJobPayload `json:"payload"`
	Constraints []string        `json:"constraints" validate:"omitempty,dive,max=255"`
	SafetyRails []string        `json:"safety_rails" validate:"omitempty,dive,max=1024"`

	RetryPolicy *RetryPolicy      `json:"retry_policy"`
	Limits      *CronJobLimits    `json:"limits"`
	DeadLetter  *DeadLetterPolicy `json:"dead_letter_policy"`
}

// UpdateCronJob carries the full editable field set. The dashboard edit
// form always submits every field, so this mirrors CreateCronJob rather
// than using pointer-per-field patching.
type UpdateCronJob = CreateCronJob

type CronJobPayload struct {
	PromptTemplate string                     `json:"prompt_template" validate:"omitempty,max=16384"`
	VariableSchema map[string]CronJobVariable `json:"variable_schema"`
	SampleValues   map[string]any             `json:"sample_values"`
}

type CronJobVariable struct {
	Type   string `json:"type" validate:"omitempty,max=32"`
	Sample string `json:"sample" validate:"omitempty,max=1024"`
}

// RetryPolicy carries retry settings as strings; the form submits raw
// input and core.ValidateCronJob coerces it.
type RetryPolicy struct {
	MaxRetries string `json:"max_retries" validate:"omitempty,max=16"`
	BackoffMS  string `json:"backoff_ms" validate:"omitempty,max=16"`
}

// CronJobLimits carries the budget fields from the form. Non-empty
// values become max_actions / spend_limit constraints.
type CronJobLimits struct {
	MaxActions string `json:"max_actions" validate:"omitempty,max=16"`
	SpendLimit string `json:"spend_limit" validate:"omitempty,max=16"`
}

type DeadLetterPolicy struct {
	Enabled             bool   `json:"enabled"`
	MaxRetriesBeforeDLQ string `json:"max_retries_before_dlq" validate:"omitempty,max=16"`
	DLQTarget           string `json:"dlq_target" validate:"omitempty,max=255"`
}

// Draft converts the request into the draft form core.ValidateCronJob
// consumes.
func (req *CreateCronJob) Draft() core.CronJobDraft {
	draft := core.CronJobDraft{
		Name:            req.Name,
		Description:     req.Description,
		Schedule:        req.Schedule,
		Timezone:        req.Timezone,
		Target:          req.Target,
		TriggerType:     req.TriggerType,
		AutomationLevel: req.AutomationLevel,
		Status:          req.Status,
		Constraints:     req.Constraints,
		SafetyRails:     req.SafetyRails,
	}
	if req.Payload != nil {
		draft.PromptTemplate = req.Payload.PromptTemplate
		draft.SampleValues = req.Payload.SampleValues
		if len(req.Payload.VariableSchema) > 0 {
			draft.VariableSchema = make(map[string]core.VariableDraft, len(req.Payload.VariableSchema))
			for name, v := range req.Payload.VariableSchema {
				draft.VariableSchema[name] = core.VariableDraft{Type: v.Type, Sample: v.Sample}
			}
		}
	}
	if req.RetryPolicy != nil {
		draft.MaxRetries = req.RetryPolicy.MaxRetries
		draft.BackoffMS = req.RetryPolicy.BackoffMS
	}
	if req.Limits != nil {
		draft.MaxActions = req.Limits.MaxActions
		draft.SpendLimit = req.Limits.SpendLimit
	}
	if req.DeadLetter != nil {
		draft.DeadLetter = &core.DeadLetterDraft{
			Enabled:             req.DeadLetter.Enabled,
			MaxRetriesBeforeDLQ: req.DeadLetter.MaxRetriesBeforeDLQ,
			DLQTarget:           req.DeadLetter.DLQTarget,
		}
	}
	return draft
}
