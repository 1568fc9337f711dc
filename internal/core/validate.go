package core

import (
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/halver/lifeops/internal/model"
)

// CronJobDraft holds user-entered cronjob field values before validation.
// Numeric fields arrive as strings because the dashboard submits raw form
// input; Validate coerces them.
type CronJobDraft struct {
	Name            string
	Description     string
	Schedule        string
	Timezone        string
	Target          string
	TriggerType     string
	AutomationLevel string
	Status          string

	PromptTemplate string
	VariableSchema map[string]VariableDraft
	SampleValues   map[string]any

	Constraints []string
	SafetyRails []string

	MaxRetries string
	BackoffMS  string
	MaxActions string
	SpendLimit string

	DeadLetter *DeadLetterDraft
}

// VariableDraft is one user-entered template variable.
type VariableDraft struct {
	Type   string
	Sample string
}

// DeadLetterDraft is the user-entered dead-letter configuration.
type DeadLetterDraft struct {
	Enabled             bool
	MaxRetriesBeforeDLQ string
	DLQTarget           string
}

// FieldErrors maps field names to validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// ValidateCronJob checks a draft and normalizes it into a CronJob ready for
// persistence. It is a pure transformation: on failure the field errors map
// is non-nil and the returned cronjob is nil. ID, owner, and timestamps are
// not set here; the caller assigns them.
//
// Normalization is idempotent: validating the draft form of an already
// normalized cronjob yields the same record.
func ValidateCronJob(draft CronJobDraft) (*model.CronJob, FieldErrors) {
	errs := FieldErrors{}

	if strings.TrimSpace(draft.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(draft.Schedule) == "" {
		errs["schedule"] = "Schedule is required"
	} else if _, err := cron.ParseStandard(draft.Schedule); err != nil {
		errs["schedule"] = "Invalid cron expression"
	}
	if strings.TrimSpace(draft.Timezone) == "" {
		errs["timezone"] = "Timezone is required"
	}
	if strings.TrimSpace(draft.Target) == "" {
		errs["target"] = "Target is required"
	}

	if len(errs) > 0 {
		return nil, errs
	}

	c := &model.CronJob{
		Name:        draft.Name,
		Description: draft.Description,
		Schedule:    draft.Schedule,
		Timezone:    draft.Timezone,
		Target:      draft.Target,
	}

	c.TriggerType = draft.TriggerType
	if c.TriggerType == "" {
		c.TriggerType = model.TriggerCron
	}

	level := draft.AutomationLevel
	if level == "" {
		level = "assisted"
	}
	c.AutomationLevel, _ = model.NormalizeAutomationLevel(level)

	c.Status = draft.Status
	if c.Status == "" {
		c.Status = model.StatusActive
	}

	c.Payload = normalizePayload(draft)
	c.Constraints = normalizeList(draft.Constraints)
	c.SafetyRails = normalizeList(draft.SafetyRails)

	if maxActions := strings.TrimSpace(draft.MaxActions); maxActions != "" {
		c.Constraints = AppendUnique(c.Constraints,
			model.Constraint{Kind: model.ConstraintMaxActions, Value: coerceNonNegativeInt(maxActions)}.String())
	}
	if spendLimit := strings.TrimSpace(draft.SpendLimit); spendLimit != "" {
		c.Constraints = AppendUnique(c.Constraints,
			model.Constraint{Kind: model.ConstraintSpendLimit, Value: coerceNonNegativeInt(spendLimit)}.String())
	}

	c.RetryPolicy = model.DefaultRetryPolicy
	if strings.TrimSpace(draft.MaxRetries) != "" {
		c.RetryPolicy.MaxRetries = coerceNonNegativeInt(draft.MaxRetries)
	}
	if strings.TrimSpace(draft.BackoffMS) != "" {
		c.RetryPolicy.BackoffMS = coerceNonNegativeInt(draft.BackoffMS)
	}

	if draft.DeadLetter != nil {
		c.DeadLetterPolicy = model.DeadLetterPolicy{
			Enabled:             draft.DeadLetter.Enabled,
			MaxRetriesBeforeDLQ: coerceNonNegativeInt(draft.DeadLetter.MaxRetriesBeforeDLQ),
			DLQTarget:           draft.DeadLetter.DLQTarget,
		}
	}

	return c, nil
}

// coerceNonNegativeInt parses user numeric input. Invalid input coerces to 0
// rather than erroring; fractional input truncates; negatives clamp to 0.
func coerceNonNegativeInt(s string) int {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return 0
		}
		n = int(f)
	}
	if n < 0 {
		return 0
	}
	return n
}

// normalizeList drops empty entries and exact-match duplicates, preserving
// first-seen order.
func normalizeList(entries []string) []string {
	out := []string{}
	for _, e := range entries {
		if strings.TrimSpace(e) == "" {
			continue
		}
		out = AppendUnique(out, e)
	}
	return out
}

// AppendUnique appends entry unless an exact match is already present.
func AppendUnique(list []string, entry string) []string {
	for _, existing := range list {
		if existing == entry {
			return list
		}
	}
	return append(list, entry)
}

// WrapVariable wraps a template variable name in {{ }} delimiters unless it
// already has them.
func WrapVariable(name string) string {
	if strings.HasPrefix(name, "{{") && strings.HasSuffix(name, "}}") {
		return name
	}
	return "{{" + name + "}}"
}

func normalizePayload(draft CronJobDraft) model.Payload {
	p := model.Payload{PromptTemplate: draft.PromptTemplate}

	if len(draft.VariableSchema) > 0 {
		p.VariableSchema = make(map[string]model.VariableSpec, len(draft.VariableSchema))
		for name, spec := range draft.VariableSchema {
			p.VariableSchema[WrapVariable(name)] = model.VariableSpec{
				Type:   spec.Type,
				Sample: spec.Sample,
			}
		}
	}
	if len(draft.SampleValues) > 0 {
		p.SampleValues = make(map[string]any, len(draft.SampleValues))
		for name, v := range draft.SampleValues {
			p.SampleValues[WrapVariable(name)] = v
		}
	}
	return p
}
