package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halver/lifeops/internal/core"
)

func TestCreateCronJobDraft_FullMapping(t *testing.T) {
	req := CreateCronJob{
		Name:            "morning-briefing",
		Description:     "Summarize overnight activity",
		Schedule:        "0 9 * * *",
		Timezone:        "America/New_York",
		Target:          "slack:#ops",
		TriggerType:     "cron",
		AutomationLevel: "assisted",
		Status:          "active",
		Payload: &CronJobPayload{
			PromptTemplate: "Summarize {{repo}}",
			VariableSchema: map[string]CronJobVariable{
				"repo": {Type: "string", Sample: "halver/lifeops"},
			},
			SampleValues: map[string]any{"repo": "halver/lifeops"},
		},
		Constraints: []string{"allowed_tool:slack"},
		SafetyRails: []string{"never post outside #ops"},
		RetryPolicy: &RetryPolicy{MaxRetries: "2", BackoffMS: "500"},
		Limits:      &CronJobLimits{MaxActions: "5", SpendLimit: "10"},
		DeadLetter:  &DeadLetterPolicy{Enabled: true, MaxRetriesBeforeDLQ: "4", DLQTarget: "slack:#dead-letters"},
	}

	draft := req.Draft()
	assert.Equal(t, "morning-briefing", draft.Name)
	assert.Equal(t, "0 9 * * *", draft.Schedule)
	assert.Equal(t, "Summarize {{repo}}", draft.PromptTemplate)
	assert.Equal(t, core.VariableDraft{Type: "string", Sample: "halver/lifeops"}, draft.VariableSchema["repo"])
	assert.Equal(t, "2", draft.MaxRetries)
	assert.Equal(t, "500", draft.BackoffMS)
	assert.Equal(t, "5", draft.MaxActions)
	assert.Equal(t, "10", draft.SpendLimit)
	require.NotNil(t, draft.DeadLetter)
	assert.True(t, draft.DeadLetter.Enabled)
	assert.Equal(t, "4", draft.DeadLetter.MaxRetriesBeforeDLQ)
}

func TestCreateCronJobDraft_NilSections(t *testing.T) {
	req := CreateCronJob{Name: "bare", Schedule: "0 9 * * *", Target: "email:me"}

	draft := req.Draft()
	assert.Empty(t, draft.PromptTemplate)
	assert.Nil(t, draft.VariableSchema)
	assert.Empty(t, draft.MaxRetries)
	assert.Empty(t, draft.MaxActions)
	assert.Nil(t, draft.DeadLetter)
}
