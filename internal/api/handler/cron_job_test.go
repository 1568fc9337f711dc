package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
)

func newCronJobHandler(db core.DB) *CronJob {
	return NewCronJob(core.NewServices(db))
}

// --- Get ---

func TestCronJobGet_EmptyID(t *testing.T) {
	h := newCronJobHandler(nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodGet, "/cronjobs/", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", "")

	h.Get(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "missing required ID")
}

func TestCronJobGet_NotFound(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&handlerMockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodGet, "/cronjobs/"+validID, nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.Get(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Create ---

func TestCronJobCreate_InvalidJSON(t *testing.T) {
	h := newCronJobHandler(nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequestRaw(http.MethodPost, "/cronjobs", "{bad json"), testOwnerID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeErrorResponse(rec)
	assert.Contains(t, body["error"], "invalid JSON")
}

func TestCronJobCreate_MissingFields(t *testing.T) {
	h := newCronJobHandler(nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs", map[string]any{}), testOwnerID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.Equal(t, "Name is required", body.Fields["name"])
	assert.Equal(t, "Target is required", body.Fields["target"])
	// Schedule and timezone get server defaults, so only name and target fail.
	assert.NotContains(t, body.Fields, "schedule")
	assert.NotContains(t, body.Fields, "timezone")
}

func TestCronJobCreate_InvalidSchedule(t *testing.T) {
	h := newCronJobHandler(nil)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs", map[string]any{
		"name":     "nightly-digest",
		"target":   "email:me@example.com",
		"schedule": "not a cron line",
	}), testOwnerID)

	h.Create(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid cron expression", body.Fields["schedule"])
}

func TestCronJobCreate_AppliesDefaults(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs", map[string]any{
		"name":   "nightly-digest",
		"target": "email:me@example.com",
	}), testOwnerID)

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.CronJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, testOwnerID, created.OwnerID)
	assert.Equal(t, model.DefaultSchedule, created.Schedule)
	assert.Equal(t, "UTC", created.Timezone)
	assert.Equal(t, model.AutomationApprovalNeeded, created.AutomationLevel)
	assert.Equal(t, model.StatusActive, created.Status)
	assert.Equal(t, model.TriggerCron, created.TriggerType)
	assert.Equal(t, model.DefaultRetryPolicy, created.RetryPolicy)
	db.AssertExpectations(t)
}

func TestCronJobCreate_MapsLegacyAutomationLevel(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs", map[string]any{
		"name":             "weekly-report",
		"target":           "slack:#reports",
		"automation_level": "full",
	}), testOwnerID)

	h.Create(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.CronJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, model.AutomationConditionalAuto, created.AutomationLevel)
}

// --- Delete ---

func TestCronJobDelete_NotFound(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 0"), nil)

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodDelete, "/cronjobs/"+validID, nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.Delete(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCronJobDelete_Success(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 1"), nil)

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodDelete, "/cronjobs/"+validID, nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.Delete(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// --- Preview ---

func storedCronJobRow(schedule, timezone string) *handlerMockRow {
	return &handlerMockRow{scanFunc: cronJobRowScanner(func(dest []any) {
		*dest[0].(*string) = validID
		*dest[1].(*string) = testOwnerID
		*dest[2].(*string) = "morning-briefing"
		*dest[4].(*string) = schedule
		*dest[5].(*string) = timezone
		*dest[6].(*string) = "slack:#ops"
		*dest[7].(*string) = model.TriggerCron
		*dest[8].(*string) = model.AutomationApprovalNeeded
		*dest[9].(*string) = model.StatusActive
		*dest[15].(*time.Time) = time.Now()
		*dest[16].(*time.Time) = time.Now()
	})}
}

func TestCronJobPreview_ReturnsRequestedCount(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(storedCronJobRow("0 9 * * *", "UTC"))

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodGet, "/cronjobs/"+validID+"/schedule-preview?count=3", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.Preview(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body schedulePreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "0 9 * * *", body.Schedule)
	require.Len(t, body.NextRuns, 3)
	for _, at := range body.NextRuns {
		assert.Equal(t, 9, at.UTC().Hour())
		assert.Equal(t, 0, at.UTC().Minute())
	}
	assert.True(t, body.NextRuns[0].Before(body.NextRuns[1]))
	assert.True(t, body.NextRuns[1].Before(body.NextRuns[2]))
}

func TestCronJobPreview_DefaultCount(t *testing.T) {
	db := new(handlerMockDB)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(storedCronJobRow("*/15 * * * *", "UTC"))

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodGet, "/cronjobs/"+validID+"/schedule-preview", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.Preview(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)

	var body schedulePreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.NextRuns, 5)
}

// --- Pause / Resume ---

func TestCronJobPause_SetsPausedStatus(t *testing.T) {
	db := new(handlerMockDB)
	db.On("Exec", mock.Anything, mock.Anything, mock.MatchedBy(func(args []any) bool {
		return len(args) == 3 && args[0] == model.StatusPaused
	})).Return(pgconn.NewCommandTag("UPDATE 1"), nil)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(storedCronJobRow("0 9 * * *", "UTC"))

	h := newCronJobHandler(db)
	rec := httptest.NewRecorder()
	r := withOwner(newRequest(http.MethodPost, "/cronjobs/"+validID+"/pause", nil), testOwnerID)
	r = withChiURLParam(r, "cronJobID", validID)

	h.Pause(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	db.AssertExpectations(t)
}
