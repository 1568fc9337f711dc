package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/request"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
	"github.com/halver/lifeops/internal/platform"
)

// maxPreviewCount caps how many upcoming fire times Preview returns.
const maxPreviewCount = 20

type CronJob struct {
	svc *core.CronJobService
}

func NewCronJob(services *core.Services) *CronJob {
	return &CronJob{svc: services.CronJob}
}

// List godoc
//
//	@Summary		List cronjobs
//	@Description	Returns the caller's cronjobs, most recently updated first.
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.CronJob}
//	@Failure		500 {object} map[string]string
//	@Router			/cronjobs [get]
func (h *CronJob) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	cronJobs, hasMore, err := h.svc.List(r.Context(), mw.OwnerID(r.Context()), pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(cronJobs) > 0 {
		nextCursor = core.EncodeCursor(&cronJobs[len(cronJobs)-1])
	}
	response.WritePaginated(w, http.StatusOK, cronJobs, nextCursor, hasMore)
}

// Create godoc
//
//	@Summary		Create a cronjob
//	@Description	Validates, normalizes, and stores a new cronjob. Omitted schedule, timezone, automation level, and retry policy get server defaults.
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			body body request.CreateCronJob true "Cronjob fields"
//	@Success		201 {object} model.CronJob
//	@Failure		400 {object} map[string]string
//	@Router			/cronjobs [post]
func (h *CronJob) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCronJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	applyCreateDefaults(&req)

	cronJob, fieldErrs := core.ValidateCronJob(req.Draft())
	if fieldErrs != nil {
		response.WriteFieldErrors(w, fieldErrs)
		return
	}

	now := time.Now()
	cronJob.ID = platform.NewID()
	cronJob.OwnerID = mw.OwnerID(r.Context())
	cronJob.CreatedAt = now
	cronJob.UpdatedAt = now

	if err := h.svc.Create(r.Context(), cronJob); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, cronJob)
}

// applyCreateDefaults fills the optional fields the dashboard leaves out of
// a minimal create form. Validation still rejects explicit empty strings
// for schedule and timezone when the client sends them blank on purpose.
func applyCreateDefaults(req *request.CreateCronJob) {
	if req.Schedule == "" {
		req.Schedule = model.DefaultSchedule
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
}

// Get godoc
//
//	@Summary		Get a cronjob
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Success		200 {object} model.CronJob
//	@Failure		404 {object} map[string]string
//	@Router			/cronjobs/{cronJobID} [get]
func (h *CronJob) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cronJob, err := h.svc.GetByID(r.Context(), mw.OwnerID(r.Context()), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, cronJob)
}

// Update godoc
//
//	@Summary		Update a cronjob
//	@Description	Replaces the editable fields. Fields omitted from the form keep their stored values.
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Param			body body request.UpdateCronJob true "Cronjob fields"
//	@Success		200 {object} model.CronJob
//	@Failure		400 {object} map[string]string
//	@Failure		404 {object} map[string]string
//	@Router			/cronjobs/{cronJobID} [put]
func (h *CronJob) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ownerID := mw.OwnerID(r.Context())

	existing, err := h.svc.GetByID(r.Context(), ownerID, id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	var req request.UpdateCronJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	mergeUpdate(&req, existing)

	cronJob, fieldErrs := core.ValidateCronJob(req.Draft())
	if fieldErrs != nil {
		response.WriteFieldErrors(w, fieldErrs)
		return
	}

	cronJob.ID = existing.ID
	cronJob.OwnerID = existing.OwnerID
	cronJob.CreatedAt = existing.CreatedAt
	cronJob.UpdatedAt = time.Now()

	if err := h.svc.Update(r.Context(), cronJob); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, cronJob)
}

// mergeUpdate backfills omitted scalar fields from the stored record so a
// partial edit does not blank them out.
func mergeUpdate(req *request.UpdateCronJob, existing *model.CronJob) {
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.Description == "" {
		req.Description = existing.Description
	}
	if req.Schedule == "" {
		req.Schedule = existing.Schedule
	}
	if req.Timezone == "" {
		req.Timezone = existing.Timezone
	}
	if req.Target == "" {
		req.Target = existing.Target
	}
	if req.TriggerType == "" {
		req.TriggerType = existing.TriggerType
	}
	if req.AutomationLevel == "" {
		req.AutomationLevel = existing.AutomationLevel
	}
	if req.Status == "" {
		req.Status = existing.Status
	}
	if req.Constraints == nil {
		req.Constraints = existing.Constraints
	}
	if req.SafetyRails == nil {
		req.SafetyRails = existing.SafetyRails
	}
	if req.Payload == nil {
		vars := make(map[string]request.CronJobVariable, len(existing.Payload.VariableSchema))
		for name, v := range existing.Payload.VariableSchema {
			vars[name] = request.CronJobVariable{Type: v.Type, Sample: v.Sample}
		}
		req.Payload = &request.CronJobPayload{
			PromptTemplate: existing.Payload.PromptTemplate,
			VariableSchema: vars,
			SampleValues:   existing.Payload.SampleValues,
		}
	}
	if req.RetryPolicy == nil {
		req.RetryPolicy = &request.RetryPolicy{
			MaxRetries: strconv.Itoa(existing.RetryPolicy.MaxRetries),
			BackoffMS:  strconv.Itoa(existing.RetryPolicy.BackoffMS),
		}
	}
	if req.DeadLetter == nil && existing.DeadLetterPolicy != (model.DeadLetterPolicy{}) {
		req.DeadLetter = &request.DeadLetterPolicy{
			Enabled:             existing.DeadLetterPolicy.Enabled,
			MaxRetriesBeforeDLQ: strconv.Itoa(existing.DeadLetterPolicy.MaxRetriesBeforeDLQ),
			DLQTarget:           existing.DeadLetterPolicy.DLQTarget,
		}
	}
}

// Delete godoc
//
//	@Summary		Delete a cronjob
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Success		204
//	@Failure		404 {object} map[string]string
//	@Router			/cronjobs/{cronJobID} [delete]
func (h *CronJob) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), mw.OwnerID(r.Context()), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Pause godoc
//
//	@Summary		Pause a cronjob
//	@Description	Sets status to paused; the scheduler skips paused jobs.
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Success		200 {object} model.CronJob
//	@Failure		404 {object} map[string]string
//	@Router			/cronjobs/{cronJobID}/pause [post]
func (h *CronJob) Pause(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusPaused)
}

// Resume godoc
//
//	@Summary		Resume a paused cronjob
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Success		200 {object} model.CronJob
//	@Failure		404 {object} map[string]string
//	@Router			/cronjobs/{cronJobID}/resume [post]
func (h *CronJob) Resume(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.StatusActive)
}

func (h *CronJob) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ownerID := mw.OwnerID(r.Context())

	if err := h.svc.SetStatus(r.Context(), ownerID, id, status); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	cronJob, err := h.svc.GetByID(r.Context(), ownerID, id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, cronJob)
}

type schedulePreview struct {
	Schedule string      `json:"schedule"`
	Timezone string      `json:"timezone"`
	NextRuns []time.Time `json:"next_runs"`
}

// Preview godoc
//
//	@Summary		Preview upcoming fire times
//	@Description	Returns the next N times the cronjob's schedule fires, evaluated in the job's timezone.
//	@Tags			Cronjobs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Param			count query int false "Fire times to return" default(5)
//	@Success		200 {object} schedulePreview
//	@Failure		404 {object} map[string]string
//	@Router			/cronjobs/{cronJobID}/schedule-preview [get]
func (h *CronJob) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	cronJob, err := h.svc.GetByID(r.Context(), mw.OwnerID(r.Context()), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	count := 5
	if c := r.URL.Query().Get("count"); c != "" {
		if parsed, err := strconv.Atoi(c); err == nil && parsed > 0 && parsed <= maxPreviewCount {
			count = parsed
		}
	}

	sched, err := cron.ParseStandard(cronJob.Schedule)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, "stored schedule is not parseable")
		return
	}
	loc, err := time.LoadLocation(cronJob.Timezone)
	if err != nil {
		loc = time.UTC
	}

	next := make([]time.Time, 0, count)
	at := time.Now().In(loc)
	for i := 0; i < count; i++ {
		at = sched.Next(at)
		next = append(next, at)
	}

	response.WriteJSON(w, http.StatusOK, schedulePreview{
		Schedule: cronJob.Schedule,
		Timezone: cronJob.Timezone,
		NextRuns: next,
	})
}
