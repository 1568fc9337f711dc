package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/request"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
	"github.com/halver/lifeops/internal/storage"
)

// ArtifactSigner issues presigned GET URLs for run artifact files.
type ArtifactSigner interface {
	SignArtifact(ctx context.Context, ownerID, runID, filename string) (string, error)
}

type Run struct {
	svc    *core.RunService
	signer ArtifactSigner
}

func NewRun(services *core.Services, signer ArtifactSigner) *Run {
	return &Run{svc: services.Run, signer: signer}
}

// RunNow godoc
//
//	@Summary		Trigger a cronjob immediately
//	@Description	Enqueues a pending run. Returns 409 when the cronjob already has a pending or running run.
//	@Tags			Runs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Success		202 {object} model.CronJobRun
//	@Failure		404 {object} map[string]string
//	@Failure		409 {object} map[string]string
//	@Router			/cronjobs/{cronJobID}/run [post]
func (h *Run) RunNow(w http.ResponseWriter, r *http.Request) {
	cronJobID, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.svc.Trigger(r.Context(), mw.OwnerID(r.Context()), cronJobID)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateRun) {
			response.WriteError(w, http.StatusConflict, core.ErrDuplicateRun.Error())
			return
		}
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusAccepted, run)
}

// ListByCronJob godoc
//
//	@Summary		List runs of a cronjob
//	@Description	Returns the most recent runs, newest first, capped at 50.
//	@Tags			Runs
//	@Security		BearerAuth
//	@Param			cronJobID path string true "Cronjob ID"
//	@Param			limit query int false "Max runs" default(50)
//	@Success		200 {object} map[string][]model.CronJobRun
//	@Failure		500 {object} map[string]string
//	@Router			/cronjobs/{cronJobID}/runs [get]
func (h *Run) ListByCronJob(w http.ResponseWriter, r *http.Request) {
	cronJobID, err := request.RequireID(chi.URLParam(r, "cronJobID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	runs, err := h.svc.ListByCronJob(r.Context(), mw.OwnerID(r.Context()), cronJobID, limit)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []model.CronJobRun{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"items": runs})
}

// Get godoc
//
//	@Summary		Get a run
//	@Tags			Runs
//	@Security		BearerAuth
//	@Param			runID path string true "Run ID"
//	@Success		200 {object} model.CronJobRun
//	@Failure		404 {object} map[string]string
//	@Router			/runs/{runID} [get]
func (h *Run) Get(w http.ResponseWriter, r *http.Request) {
	runID, err := request.RequireID(chi.URLParam(r, "runID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.svc.GetByID(r.Context(), mw.OwnerID(r.Context()), runID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, run)
}

// artifactFile mirrors the artifacts->'files' entries stored on a run.
type artifactFile struct {
	Name string `json:"name"`
	Kind string `json:"kind,omitempty"`
	Size int64  `json:"size,omitempty"`
}

type artifactLink struct {
	Name      string    `json:"name"`
	Kind      string    `json:"kind,omitempty"`
	Size      int64     `json:"size,omitempty"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Artifacts godoc
//
//	@Summary		Presigned artifact URLs for a run
//	@Description	Returns a time-limited download URL per artifact file. URLs expire after one hour.
//	@Tags			Runs
//	@Security		BearerAuth
//	@Param			runID path string true "Run ID"
//	@Success		200 {object} map[string][]artifactLink
//	@Failure		404 {object} map[string]string
//	@Router			/runs/{runID}/artifacts [get]
func (h *Run) Artifacts(w http.ResponseWriter, r *http.Request) {
	runID, err := request.RequireID(chi.URLParam(r, "runID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	ownerID := mw.OwnerID(r.Context())

	run, err := h.svc.GetByID(r.Context(), ownerID, runID)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	files := parseArtifactFiles(run.Artifacts)
	links := make([]artifactLink, 0, len(files))
	expiresAt := time.Now().Add(storage.ArtifactURLExpiry)
	for _, f := range files {
		url, err := h.signer.SignArtifact(r.Context(), ownerID, run.ID, f.Name)
		if err != nil {
			response.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		links = append(links, artifactLink{
			Name:      f.Name,
			Kind:      f.Kind,
			Size:      f.Size,
			URL:       url,
			ExpiresAt: expiresAt,
		})
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"items": links})
}

func parseArtifactFiles(raw json.RawMessage) []artifactFile {
	if len(raw) == 0 {
		return nil
	}
	var wrapper struct {
		Files []artifactFile `json:"files"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return wrapper.Files
}
