package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/request"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
)

// Profile serves the account page: profile, integrations, and sessions.
type Profile struct {
	profiles     *core.ProfileService
	integrations *core.IntegrationService
	sessions     *core.SessionService
}

func NewProfile(services *core.Services) *Profile {
	return &Profile{
		profiles:     services.Profile,
		integrations: services.Integration,
		sessions:     services.Session,
	}
}

// Get godoc
//
//	@Summary		Get the caller's profile
//	@Tags			Profile
//	@Security		BearerAuth
//	@Success		200 {object} model.UserProfile
//	@Failure		404 {object} map[string]string
//	@Router			/profile [get]
func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), mw.OwnerID(r.Context()))
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, profile)
}

// Update godoc
//
//	@Summary		Update the caller's profile
//	@Tags			Profile
//	@Security		BearerAuth
//	@Param			body body request.UpdateProfile true "Profile fields"
//	@Success		200 {object} model.UserProfile
//	@Failure		400 {object} map[string]string
//	@Router			/profile [put]
func (h *Profile) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfile
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}
	profile, err := h.profiles.Update(r.Context(), &model.UserProfile{
		UserID:      mw.OwnerID(r.Context()),
		DisplayName: req.DisplayName,
		Email:       req.Email,
		AvatarURL:   req.AvatarURL,
		Timezone:    tz,
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, profile)
}

// ListIntegrations godoc
//
//	@Summary		List integrations
//	@Tags			Profile
//	@Security		BearerAuth
//	@Success		200 {object} map[string][]model.Integration
//	@Failure		500 {object} map[string]string
//	@Router			/integrations [get]
func (h *Profile) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := h.integrations.List(r.Context(), mw.OwnerID(r.Context()))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if integrations == nil {
		integrations = []model.Integration{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"items": integrations})
}

// ConnectIntegration godoc
//
//	@Summary		Connect an integration
//	@Tags			Profile
//	@Security		BearerAuth
//	@Param			body body request.ConnectIntegration true "Provider details"
//	@Success		201 {object} model.Integration
//	@Failure		400 {object} map[string]string
//	@Router			/integrations [post]
func (h *Profile) ConnectIntegration(w http.ResponseWriter, r *http.Request) {
	var req request.ConnectIntegration
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	integration, err := h.integrations.Connect(r.Context(), mw.OwnerID(r.Context()), req.Provider, req.Label)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, integration)
}

// DisconnectIntegration godoc
//
//	@Summary		Disconnect an integration
//	@Tags			Profile
//	@Security		BearerAuth
//	@Param			integrationID path string true "Integration ID"
//	@Success		204
//	@Failure		404 {object} map[string]string
//	@Router			/integrations/{integrationID} [delete]
func (h *Profile) DisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "integrationID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.integrations.Disconnect(r.Context(), mw.OwnerID(r.Context()), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions godoc
//
//	@Summary		List active sessions
//	@Tags			Profile
//	@Security		BearerAuth
//	@Success		200 {object} map[string][]model.Session
//	@Failure		500 {object} map[string]string
//	@Router			/sessions [get]
func (h *Profile) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context(), mw.OwnerID(r.Context()))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"items": sessions})
}

// RevokeSession godoc
//
//	@Summary		Revoke a session
//	@Tags			Profile
//	@Security		BearerAuth
//	@Param			sessionID path string true "Session ID"
//	@Success		204
//	@Failure		404 {object} map[string]string
//	@Router			/sessions/{sessionID} [delete]
func (h *Profile) RevokeSession(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.sessions.Revoke(r.Context(), mw.OwnerID(r.Context()), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
