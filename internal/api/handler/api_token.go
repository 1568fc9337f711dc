package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/request"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
	"github.com/halver/lifeops/internal/model"
)

type APIToken struct {
	svc *core.APITokenService
}

func NewAPIToken(services *core.Services) *APIToken {
	return &APIToken{svc: services.APIToken}
}

// createdToken carries the raw token exactly once, on create and rotate.
type createdToken struct {
	*model.APIToken
	Token string `json:"token"`
}

// List godoc
//
//	@Summary		List API tokens
//	@Description	Returns token metadata; raw token values are only shown at creation.
//	@Tags			API Tokens
//	@Security		BearerAuth
//	@Success		200 {object} map[string][]model.APIToken
//	@Failure		500 {object} map[string]string
//	@Router			/tokens [get]
func (h *APIToken) List(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.svc.List(r.Context(), mw.OwnerID(r.Context()))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tokens == nil {
		tokens = []model.APIToken{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"items": tokens})
}

// Create godoc
//
//	@Summary		Create an API token
//	@Description	Returns the raw token once; only its hash is stored.
//	@Tags			API Tokens
//	@Security		BearerAuth
//	@Param			body body request.CreateAPIToken true "Token details"
//	@Success		201 {object} createdToken
//	@Failure		400 {object} map[string]string
//	@Router			/tokens [post]
func (h *APIToken) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIToken
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var expiresAt *time.Time
	if req.ExpiresIn > 0 {
		t := time.Now().AddDate(0, 0, req.ExpiresIn)
		expiresAt = &t
	}

	token, raw, err := h.svc.Create(r.Context(), mw.OwnerID(r.Context()), req.Name, req.Scopes, expiresAt)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, createdToken{APIToken: token, Token: raw})
}

// Revoke godoc
//
//	@Summary		Revoke an API token
//	@Tags			API Tokens
//	@Security		BearerAuth
//	@Param			tokenID path string true "Token ID"
//	@Success		204
//	@Failure		404 {object} map[string]string
//	@Router			/tokens/{tokenID} [delete]
func (h *APIToken) Revoke(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "tokenID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), mw.OwnerID(r.Context()), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rotate godoc
//
//	@Summary		Rotate an API token
//	@Description	Revokes the token and issues a replacement with the same name and scopes.
//	@Tags			API Tokens
//	@Security		BearerAuth
//	@Param			tokenID path string true "Token ID"
//	@Success		201 {object} createdToken
//	@Failure		404 {object} map[string]string
//	@Router			/tokens/{tokenID}/rotate [post]
func (h *APIToken) Rotate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "tokenID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, raw, err := h.svc.Rotate(r.Context(), mw.OwnerID(r.Context()), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusCreated, createdToken{APIToken: token, Token: raw})
}
