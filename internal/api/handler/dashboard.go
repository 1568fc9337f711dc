package handler

import (
	"net/http"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
)

type Dashboard struct {
	svc *core.DashboardService
}

func NewDashboard(services *core.Services) *Dashboard {
	return &Dashboard{svc: services.Dashboard}
}

// Stats godoc
//
//	@Summary		Dashboard stats
//	@Description	Aggregate cronjob, run, and integration counts for the caller.
//	@Tags			Dashboard
//	@Security		BearerAuth
//	@Success		200 {object} core.DashboardStats
//	@Failure		500 {object} map[string]string
//	@Router			/dashboard/stats [get]
func (h *Dashboard) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), mw.OwnerID(r.Context()))
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, stats)
}
