package handler

import (
	"net/http"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/request"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
)

type Activity struct {
	svc *core.ActivityService
}

func NewActivity(services *core.Services) *Activity {
	return &Activity{svc: services.Activity}
}

// List godoc
//
//	@Summary		List activity log entries
//	@Description	Returns the caller's recorded write operations, newest first.
//	@Tags			Activity
//	@Security		BearerAuth
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.ActivityLog}
//	@Failure		500 {object} map[string]string
//	@Router			/activity [get]
func (h *Activity) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	entries, hasMore, err := h.svc.List(r.Context(), mw.OwnerID(r.Context()), pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(entries) > 0 {
		nextCursor = entries[len(entries)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, entries, nextCursor, hasMore)
}
