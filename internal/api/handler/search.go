package handler

import (
	"net/http"
	"strconv"
	"strings"

	mw "github.com/halver/lifeops/internal/api/middleware"
	"github.com/halver/lifeops/internal/api/response"
	"github.com/halver/lifeops/internal/core"
)

type Search struct {
	svc *core.SearchService
}

func NewSearch(services *core.Services) *Search {
	return &Search{svc: services.Search}
}

// Search godoc
//
//	@Summary		Search across cronjobs, runs, artifacts, and activity
//	@Description	Substring search with recency-weighted scoring. Type filter accepts a comma-separated list of cronjob, run, content, audit.
//	@Tags			Search
//	@Security		BearerAuth
//	@Param			q query string true "Query text (truncated to 200 chars)"
//	@Param			types query string false "Comma-separated type filter"
//	@Param			limit query int false "Max results" default(50)
//	@Param			offset query int false "Result offset"
//	@Success		200 {object} core.SearchResponse
//	@Failure		500 {object} map[string]string
//	@Router			/search [get]
func (h *Search) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		response.WriteJSON(w, http.StatusOK, core.SearchResponse{
			Results: []core.SearchResult{},
			Facets:  map[string]int{},
		})
		return
	}

	var types []string
	if t := r.URL.Query().Get("types"); t != "" {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, part)
			}
		}
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	resp, err := h.svc.Search(r.Context(), mw.OwnerID(r.Context()), q, types, limit, offset)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, resp)
}
