package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Search result types.
const (
	SearchTypeCronjob = "cronjob"
	SearchTypeRun     = "run"
	SearchTypeContent = "content"
	SearchTypeAudit   = "audit"
)

// MaxSearchQueryLen caps the free-text query length in characters.
const MaxSearchQueryLen = 200

// MaxSearchResults caps the result count per request.
const MaxSearchResults = 50

// SearchResult is a single hit across resource types.
type SearchResult struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Status    string    `json:"status,omitempty"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResponse is a page of search results with facet counts.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Query   string         `json:"query"`
	Facets  map[string]int `json:"facets"`
}

// SearchService provides substring search across the owner's cronjobs, runs,
// run artifacts, and activity log.
type SearchService struct {
	db DB
}

func NewSearchService(db DB) *SearchService {
	return &SearchService{db: db}
}

// Search runs parallel ILIKE queries per requested type, scores hits by
// query-token overlap weighted by recency, and paginates the merged set.
// An empty types slice searches everything.
func (s *SearchService) Search(ctx context.Context, ownerID, query string, types []string, limit, offset int) (*SearchResponse, error) {
	if runes := []rune(query); len(runes) > MaxSearchQueryLen {
		query = string(runes[:MaxSearchQueryLen])
	}
	if limit <= 0 || limit > MaxSearchResults {
		limit = MaxSearchResults
	}
	if offset < 0 {
		offset = 0
	}

	wanted := map[string]bool{}
	for _, t := range types {
		wanted[t] = true
	}
	all := len(wanted) == 0

	pattern := "%" + query + "%"

	type queryDef struct {
		typ string
		sql string
	}

	queries := []queryDef{
		{SearchTypeCronjob, `SELECT id, name, status, updated_at FROM cronjobs
			WHERE owner_id = $1 AND (name ILIKE $2 OR description ILIKE $2 OR target ILIKE $2)
			LIMIT $3`},
		{SearchTypeRun, `SELECT r.id, c.name || ' run', r.status, r.started_at
			FROM cronjob_runs r JOIN cronjobs c ON r.cronjob_id = c.id
			WHERE c.owner_id = $1 AND (r.logs ILIKE $2 OR r.error ILIKE $2 OR r.status ILIKE $2)
			LIMIT $3`},
		{SearchTypeContent, `SELECT r.id, a.value->>'name', r.status, r.started_at
			FROM cronjob_runs r
			JOIN cronjobs c ON r.cronjob_id = c.id,
			LATERAL jsonb_array_elements(COALESCE(r.artifacts->'files', '[]'::jsonb)) a
			WHERE c.owner_id = $1 AND a.value->>'name' ILIKE $2
			LIMIT $3`},
		{SearchTypeAudit, `SELECT id, action || ' ' || path, '', created_at FROM activity_logs
			WHERE owner_id = $1 AND (action ILIKE $2 OR path ILIKE $2 OR resource_type ILIKE $2)
			LIMIT $3`},
	}

	results := make([][]SearchResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)

	for i, q := range queries {
		if !all && !wanted[q.typ] {
			continue
		}
		i, q := i, q
		g.Go(func() error {
			rows, err := s.db.Query(gctx, q.sql, ownerID, pattern, MaxSearchResults)
			if err != nil {
				return fmt.Errorf("search %s: %w", q.typ, err)
			}
			defer rows.Close()

			for rows.Next() {
				r := SearchResult{Type: q.typ}
				if err := rows.Scan(&r.ID, &r.Label, &r.Status, &r.UpdatedAt); err != nil {
					return fmt.Errorf("scan %s result: %w", q.typ, err)
				}
				results[i] = append(results[i], r)
			}
			return rows.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	now := time.Now()
	var merged []SearchResult
	facets := map[string]int{}
	for _, batch := range results {
		for _, r := range batch {
			r.Score = scoreResult(query, r.Label, now.Sub(r.UpdatedAt))
			merged = append(merged, r)
			facets[r.Type]++
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})

	total := len(merged)
	if offset > total {
		offset = total
	}
	page := merged[offset:]
	if len(page) > limit {
		page = page[:limit]
	}
	if page == nil {
		page = []SearchResult{}
	}

	return &SearchResponse{Results: page, Total: total, Query: query, Facets: facets}, nil
}

// scoreResult computes token overlap between the query and the label, decayed
// by result age with a one-week half-life. Scores stay in (0, 1].
func scoreResult(query, label string, age time.Duration) float64 {
	qTokens := strings.Fields(strings.ToLower(query))
	lTokens := strings.Fields(strings.ToLower(label))
	if len(qTokens) == 0 {
		return 0
	}

	matched := 0
	for _, qt := range qTokens {
		for _, lt := range lTokens {
			if strings.Contains(lt, qt) {
				matched++
				break
			}
		}
	}

	overlap := float64(matched) / float64(len(qTokens))
	if overlap == 0 {
		// The match was in a field other than the label (logs, description).
		overlap = 0.25
	}

	const halfLife = 7 * 24 * time.Hour
	decay := math.Exp2(-float64(age) / float64(halfLife))
	if decay < 0.01 {
		decay = 0.01
	}
	return overlap * decay
}
