package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ActivityLogger is an async writer for the per-user activity log. Entries
// feed the activity endpoint and the audit facet of search.
type ActivityLogger struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	ch     chan activityEntry
}

type activityEntry struct {
	OwnerID      *string
	Action       string
	Path         string
	ResourceType *string
	ResourceID   *string
	StatusCode   int
	RequestBody  json.RawMessage
}

func NewActivityLogger(pool *pgxpool.Pool, logger zerolog.Logger) *ActivityLogger {
	al := &ActivityLogger{
		pool:   pool,
		logger: logger,
		ch:     make(chan activityEntry, 1024),
	}
	go al.drain()
	return al
}

func (al *ActivityLogger) drain() {
	for entry := range al.ch {
		_, err := al.pool.Exec(
			// context.Background since this runs after the request finished
			context.Background(),
			`INSERT INTO activity_logs (owner_id, action, path, resource_type, resource_id, status_code, request_body, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
			entry.OwnerID, entry.Action, entry.Path, entry.ResourceType, entry.ResourceID,
			entry.StatusCode, entry.RequestBody,
		)
		if err != nil {
			al.logger.Error().Err(err).Msg("failed to write activity log")
		}
	}
}

// Close drains remaining entries and closes the channel.
func (al *ActivityLogger) Close() {
	close(al.ch)
}

// Middleware records mutating requests to the activity log.
func (al *ActivityLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		var bodyBytes []byte
		if r.Body != nil {
			bodyBytes, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		resourceType, resourceID := extractResource(r.URL.Path)

		var ownerID *string
		if id := OwnerID(r.Context()); id != "" {
			ownerID = &id
		}

		var sanitizedBody json.RawMessage
		if len(bodyBytes) > 0 && json.Valid(bodyBytes) {
			sanitizedBody = sanitizeBody(bodyBytes)
		}

		select {
		case al.ch <- activityEntry{
			OwnerID:      ownerID,
			Action:       r.Method,
			Path:         r.URL.Path,
			ResourceType: resourceType,
			ResourceID:   resourceID,
			StatusCode:   sw.status,
			RequestBody:  sanitizedBody,
		}:
		default:
			al.logger.Warn().Msg("activity log buffer full, dropping entry")
		}
	})
}

// extractResource pulls the last resource type and optional ID from the path.
//
//	/api/v1/cronjobs           -> type=cronjobs
//	/api/v1/cronjobs/abc       -> type=cronjobs, id=abc
//	/api/v1/cronjobs/abc/runs  -> type=runs
func extractResource(path string) (*string, *string) {
	parts := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(parts) == 0 {
		return nil, nil
	}

	var resourceType, resourceID *string
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i%2 == 0 {
			p := part
			resourceType = &p
			resourceID = nil
		} else {
			p := part
			resourceID = &p
		}
	}

	return resourceType, resourceID
}

// sensitiveFields are redacted from recorded request bodies.
var sensitiveFields = map[string]bool{
	"password": true, "token": true, "secret": true, "api_key": true,
	"credentials": true,
}

func sanitizeBody(body []byte) json.RawMessage {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}
	for k := range data {
		if sensitiveFields[k] {
			data[k] = "[REDACTED]"
		}
	}
	sanitized, _ := json.Marshal(data)
	return sanitized
}
