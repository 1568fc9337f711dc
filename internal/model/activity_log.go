package model

import (
	"encoding/json"
	"time"
)

// ActivityLog is one recorded user-visible action against the API.
type ActivityLog struct {
	ID           string          `json:"id"`
	OwnerID      *string         `json:"owner_id,omitempty"`
	Action       string          `json:"action"`
	Path         string          `json:"path"`
	ResourceType *string         `json:"resource_type,omitempty"`
	ResourceID   *string         `json:"resource_id,omitempty"`
	StatusCode   int             `json:"status_code"`
	RequestBody  json.RawMessage `json:"request_body,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
