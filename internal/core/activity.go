package core

import (
	"context"
	"fmt"

	"github.com/halver/lifeops/internal/model"
)

// ActivityService reads back the activity log written by the API middleware.
type ActivityService struct {
	db DB
}

func NewActivityService(db DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns the owner's activity, newest first, with id-keyset pagination.
func (s *ActivityService) List(ctx context.Context, ownerID string, limit int, cursor string) ([]model.ActivityLog, bool, error) {
	query := `SELECT id, owner_id, action, path, resource_type, resource_id, status_code, request_body, created_at
		 FROM activity_logs WHERE owner_id = $1`
	args := []any{ownerID}
	argIdx := 2

	if cursor != "" {
		query += fmt.Sprintf(` AND id < $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY id DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Action, &e.Path, &e.ResourceType,
			&e.ResourceID, &e.StatusCode, &e.RequestBody, &e.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate activity: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}
