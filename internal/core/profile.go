package core

import (
	"context"
	"fmt"
	"time"

	"github.com/halver/lifeops/internal/model"
	"github.com/halver/lifeops/internal/platform"
)

// ProfileService manages user profiles.
type ProfileService struct {
	db DB
}

func NewProfileService(db DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	var p model.UserProfile
	err := s.db.QueryRow(ctx,
		`SELECT user_id, display_name, email, avatar_url, timezone, plan, created_at, updated_at
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.DisplayName, &p.Email, &p.AvatarURL, &p.Timezone, &p.Plan,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return &p, nil
}

// Update upserts the mutable profile fields and returns the stored profile.
func (s *ProfileService) Update(ctx context.Context, p *model.UserProfile) (*model.UserProfile, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO user_profiles (user_id, display_name, email, avatar_url, timezone, plan, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, COALESCE(NULLIF($6, ''), 'free'), now(), now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   display_name = EXCLUDED.display_name,
		   email = EXCLUDED.email,
		   avatar_url = EXCLUDED.avatar_url,
		   timezone = EXCLUDED.timezone,
		   updated_at = now()`,
		p.UserID, p.DisplayName, p.Email, p.AvatarURL, p.Timezone, p.Plan,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", p.UserID, err)
	}
	return s.Get(ctx, p.UserID)
}

// IntegrationService manages connections to external providers.
type IntegrationService struct {
	db DB
}

func NewIntegrationService(db DB) *IntegrationService {
	return &IntegrationService{db: db}
}

func (s *IntegrationService) List(ctx context.Context, ownerID string) ([]model.Integration, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, provider, label, status, connected_at, revoked_at
		 FROM integrations WHERE owner_id = $1 ORDER BY connected_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	var integrations []model.Integration
	for rows.Next() {
		var in model.Integration
		if err := rows.Scan(&in.ID, &in.OwnerID, &in.Provider, &in.Label, &in.Status,
			&in.ConnectedAt, &in.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		integrations = append(integrations, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate integrations: %w", err)
	}
	return integrations, nil
}

func (s *IntegrationService) Connect(ctx context.Context, ownerID, provider, label string) (*model.Integration, error) {
	in := &model.Integration{
		ID:          platform.NewID(),
		OwnerID:     ownerID,
		Provider:    provider,
		Label:       label,
		Status:      model.IntegrationConnected,
		ConnectedAt: time.Now(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO integrations (id, owner_id, provider, label, status, connected_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.OwnerID, in.Provider, in.Label, in.Status, in.ConnectedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("connect integration %s: %w", provider, err)
	}
	return in, nil
}

func (s *IntegrationService) Disconnect(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE integrations SET status = $1, revoked_at = now()
		 WHERE id = $2 AND owner_id = $3 AND status = $4`,
		model.IntegrationDisconnected, id, ownerID, model.IntegrationConnected)
	if err != nil {
		return fmt.Errorf("disconnect integration %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("disconnect integration %s: not found", id)
	}
	return nil
}

// SessionService manages authenticated sessions.
type SessionService struct {
	db DB
}

func NewSessionService(db DB) *SessionService {
	return &SessionService{db: db}
}

func (s *SessionService) List(ctx context.Context, ownerID string) ([]model.Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, user_agent, ip_address, created_at, last_seen_at, revoked_at
		 FROM sessions WHERE owner_id = $1 AND revoked_at IS NULL ORDER BY last_seen_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		if err := rows.Scan(&sess.ID, &sess.OwnerID, &sess.UserAgent, &sess.IPAddress,
			&sess.CreatedAt, &sess.LastSeenAt, &sess.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionService) Revoke(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET revoked_at = now() WHERE id = $1 AND owner_id = $2 AND revoked_at IS NULL`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("revoke session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("revoke session %s: not found", id)
	}
	return nil
}
