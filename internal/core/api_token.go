package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/halver/lifeops/internal/model"
	"github.com/halver/lifeops/internal/platform"
)

// APITokenService manages bearer API tokens.
type APITokenService struct {
	db DB
}

func NewAPITokenService(db DB) *APITokenService {
	return &APITokenService{db: db}
}

// Create generates a token, stores its hash, and returns the model along with
// the raw token string. The raw token is shown to the user exactly once.
func (s *APITokenService) Create(ctx context.Context, ownerID, name string, scopes []string, expiresAt *time.Time) (*model.APIToken, string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api token: %w", err)
	}
	rawToken := "lop_" + hex.EncodeToString(rawBytes)

	token, err := s.createWithRaw(ctx, ownerID, name, rawToken, scopes, expiresAt)
	if err != nil {
		return nil, "", err
	}
	return token, rawToken, nil
}

// CreateWithRawToken stores a token with a caller-provided raw value. Used
// for deterministic dev/test tokens.
func (s *APITokenService) CreateWithRawToken(ctx context.Context, ownerID, name, rawToken string, scopes []string) (*model.APIToken, error) {
	return s.createWithRaw(ctx, ownerID, name, rawToken, scopes, nil)
}

func (s *APITokenService) createWithRaw(ctx context.Context, ownerID, name, rawToken string, scopes []string, expiresAt *time.Time) (*model.APIToken, error) {
	hash := sha256.Sum256([]byte(rawToken))

	prefix := rawToken
	if len(prefix) > 12 {
		prefix = prefix[:12]
	}

	token := &model.APIToken{
		ID:        platform.NewID(),
		OwnerID:   ownerID,
		Name:      name,
		TokenHash: hex.EncodeToString(hash[:]),
		Prefix:    prefix,
		Scopes:    scopes,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_tokens (id, owner_id, name, token_hash, prefix, scopes, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		token.ID, token.OwnerID, token.Name, token.TokenHash, token.Prefix,
		token.Scopes, token.ExpiresAt, token.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert api token: %w", err)
	}
	return token, nil
}

func (s *APITokenService) List(ctx context.Context, ownerID string) ([]model.APIToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, name, prefix, scopes, last_used_at, expires_at, created_at, revoked_at
		 FROM api_tokens WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list api tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.APIToken
	for rows.Next() {
		var t model.APIToken
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Prefix, &t.Scopes,
			&t.LastUsedAt, &t.ExpiresAt, &t.CreatedAt, &t.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan api token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate api tokens: %w", err)
	}
	return tokens, nil
}

func (s *APITokenService) Revoke(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE api_tokens SET revoked_at = now() WHERE id = $1 AND owner_id = $2 AND revoked_at IS NULL`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("revoke api token %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("revoke api token %s: not found", id)
	}
	return nil
}

// Rotate revokes the token and issues a replacement with the same name and
// scopes. Returns the new token and its raw value.
func (s *APITokenService) Rotate(ctx context.Context, ownerID, id string) (*model.APIToken, string, error) {
	var name string
	var scopes []string
	err := s.db.QueryRow(ctx,
		`UPDATE api_tokens SET revoked_at = now() WHERE id = $1 AND owner_id = $2 AND revoked_at IS NULL
		 RETURNING name, scopes`, id, ownerID,
	).Scan(&name, &scopes)
	if err != nil {
		return nil, "", fmt.Errorf("rotate api token %s: %w", id, err)
	}

	return s.Create(ctx, ownerID, name, scopes, nil)
}
