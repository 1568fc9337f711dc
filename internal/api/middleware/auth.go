package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/halver/lifeops/internal/api/response"
)

type contextKey string

// OwnerIDKey carries the authenticated user's ID in the request context.
const OwnerIDKey contextKey = "owner_id"

// TokenIDKey carries the authenticated token's ID (activity logger).
const TokenIDKey contextKey = "token_id"

// Auth returns a middleware that validates the Authorization bearer token
// against the api_tokens table. Every route behind it is owner-scoped.
func Auth(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				response.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			hash := sha256.Sum256([]byte(raw))
			tokenHash := hex.EncodeToString(hash[:])

			var tokenID, ownerID string
			var expiresAt *time.Time
			err := pool.QueryRow(r.Context(),
				`SELECT id, owner_id, expires_at FROM api_tokens
				 WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash,
			).Scan(&tokenID, &ownerID, &expiresAt)
			if err != nil || (expiresAt != nil && expiresAt.Before(time.Now())) {
				response.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// Best effort; auth does not depend on it.
			_, _ = pool.Exec(r.Context(),
				`UPDATE api_tokens SET last_used_at = now() WHERE id = $1`, tokenID)

			ctx := context.WithValue(r.Context(), OwnerIDKey, ownerID)
			ctx = context.WithValue(ctx, TokenIDKey, tokenID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerID returns the authenticated user's ID from the context, or "" when
// the request did not pass through Auth.
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(OwnerIDKey).(string)
	return id
}
