package model

import "time"

// UserProfile holds a user's display and account settings.
type UserProfile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Timezone    string    `json:"timezone"`
	Plan        string    `json:"plan"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Integration is a connection to an external service (calendar, repo host,
// messaging) usable as a cronjob target or data source.
type Integration struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Provider    string     `json:"provider"`
	Label       string     `json:"label,omitempty"`
	Status      string     `json:"status"`
	ConnectedAt time.Time  `json:"connected_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
}

// Integration status constants.
const (
	IntegrationConnected    = "connected"
	IntegrationDisconnected = "disconnected"
)

// Session is one authenticated browser or CLI session.
type Session struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	UserAgent  string     `json:"user_agent,omitempty"`
	IPAddress  string     `json:"ip_address,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}
