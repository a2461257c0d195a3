package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type ConnectedAccount struct {
	ID               int64          `db:"id" json:"id"`
	UserID           int64          `db:"user_id" json:"user_id"`
	Platform         string         `db:"platform" json:"platform"`
	ExternalUserID   string         `db:"external_user_id" json:"external_user_id"`
	Handle           string         `db:"handle" json:"handle"`
	DisplayName      string         `db:"display_name" json:"display_name"`
	AvatarURL        string         `db:"avatar_url" json:"avatar_url"`
	AccessToken      string         `db:"access_token" json:"-"`
	RefreshToken     string         `db:"refresh_token" json:"-"`
	TokenExpiresAt   time.Time      `db:"token_expires_at" json:"token_expires_at"`
	SyncStatus       string         `db:"sync_status" json:"sync_status"`
	SyncError        string         `db:"sync_error" json:"sync_error"`
	LastSyncedAt     sql.NullTime   `db:"last_synced_at" json:"last_synced_at"`
	Voice            string         `db:"voice" json:"voice"`
	SamplePosts      pq.StringArray `db:"sample_posts" json:"sample_posts"`
	TopicsOfInterest string         `db:"topics_of_interest" json:"topics_of_interest"`
	Active           bool           `db:"active" json:"active"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	SyncStatusPending = "pending"
	SyncStatusSyncing = "syncing"
	SyncStatusReady   = "ready"
	SyncStatusError   = "error"
)

const (
	PlatformTwitter  = "twitter"
	PlatformBluesky  = "bluesky"
	PlatformLinkedin = "linkedin"
)

// HasNetworkGraph reports whether the platform exposes a followable
// timeline. Platforms without one (linkedin) are suggestion-only and
// take the interest-based generation path.
func (a *ConnectedAccount) HasNetworkGraph() bool {
	switch a.Platform {
	case PlatformTwitter, PlatformBluesky:
		return true
	default:
		return false
	}
}
