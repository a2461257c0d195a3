package models

import (
	"database/sql"
	"time"
)

// SyncMetadata is a typed side-record per connected account holding the
// pipeline bookkeeping that must survive between jobs: the suggestion
// high-water mark, the consecutive rate-limit reschedule counter and the
// counters from the last completed sync pass. SchemaVersion guards
// against shape drift if fields are added later.
type SyncMetadata struct {
	ConnectedAccountID int64        `db:"connected_account_id" json:"connected_account_id"`
	SchemaVersion      int          `db:"schema_version" json:"schema_version"`
	LastSeenPostAt     sql.NullTime `db:"last_seen_post_at" json:"last_seen_post_at"`
	RescheduleCount    int          `db:"reschedule_count" json:"reschedule_count"`
	PostsSynced        int          `db:"posts_synced" json:"posts_synced"`
	ProfilesSynced     int          `db:"profiles_synced" json:"profiles_synced"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}

const SyncMetadataSchemaVersion = 1
