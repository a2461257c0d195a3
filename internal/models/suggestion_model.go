package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type PostSuggestion struct {
	ID                 int64          `db:"id" json:"id"`
	ConnectedAccountID int64          `db:"connected_account_id" json:"connected_account_id"`
	SuggestionType     string         `db:"suggestion_type" json:"suggestion_type"`
	Content            string         `db:"content" json:"content"`
	Reasoning          string         `db:"reasoning" json:"reasoning"`
	Angle              string         `db:"angle" json:"angle"`
	Topics             pq.StringArray `db:"topics" json:"topics"`
	SourcePostID       sql.NullInt64  `db:"source_post_id" json:"source_post_id"`
	Status             string         `db:"status" json:"status"`
	ExpiresAt          time.Time      `db:"expires_at" json:"expires_at"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	SuggestionTypeOriginal = "original"
	SuggestionTypeReply    = "reply"
)

const (
	SuggestionStatusPending   = "pending"
	SuggestionStatusUsed      = "used"
	SuggestionStatusDismissed = "dismissed"
	SuggestionStatusExpired   = "expired"
)
