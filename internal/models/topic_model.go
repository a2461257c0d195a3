package models

import (
	"time"

	"github.com/lib/pq"
)

// CuratedTopic is an operator-defined subject tracked independently of
// any single connected account, backed by a list on the external network.
type CuratedTopic struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Slug           string    `db:"slug" json:"slug"`
	Description    string    `db:"description" json:"description"`
	ExternalListID string    `db:"external_list_id" json:"external_list_id"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// TrendingTopic is the time-windowed aggregation for a curated topic.
// Rows are derived and rebuildable; a rebuild supersedes the previous
// window in place.
type TrendingTopic struct {
	ID              int64         `db:"id" json:"id"`
	CuratedTopicID  int64         `db:"curated_topic_id" json:"curated_topic_id"`
	WindowStart     time.Time     `db:"window_start" json:"window_start"`
	WindowEnd       time.Time     `db:"window_end" json:"window_end"`
	MentionCount    int           `db:"mention_count" json:"mention_count"`
	TotalEngagement float64       `db:"total_engagement" json:"total_engagement"`
	SamplePostIDs   pq.Int64Array `db:"sample_post_ids" json:"sample_post_ids"`
	Context         string        `db:"context" json:"context"`
	TopicName       string        `db:"-" json:"topic_name,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

type UserTopicPreference struct {
	ConnectedAccountID int64     `db:"connected_account_id" json:"connected_account_id"`
	CuratedTopicID     int64     `db:"curated_topic_id" json:"curated_topic_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
