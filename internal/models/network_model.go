package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type NetworkProfile struct {
	ID                 int64     `db:"id" json:"id"`
	ConnectedAccountID int64     `db:"connected_account_id" json:"connected_account_id"`
	ExternalUserID     string    `db:"external_user_id" json:"external_user_id"`
	Username           string    `db:"username" json:"username"`
	DisplayName        string    `db:"display_name" json:"display_name"`
	AvatarURL          string    `db:"avatar_url" json:"avatar_url"`
	FollowersCount     int       `db:"followers_count" json:"followers_count"`
	EngagementScore    float64   `db:"engagement_score" json:"engagement_score"`
	RelevanceScore     float64   `db:"relevance_score" json:"relevance_score"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// NetworkPost belongs either to a connected account (personal timeline
// mode) or to a curated topic (global list mode), never both.
type NetworkPost struct {
	ID                 int64          `db:"id" json:"id"`
	ConnectedAccountID sql.NullInt64  `db:"connected_account_id" json:"connected_account_id"`
	CuratedTopicID     sql.NullInt64  `db:"curated_topic_id" json:"curated_topic_id"`
	ExternalPostID     string         `db:"external_post_id" json:"external_post_id"`
	AuthorExternalID   string         `db:"author_external_id" json:"author_external_id"`
	AuthorUsername     string         `db:"author_username" json:"author_username"`
	Content            string         `db:"content" json:"content"`
	LikesCount         int            `db:"likes_count" json:"likes_count"`
	SharesCount        int            `db:"shares_count" json:"shares_count"`
	RepliesCount       int            `db:"replies_count" json:"replies_count"`
	EngagementScore    float64        `db:"engagement_score" json:"engagement_score"`
	Topics             pq.StringArray `db:"topics" json:"topics"`
	Sentiment          string         `db:"sentiment" json:"sentiment"`
	PostedAt           time.Time      `db:"posted_at" json:"posted_at"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)
