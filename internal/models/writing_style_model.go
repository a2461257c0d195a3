package models

import "time"

// WritingStyle is rebuilt wholesale on each analysis run, never patched
// incrementally.
type WritingStyle struct {
	ID                 int64     `db:"id" json:"id"`
	ConnectedAccountID int64     `db:"connected_account_id" json:"connected_account_id"`
	Tone               string    `db:"tone" json:"tone"`
	AvgLength          float64   `db:"avg_length" json:"avg_length"`
	EmojiFrequency     float64   `db:"emoji_frequency" json:"emoji_frequency"`
	HashtagFrequency   float64   `db:"hashtag_frequency" json:"hashtag_frequency"`
	Summary            string    `db:"summary" json:"summary"`
	Confidence         float64   `db:"confidence" json:"confidence"`
	SampleSize         int       `db:"sample_size" json:"sample_size"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
