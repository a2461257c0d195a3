package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
)

type WritingStyleRepository interface {
	Replace(ctx context.Context, ws *models.WritingStyle) (int64, error)
	GetByAccountID(ctx context.Context, accountID int64) (*models.WritingStyle, error)
}

type writingStyleRepository struct {
	db *sql.DB
}

func NewWritingStyleRepository(db *sql.DB) WritingStyleRepository {
	return &writingStyleRepository{db: db}
}

// Replace overwrites the whole row for the account. Style profiles are
// rebuilt wholesale per analysis run, never patched field by field.
func (r *writingStyleRepository) Replace(ctx context.Context, ws *models.WritingStyle) (int64, error) {
	query := `
		INSERT INTO writing_styles (
			connected_account_id, tone, avg_length, emoji_frequency,
			hashtag_frequency, summary, confidence, sample_size
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (connected_account_id)
		DO UPDATE SET
			tone = EXCLUDED.tone,
			avg_length = EXCLUDED.avg_length,
			emoji_frequency = EXCLUDED.emoji_frequency,
			hashtag_frequency = EXCLUDED.hashtag_frequency,
			summary = EXCLUDED.summary,
			confidence = EXCLUDED.confidence,
			sample_size = EXCLUDED.sample_size,
			created_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ws.ConnectedAccountID, ws.Tone, ws.AvgLength,
		ws.EmojiFrequency, ws.HashtagFrequency, ws.Summary, ws.Confidence, ws.SampleSize).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *writingStyleRepository) GetByAccountID(ctx context.Context, accountID int64) (*models.WritingStyle, error) {
	query := `
		SELECT id, connected_account_id, tone, avg_length, emoji_frequency,
			hashtag_frequency, summary, confidence, sample_size, created_at
		FROM writing_styles
		WHERE connected_account_id = $1
	`

	var ws models.WritingStyle
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&ws.ID, &ws.ConnectedAccountID,
		&ws.Tone, &ws.AvgLength, &ws.EmojiFrequency, &ws.HashtagFrequency, &ws.Summary,
		&ws.Confidence, &ws.SampleSize, &ws.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &ws, nil
}
