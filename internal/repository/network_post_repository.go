package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/mehulsen/postmirror/internal/models"
)

type NetworkPostRepository interface {
	Upsert(ctx context.Context, np *models.NetworkPost) (int64, error)
	GetByExternalID(ctx context.Context, accountID int64, externalPostID string) (*models.NetworkPost, error)
	ListTopSince(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error)
	ListByCuratedTopic(ctx context.Context, topicID int64, since time.Time) ([]*models.NetworkPost, error)
	ListByAuthor(ctx context.Context, accountID int64, authorExternalID string, limit int) ([]*models.NetworkPost, error)
	CountByAccountID(ctx context.Context, accountID int64) (int64, error)
}

type networkPostRepository struct {
	db *sql.DB
}

func NewNetworkPostRepository(db *sql.DB) NetworkPostRepository {
	return &networkPostRepository{db: db}
}

const networkPostColumns = `id, connected_account_id, curated_topic_id, external_post_id,
	author_external_id, author_username, content, likes_count, shares_count, replies_count,
	engagement_score, topics, sentiment, posted_at, created_at, updated_at`

func scanNetworkPost(row interface{ Scan(...interface{}) error }) (*models.NetworkPost, error) {
	var np models.NetworkPost
	err := row.Scan(&np.ID, &np.ConnectedAccountID, &np.CuratedTopicID, &np.ExternalPostID,
		&np.AuthorExternalID, &np.AuthorUsername, &np.Content, &np.LikesCount, &np.SharesCount,
		&np.RepliesCount, &np.EngagementScore, &np.Topics, &np.Sentiment, &np.PostedAt,
		&np.CreatedAt, &np.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &np, nil
}

// Upsert is keyed on the natural post identity for the post's mode:
// (connected_account_id, external_post_id) for timeline posts,
// (curated_topic_id, external_post_id) for curated list posts. The
// other key column is NULL and Postgres treats NULLs as distinct, so
// each mode needs its own partial unique index and conflict target.
// Engagement counters, score, topics and sentiment are the mutable
// payload; everything else keeps its original value so re-running a
// pass is safe.
func (r *networkPostRepository) Upsert(ctx context.Context, np *models.NetworkPost) (int64, error) {
	conflictTarget := `(connected_account_id, external_post_id)`
	if !np.ConnectedAccountID.Valid && np.CuratedTopicID.Valid {
		conflictTarget = `(curated_topic_id, external_post_id)`
	}

	query := `
		INSERT INTO network_posts (
			connected_account_id, curated_topic_id, external_post_id, author_external_id,
			author_username, content, likes_count, shares_count, replies_count,
			engagement_score, topics, sentiment, posted_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT ` + conflictTarget + `
		DO UPDATE SET
			likes_count = EXCLUDED.likes_count,
			shares_count = EXCLUDED.shares_count,
			replies_count = EXCLUDED.replies_count,
			engagement_score = EXCLUDED.engagement_score,
			topics = EXCLUDED.topics,
			sentiment = EXCLUDED.sentiment,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, np.ConnectedAccountID, np.CuratedTopicID,
		np.ExternalPostID, np.AuthorExternalID, np.AuthorUsername, np.Content,
		np.LikesCount, np.SharesCount, np.RepliesCount, np.EngagementScore,
		pq.Array([]string(np.Topics)), np.Sentiment, np.PostedAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *networkPostRepository) GetByExternalID(ctx context.Context, accountID int64, externalPostID string) (*models.NetworkPost, error) {
	query := `SELECT ` + networkPostColumns + `
		FROM network_posts
		WHERE connected_account_id = $1 AND external_post_id = $2`
	np, err := scanNetworkPost(r.db.QueryRowContext(ctx, query, accountID, externalPostID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return np, nil
}

// ListTopSince returns the account's posts newer than since, highest
// engagement first, bounded by limit.
func (r *networkPostRepository) ListTopSince(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
	query := `SELECT ` + networkPostColumns + `
		FROM network_posts
		WHERE connected_account_id = $1 AND posted_at > $2
		ORDER BY engagement_score DESC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, since, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectNetworkPosts(rows)
}

func (r *networkPostRepository) ListByCuratedTopic(ctx context.Context, topicID int64, since time.Time) ([]*models.NetworkPost, error) {
	query := `SELECT ` + networkPostColumns + `
		FROM network_posts
		WHERE curated_topic_id = $1 AND posted_at > $2
		ORDER BY engagement_score DESC`
	rows, err := r.db.QueryContext(ctx, query, topicID, since)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectNetworkPosts(rows)
}

func (r *networkPostRepository) ListByAuthor(ctx context.Context, accountID int64, authorExternalID string, limit int) ([]*models.NetworkPost, error) {
	query := `SELECT ` + networkPostColumns + `
		FROM network_posts
		WHERE connected_account_id = $1 AND author_external_id = $2
		ORDER BY posted_at DESC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, authorExternalID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectNetworkPosts(rows)
}

func (r *networkPostRepository) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM network_posts WHERE connected_account_id = $1`

	var count int64
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func collectNetworkPosts(rows *sql.Rows) ([]*models.NetworkPost, error) {
	var posts []*models.NetworkPost
	for rows.Next() {
		np, err := scanNetworkPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, np)
	}
	return posts, rows.Err()
}
