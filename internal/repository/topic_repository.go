package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/mehulsen/postmirror/internal/models"
)

type TopicRepository interface {
	ListActive(ctx context.Context) ([]*models.CuratedTopic, error)
	GetByID(ctx context.Context, id int64) (*models.CuratedTopic, error)
	Subscribe(ctx context.Context, accountID, topicID int64) error
	Unsubscribe(ctx context.Context, accountID, topicID int64) error
	ListSubscribed(ctx context.Context, accountID int64) ([]*models.CuratedTopic, error)
	UpsertTrending(ctx context.Context, tt *models.TrendingTopic) error
	ListTrendingForAccount(ctx context.Context, accountID int64) ([]*models.TrendingTopic, error)
	ListTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error)
}

type topicRepository struct {
	db *sql.DB
}

func NewTopicRepository(db *sql.DB) TopicRepository {
	return &topicRepository{db: db}
}

func (r *topicRepository) ListActive(ctx context.Context) ([]*models.CuratedTopic, error) {
	query := `
		SELECT id, name, slug, description, external_list_id, active, created_at
		FROM curated_topics
		WHERE active = TRUE
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectCuratedTopics(rows)
}

func (r *topicRepository) GetByID(ctx context.Context, id int64) (*models.CuratedTopic, error) {
	query := `
		SELECT id, name, slug, description, external_list_id, active, created_at
		FROM curated_topics
		WHERE id = $1
	`

	var ct models.CuratedTopic
	err := r.db.QueryRowContext(ctx, query, id).Scan(&ct.ID, &ct.Name, &ct.Slug,
		&ct.Description, &ct.ExternalListID, &ct.Active, &ct.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &ct, nil
}

func (r *topicRepository) Subscribe(ctx context.Context, accountID, topicID int64) error {
	query := `
		INSERT INTO user_topic_preferences (connected_account_id, curated_topic_id)
		VALUES ($1, $2)
		ON CONFLICT (connected_account_id, curated_topic_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, accountID, topicID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *topicRepository) Unsubscribe(ctx context.Context, accountID, topicID int64) error {
	query := `
		DELETE FROM user_topic_preferences
		WHERE connected_account_id = $1 AND curated_topic_id = $2
	`
	_, err := r.db.ExecContext(ctx, query, accountID, topicID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *topicRepository) ListSubscribed(ctx context.Context, accountID int64) ([]*models.CuratedTopic, error) {
	query := `
		SELECT ct.id, ct.name, ct.slug, ct.description, ct.external_list_id, ct.active, ct.created_at
		FROM curated_topics ct
		JOIN user_topic_preferences utp ON utp.curated_topic_id = ct.id
		WHERE utp.connected_account_id = $1 AND ct.active = TRUE
		ORDER BY ct.name
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectCuratedTopics(rows)
}

// UpsertTrending replaces the aggregation for a topic in place; the new
// window supersedes the previous one.
func (r *topicRepository) UpsertTrending(ctx context.Context, tt *models.TrendingTopic) error {
	query := `
		INSERT INTO trending_topics (
			curated_topic_id, window_start, window_end, mention_count,
			total_engagement, sample_post_ids, context
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (curated_topic_id)
		DO UPDATE SET
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			mention_count = EXCLUDED.mention_count,
			total_engagement = EXCLUDED.total_engagement,
			sample_post_ids = EXCLUDED.sample_post_ids,
			context = EXCLUDED.context,
			created_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, tt.CuratedTopicID, tt.WindowStart, tt.WindowEnd,
		tt.MentionCount, tt.TotalEngagement, pq.Array([]int64(tt.SamplePostIDs)), tt.Context)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *topicRepository) ListTrendingForAccount(ctx context.Context, accountID int64) ([]*models.TrendingTopic, error) {
	query := `
		SELECT tt.id, tt.curated_topic_id, tt.window_start, tt.window_end, tt.mention_count,
			tt.total_engagement, tt.sample_post_ids, tt.context, ct.name, tt.created_at
		FROM trending_topics tt
		JOIN curated_topics ct ON ct.id = tt.curated_topic_id
		JOIN user_topic_preferences utp ON utp.curated_topic_id = tt.curated_topic_id
		WHERE utp.connected_account_id = $1
		ORDER BY tt.total_engagement DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectTrendingTopics(rows)
}

func (r *topicRepository) ListTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error) {
	query := `
		SELECT tt.id, tt.curated_topic_id, tt.window_start, tt.window_end, tt.mention_count,
			tt.total_engagement, tt.sample_post_ids, tt.context, ct.name, tt.created_at
		FROM trending_topics tt
		JOIN curated_topics ct ON ct.id = tt.curated_topic_id
		ORDER BY tt.total_engagement DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectTrendingTopics(rows)
}

func collectCuratedTopics(rows *sql.Rows) ([]*models.CuratedTopic, error) {
	var topics []*models.CuratedTopic
	for rows.Next() {
		var ct models.CuratedTopic
		err := rows.Scan(&ct.ID, &ct.Name, &ct.Slug, &ct.Description, &ct.ExternalListID,
			&ct.Active, &ct.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		topics = append(topics, &ct)
	}
	return topics, rows.Err()
}

func collectTrendingTopics(rows *sql.Rows) ([]*models.TrendingTopic, error) {
	var topics []*models.TrendingTopic
	for rows.Next() {
		var tt models.TrendingTopic
		err := rows.Scan(&tt.ID, &tt.CuratedTopicID, &tt.WindowStart, &tt.WindowEnd,
			&tt.MentionCount, &tt.TotalEngagement, &tt.SamplePostIDs, &tt.Context,
			&tt.TopicName, &tt.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		topics = append(topics, &tt)
	}
	return topics, rows.Err()
}
