package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
)

type NetworkProfileRepository interface {
	Upsert(ctx context.Context, np *models.NetworkProfile) (int64, error)
	ListByAccountID(ctx context.Context, accountID int64, limit int) ([]*models.NetworkProfile, error)
	RecomputeEngagement(ctx context.Context, accountID int64) error
}

type networkProfileRepository struct {
	db *sql.DB
}

func NewNetworkProfileRepository(db *sql.DB) NetworkProfileRepository {
	return &networkProfileRepository{db: db}
}

// Upsert is keyed on (connected_account_id, external_user_id). Only
// mutable fields are replaced on conflict; scores and creation identity
// are left alone so repeated syncs cannot clobber them.
func (r *networkProfileRepository) Upsert(ctx context.Context, np *models.NetworkProfile) (int64, error) {
	query := `
		INSERT INTO network_profiles (
			connected_account_id, external_user_id, username, display_name,
			avatar_url, followers_count
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (connected_account_id, external_user_id)
		DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			followers_count = EXCLUDED.followers_count,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, np.ConnectedAccountID, np.ExternalUserID,
		np.Username, np.DisplayName, np.AvatarURL, np.FollowersCount).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *networkProfileRepository) ListByAccountID(ctx context.Context, accountID int64, limit int) ([]*models.NetworkProfile, error) {
	query := `
		SELECT id, connected_account_id, external_user_id, username, display_name,
			avatar_url, followers_count, engagement_score, relevance_score, created_at, updated_at
		FROM network_profiles
		WHERE connected_account_id = $1
		ORDER BY engagement_score DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.NetworkProfile
	for rows.Next() {
		var np models.NetworkProfile
		err := rows.Scan(&np.ID, &np.ConnectedAccountID, &np.ExternalUserID, &np.Username,
			&np.DisplayName, &np.AvatarURL, &np.FollowersCount, &np.EngagementScore,
			&np.RelevanceScore, &np.CreatedAt, &np.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		profiles = append(profiles, &np)
	}
	return profiles, rows.Err()
}

// RecomputeEngagement sets each profile's rolling engagement to the mean
// score of that author's posts over the trailing 30 days. AVG over an
// empty set is NULL, which COALESCE collapses to zero instead of letting
// a non-finite value reach stored state.
func (r *networkProfileRepository) RecomputeEngagement(ctx context.Context, accountID int64) error {
	query := `
		UPDATE network_profiles np
		SET engagement_score = COALESCE((
				SELECT AVG(p.engagement_score)
				FROM network_posts p
				WHERE p.connected_account_id = np.connected_account_id
				AND p.author_external_id = np.external_user_id
				AND p.posted_at > CURRENT_TIMESTAMP - INTERVAL '30 days'
			), 0),
			updated_at = CURRENT_TIMESTAMP
		WHERE np.connected_account_id = $1
	`
	_, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
