package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
)

type ApiKeyRepository interface {
	Create(ctx context.Context, key *models.ApiKey) (int64, error)
	GetByKey(ctx context.Context, apiKey string) (*int64, bool, error)
	GetByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	Remove(ctx context.Context, userID, keyID int64) error
}

type apiKeyRepository struct {
	db *sql.DB
}

func NewApiKeyRepository(db *sql.DB) ApiKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, key *models.ApiKey) (int64, error) {
	query := "INSERT INTO api_keys (user_id, api_key) VALUES ($1, $2) RETURNING id"

	var id int64
	err := r.db.QueryRowContext(ctx, query, key.UserID, key.ApiKey).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *apiKeyRepository) GetByKey(ctx context.Context, apiKey string) (*int64, bool, error) {
	query := "SELECT user_id FROM api_keys WHERE api_key = $1"

	var userID int64
	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &userID, true, nil
}

func (r *apiKeyRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	query := "SELECT id, user_id, api_key, created_at FROM api_keys WHERE user_id = $1"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var keys []*models.ApiKey
	for rows.Next() {
		var key models.ApiKey
		err := rows.Scan(&key.ID, &key.UserID, &key.ApiKey, &key.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		keys = append(keys, &key)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) Remove(ctx context.Context, userID, keyID int64) error {
	query := "DELETE FROM api_keys WHERE id = $1 AND user_id = $2"
	_, err := r.db.ExecContext(ctx, query, keyID, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
