package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
)

type MediaAssetRepository interface {
	Create(ctx context.Context, ma *models.MediaAsset) (int64, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
}

type mediaAssetRepository struct {
	db *sql.DB
}

func NewMediaAssetRepository(db *sql.DB) MediaAssetRepository {
	return &mediaAssetRepository{db: db}
}

func (r *mediaAssetRepository) Create(ctx context.Context, ma *models.MediaAsset) (int64, error) {
	query := `
		INSERT INTO media_assets (user_id, file_name, file_type, file_size, file_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ma.UserID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *mediaAssetRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	query := `
		SELECT id, user_id, file_name, file_type, file_size, file_url, created_at
		FROM media_assets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var assets []*models.MediaAsset
	for rows.Next() {
		var ma models.MediaAsset
		err := rows.Scan(&ma.ID, &ma.UserID, &ma.FileName, &ma.FileType, &ma.FileSize, &ma.FileURL, &ma.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &ma)
	}
	return assets, rows.Err()
}

type ShareLinkRepository interface {
	Create(ctx context.Context, sl *models.ShareLink) (int64, error)
	GetBySlug(ctx context.Context, slug string) (*models.ShareLink, error)
}

type shareLinkRepository struct {
	db *sql.DB
}

func NewShareLinkRepository(db *sql.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

func (r *shareLinkRepository) Create(ctx context.Context, sl *models.ShareLink) (int64, error) {
	query := `
		INSERT INTO share_links (user_id, suggestion_id, slug)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, sl.UserID, sl.SuggestionID, sl.Slug).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return id, nil
}

func (r *shareLinkRepository) GetBySlug(ctx context.Context, slug string) (*models.ShareLink, error) {
	query := `SELECT id, user_id, suggestion_id, slug, created_at FROM share_links WHERE slug = $1`

	var sl models.ShareLink
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&sl.ID, &sl.UserID, &sl.SuggestionID, &sl.Slug, &sl.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sl, nil
}
