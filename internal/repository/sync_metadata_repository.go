package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/mehulsen/postmirror/internal/models"
)

type SyncMetadataRepository interface {
	Get(ctx context.Context, accountID int64) (*models.SyncMetadata, error)
	RecordSyncPass(ctx context.Context, accountID int64, postsSynced, profilesSynced int) error
	SetLastSeenPostAt(ctx context.Context, accountID int64, lastSeen time.Time) error
	IncrementReschedule(ctx context.Context, accountID int64) (int, error)
	ResetReschedules(ctx context.Context, accountID int64) error
}

type syncMetadataRepository struct {
	db *sql.DB
}

func NewSyncMetadataRepository(db *sql.DB) SyncMetadataRepository {
	return &syncMetadataRepository{db: db}
}

// Get returns a zero-valued record when none exists yet; callers never
// see a missing-row error for a valid account.
func (r *syncMetadataRepository) Get(ctx context.Context, accountID int64) (*models.SyncMetadata, error) {
	query := `
		SELECT connected_account_id, schema_version, last_seen_post_at, reschedule_count,
			posts_synced, profiles_synced, updated_at
		FROM sync_metadata
		WHERE connected_account_id = $1
	`

	var sm models.SyncMetadata
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&sm.ConnectedAccountID,
		&sm.SchemaVersion, &sm.LastSeenPostAt, &sm.RescheduleCount, &sm.PostsSynced,
		&sm.ProfilesSynced, &sm.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return &models.SyncMetadata{
				ConnectedAccountID: accountID,
				SchemaVersion:      models.SyncMetadataSchemaVersion,
			}, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &sm, nil
}

// RecordSyncPass stores the counters of a completed pass and resets the
// consecutive reschedule counter.
func (r *syncMetadataRepository) RecordSyncPass(ctx context.Context, accountID int64, postsSynced, profilesSynced int) error {
	query := `
		INSERT INTO sync_metadata (connected_account_id, schema_version, reschedule_count, posts_synced, profiles_synced)
		VALUES ($1, $2, 0, $3, $4)
		ON CONFLICT (connected_account_id)
		DO UPDATE SET
			schema_version = EXCLUDED.schema_version,
			reschedule_count = 0,
			posts_synced = EXCLUDED.posts_synced,
			profiles_synced = EXCLUDED.profiles_synced,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, accountID, models.SyncMetadataSchemaVersion, postsSynced, profilesSynced)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// SetLastSeenPostAt advances the suggestion high-water mark. It never
// moves backwards.
func (r *syncMetadataRepository) SetLastSeenPostAt(ctx context.Context, accountID int64, lastSeen time.Time) error {
	query := `
		INSERT INTO sync_metadata (connected_account_id, schema_version, last_seen_post_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (connected_account_id)
		DO UPDATE SET
			last_seen_post_at = GREATEST(COALESCE(sync_metadata.last_seen_post_at, EXCLUDED.last_seen_post_at), EXCLUDED.last_seen_post_at),
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, accountID, models.SyncMetadataSchemaVersion, lastSeen)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *syncMetadataRepository) IncrementReschedule(ctx context.Context, accountID int64) (int, error) {
	query := `
		INSERT INTO sync_metadata (connected_account_id, schema_version, reschedule_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (connected_account_id)
		DO UPDATE SET
			reschedule_count = sync_metadata.reschedule_count + 1,
			updated_at = CURRENT_TIMESTAMP
		RETURNING reschedule_count
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, accountID, models.SyncMetadataSchemaVersion).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

// ResetReschedules clears the consecutive reschedule counter. Called as
// soon as an attempt gets past the rate gate, so a stale count from an
// earlier deferral streak never carries into a later one.
func (r *syncMetadataRepository) ResetReschedules(ctx context.Context, accountID int64) error {
	query := `
		UPDATE sync_metadata
		SET reschedule_count = 0, updated_at = CURRENT_TIMESTAMP
		WHERE connected_account_id = $1 AND reschedule_count > 0
	`
	_, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
