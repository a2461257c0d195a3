package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/mehulsen/postmirror/internal/models"
)

type ConnectedAccountRepository interface {
	Create(ctx context.Context, tx *sql.Tx, ca *models.ConnectedAccount) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.ConnectedAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error)
	ListSyncable(ctx context.Context, syncedBefore time.Time) ([]*models.ConnectedAccount, error)
	ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.ConnectedAccount, error)
	CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error)
	SetSyncStatus(ctx context.Context, id int64, status, syncError string) error
	MarkSynced(ctx context.Context, id int64) error
	SetTopicsOfInterest(ctx context.Context, id int64, topics string) error
	UpdateSettings(ctx context.Context, id int64, voice, topics string, samplePosts []string) error
	SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error
	Deactivate(ctx context.Context, id int64) error
}

type connectedAccountRepository struct {
	db *sql.DB
}

func NewConnectedAccountRepository(db *sql.DB) ConnectedAccountRepository {
	return &connectedAccountRepository{db: db}
}

const connectedAccountColumns = `id, user_id, platform, external_user_id, handle, display_name,
	avatar_url, access_token, refresh_token, token_expires_at, sync_status, sync_error,
	last_synced_at, voice, sample_posts, topics_of_interest, active, created_at, updated_at`

func scanConnectedAccount(row interface{ Scan(...interface{}) error }) (*models.ConnectedAccount, error) {
	var ca models.ConnectedAccount
	err := row.Scan(&ca.ID, &ca.UserID, &ca.Platform, &ca.ExternalUserID, &ca.Handle,
		&ca.DisplayName, &ca.AvatarURL, &ca.AccessToken, &ca.RefreshToken, &ca.TokenExpiresAt,
		&ca.SyncStatus, &ca.SyncError, &ca.LastSyncedAt, &ca.Voice, &ca.SamplePosts,
		&ca.TopicsOfInterest, &ca.Active, &ca.CreatedAt, &ca.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ca, nil
}

// Create reactivates an existing row for the same (user, platform,
// external user id) instead of inserting a duplicate.
func (r *connectedAccountRepository) Create(ctx context.Context, tx *sql.Tx, ca *models.ConnectedAccount) (int64, error) {
	query := `
		INSERT INTO connected_accounts (
			user_id, platform, external_user_id, handle, display_name, avatar_url,
			access_token, refresh_token, token_expires_at, sync_status, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		ON CONFLICT (user_id, platform, external_user_id)
		DO UPDATE SET
			handle = EXCLUDED.handle,
			display_name = EXCLUDED.display_name,
			avatar_url = EXCLUDED.avatar_url,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			active = TRUE,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var err error
	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, ca.UserID, ca.Platform, ca.ExternalUserID,
			ca.Handle, ca.DisplayName, ca.AvatarURL, ca.AccessToken, ca.RefreshToken,
			ca.TokenExpiresAt, models.SyncStatusPending).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, ca.UserID, ca.Platform, ca.ExternalUserID,
			ca.Handle, ca.DisplayName, ca.AvatarURL, ca.AccessToken, ca.RefreshToken,
			ca.TokenExpiresAt, models.SyncStatusPending).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectedAccountRepository) GetByID(ctx context.Context, id int64) (*models.ConnectedAccount, error) {
	query := `SELECT ` + connectedAccountColumns + ` FROM connected_accounts WHERE id = $1`
	ca, err := scanConnectedAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return ca, nil
}

func (r *connectedAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error) {
	query := `SELECT ` + connectedAccountColumns + `
		FROM connected_accounts
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ConnectedAccount
	for rows.Next() {
		ca, err := scanConnectedAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, ca)
	}
	return accounts, rows.Err()
}

// ListSyncable returns active accounts whose last completed sync is older
// than the cutoff, including accounts that have never synced or ended in
// error. Accounts mid-sync are skipped.
func (r *connectedAccountRepository) ListSyncable(ctx context.Context, syncedBefore time.Time) ([]*models.ConnectedAccount, error) {
	query := `SELECT ` + connectedAccountColumns + `
		FROM connected_accounts
		WHERE active = TRUE
		AND sync_status <> $1
		AND (last_synced_at IS NULL OR last_synced_at < $2)`
	rows, err := r.db.QueryContext(ctx, query, models.SyncStatusSyncing, syncedBefore)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ConnectedAccount
	for rows.Next() {
		ca, err := scanConnectedAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, ca)
	}
	return accounts, rows.Err()
}

func (r *connectedAccountRepository) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.ConnectedAccount, error) {
	query := `SELECT ` + connectedAccountColumns + `
		FROM connected_accounts
		WHERE active = TRUE
		AND token_expires_at BETWEEN $1 AND $2`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.ConnectedAccount
	for rows.Next() {
		ca, err := scanConnectedAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, ca)
	}
	return accounts, rows.Err()
}

func (r *connectedAccountRepository) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	query := `SELECT 1 FROM connected_accounts WHERE id = $1 AND user_id = $2 AND active = TRUE`

	var result int
	err := r.db.QueryRowContext(ctx, query, accountID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *connectedAccountRepository) SetSyncStatus(ctx context.Context, id int64, status, syncError string) error {
	query := `
		UPDATE connected_accounts
		SET sync_status = $2, sync_error = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, status, syncError)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectedAccountRepository) MarkSynced(ctx context.Context, id int64) error {
	query := `
		UPDATE connected_accounts
		SET sync_status = $2, sync_error = '', last_synced_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.SyncStatusReady)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectedAccountRepository) SetTopicsOfInterest(ctx context.Context, id int64, topics string) error {
	query := `
		UPDATE connected_accounts
		SET topics_of_interest = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, topics)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectedAccountRepository) UpdateSettings(ctx context.Context, id int64, voice, topics string, samplePosts []string) error {
	query := `
		UPDATE connected_accounts
		SET voice = $2, topics_of_interest = $3, sample_posts = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, voice, topics, pq.Array(samplePosts))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectedAccountRepository) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE connected_accounts
		SET access_token = $2, refresh_token = $3, token_expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// Deactivate soft-deletes the account; synced rows stay behind for a
// possible reconnect.
func (r *connectedAccountRepository) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE connected_accounts
		SET active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
