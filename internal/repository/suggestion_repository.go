package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
	"github.com/mehulsen/postmirror/internal/models"
)

// ErrSuggestionNotPending is returned when a consume transition is
// attempted on a suggestion that already left the pending state. Callers
// surface it as a conflict, not a silent overwrite.
var ErrSuggestionNotPending = errors.New("suggestion is not pending")

type SuggestionRepository interface {
	Create(ctx context.Context, ps *models.PostSuggestion) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PostSuggestion, error)
	ListPending(ctx context.Context, accountID int64, limit int) ([]*models.PostSuggestion, error)
	UpdateStatus(ctx context.Context, id, accountID int64, status string) error
	ExpireOld(ctx context.Context) (int64, error)
	PurgeExpired(ctx context.Context, olderThanDays int) (int64, error)
}

type suggestionRepository struct {
	db *sql.DB
}

func NewSuggestionRepository(db *sql.DB) SuggestionRepository {
	return &suggestionRepository{db: db}
}

const suggestionColumns = `id, connected_account_id, suggestion_type, content, reasoning,
	angle, topics, source_post_id, status, expires_at, created_at, updated_at`

func scanSuggestion(row interface{ Scan(...interface{}) error }) (*models.PostSuggestion, error) {
	var ps models.PostSuggestion
	err := row.Scan(&ps.ID, &ps.ConnectedAccountID, &ps.SuggestionType, &ps.Content,
		&ps.Reasoning, &ps.Angle, &ps.Topics, &ps.SourcePostID, &ps.Status, &ps.ExpiresAt,
		&ps.CreatedAt, &ps.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ps, nil
}

func (r *suggestionRepository) Create(ctx context.Context, ps *models.PostSuggestion) (int64, error) {
	query := `
		INSERT INTO post_suggestions (
			connected_account_id, suggestion_type, content, reasoning, angle,
			topics, source_post_id, status, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, ps.ConnectedAccountID, ps.SuggestionType,
		ps.Content, ps.Reasoning, ps.Angle, pq.Array([]string(ps.Topics)), ps.SourcePostID,
		models.SuggestionStatusPending, ps.ExpiresAt).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *suggestionRepository) GetByID(ctx context.Context, id int64) (*models.PostSuggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM post_suggestions WHERE id = $1`
	ps, err := scanSuggestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return ps, nil
}

// ListPending filters on expires_at as well as status so a suggestion
// past its TTL disappears from readers even before the sweep flips it.
func (r *suggestionRepository) ListPending(ctx context.Context, accountID int64, limit int) ([]*models.PostSuggestion, error) {
	query := `SELECT ` + suggestionColumns + `
		FROM post_suggestions
		WHERE connected_account_id = $1
		AND status = $2
		AND expires_at > CURRENT_TIMESTAMP
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, accountID, models.SuggestionStatusPending, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var suggestions []*models.PostSuggestion
	for rows.Next() {
		ps, err := scanSuggestion(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		suggestions = append(suggestions, ps)
	}
	return suggestions, rows.Err()
}

// UpdateStatus performs the one-way pending -> used/dismissed transition.
// The WHERE clause only matches pending rows; zero rows affected on an
// existing suggestion means the transition already happened and the
// caller gets ErrSuggestionNotPending.
func (r *suggestionRepository) UpdateStatus(ctx context.Context, id, accountID int64, status string) error {
	query := `
		UPDATE post_suggestions
		SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND connected_account_id = $2 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, id, accountID, status, models.SuggestionStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil || existing.ConnectedAccountID != accountID {
			return errors.New("suggestion doesn't exist")
		}
		return ErrSuggestionNotPending
	}

	return nil
}

// ExpireOld is the bulk sweep: every pending suggestion past its TTL is
// flipped to expired in one statement.
func (r *suggestionRepository) ExpireOld(ctx context.Context) (int64, error) {
	query := `
		UPDATE post_suggestions
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE status = $2 AND expires_at <= CURRENT_TIMESTAMP
	`
	result, err := r.db.ExecContext(ctx, query, models.SuggestionStatusExpired, models.SuggestionStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

// PurgeExpired removes long-dead rows. The pipeline itself never hard
// deletes; this runs from the periodic maintenance job only.
func (r *suggestionRepository) PurgeExpired(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM post_suggestions
		WHERE status = $1 AND expires_at < CURRENT_TIMESTAMP - ($2 || ' days')::interval
	`
	result, err := r.db.ExecContext(ctx, query, models.SuggestionStatusExpired, olderThanDays)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}
