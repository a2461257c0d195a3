package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
)

type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Subscription, bool, error)
	Upsert(ctx context.Context, subscription *models.Subscription) error
}

type subscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID int64) (*models.Subscription, bool, error) {
	var subscription models.Subscription
	query := "SELECT subscription_id, subscription_end_date, status FROM subscriptions WHERE user_id = $1"
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&subscription.SubscriptionID,
		&subscription.SubscriptionEndDate, &subscription.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}
	return &subscription, true, nil
}

func (r *subscriptionRepository) Upsert(ctx context.Context, subscription *models.Subscription) error {
	query := `
		INSERT INTO subscriptions (user_id, subscription_id, subscription_end_date, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			subscription_id = EXCLUDED.subscription_id,
			subscription_end_date = EXCLUDED.subscription_end_date,
			status = EXCLUDED.status,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, subscription.UserID, subscription.SubscriptionID,
		subscription.SubscriptionEndDate, subscription.Status)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
