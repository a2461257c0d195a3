package service

import (
	"context"
	"time"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
)

type SubscriptionStatus struct {
	Active  bool      `json:"active"`
	Status  string    `json:"status"`
	EndDate time.Time `json:"end_date,omitempty"`
}

type SubscriptionService interface {
	Status(ctx context.Context, userID int64) (*SubscriptionStatus, error)
	Record(ctx context.Context, subscription *models.Subscription) error
}

type subscriptionService struct {
	sr repository.SubscriptionRepository
}

func NewSubscriptionService(sr repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{sr: sr}
}

func (s *subscriptionService) Status(ctx context.Context, userID int64) (*SubscriptionStatus, error) {
	subscription, isExist, err := s.sr.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return &SubscriptionStatus{Active: false, Status: "none"}, nil
	}

	return &SubscriptionStatus{
		Active:  subscription.Status == "active" && subscription.SubscriptionEndDate.After(time.Now()),
		Status:  subscription.Status,
		EndDate: subscription.SubscriptionEndDate,
	}, nil
}

func (s *subscriptionService) Record(ctx context.Context, subscription *models.Subscription) error {
	return s.sr.Upsert(ctx, subscription)
}
