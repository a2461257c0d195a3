package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
)

type TopicService interface {
	List(ctx context.Context) ([]*models.CuratedTopic, error)
	Subscribe(ctx context.Context, userID, accountID, topicID int64) error
	Unsubscribe(ctx context.Context, userID, accountID, topicID int64) error
	ListSubscribed(ctx context.Context, userID, accountID int64) ([]*models.CuratedTopic, error)
}

type topicService struct {
	tr repository.TopicRepository
	ca repository.ConnectedAccountRepository
}

func NewTopicService(tr repository.TopicRepository, ca repository.ConnectedAccountRepository) TopicService {
	return &topicService{
		tr: tr,
		ca: ca,
	}
}

func (s *topicService) List(ctx context.Context) ([]*models.CuratedTopic, error) {
	return s.tr.ListActive(ctx)
}

func (s *topicService) Subscribe(ctx context.Context, userID, accountID, topicID int64) error {
	if err := s.checkOwner(ctx, accountID, userID); err != nil {
		return err
	}

	topic, err := s.tr.GetByID(ctx, topicID)
	if err != nil {
		return err
	}
	if topic == nil {
		return errors.New("topic doesn't exist")
	}

	return s.tr.Subscribe(ctx, accountID, topicID)
}

func (s *topicService) Unsubscribe(ctx context.Context, userID, accountID, topicID int64) error {
	if err := s.checkOwner(ctx, accountID, userID); err != nil {
		return err
	}
	return s.tr.Unsubscribe(ctx, accountID, topicID)
}

func (s *topicService) ListSubscribed(ctx context.Context, userID, accountID int64) ([]*models.CuratedTopic, error) {
	if err := s.checkOwner(ctx, accountID, userID); err != nil {
		return nil, err
	}
	return s.tr.ListSubscribed(ctx, accountID)
}

func (s *topicService) checkOwner(ctx context.Context, accountID, userID int64) error {
	exists, err := s.ca.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if !exists {
		return errors.New("connected account doesn't exist")
	}
	return nil
}
