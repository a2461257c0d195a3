package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/transfer"
)

const (
	twitterAuthURL  = "https://twitter.com/i/oauth2/authorize"
	linkedinAuthURL = "https://www.linkedin.com/oauth/v2/authorization"
)

type AccountService interface {
	GetAuthURL(ctx context.Context, platform, state string) string
	List(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error)
	Get(ctx context.Context, userID, accountID int64) (*models.ConnectedAccount, error)
	UpdateSettings(ctx context.Context, userID, accountID int64, update *transfer.AccountSettingsUpdate) error
	Deactivate(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	cfg config.Config
	ca  repository.ConnectedAccountRepository
}

func NewAccountService(cfg config.Config, ca repository.ConnectedAccountRepository) AccountService {
	return &accountService{
		cfg: cfg,
		ca:  ca,
	}
}

func (s *accountService) GetAuthURL(ctx context.Context, platform, state string) string {
	switch platform {
	case models.PlatformTwitter:
		params := url.Values{}
		params.Add("client_id", s.cfg.TwitterClientID)
		params.Add("scope", "tweet.read users.read follows.read offline.access")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.TwitterRedirectURI)
		params.Add("state", state)
		params.Add("code_challenge", "challenge")
		params.Add("code_challenge_method", "plain")

		return fmt.Sprintf("%s?%s", twitterAuthURL, params.Encode())

	case models.PlatformLinkedin:
		params := url.Values{}
		params.Add("client_id", s.cfg.LinkedinClientID)
		params.Add("scope", "openid profile w_member_social")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.LinkedinRedirectURI)
		params.Add("state", state)

		return fmt.Sprintf("%s?%s", linkedinAuthURL, params.Encode())

	default:
		return ""
	}
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error) {
	if userID == 0 {
		err := errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	return s.ca.ListByUserID(ctx, userID)
}

func (s *accountService) Get(ctx context.Context, userID, accountID int64) (*models.ConnectedAccount, error) {
	owned, err := s.ca.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, errors.New("connected account doesn't exist")
	}

	return s.ca.GetByID(ctx, accountID)
}

func (s *accountService) UpdateSettings(ctx context.Context, userID, accountID int64, update *transfer.AccountSettingsUpdate) error {
	owned, err := s.ca.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("connected account doesn't exist")
	}

	return s.ca.UpdateSettings(ctx, accountID, update.Voice, update.TopicsOfInterest, update.SamplePosts)
}

// Deactivate soft-deletes the connection. Synced data stays behind so a
// reconnect picks up where it left off.
func (s *accountService) Deactivate(ctx context.Context, userID, accountID int64) error {
	owned, err := s.ca.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("connected account doesn't exist")
	}

	return s.ca.Deactivate(ctx, accountID)
}
