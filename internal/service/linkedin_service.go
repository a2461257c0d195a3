package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/transfer"
	"github.com/mehulsen/postmirror/pkg/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"
)

const linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"

type LinkedinService interface {
	LinkedinCallback(ctx context.Context, code string, userID int64) (int64, error)
}

type linkedinService struct {
	cfg config.Config
	ca  repository.ConnectedAccountRepository
}

func NewLinkedinService(cfg config.Config, ca repository.ConnectedAccountRepository) LinkedinService {
	return &linkedinService{
		cfg: cfg,
		ca:  ca,
	}
}

func (s *linkedinService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.LinkedinClientID,
		ClientSecret: s.cfg.LinkedinClientSecret,
		RedirectURL:  s.cfg.LinkedinRedirectURI,
		Scopes:       []string{"openid", "profile", "email", "w_member_social"},
		Endpoint:     linkedin.Endpoint,
	}
}

func (s *linkedinService) LinkedinCallback(ctx context.Context, code string, userID int64) (int64, error) {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := s.oauthConfig().Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	userInfo, err := linkedinUserInfo(ctx, token.AccessToken)
	if err != nil {
		return 0, err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}

	encryptedRefreshToken, err := utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return 0, err
	}

	account := &models.ConnectedAccount{
		UserID:         userID,
		Platform:       models.PlatformLinkedin,
		ExternalUserID: userInfo.Sub,
		Handle:         userInfo.Email,
		DisplayName:    userInfo.Name,
		AvatarURL:      userInfo.Picture,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: token.Expiry,
	}

	return s.ca.Create(ctx, nil, account)
}

func linkedinUserInfo(ctx context.Context, accessToken string) (*transfer.LinkedinUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, linkedinUserInfoURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("linkedin api returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return nil, err
	}

	var userInfo transfer.LinkedinUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &userInfo, nil
}
