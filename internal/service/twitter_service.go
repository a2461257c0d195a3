package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/transfer"
	"github.com/mehulsen/postmirror/pkg/utils"
	"golang.org/x/oauth2"
)

const twitterAPIBase = "https://api.twitter.com/2"

// NetworkClient is the boundary to the external network. Authentication
// and pagination stay behind it; callers see platform-neutral shapes.
type NetworkClient interface {
	GetTimeline(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error)
	GetFollowing(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error)
	GetListTimeline(ctx context.Context, credential, listID string, maxResults int) ([]transfer.TimelinePost, error)
}

type TwitterService interface {
	NetworkClient
	TwitterCallback(ctx context.Context, code, verifier string, userID int64) (int64, error)
	RefreshTwitterToken(ctx context.Context, account *models.ConnectedAccount) error
}

type twitterService struct {
	cfg config.Config
	ca  repository.ConnectedAccountRepository
}

func NewTwitterService(cfg config.Config, ca repository.ConnectedAccountRepository) TwitterService {
	return &twitterService{
		cfg: cfg,
		ca:  ca,
	}
}

func (s *twitterService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.TwitterClientID,
		ClientSecret: s.cfg.TwitterClientSecret,
		RedirectURL:  s.cfg.TwitterRedirectURI,
		Scopes:       []string{"tweet.read", "users.read", "follows.read", "offline.access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   "https://twitter.com/i/oauth2/authorize",
			TokenURL:  twitterAPIBase + "/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

func (s *twitterService) TwitterCallback(ctx context.Context, code, verifier string, userID int64) (int64, error) {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := s.oauthConfig().Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	userInfo, err := twitterUserInfo(ctx, token.AccessToken)
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
		Platform:       models.PlatformTwitter,
		ExternalUserID: userInfo.Data.ID,
		Handle:         userInfo.Data.Username,
		DisplayName:    userInfo.Data.Name,
		AvatarURL:      userInfo.Data.ProfileImageURL,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: token.Expiry,
	}

	return s.ca.Create(ctx, nil, account)
}

func (s *twitterService) RefreshTwitterToken(ctx context.Context, account *models.ConnectedAccount) error {
	refreshToken, err := utils.Decrypt(account.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	tokenSource := s.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	newRefresh := token.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	encryptedRefreshToken, err := utils.Encrypt([]byte(newRefresh), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.ca.SetToken(ctx, account.ID, encryptedAccessToken, encryptedRefreshToken, token.Expiry)
}

func (s *twitterService) GetTimeline(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
	params := url.Values{}
	params.Add("max_results", fmt.Sprintf("%d", maxResults))
	params.Add("tweet.fields", "public_metrics,created_at,author_id")
	params.Add("expansions", "author_id")
	params.Add("user.fields", "username")

	endpoint := fmt.Sprintf("%s/users/%s/timelines/reverse_chronological?%s", twitterAPIBase, externalUserID, params.Encode())

	var response transfer.TwitterTimelineResponse
	if err := twitterGet(ctx, endpoint, credential, &response); err != nil {
		return nil, err
	}

	return timelineFromResponse(&response), nil
}

func (s *twitterService) GetListTimeline(ctx context.Context, credential, listID string, maxResults int) ([]transfer.TimelinePost, error) {
	params := url.Values{}
	params.Add("max_results", fmt.Sprintf("%d", maxResults))
	params.Add("tweet.fields", "public_metrics,created_at,author_id")
	params.Add("expansions", "author_id")
	params.Add("user.fields", "username")

	endpoint := fmt.Sprintf("%s/lists/%s/tweets?%s", twitterAPIBase, listID, params.Encode())

	var response transfer.TwitterTimelineResponse
	if err := twitterGet(ctx, endpoint, credential, &response); err != nil {
		return nil, err
	}

	return timelineFromResponse(&response), nil
}

func (s *twitterService) GetFollowing(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error) {
	params := url.Values{}
	params.Add("max_results", fmt.Sprintf("%d", maxResults))
	params.Add("user.fields", "profile_image_url,public_metrics")

	endpoint := fmt.Sprintf("%s/users/%s/following?%s", twitterAPIBase, externalUserID, params.Encode())

	var response transfer.TwitterFollowingResponse
	if err := twitterGet(ctx, endpoint, credential, &response); err != nil {
		return nil, err
	}

	profiles := make([]transfer.FollowedProfile, 0, len(response.Data))
	for _, u := range response.Data {
		profiles = append(profiles, transfer.FollowedProfile{
			ExternalID:  u.ID,
			Username:    u.Username,
			DisplayName: u.Name,
			AvatarURL:   u.ProfileImageURL,
			Followers:   u.PublicMetrics.FollowersCount,
		})
	}
	return profiles, nil
}

func timelineFromResponse(response *transfer.TwitterTimelineResponse) []transfer.TimelinePost {
	usernames := make(map[string]string, len(response.Includes.Users))
	for _, u := range response.Includes.Users {
		usernames[u.ID] = u.Username
	}

	posts := make([]transfer.TimelinePost, 0, len(response.Data))
	for _, t := range response.Data {
		posts = append(posts, transfer.TimelinePost{
			ExternalID:     t.ID,
			AuthorID:       t.AuthorID,
			AuthorUsername: usernames[t.AuthorID],
			Content:        t.Text,
			Likes:          t.PublicMetrics.LikeCount,
			Shares:         t.PublicMetrics.RetweetCount + t.PublicMetrics.QuoteCount,
			Replies:        t.PublicMetrics.ReplyCount,
			PostedAt:       t.CreatedAt,
		})
	}
	return posts
}

func twitterUserInfo(ctx context.Context, accessToken string) (*transfer.TwitterUserResponse, error) {
	endpoint := twitterAPIBase + "/users/me?user.fields=profile_image_url"

	var response transfer.TwitterUserResponse
	if err := twitterGet(ctx, endpoint, accessToken, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

func twitterGet(ctx context.Context, endpoint, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("twitter api returned status %d", resp.StatusCode)
		slog.Info(err.Error())
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
