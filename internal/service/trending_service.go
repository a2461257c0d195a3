package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
)

const (
	trendingWindow     = 24 * time.Hour
	listPageSize       = 50
	trendingSampleSize = 5
)

type TrendingService interface {
	RefreshAll(ctx context.Context) error
	RefreshTopic(ctx context.Context, topic *models.CuratedTopic) error
	ListTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error)
}

type trendingService struct {
	cfg  config.Config
	tr   repository.TopicRepository
	pr   repository.NetworkPostRepository
	ex   ExtractionService
	net  NetworkClient
	gate RateLimiter
	ai   AIClient
}

func NewTrendingService(
	cfg config.Config,
	tr repository.TopicRepository,
	pr repository.NetworkPostRepository,
	ex ExtractionService,
	net NetworkClient,
	gate RateLimiter,
	ai AIClient) TrendingService {
	return &trendingService{
		cfg:  cfg,
		tr:   tr,
		pr:   pr,
		ex:   ex,
		net:  net,
		gate: gate,
		ai:   ai,
	}
}

func (s *trendingService) RefreshAll(ctx context.Context) error {
	topics, err := s.tr.ListActive(ctx)
	if err != nil {
		return err
	}

	for _, topic := range topics {
		if err := s.RefreshTopic(ctx, topic); err != nil {
			slog.Info(fmt.Sprintf("trending refresh failed for topic %s: %s", topic.Slug, err.Error()))
		}
	}
	return nil
}

// RefreshTopic pulls the topic's backing list, persists the posts in
// curated mode, and rebuilds the windowed aggregation. The new row
// supersedes the previous window.
func (s *trendingService) RefreshTopic(ctx context.Context, topic *models.CuratedTopic) error {
	if topic.ExternalListID == "" {
		return nil
	}

	decision, err := s.gate.Check(ctx, "list", topic.ID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		// Curated pulls run on a schedule; the next tick retries.
		slog.Info(fmt.Sprintf("trending refresh deferred for topic %s: retry in %s", topic.Slug, decision.RetryAfter))
		return nil
	}

	page, err := s.net.GetListTimeline(ctx, s.cfg.TwitterBearerToken, topic.ExternalListID, listPageSize)
	if err != nil {
		return fmt.Errorf("fetch list timeline: %w", err)
	}

	topics := s.ex.TopicsForBatch(ctx, page)

	for i, post := range page {
		np := &models.NetworkPost{
			CuratedTopicID:   sql.NullInt64{Int64: topic.ID, Valid: true},
			ExternalPostID:   post.ExternalID,
			AuthorExternalID: post.AuthorID,
			AuthorUsername:   post.AuthorUsername,
			Content:          post.Content,
			LikesCount:       post.Likes,
			SharesCount:      post.Shares,
			RepliesCount:     post.Replies,
			EngagementScore:  EngagementScore(post.Likes, post.Shares, post.Replies),
			Topics:           topics[i],
			Sentiment:        models.SentimentNeutral,
			PostedAt:         post.PostedAt,
		}
		if _, err := s.pr.Upsert(ctx, np); err != nil {
			slog.Info(fmt.Sprintf("curated post upsert failed for %s: %s", post.ExternalID, err.Error()))
		}
	}

	windowEnd := time.Now()
	windowStart := windowEnd.Add(-trendingWindow)

	posts, err := s.pr.ListByCuratedTopic(ctx, topic.ID, windowStart)
	if err != nil {
		return err
	}

	trending := &models.TrendingTopic{
		CuratedTopicID: topic.ID,
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
		MentionCount:   len(posts),
	}

	var samples []string
	for i, p := range posts {
		trending.TotalEngagement += p.EngagementScore
		if i < trendingSampleSize {
			trending.SamplePostIDs = append(trending.SamplePostIDs, p.ID)
			samples = append(samples, p.Content)
		}
	}

	if len(samples) > 0 {
		digest, err := s.ai.DigestTopic(ctx, topic.Name, samples)
		if err != nil {
			// The aggregation is still useful without the free-text digest.
			slog.Info(fmt.Sprintf("topic digest degraded for %s: %s", topic.Slug, err.Error()))
		} else {
			trending.Context = digest
		}
	}

	return s.tr.UpsertTrending(ctx, trending)
}

func (s *trendingService) ListTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.tr.ListTrending(ctx, limit)
}
