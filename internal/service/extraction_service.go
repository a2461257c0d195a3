package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/transfer"
)

// Engagement weights are a policy constant, not learned. The score must
// be bit-reproducible for identical counters so recomputing rolling
// engagement stays idempotent across repeated syncs.
const (
	likeWeight  = 1.0
	shareWeight = 2.0
	replyWeight = 1.5
)

func EngagementScore(likes, shares, replies int) float64 {
	return likeWeight*float64(likes) + shareWeight*float64(shares) + replyWeight*float64(replies)
}

type ExtractionService interface {
	TopicsForBatch(ctx context.Context, posts []transfer.TimelinePost) [][]string
	Sentiment(ctx context.Context, content string) string
}

type extractionService struct {
	ai AIClient
}

func NewExtractionService(ai AIClient) ExtractionService {
	return &extractionService{ai: ai}
}

// TopicsForBatch sends the whole page as one request and expects one
// topic list per post, positionally aligned. Any malformed or misaligned
// response degrades the entire batch to empty topic lists; a sync never
// fails on extraction.
func (s *extractionService) TopicsForBatch(ctx context.Context, posts []transfer.TimelinePost) [][]string {
	empty := make([][]string, len(posts))
	for i := range empty {
		empty[i] = []string{}
	}
	if len(posts) == 0 {
		return empty
	}

	texts := make([]string, 0, len(posts))
	for _, p := range posts {
		texts = append(texts, p.Content)
	}

	topics, err := s.ai.ClassifyTopics(ctx, texts)
	if err != nil {
		slog.Info(fmt.Sprintf("topic extraction degraded for batch of %d: %s", len(posts), err.Error()))
		return empty
	}
	if len(topics) != len(posts) {
		slog.Info(fmt.Sprintf("topic extraction misaligned: %d lists for %d posts", len(topics), len(posts)))
		return empty
	}

	for i, list := range topics {
		if list == nil {
			topics[i] = []string{}
		}
	}
	return topics
}

// Sentiment degrades to neutral on any service failure.
func (s *extractionService) Sentiment(ctx context.Context, content string) string {
	sentiment, err := s.ai.ClassifySentiment(ctx, content)
	if err != nil {
		slog.Info(err.Error())
		return models.SentimentNeutral
	}
	return sentiment
}
