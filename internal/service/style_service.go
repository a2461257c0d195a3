package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
)

const (
	ownPostsLimit = 30

	// Sample size at which the confidence score saturates at 1.0.
	fullConfidenceSamples = 20
)

type StyleService interface {
	Analyze(ctx context.Context, accountID int64) (*models.WritingStyle, error)
	Get(ctx context.Context, userID, accountID int64) (*models.WritingStyle, error)
}

type styleService struct {
	ca repository.ConnectedAccountRepository
	pr repository.NetworkPostRepository
	ws repository.WritingStyleRepository
	ai AIClient
}

func NewStyleService(
	ca repository.ConnectedAccountRepository,
	pr repository.NetworkPostRepository,
	ws repository.WritingStyleRepository,
	ai AIClient) StyleService {
	return &styleService{
		ca: ca,
		pr: pr,
		ws: ws,
		ai: ai,
	}
}

// Analyze rebuilds the account's style profile wholesale from its sample
// posts and any synced posts it authored itself. The statistical part is
// always computed; the AI summary degrades to empty on failure.
func (s *styleService) Analyze(ctx context.Context, accountID int64) (*models.WritingStyle, error) {
	account, err := s.ca.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errors.New("connected account doesn't exist")
	}

	samples := append([]string{}, account.SamplePosts...)

	own, err := s.pr.ListByAuthor(ctx, accountID, account.ExternalUserID, ownPostsLimit)
	if err == nil {
		for _, p := range own {
			samples = append(samples, p.Content)
		}
	}

	if len(samples) == 0 {
		return nil, errors.New("no authored posts to analyze")
	}

	style := &models.WritingStyle{
		ConnectedAccountID: accountID,
		SampleSize:         len(samples),
		Confidence:         confidence(len(samples)),
	}

	var totalLen, emojiCount, hashtagCount int
	for _, sample := range samples {
		totalLen += len([]rune(sample))
		emojiCount += countEmoji(sample)
		hashtagCount += strings.Count(sample, "#")
	}
	style.AvgLength = float64(totalLen) / float64(len(samples))
	style.EmojiFrequency = float64(emojiCount) / float64(len(samples))
	style.HashtagFrequency = float64(hashtagCount) / float64(len(samples))

	summary, err := s.ai.SummarizeStyle(ctx, samples)
	if err != nil {
		slog.Info(fmt.Sprintf("style summary degraded for account %d: %s", accountID, err.Error()))
	} else {
		style.Summary = summary
		style.Tone = toneFromSummary(summary)
	}

	id, err := s.ws.Replace(ctx, style)
	if err != nil {
		return nil, err
	}
	style.ID = id

	return style, nil
}

func (s *styleService) Get(ctx context.Context, userID, accountID int64) (*models.WritingStyle, error) {
	owned, err := s.ca.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, errors.New("connected account doesn't exist")
	}

	return s.ws.GetByAccountID(ctx, accountID)
}

func confidence(sampleSize int) float64 {
	c := float64(sampleSize) / fullConfidenceSamples
	if c > 1 {
		c = 1
	}
	return c
}

func countEmoji(s string) int {
	count := 0
	for _, r := range s {
		if unicode.In(r, unicode.So, unicode.Sk) || (r >= 0x1F300 && r <= 0x1FAFF) {
			count++
		}
	}
	return count
}

// toneFromSummary keeps the first clause of the summary as a short tone
// label.
func toneFromSummary(summary string) string {
	tone := summary
	if idx := strings.IndexAny(summary, ".,;"); idx > 0 {
		tone = summary[:idx]
	}
	if len(tone) > 80 {
		tone = tone[:80]
	}
	return strings.TrimSpace(tone)
}
