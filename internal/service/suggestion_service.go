package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/transfer"
)

const (
	suggestionTTL          = 24 * time.Hour
	defaultSuggestionCount = 5
	maxSuggestionCount     = 10
	topPostsLimit          = 15
	curatedSampleLimit     = 3

	// Window scanned on the first run for an account, before a high-water
	// mark exists.
	initialReviewWindow = 7 * 24 * time.Hour
)

// ErrNeedMoreInput is the non-exceptional "could not proceed" result for
// accounts with no usable generation signal. It never reaches the AI
// service and is not a failure of the pipeline.
var ErrNeedMoreInput = errors.New("add topics of interest or sample posts to generate suggestions")

type SuggestionService interface {
	Generate(ctx context.Context, accountID int64, count int) ([]*models.PostSuggestion, error)
	List(ctx context.Context, userID, accountID int64, limit int) ([]*models.PostSuggestion, error)
	Use(ctx context.Context, userID, suggestionID int64) error
	Dismiss(ctx context.Context, userID, suggestionID int64) error
}

type suggestionService struct {
	ca repository.ConnectedAccountRepository
	pr repository.NetworkPostRepository
	sr repository.SuggestionRepository
	sm repository.SyncMetadataRepository
	tr repository.TopicRepository
	ws repository.WritingStyleRepository
	ai AIClient
}

func NewSuggestionService(
	ca repository.ConnectedAccountRepository,
	pr repository.NetworkPostRepository,
	sr repository.SuggestionRepository,
	sm repository.SyncMetadataRepository,
	tr repository.TopicRepository,
	ws repository.WritingStyleRepository,
	ai AIClient) SuggestionService {
	return &suggestionService{
		ca: ca,
		pr: pr,
		sr: sr,
		sm: sm,
		tr: tr,
		ws: ws,
		ai: ai,
	}
}

// strategy assembles the evidence for one generation call. The variant
// is chosen once per account from its platform class; call sites never
// branch on the platform string again. The returned mark is the newest
// post timestamp reviewed, zero when the strategy reviewed none; it is
// only committed once the generation batch succeeds.
type strategy interface {
	buildContext(ctx context.Context, account *models.ConnectedAccount) (*transfer.PromptContext, time.Time, error)
}

func (s *suggestionService) strategyFor(account *models.ConnectedAccount) strategy {
	if account.HasNetworkGraph() {
		return &networkStrategy{s}
	}
	return &interestStrategy{s}
}

func (s *suggestionService) Generate(ctx context.Context, accountID int64, count int) ([]*models.PostSuggestion, error) {
	if count <= 0 {
		count = defaultSuggestionCount
	}
	if count > maxSuggestionCount {
		count = maxSuggestionCount
	}

	// Sweep stale suggestions before every generation batch.
	expired, err := s.sr.ExpireOld(ctx)
	if err != nil {
		return nil, err
	}
	if expired > 0 {
		slog.Info(fmt.Sprintf("expired %d stale suggestions", expired))
	}

	account, err := s.ca.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.Active {
		return nil, errors.New("connected account doesn't exist")
	}

	pc, mark, err := s.strategyFor(account).buildContext(ctx, account)
	if err != nil {
		return nil, err
	}

	generated, err := s.ai.GenerateSuggestions(ctx, pc, count)
	if err != nil {
		return nil, fmt.Errorf("generation batch failed: %w", err)
	}

	// The mark only advances once the batch has actually been reviewed.
	// A failed batch leaves it untouched so the next run rereads the
	// same window.
	if !mark.IsZero() {
		if err := s.sm.SetLastSeenPostAt(ctx, accountID, mark); err != nil {
			slog.Info(err.Error())
		}
	}

	// Each suggestion persists independently; one bad row doesn't abort
	// the rest.
	var created []*models.PostSuggestion
	for _, g := range generated {
		suggestion := s.fromGenerated(ctx, account, g)
		id, err := s.sr.Create(ctx, suggestion)
		if err != nil {
			slog.Info(fmt.Sprintf("suggestion persist failed for account %d: %s", accountID, err.Error()))
			continue
		}
		suggestion.ID = id
		created = append(created, suggestion)
	}

	slog.Info(fmt.Sprintf("generated %d/%d suggestions for account %d", len(created), len(generated), accountID))
	return created, nil
}

// fromGenerated maps one AI output row to a storable suggestion. A reply
// whose source post can't be resolved by external id degrades to an
// original post instead of being dropped.
func (s *suggestionService) fromGenerated(ctx context.Context, account *models.ConnectedAccount, g transfer.GeneratedSuggestion) *models.PostSuggestion {
	suggestion := &models.PostSuggestion{
		ConnectedAccountID: account.ID,
		SuggestionType:     models.SuggestionTypeOriginal,
		Content:            g.Content,
		Reasoning:          g.Reasoning,
		Angle:              g.Angle,
		Topics:             g.Topics,
		Status:             models.SuggestionStatusPending,
		ExpiresAt:          time.Now().Add(suggestionTTL),
	}

	if g.Type == models.SuggestionTypeReply && g.SourceExternalID != "" {
		source, err := s.pr.GetByExternalID(ctx, account.ID, g.SourceExternalID)
		if err == nil && source != nil {
			suggestion.SuggestionType = models.SuggestionTypeReply
			suggestion.SourcePostID = sql.NullInt64{Int64: source.ID, Valid: true}
		} else {
			slog.Info(fmt.Sprintf("reply source %s not found, degrading to original", g.SourceExternalID))
		}
	}

	return suggestion
}

func (s *suggestionService) List(ctx context.Context, userID, accountID int64, limit int) ([]*models.PostSuggestion, error) {
	owned, err := s.ca.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, errors.New("connected account doesn't exist")
	}

	if limit <= 0 {
		limit = 20
	}
	return s.sr.ListPending(ctx, accountID, limit)
}

func (s *suggestionService) Use(ctx context.Context, userID, suggestionID int64) error {
	return s.consume(ctx, userID, suggestionID, models.SuggestionStatusUsed)
}

func (s *suggestionService) Dismiss(ctx context.Context, userID, suggestionID int64) error {
	return s.consume(ctx, userID, suggestionID, models.SuggestionStatusDismissed)
}

// consume performs the one-way pending -> used/dismissed transition. A
// second consume on the same suggestion surfaces
// repository.ErrSuggestionNotPending rather than silently overwriting.
func (s *suggestionService) consume(ctx context.Context, userID, suggestionID int64, status string) error {
	suggestion, err := s.sr.GetByID(ctx, suggestionID)
	if err != nil {
		return err
	}
	if suggestion == nil {
		return errors.New("suggestion doesn't exist")
	}

	owned, err := s.ca.CheckByUserID(ctx, suggestion.ConnectedAccountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return errors.New("suggestion doesn't exist")
	}

	return s.sr.UpdateStatus(ctx, suggestionID, suggestion.ConnectedAccountID, status)
}

// applyVoice fills the style portion of the prompt context. Voice and
// literal sample posts always outrank the statistical style summary,
// which is a fallback only.
func (s *suggestionService) applyVoice(ctx context.Context, account *models.ConnectedAccount, pc *transfer.PromptContext) {
	pc.Voice = account.Voice
	pc.SamplePosts = account.SamplePosts

	if pc.Voice == "" && len(pc.SamplePosts) == 0 {
		style, err := s.ws.GetByAccountID(ctx, account.ID)
		if err == nil && style != nil {
			pc.StyleSummary = style.Summary
		}
	}
}

type networkStrategy struct {
	s *suggestionService
}

// buildContext pulls the unreviewed window of network posts ordered by
// engagement, current trending topics, and sample posts from any curated
// subscriptions. The high-water mark makes repeated runs incremental.
func (n *networkStrategy) buildContext(ctx context.Context, account *models.ConnectedAccount) (*transfer.PromptContext, time.Time, error) {
	s := n.s

	meta, err := s.sm.Get(ctx, account.ID)
	if err != nil {
		return nil, time.Time{}, err
	}
	since := time.Now().Add(-initialReviewWindow)
	if meta.LastSeenPostAt.Valid {
		since = meta.LastSeenPostAt.Time
	}

	posts, err := s.pr.ListTopSince(ctx, account.ID, since, topPostsLimit)
	if err != nil {
		return nil, time.Time{}, err
	}

	trending, err := s.tr.ListTrendingForAccount(ctx, account.ID)
	if err != nil {
		return nil, time.Time{}, err
	}

	if len(posts) == 0 && len(trending) == 0 {
		return nil, time.Time{}, ErrNeedMoreInput
	}

	pc := &transfer.PromptContext{
		Platform: account.Platform,
		Topics:   splitTopics(account.TopicsOfInterest),
	}
	s.applyVoice(ctx, account, pc)

	var latest time.Time
	for _, p := range posts {
		pc.RecentPosts = append(pc.RecentPosts, transfer.ContextPost{
			ExternalID: p.ExternalPostID,
			Author:     p.AuthorUsername,
			Content:    p.Content,
			Engagement: p.EngagementScore,
		})
		if p.PostedAt.After(latest) {
			latest = p.PostedAt
		}
	}

	for _, t := range trending {
		ct := transfer.ContextTopic{
			Name:       t.TopicName,
			Mentions:   t.MentionCount,
			Engagement: t.TotalEngagement,
			Context:    t.Context,
		}
		samples, err := s.pr.ListByCuratedTopic(ctx, t.CuratedTopicID, t.WindowStart)
		if err == nil {
			for i, sp := range samples {
				if i >= curatedSampleLimit {
					break
				}
				ct.SamplePosts = append(ct.SamplePosts, sp.Content)
			}
		}
		pc.Trending = append(pc.Trending, ct)
	}

	return pc, latest, nil
}

type interestStrategy struct {
	s *suggestionService
}

// buildContext for self-authoring platforms. When the account has no
// explicit topics but does have sample posts, topics are inferred once
// and written back onto the account, so later runs skip the inference
// call.
func (i *interestStrategy) buildContext(ctx context.Context, account *models.ConnectedAccount) (*transfer.PromptContext, time.Time, error) {
	s := i.s

	topics := splitTopics(account.TopicsOfInterest)

	if len(topics) == 0 && len(account.SamplePosts) > 0 {
		inferred, err := s.ai.InferTopics(ctx, account.SamplePosts)
		if err != nil {
			slog.Info(fmt.Sprintf("topic inference failed for account %d: %s", account.ID, err.Error()))
		} else if len(inferred) > 0 {
			topics = inferred
			if err := s.ca.SetTopicsOfInterest(ctx, account.ID, strings.Join(inferred, ", ")); err != nil {
				slog.Info(err.Error())
			}
		}
	}

	var trending []*models.TrendingTopic
	if len(topics) == 0 {
		subscribed, err := s.tr.ListSubscribed(ctx, account.ID)
		if err != nil {
			return nil, time.Time{}, err
		}
		if len(subscribed) == 0 {
			return nil, time.Time{}, ErrNeedMoreInput
		}
		trending, err = s.tr.ListTrendingForAccount(ctx, account.ID)
		if err != nil {
			return nil, time.Time{}, err
		}
	}

	pc := &transfer.PromptContext{
		Platform: account.Platform,
		Topics:   topics,
	}
	s.applyVoice(ctx, account, pc)

	for _, t := range trending {
		pc.Trending = append(pc.Trending, transfer.ContextTopic{
			Name:       t.TopicName,
			Mentions:   t.MentionCount,
			Engagement: t.TotalEngagement,
			Context:    t.Context,
		})
	}

	return pc, time.Time{}, nil
}

func splitTopics(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var topics []string
	for _, part := range strings.Split(raw, ",") {
		if t := strings.TrimSpace(part); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}
