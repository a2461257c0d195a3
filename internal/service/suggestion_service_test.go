package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/transfer"
	"github.com/stretchr/testify/require"
)

type suggestionFixture struct {
	ca  *fakeAccountRepo
	pr  *fakePostRepo
	sr  *fakeSuggestionRepo
	sm  *fakeSyncMetaRepo
	tr  *fakeTopicRepo
	ws  *fakeStyleRepo
	ai  *fakeAIClient
	svc SuggestionService
}

func newSuggestionFixture(account *models.ConnectedAccount) *suggestionFixture {
	f := &suggestionFixture{
		ca: &fakeAccountRepo{},
		pr: &fakePostRepo{},
		sr: &fakeSuggestionRepo{},
		sm: &fakeSyncMetaRepo{},
		tr: &fakeTopicRepo{},
		ws: &fakeStyleRepo{},
		ai: &fakeAIClient{},
	}
	f.ca.GetByIDFn = func(ctx context.Context, id int64) (*models.ConnectedAccount, error) {
		return account, nil
	}
	f.svc = NewSuggestionService(f.ca, f.pr, f.sr, f.sm, f.tr, f.ws, f.ai)
	return f
}

func networkAccount() *models.ConnectedAccount {
	return &models.ConnectedAccount{
		ID:       42,
		UserID:   7,
		Platform: models.PlatformTwitter,
		Active:   true,
	}
}

func interestAccount() *models.ConnectedAccount {
	return &models.ConnectedAccount{
		ID:       43,
		UserID:   7,
		Platform: models.PlatformLinkedin,
		Active:   true,
	}
}

func TestGenerateNetworkPath(t *testing.T) {
	f := newSuggestionFixture(networkAccount())

	expiredSwept := false
	f.sr.ExpireOldFn = func(ctx context.Context) (int64, error) {
		expiredSwept = true
		return 2, nil
	}

	postedAt := time.Now().Add(-2 * time.Hour)
	f.pr.ListTopSinceFn = func(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
		return []*models.NetworkPost{
			{ID: 1, ExternalPostID: "p1", AuthorUsername: "alice", Content: "go 1.24 is out", EngagementScore: 14, PostedAt: postedAt},
		}, nil
	}

	var highWater time.Time
	f.sm.SetLastSeenPostAtFn = func(ctx context.Context, accountID int64, lastSeen time.Time) error {
		highWater = lastSeen
		return nil
	}

	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		require.Equal(t, models.PlatformTwitter, pc.Platform)
		require.Len(t, pc.RecentPosts, 1)
		require.Equal(t, "alice", pc.RecentPosts[0].Author)
		return []transfer.GeneratedSuggestion{
			{Type: models.SuggestionTypeOriginal, Content: "hot take about go"},
			{Type: models.SuggestionTypeReply, Content: "congrats!", SourceExternalID: "p1"},
		}, nil
	}

	f.pr.GetByExternalIDFn = func(ctx context.Context, accountID int64, externalPostID string) (*models.NetworkPost, error) {
		require.Equal(t, "p1", externalPostID)
		return &models.NetworkPost{ID: 1, ExternalPostID: "p1"}, nil
	}

	var stored []*models.PostSuggestion
	f.sr.CreateFn = func(ctx context.Context, ps *models.PostSuggestion) (int64, error) {
		stored = append(stored, ps)
		return int64(len(stored)), nil
	}

	created, err := f.svc.Generate(context.Background(), 42, 0)
	require.NoError(t, err)
	require.True(t, expiredSwept)
	require.Len(t, created, 2)

	require.Equal(t, models.SuggestionTypeOriginal, stored[0].SuggestionType)
	require.Equal(t, models.SuggestionTypeReply, stored[1].SuggestionType)
	require.True(t, stored[1].SourcePostID.Valid)
	require.Equal(t, int64(1), stored[1].SourcePostID.Int64)

	for _, ps := range stored {
		require.Equal(t, models.SuggestionStatusPending, ps.Status)
		require.WithinDuration(t, time.Now().Add(suggestionTTL), ps.ExpiresAt, time.Minute)
	}

	require.Equal(t, postedAt, highWater)
}

func TestGenerateReplyDegradesWhenSourceUnresolved(t *testing.T) {
	f := newSuggestionFixture(networkAccount())

	f.pr.ListTopSinceFn = func(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
		return []*models.NetworkPost{{ID: 1, ExternalPostID: "p1", Content: "x", PostedAt: time.Now()}}, nil
	}
	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		return []transfer.GeneratedSuggestion{
			{Type: models.SuggestionTypeReply, Content: "reply text", SourceExternalID: "vanished"},
		}, nil
	}
	f.pr.GetByExternalIDFn = func(ctx context.Context, accountID int64, externalPostID string) (*models.NetworkPost, error) {
		return nil, nil
	}

	var stored *models.PostSuggestion
	f.sr.CreateFn = func(ctx context.Context, ps *models.PostSuggestion) (int64, error) {
		stored = ps
		return 1, nil
	}

	created, err := f.svc.Generate(context.Background(), 42, 1)
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, models.SuggestionTypeOriginal, stored.SuggestionType)
	require.False(t, stored.SourcePostID.Valid)
	require.Equal(t, "reply text", stored.Content)
}

func TestGenerateNetworkPathNeedsInput(t *testing.T) {
	f := newSuggestionFixture(networkAccount())

	aiCalled := false
	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		aiCalled = true
		return nil, nil
	}

	_, err := f.svc.Generate(context.Background(), 42, 3)
	require.ErrorIs(t, err, ErrNeedMoreInput)
	require.False(t, aiCalled)
}

func TestGenerateInterestPathInfersAndMemoizesTopics(t *testing.T) {
	account := interestAccount()
	account.SamplePosts = []string{"a post about hiring", "notes on leadership"}
	f := newSuggestionFixture(account)

	inferCalls := 0
	f.ai.InferTopicsFn = func(ctx context.Context, samples []string) ([]string, error) {
		inferCalls++
		require.Equal(t, []string(account.SamplePosts), samples)
		return []string{"hiring", "leadership"}, nil
	}

	var savedTopics string
	f.ca.SetTopicsOfInterestFn = func(ctx context.Context, id int64, topics string) error {
		require.Equal(t, account.ID, id)
		savedTopics = topics
		return nil
	}

	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		require.Equal(t, []string{"hiring", "leadership"}, pc.Topics)
		return []transfer.GeneratedSuggestion{{Type: models.SuggestionTypeOriginal, Content: "c"}}, nil
	}

	_, err := f.svc.Generate(context.Background(), 43, 1)
	require.NoError(t, err)
	require.Equal(t, 1, inferCalls)
	require.Equal(t, "hiring, leadership", savedTopics)

	// Once topics are stored on the account, later runs skip inference.
	account.TopicsOfInterest = savedTopics
	_, err = f.svc.Generate(context.Background(), 43, 1)
	require.NoError(t, err)
	require.Equal(t, 1, inferCalls)
}

func TestGenerateInterestPathNeedsInput(t *testing.T) {
	f := newSuggestionFixture(interestAccount())

	aiCalled := false
	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		aiCalled = true
		return nil, nil
	}

	_, err := f.svc.Generate(context.Background(), 43, 1)
	require.ErrorIs(t, err, ErrNeedMoreInput)
	require.False(t, aiCalled)
}

func TestGenerateInterestPathFallsBackToSubscriptions(t *testing.T) {
	f := newSuggestionFixture(interestAccount())

	f.tr.ListSubscribedFn = func(ctx context.Context, accountID int64) ([]*models.CuratedTopic, error) {
		return []*models.CuratedTopic{{ID: 5, Name: "AI"}}, nil
	}
	f.tr.ListTrendingForAccountFn = func(ctx context.Context, accountID int64) ([]*models.TrendingTopic, error) {
		return []*models.TrendingTopic{{CuratedTopicID: 5, TopicName: "AI", MentionCount: 12}}, nil
	}

	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		require.Len(t, pc.Trending, 1)
		require.Equal(t, "AI", pc.Trending[0].Name)
		return []transfer.GeneratedSuggestion{{Type: models.SuggestionTypeOriginal, Content: "c"}}, nil
	}

	created, err := f.svc.Generate(context.Background(), 43, 1)
	require.NoError(t, err)
	require.Len(t, created, 1)
}

func TestGenerateStyleSummaryOnlyWithoutVoice(t *testing.T) {
	account := networkAccount()
	account.Voice = "dry and direct"
	f := newSuggestionFixture(account)

	styleFetched := false
	f.ws.GetByAccountIDFn = func(ctx context.Context, accountID int64) (*models.WritingStyle, error) {
		styleFetched = true
		return &models.WritingStyle{Summary: "short sentences"}, nil
	}

	f.pr.ListTopSinceFn = func(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
		return []*models.NetworkPost{{ExternalPostID: "p1", PostedAt: time.Now()}}, nil
	}
	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		require.Equal(t, "dry and direct", pc.Voice)
		require.Empty(t, pc.StyleSummary)
		return nil, nil
	}

	_, err := f.svc.Generate(context.Background(), 42, 1)
	require.NoError(t, err)
	require.False(t, styleFetched)
}

func TestConsumeIsOneWay(t *testing.T) {
	f := newSuggestionFixture(networkAccount())

	f.sr.GetByIDFn = func(ctx context.Context, id int64) (*models.PostSuggestion, error) {
		return &models.PostSuggestion{ID: id, ConnectedAccountID: 42, Status: models.SuggestionStatusUsed}, nil
	}
	f.sr.UpdateStatusFn = func(ctx context.Context, id, accountID int64, status string) error {
		return repository.ErrSuggestionNotPending
	}

	err := f.svc.Dismiss(context.Background(), 7, 11)
	require.ErrorIs(t, err, repository.ErrSuggestionNotPending)
}

func TestConsumeChecksOwnership(t *testing.T) {
	f := newSuggestionFixture(networkAccount())

	f.sr.GetByIDFn = func(ctx context.Context, id int64) (*models.PostSuggestion, error) {
		return &models.PostSuggestion{ID: id, ConnectedAccountID: 42, Status: models.SuggestionStatusPending}, nil
	}
	f.ca.CheckByUserIDFn = func(ctx context.Context, accountID, userID int64) (bool, error) {
		return false, nil
	}

	updated := false
	f.sr.UpdateStatusFn = func(ctx context.Context, id, accountID int64, status string) error {
		updated = true
		return nil
	}

	err := f.svc.Use(context.Background(), 99, 11)
	require.Error(t, err)
	require.False(t, updated)
}

func TestGenerateFailsWhenBatchFails(t *testing.T) {
	account := networkAccount()
	f := newSuggestionFixture(account)

	f.pr.ListTopSinceFn = func(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
		return []*models.NetworkPost{{ExternalPostID: "p1", PostedAt: time.Now()}}, nil
	}
	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		return nil, errors.New("model overloaded")
	}

	marked := false
	f.sm.SetLastSeenPostAtFn = func(ctx context.Context, accountID int64, lastSeen time.Time) error {
		marked = true
		return nil
	}

	_, err := f.svc.Generate(context.Background(), 42, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "generation batch failed")
	require.False(t, marked)
}

func TestGenerateFailedBatchKeepsReviewWindow(t *testing.T) {
	f := newSuggestionFixture(networkAccount())

	postedAt := time.Now().Add(-time.Hour)
	var sinceSeen []time.Time
	f.pr.ListTopSinceFn = func(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
		sinceSeen = append(sinceSeen, since)
		return []*models.NetworkPost{{ID: 1, ExternalPostID: "p1", Content: "x", PostedAt: postedAt}}, nil
	}

	var marks []time.Time
	f.sm.SetLastSeenPostAtFn = func(ctx context.Context, accountID int64, lastSeen time.Time) error {
		marks = append(marks, lastSeen)
		return nil
	}

	aiErr := errors.New("model overloaded")
	f.ai.GenerateSuggestionsFn = func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
		if aiErr != nil {
			return nil, aiErr
		}
		return []transfer.GeneratedSuggestion{{Type: models.SuggestionTypeOriginal, Content: "c"}}, nil
	}

	_, err := f.svc.Generate(context.Background(), 42, 1)
	require.Error(t, err)
	require.Empty(t, marks)

	// The retry still scans the same window and advances the mark only
	// once the batch goes through.
	aiErr = nil
	_, err = f.svc.Generate(context.Background(), 42, 1)
	require.NoError(t, err)
	require.Len(t, sinceSeen, 2)
	require.WithinDuration(t, sinceSeen[0], sinceSeen[1], time.Second)
	require.Equal(t, []time.Time{postedAt}, marks)
}
