package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/transfer"
)

// Function-field fakes. Unset fields return zero values so each test
// only wires the calls it cares about.

type fakeAccountRepo struct {
	GetByIDFn             func(ctx context.Context, id int64) (*models.ConnectedAccount, error)
	CheckByUserIDFn       func(ctx context.Context, accountID, userID int64) (bool, error)
	SetSyncStatusFn       func(ctx context.Context, id int64, status, syncError string) error
	MarkSyncedFn          func(ctx context.Context, id int64) error
	SetTopicsOfInterestFn func(ctx context.Context, id int64, topics string) error
}

func (f *fakeAccountRepo) Create(ctx context.Context, tx *sql.Tx, ca *models.ConnectedAccount) (int64, error) {
	return 0, nil
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id int64) (*models.ConnectedAccount, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeAccountRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ConnectedAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) ListSyncable(ctx context.Context, syncedBefore time.Time) ([]*models.ConnectedAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) ListExpiringTokens(ctx context.Context, from, to time.Time) ([]*models.ConnectedAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) CheckByUserID(ctx context.Context, accountID, userID int64) (bool, error) {
	if f.CheckByUserIDFn == nil {
		return true, nil
	}
	return f.CheckByUserIDFn(ctx, accountID, userID)
}

func (f *fakeAccountRepo) SetSyncStatus(ctx context.Context, id int64, status, syncError string) error {
	if f.SetSyncStatusFn == nil {
		return nil
	}
	return f.SetSyncStatusFn(ctx, id, status, syncError)
}

func (f *fakeAccountRepo) MarkSynced(ctx context.Context, id int64) error {
	if f.MarkSyncedFn == nil {
		return nil
	}
	return f.MarkSyncedFn(ctx, id)
}

func (f *fakeAccountRepo) SetTopicsOfInterest(ctx context.Context, id int64, topics string) error {
	if f.SetTopicsOfInterestFn == nil {
		return nil
	}
	return f.SetTopicsOfInterestFn(ctx, id, topics)
}

func (f *fakeAccountRepo) UpdateSettings(ctx context.Context, id int64, voice, topics string, samplePosts []string) error {
	return nil
}

func (f *fakeAccountRepo) SetToken(ctx context.Context, id int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return nil
}

func (f *fakeAccountRepo) Deactivate(ctx context.Context, id int64) error {
	return nil
}

type fakeProfileRepo struct {
	UpsertFn              func(ctx context.Context, np *models.NetworkProfile) (int64, error)
	RecomputeEngagementFn func(ctx context.Context, accountID int64) error
}

func (f *fakeProfileRepo) Upsert(ctx context.Context, np *models.NetworkProfile) (int64, error) {
	if f.UpsertFn == nil {
		return 1, nil
	}
	return f.UpsertFn(ctx, np)
}

func (f *fakeProfileRepo) ListByAccountID(ctx context.Context, accountID int64, limit int) ([]*models.NetworkProfile, error) {
	return nil, nil
}

func (f *fakeProfileRepo) RecomputeEngagement(ctx context.Context, accountID int64) error {
	if f.RecomputeEngagementFn == nil {
		return nil
	}
	return f.RecomputeEngagementFn(ctx, accountID)
}

type fakePostRepo struct {
	UpsertFn             func(ctx context.Context, np *models.NetworkPost) (int64, error)
	GetByExternalIDFn    func(ctx context.Context, accountID int64, externalPostID string) (*models.NetworkPost, error)
	ListTopSinceFn       func(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error)
	ListByCuratedTopicFn func(ctx context.Context, topicID int64, since time.Time) ([]*models.NetworkPost, error)
	ListByAuthorFn       func(ctx context.Context, accountID int64, authorExternalID string, limit int) ([]*models.NetworkPost, error)
}

func (f *fakePostRepo) Upsert(ctx context.Context, np *models.NetworkPost) (int64, error) {
	if f.UpsertFn == nil {
		return 1, nil
	}
	return f.UpsertFn(ctx, np)
}

func (f *fakePostRepo) GetByExternalID(ctx context.Context, accountID int64, externalPostID string) (*models.NetworkPost, error) {
	if f.GetByExternalIDFn == nil {
		return nil, nil
	}
	return f.GetByExternalIDFn(ctx, accountID, externalPostID)
}

func (f *fakePostRepo) ListTopSince(ctx context.Context, accountID int64, since time.Time, limit int) ([]*models.NetworkPost, error) {
	if f.ListTopSinceFn == nil {
		return nil, nil
	}
	return f.ListTopSinceFn(ctx, accountID, since, limit)
}

func (f *fakePostRepo) ListByCuratedTopic(ctx context.Context, topicID int64, since time.Time) ([]*models.NetworkPost, error) {
	if f.ListByCuratedTopicFn == nil {
		return nil, nil
	}
	return f.ListByCuratedTopicFn(ctx, topicID, since)
}

func (f *fakePostRepo) ListByAuthor(ctx context.Context, accountID int64, authorExternalID string, limit int) ([]*models.NetworkPost, error) {
	if f.ListByAuthorFn == nil {
		return nil, nil
	}
	return f.ListByAuthorFn(ctx, accountID, authorExternalID, limit)
}

func (f *fakePostRepo) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	return 0, nil
}

type fakeSyncMetaRepo struct {
	GetFn                 func(ctx context.Context, accountID int64) (*models.SyncMetadata, error)
	RecordSyncPassFn      func(ctx context.Context, accountID int64, postsSynced, profilesSynced int) error
	SetLastSeenPostAtFn   func(ctx context.Context, accountID int64, lastSeen time.Time) error
	IncrementRescheduleFn func(ctx context.Context, accountID int64) (int, error)
	ResetReschedulesFn    func(ctx context.Context, accountID int64) error
}

func (f *fakeSyncMetaRepo) Get(ctx context.Context, accountID int64) (*models.SyncMetadata, error) {
	if f.GetFn == nil {
		return &models.SyncMetadata{ConnectedAccountID: accountID, SchemaVersion: models.SyncMetadataSchemaVersion}, nil
	}
	return f.GetFn(ctx, accountID)
}

func (f *fakeSyncMetaRepo) RecordSyncPass(ctx context.Context, accountID int64, postsSynced, profilesSynced int) error {
	if f.RecordSyncPassFn == nil {
		return nil
	}
	return f.RecordSyncPassFn(ctx, accountID, postsSynced, profilesSynced)
}

func (f *fakeSyncMetaRepo) SetLastSeenPostAt(ctx context.Context, accountID int64, lastSeen time.Time) error {
	if f.SetLastSeenPostAtFn == nil {
		return nil
	}
	return f.SetLastSeenPostAtFn(ctx, accountID, lastSeen)
}

func (f *fakeSyncMetaRepo) IncrementReschedule(ctx context.Context, accountID int64) (int, error) {
	if f.IncrementRescheduleFn == nil {
		return 1, nil
	}
	return f.IncrementRescheduleFn(ctx, accountID)
}

func (f *fakeSyncMetaRepo) ResetReschedules(ctx context.Context, accountID int64) error {
	if f.ResetReschedulesFn == nil {
		return nil
	}
	return f.ResetReschedulesFn(ctx, accountID)
}

type fakeSuggestionRepo struct {
	CreateFn       func(ctx context.Context, ps *models.PostSuggestion) (int64, error)
	GetByIDFn      func(ctx context.Context, id int64) (*models.PostSuggestion, error)
	ListPendingFn  func(ctx context.Context, accountID int64, limit int) ([]*models.PostSuggestion, error)
	UpdateStatusFn func(ctx context.Context, id, accountID int64, status string) error
	ExpireOldFn    func(ctx context.Context) (int64, error)
}

func (f *fakeSuggestionRepo) Create(ctx context.Context, ps *models.PostSuggestion) (int64, error) {
	if f.CreateFn == nil {
		return 1, nil
	}
	return f.CreateFn(ctx, ps)
}

func (f *fakeSuggestionRepo) GetByID(ctx context.Context, id int64) (*models.PostSuggestion, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeSuggestionRepo) ListPending(ctx context.Context, accountID int64, limit int) ([]*models.PostSuggestion, error) {
	if f.ListPendingFn == nil {
		return nil, nil
	}
	return f.ListPendingFn(ctx, accountID, limit)
}

func (f *fakeSuggestionRepo) UpdateStatus(ctx context.Context, id, accountID int64, status string) error {
	if f.UpdateStatusFn == nil {
		return nil
	}
	return f.UpdateStatusFn(ctx, id, accountID, status)
}

func (f *fakeSuggestionRepo) ExpireOld(ctx context.Context) (int64, error) {
	if f.ExpireOldFn == nil {
		return 0, nil
	}
	return f.ExpireOldFn(ctx)
}

func (f *fakeSuggestionRepo) PurgeExpired(ctx context.Context, olderThanDays int) (int64, error) {
	return 0, nil
}

type fakeTopicRepo struct {
	ListSubscribedFn         func(ctx context.Context, accountID int64) ([]*models.CuratedTopic, error)
	ListTrendingForAccountFn func(ctx context.Context, accountID int64) ([]*models.TrendingTopic, error)
}

func (f *fakeTopicRepo) ListActive(ctx context.Context) ([]*models.CuratedTopic, error) {
	return nil, nil
}

func (f *fakeTopicRepo) GetByID(ctx context.Context, id int64) (*models.CuratedTopic, error) {
	return nil, nil
}

func (f *fakeTopicRepo) Subscribe(ctx context.Context, accountID, topicID int64) error {
	return nil
}

func (f *fakeTopicRepo) Unsubscribe(ctx context.Context, accountID, topicID int64) error {
	return nil
}

func (f *fakeTopicRepo) ListSubscribed(ctx context.Context, accountID int64) ([]*models.CuratedTopic, error) {
	if f.ListSubscribedFn == nil {
		return nil, nil
	}
	return f.ListSubscribedFn(ctx, accountID)
}

func (f *fakeTopicRepo) UpsertTrending(ctx context.Context, tt *models.TrendingTopic) error {
	return nil
}

func (f *fakeTopicRepo) ListTrendingForAccount(ctx context.Context, accountID int64) ([]*models.TrendingTopic, error) {
	if f.ListTrendingForAccountFn == nil {
		return nil, nil
	}
	return f.ListTrendingForAccountFn(ctx, accountID)
}

func (f *fakeTopicRepo) ListTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error) {
	return nil, nil
}

type fakeStyleRepo struct {
	GetByAccountIDFn func(ctx context.Context, accountID int64) (*models.WritingStyle, error)
	ReplaceFn        func(ctx context.Context, ws *models.WritingStyle) (int64, error)
}

func (f *fakeStyleRepo) Replace(ctx context.Context, ws *models.WritingStyle) (int64, error) {
	if f.ReplaceFn == nil {
		return 1, nil
	}
	return f.ReplaceFn(ctx, ws)
}

func (f *fakeStyleRepo) GetByAccountID(ctx context.Context, accountID int64) (*models.WritingStyle, error) {
	if f.GetByAccountIDFn == nil {
		return nil, nil
	}
	return f.GetByAccountIDFn(ctx, accountID)
}

type fakeAIClient struct {
	ClassifyTopicsFn      func(ctx context.Context, texts []string) ([][]string, error)
	ClassifySentimentFn   func(ctx context.Context, text string) (string, error)
	GenerateSuggestionsFn func(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error)
	InferTopicsFn         func(ctx context.Context, samples []string) ([]string, error)
	SummarizeStyleFn      func(ctx context.Context, samples []string) (string, error)
}

func (f *fakeAIClient) ClassifyTopics(ctx context.Context, texts []string) ([][]string, error) {
	if f.ClassifyTopicsFn == nil {
		lists := make([][]string, len(texts))
		for i := range lists {
			lists[i] = []string{}
		}
		return lists, nil
	}
	return f.ClassifyTopicsFn(ctx, texts)
}

func (f *fakeAIClient) ClassifySentiment(ctx context.Context, text string) (string, error) {
	if f.ClassifySentimentFn == nil {
		return models.SentimentNeutral, nil
	}
	return f.ClassifySentimentFn(ctx, text)
}

func (f *fakeAIClient) GenerateSuggestions(ctx context.Context, pc *transfer.PromptContext, count int) ([]transfer.GeneratedSuggestion, error) {
	if f.GenerateSuggestionsFn == nil {
		return nil, nil
	}
	return f.GenerateSuggestionsFn(ctx, pc, count)
}

func (f *fakeAIClient) InferTopics(ctx context.Context, samples []string) ([]string, error) {
	if f.InferTopicsFn == nil {
		return nil, nil
	}
	return f.InferTopicsFn(ctx, samples)
}

func (f *fakeAIClient) SummarizeStyle(ctx context.Context, samples []string) (string, error) {
	if f.SummarizeStyleFn == nil {
		return "", nil
	}
	return f.SummarizeStyleFn(ctx, samples)
}

func (f *fakeAIClient) DigestTopic(ctx context.Context, name string, samples []string) (string, error) {
	return "", nil
}

type fakeNetworkClient struct {
	GetTimelineFn  func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error)
	GetFollowingFn func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error)
}

func (f *fakeNetworkClient) GetTimeline(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
	if f.GetTimelineFn == nil {
		return nil, nil
	}
	return f.GetTimelineFn(ctx, credential, externalUserID, maxResults)
}

func (f *fakeNetworkClient) GetFollowing(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error) {
	if f.GetFollowingFn == nil {
		return nil, nil
	}
	return f.GetFollowingFn(ctx, credential, externalUserID, maxResults)
}

func (f *fakeNetworkClient) GetListTimeline(ctx context.Context, credential, listID string, maxResults int) ([]transfer.TimelinePost, error) {
	return nil, nil
}

type fakeRateLimiter struct {
	decision  RateLimitDecision
	err       error
	calls     int
	resources []string
	denyOn    string
}

func (f *fakeRateLimiter) Check(ctx context.Context, resource string, subjectID int64) (RateLimitDecision, error) {
	f.calls++
	f.resources = append(f.resources, resource)
	if f.denyOn != "" && resource != f.denyOn {
		return RateLimitDecision{Allowed: true}, nil
	}
	return f.decision, f.err
}

type fakeScheduler struct {
	calls  []time.Duration
	err    error
	lastID int64
}

func (f *fakeScheduler) ScheduleSync(ctx context.Context, accountID int64, delay time.Duration) error {
	f.lastID = accountID
	f.calls = append(f.calls, delay)
	return f.err
}
