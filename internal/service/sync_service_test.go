package service

import (
	"context"
	"errors"
	"testing"
	"time"

	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/transfer"
	"github.com/mehulsen/postmirror/pkg/utils"
	"github.com/stretchr/testify/require"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

type syncFixture struct {
	ca        *fakeAccountRepo
	np        *fakeProfileRepo
	pr        *fakePostRepo
	sm        *fakeSyncMetaRepo
	ai        *fakeAIClient
	net       *fakeNetworkClient
	gate      *fakeRateLimiter
	scheduler *fakeScheduler
	svc       SyncService
}

func newSyncFixture(t *testing.T, account *models.ConnectedAccount) *syncFixture {
	t.Helper()

	f := &syncFixture{
		ca:        &fakeAccountRepo{},
		np:        &fakeProfileRepo{},
		pr:        &fakePostRepo{},
		sm:        &fakeSyncMetaRepo{},
		ai:        &fakeAIClient{},
		net:       &fakeNetworkClient{},
		gate:      &fakeRateLimiter{decision: RateLimitDecision{Allowed: true}},
		scheduler: &fakeScheduler{},
	}
	f.ca.GetByIDFn = func(ctx context.Context, id int64) (*models.ConnectedAccount, error) {
		return account, nil
	}

	cfg := config.Config{SecretKey: testSecretKey}
	f.svc = NewSyncService(cfg, f.ca, f.np, f.pr, f.sm, NewExtractionService(f.ai), f.net, f.gate, f.scheduler)
	return f
}

func encryptedToken(t *testing.T) string {
	t.Helper()
	token, err := utils.Encrypt([]byte("bearer-token"), []byte(testSecretKey))
	require.NoError(t, err)
	return token
}

func syncableAccount(t *testing.T) *models.ConnectedAccount {
	return &models.ConnectedAccount{
		ID:             42,
		UserID:         7,
		Platform:       models.PlatformTwitter,
		ExternalUserID: "tw-42",
		AccessToken:    encryptedToken(t),
		SyncStatus:     models.SyncStatusPending,
		Active:         true,
	}
}

func TestSyncAccountHappyPath(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)

	var statuses []string
	f.ca.SetSyncStatusFn = func(ctx context.Context, id int64, status, syncError string) error {
		statuses = append(statuses, status)
		return nil
	}
	marked := false
	f.ca.MarkSyncedFn = func(ctx context.Context, id int64) error {
		marked = true
		return nil
	}

	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		require.Equal(t, "bearer-token", credential)
		require.Equal(t, "tw-42", externalUserID)
		return []transfer.TimelinePost{
			{ExternalID: "p1", AuthorID: "a1", Content: "hello", Likes: 5, Shares: 3, Replies: 2},
			{ExternalID: "p2", AuthorID: "a2", Content: "world"},
		}, nil
	}
	f.net.GetFollowingFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error) {
		return []transfer.FollowedProfile{{ExternalID: "a1", Username: "alice"}}, nil
	}

	var scores []float64
	f.pr.UpsertFn = func(ctx context.Context, np *models.NetworkPost) (int64, error) {
		scores = append(scores, np.EngagementScore)
		return 1, nil
	}

	recorded := false
	f.sm.RecordSyncPassFn = func(ctx context.Context, accountID int64, postsSynced, profilesSynced int) error {
		recorded = true
		require.Equal(t, 2, postsSynced)
		require.Equal(t, 1, profilesSynced)
		return nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Synced)
	require.False(t, result.Rescheduled)
	require.Equal(t, 2, result.Posts)
	require.Equal(t, 1, result.Profiles)
	require.Equal(t, 0, result.Failed)

	require.Equal(t, []string{models.SyncStatusSyncing}, statuses)
	require.True(t, marked)
	require.True(t, recorded)
	require.Equal(t, []float64{14.0, 0.0}, scores)
	require.Empty(t, f.scheduler.calls)
}

func TestSyncAccountMissingAccount(t *testing.T) {
	f := newSyncFixture(t, nil)

	statusChanged := false
	f.ca.SetSyncStatusFn = func(ctx context.Context, id int64, status, syncError string) error {
		statusChanged = true
		return nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, result.Synced)
	require.False(t, statusChanged)
	require.Equal(t, 0, f.gate.calls)
}

func TestSyncAccountNoCredentialFailsFast(t *testing.T) {
	account := syncableAccount(t)
	account.AccessToken = ""
	f := newSyncFixture(t, account)

	var gotStatus, gotError string
	f.ca.SetSyncStatusFn = func(ctx context.Context, id int64, status, syncError string) error {
		gotStatus = status
		gotError = syncError
		return nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, result.Synced)
	require.Equal(t, models.SyncStatusError, gotStatus)
	require.Contains(t, gotError, "no credential")
	// The account never enters syncing and the gate budget is untouched.
	require.Equal(t, 0, f.gate.calls)
}

func TestSyncAccountRateLimitedReschedules(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)
	f.gate.decision = RateLimitDecision{Allowed: false, RetryAfter: 9 * time.Minute}

	timelineCalled := false
	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		timelineCalled = true
		return nil, nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Rescheduled)
	require.False(t, result.Synced)

	// Exactly one delayed re-attempt, no earlier than the gate says.
	require.Len(t, f.scheduler.calls, 1)
	require.GreaterOrEqual(t, f.scheduler.calls[0], 9*time.Minute)
	require.Equal(t, int64(42), f.scheduler.lastID)
	require.False(t, timelineCalled)
}

func TestSyncAccountGatesEveryNetworkCall(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)

	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		return []transfer.TimelinePost{{ExternalID: "p1"}}, nil
	}
	f.net.GetFollowingFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error) {
		return nil, nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Synced)
	require.Equal(t, []string{"timeline", "following"}, f.gate.resources)
}

func TestSyncAccountMidPassDenialReschedules(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)
	f.gate.denyOn = "following"
	f.gate.decision = RateLimitDecision{Allowed: false, RetryAfter: 4 * time.Minute}

	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		return []transfer.TimelinePost{{ExternalID: "p1"}}, nil
	}
	followingCalled := false
	f.net.GetFollowingFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.FollowedProfile, error) {
		followingCalled = true
		return nil, nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Rescheduled)
	require.False(t, followingCalled)
	require.Len(t, f.scheduler.calls, 1)
	require.Equal(t, 4*time.Minute, f.scheduler.calls[0])
}

func TestSyncAccountGatePassResetsRescheduleStreak(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)

	resets := 0
	f.sm.ResetReschedulesFn = func(ctx context.Context, accountID int64) error {
		require.Equal(t, int64(42), accountID)
		resets++
		return nil
	}
	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		return nil, nil
	}

	// An allowed attempt clears any count left over from an earlier
	// deferral streak.
	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Synced)
	require.Equal(t, 1, resets)

	// A denied attempt leaves the counter alone.
	f.gate.decision = RateLimitDecision{Allowed: false, RetryAfter: time.Minute}
	result, err = f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Rescheduled)
	require.Equal(t, 1, resets)
}

func TestSyncAccountRescheduleBudgetExhausted(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)
	f.gate.decision = RateLimitDecision{Allowed: false, RetryAfter: time.Minute}
	f.sm.IncrementRescheduleFn = func(ctx context.Context, accountID int64) (int, error) {
		return 6, nil
	}

	var gotStatus, gotError string
	f.ca.SetSyncStatusFn = func(ctx context.Context, id int64, status, syncError string) error {
		gotStatus = status
		gotError = syncError
		return nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, result.Rescheduled)
	require.Equal(t, models.SyncStatusError, gotStatus)
	require.Contains(t, gotError, "rate limited")
	require.Empty(t, f.scheduler.calls)
}

func TestSyncAccountNetworkFailureRecordsError(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)

	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		return nil, errors.New("upstream 500")
	}

	var gotStatus, gotError string
	f.ca.SetSyncStatusFn = func(ctx context.Context, id int64, status, syncError string) error {
		if status == models.SyncStatusError {
			gotStatus = status
			gotError = syncError
		}
		return nil
	}

	_, err := f.svc.SyncAccount(context.Background(), 42)
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream 500")
	require.Equal(t, models.SyncStatusError, gotStatus)
	require.Contains(t, gotError, "fetch timeline")
}

func TestSyncAccountPartialUpsertFailures(t *testing.T) {
	account := syncableAccount(t)
	f := newSyncFixture(t, account)

	f.net.GetTimelineFn = func(ctx context.Context, credential, externalUserID string, maxResults int) ([]transfer.TimelinePost, error) {
		return []transfer.TimelinePost{
			{ExternalID: "good"},
			{ExternalID: "bad"},
		}, nil
	}
	f.pr.UpsertFn = func(ctx context.Context, np *models.NetworkPost) (int64, error) {
		if np.ExternalPostID == "bad" {
			return 0, errors.New("constraint violation")
		}
		return 1, nil
	}

	result, err := f.svc.SyncAccount(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, result.Synced)
	require.Equal(t, 1, result.Posts)
	require.Equal(t, 1, result.Failed)
}
