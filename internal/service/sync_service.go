package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	config "github.com/mehulsen/postmirror/configs"
	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/pkg/utils"
)

const (
	timelinePageSize  = 50
	followingPageSize = 100

	// Bound on consecutive rate-limit reschedules before the account is
	// parked in error state instead of deferring forever.
	maxReschedules = 5
)

// SyncScheduler re-enqueues a sync job after a rate-limit deferral. The
// key derived from the account must make a later enqueue supersede an
// earlier pending one, so at most one delayed re-attempt exists per
// account.
type SyncScheduler interface {
	ScheduleSync(ctx context.Context, accountID int64, delay time.Duration) error
}

type SyncResult struct {
	Synced      bool
	Rescheduled bool
	Posts       int
	Profiles    int
	Failed      int
}

type SyncService interface {
	SyncAccount(ctx context.Context, accountID int64) (*SyncResult, error)
}

type syncService struct {
	cfg       config.Config
	ca        repository.ConnectedAccountRepository
	np        repository.NetworkProfileRepository
	pr        repository.NetworkPostRepository
	sm        repository.SyncMetadataRepository
	ex        ExtractionService
	net       NetworkClient
	gate      RateLimiter
	scheduler SyncScheduler
}

func NewSyncService(
	cfg config.Config,
	ca repository.ConnectedAccountRepository,
	np repository.NetworkProfileRepository,
	pr repository.NetworkPostRepository,
	sm repository.SyncMetadataRepository,
	ex ExtractionService,
	net NetworkClient,
	gate RateLimiter,
	scheduler SyncScheduler) SyncService {
	return &syncService{
		cfg:       cfg,
		ca:        ca,
		np:        np,
		pr:        pr,
		sm:        sm,
		ex:        ex,
		net:       net,
		gate:      gate,
		scheduler: scheduler,
	}
}

// SyncAccount drives one account through pending -> syncing -> ready.
// Input problems (missing account or credential) end in error state but
// return nil: there is nothing for the job runner to retry. Errors after
// entering syncing are recorded on the account and returned so the
// runner's retry policy applies. A rate-limit denial is neither: the job
// is rescheduled and reported as success.
func (s *syncService) SyncAccount(ctx context.Context, accountID int64) (*SyncResult, error) {
	account, err := s.ca.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil || !account.Active {
		slog.Info(fmt.Sprintf("sync skipped: account %d missing or inactive", accountID))
		return &SyncResult{}, nil
	}

	// Fail fast before entering syncing when there is no usable credential.
	if account.AccessToken == "" {
		if err := s.ca.SetSyncStatus(ctx, accountID, models.SyncStatusError, "no credential for account"); err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("sync failed fast: account %d has no credential", accountID))
		return &SyncResult{}, nil
	}

	if err := s.ca.SetSyncStatus(ctx, accountID, models.SyncStatusSyncing, ""); err != nil {
		return nil, err
	}

	credential, err := utils.Decrypt(account.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, s.failSync(ctx, accountID, fmt.Errorf("decrypt credential: %w", err))
	}

	result, err := s.syncOnce(ctx, account, credential)
	if err != nil {
		var rl *rateLimitedError
		if errors.As(err, &rl) {
			return s.reschedule(ctx, accountID, rl.retryAfter)
		}
		return nil, s.failSync(ctx, accountID, err)
	}

	if err := s.sm.RecordSyncPass(ctx, accountID, result.Posts, result.Profiles); err != nil {
		return nil, s.failSync(ctx, accountID, err)
	}
	if err := s.np.RecomputeEngagement(ctx, accountID); err != nil {
		return nil, s.failSync(ctx, accountID, err)
	}
	if err := s.ca.MarkSynced(ctx, accountID); err != nil {
		return nil, err
	}

	result.Synced = true
	slog.Info(fmt.Sprintf("sync complete: account %d posts=%d profiles=%d failed=%d",
		accountID, result.Posts, result.Profiles, result.Failed))
	return result, nil
}

// reschedule treats the denial as a scheduling constraint. The delayed
// job is keyed by the account, so a later enqueue replaces any pending
// one rather than stacking duplicates.
func (s *syncService) reschedule(ctx context.Context, accountID int64, retryAfter time.Duration) (*SyncResult, error) {
	count, err := s.sm.IncrementReschedule(ctx, accountID)
	if err != nil {
		return nil, s.failSync(ctx, accountID, err)
	}
	if count > maxReschedules {
		if err := s.ca.SetSyncStatus(ctx, accountID, models.SyncStatusError, "rate limited: reschedule budget exhausted"); err != nil {
			return nil, err
		}
		slog.Info(fmt.Sprintf("sync abandoned: account %d exceeded %d reschedules", accountID, maxReschedules))
		return &SyncResult{}, nil
	}

	if err := s.scheduler.ScheduleSync(ctx, accountID, retryAfter); err != nil {
		return nil, s.failSync(ctx, accountID, err)
	}

	slog.Info(fmt.Sprintf("sync rescheduled: account %d retry in %s (attempt %d)", accountID, retryAfter, count))
	return &SyncResult{Rescheduled: true}, nil
}

// rateLimitedError carries a gate denial out of syncOnce so the caller
// can reschedule instead of recording a failure.
type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: retry in %s", e.retryAfter)
}

// allow consults the gate for one outbound call.
func (s *syncService) allow(ctx context.Context, resource string, accountID int64) error {
	decision, err := s.gate.Check(ctx, resource, accountID)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &rateLimitedError{retryAfter: decision.RetryAfter}
	}
	return nil
}

func (s *syncService) syncOnce(ctx context.Context, account *models.ConnectedAccount, credential string) (*SyncResult, error) {
	result := &SyncResult{}

	// Every call into the network goes through the gate.
	if err := s.allow(ctx, "timeline", account.ID); err != nil {
		return nil, err
	}

	// Getting past the gate ends the deferral streak; an old count must
	// not feed into a later, unrelated denial.
	if err := s.sm.ResetReschedules(ctx, account.ID); err != nil {
		return nil, err
	}

	timeline, err := s.net.GetTimeline(ctx, credential, account.ExternalUserID, timelinePageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline: %w", err)
	}

	if err := s.allow(ctx, "following", account.ID); err != nil {
		return nil, err
	}

	following, err := s.net.GetFollowing(ctx, credential, account.ExternalUserID, followingPageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch following: %w", err)
	}

	for _, profile := range following {
		_, err := s.np.Upsert(ctx, &models.NetworkProfile{
			ConnectedAccountID: account.ID,
			ExternalUserID:     profile.ExternalID,
			Username:           profile.Username,
			DisplayName:        profile.DisplayName,
			AvatarURL:          profile.AvatarURL,
			FollowersCount:     profile.Followers,
		})
		if err != nil {
			// Per-item failures don't abort the batch; progress beats
			// all-or-nothing here.
			result.Failed++
			slog.Info(fmt.Sprintf("profile upsert failed for %s: %s", profile.ExternalID, err.Error()))
			continue
		}
		result.Profiles++
	}

	topics := s.ex.TopicsForBatch(ctx, timeline)

	for i, post := range timeline {
		np := &models.NetworkPost{
			ConnectedAccountID: sql.NullInt64{Int64: account.ID, Valid: true},
			ExternalPostID:     post.ExternalID,
			AuthorExternalID:   post.AuthorID,
			AuthorUsername:     post.AuthorUsername,
			Content:            post.Content,
			LikesCount:         post.Likes,
			SharesCount:        post.Shares,
			RepliesCount:       post.Replies,
			EngagementScore:    EngagementScore(post.Likes, post.Shares, post.Replies),
			Topics:             topics[i],
			Sentiment:          s.ex.Sentiment(ctx, post.Content),
			PostedAt:           post.PostedAt,
		}
		if _, err := s.pr.Upsert(ctx, np); err != nil {
			result.Failed++
			slog.Info(fmt.Sprintf("post upsert failed for %s: %s", post.ExternalID, err.Error()))
			continue
		}
		result.Posts++
	}

	return result, nil
}

// failSync records the message on the account and hands the original
// error back for the job runner's retry policy.
func (s *syncService) failSync(ctx context.Context, accountID int64, cause error) error {
	if err := s.ca.SetSyncStatus(ctx, accountID, models.SyncStatusError, cause.Error()); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
