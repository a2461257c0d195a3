package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// SyncTaskID is the stable task key for an account's sync. Re-enqueueing
// under the same key supersedes an earlier scheduled sync for that account.
func SyncTaskID(accountID int64) string {
	return fmt.Sprintf("sync:account:%d", accountID)
}

func EnqueueSync(asynqClient *asynq.Client, inspector *asynq.Inspector, accountID int64, delay time.Duration) error {
	taskPayload, err := json.Marshal(SyncAccountPayload{AccountID: accountID})
	if err != nil {
		return err
	}

	if err := inspector.DeleteTask("default", SyncTaskID(accountID)); err != nil {
		if !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
			slog.Info(err.Error())
		}
	}

	task := asynq.NewTask(TaskTypeSyncAccount, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.ProcessIn(delay), asynq.TaskID(SyncTaskID(accountID)), asynq.MaxRetry(3))
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return err
	}

	slog.Info("sync task scheduled", slog.Int64("account_id", accountID), slog.Duration("delay", delay))
	return nil
}

func EnqueueGenerateSuggestions(asynqClient *asynq.Client, accountID int64, count int) error {
	taskPayload, err := json.Marshal(GenerateSuggestionsPayload{AccountID: accountID, Count: count})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeGenerateSuggestions, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.MaxRetry(2))
	if err != nil {
		return err
	}

	slog.Info("suggestion task enqueued", slog.Int64("account_id", accountID))
	return nil
}

// Scheduler implements service.SyncScheduler on top of asynq.
type Scheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewScheduler(client *asynq.Client, inspector *asynq.Inspector) *Scheduler {
	return &Scheduler{client: client, inspector: inspector}
}

func (s *Scheduler) ScheduleSync(ctx context.Context, accountID int64, delay time.Duration) error {
	return EnqueueSync(s.client, s.inspector, accountID, delay)
}
