package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/mehulsen/postmirror/internal/service"
)

func (q *Queue) HandleSyncAccountTask(ctx context.Context, task *asynq.Task) error {
	var payload SyncAccountPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := q.sync.SyncAccount(ctx, payload.AccountID)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	if result.Rescheduled {
		slog.Info("sync rescheduled", slog.Int64("account_id", payload.AccountID))
		return nil
	}

	if result.Synced {
		slog.Info("sync completed",
			slog.Int64("account_id", payload.AccountID),
			slog.Int("posts", result.Posts),
			slog.Int("profiles", result.Profiles))
		return q.GenerateSuggestions(ctx, payload.AccountID, 0)
	}

	return nil
}

func (q *Queue) HandleGenerateSuggestionsTask(ctx context.Context, task *asynq.Task) error {
	var payload GenerateSuggestionsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	return q.GenerateSuggestions(ctx, payload.AccountID, payload.Count)
}

func (q *Queue) GenerateSuggestions(ctx context.Context, accountID int64, count int) error {
	suggestions, err := q.sg.Generate(ctx, accountID, count)
	if err != nil {
		if errors.Is(err, service.ErrNeedMoreInput) {
			slog.Info("not enough signal for suggestions", slog.Int64("account_id", accountID))
			return nil
		}
		return err
	}

	slog.Info("suggestions generated",
		slog.Int64("account_id", accountID),
		slog.Int("count", len(suggestions)))
	return nil
}
