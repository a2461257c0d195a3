package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/mehulsen/postmirror/internal/queue"
	"github.com/mehulsen/postmirror/internal/repository"
)

const syncInterval = 6 * time.Hour

type SyncSchedulerJob struct {
	ca        repository.ConnectedAccountRepository
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewSyncSchedulerJob(
	ca repository.ConnectedAccountRepository,
	client *asynq.Client,
	inspector *asynq.Inspector) *SyncSchedulerJob {
	return &SyncSchedulerJob{
		ca:        ca,
		client:    client,
		inspector: inspector,
	}
}

// ScheduleSyncs enqueues a sync task for every active account whose last
// completed sync is older than syncInterval.
func (c *SyncSchedulerJob) ScheduleSyncs() {
	ctx := context.Background()

	cutoff := time.Now().Add(-syncInterval)
	accounts, err := c.ca.ListSyncable(ctx, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, acc := range accounts {
		if err := queue.EnqueueSync(c.client, c.inspector, acc.ID, 0); err != nil {
			slog.Info("unable to enqueue sync", slog.Int64("account_id", acc.ID))
		}
	}
}
