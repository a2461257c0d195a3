package job

import (
	"context"
	"log/slog"

	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/service"
)

const purgeAfterDays = 7

type MaintenanceJob struct {
	sr repository.SuggestionRepository
	tr service.TrendingService
}

func NewMaintenanceJob(sr repository.SuggestionRepository, tr service.TrendingService) *MaintenanceJob {
	return &MaintenanceJob{
		sr: sr,
		tr: tr,
	}
}

func (c *MaintenanceJob) SweepSuggestions() {
	ctx := context.Background()

	expired, err := c.sr.ExpireOld(ctx)
	if err != nil {
		slog.Info(err.Error())
	} else if expired > 0 {
		slog.Info("suggestions expired", slog.Int64("count", expired))
	}

	purged, err := c.sr.PurgeExpired(ctx, purgeAfterDays)
	if err != nil {
		slog.Info(err.Error())
	} else if purged > 0 {
		slog.Info("suggestions purged", slog.Int64("count", purged))
	}
}

func (c *MaintenanceJob) RefreshTrending() {
	ctx := context.Background()

	if err := c.tr.RefreshAll(ctx); err != nil {
		slog.Info(err.Error())
	}
}
