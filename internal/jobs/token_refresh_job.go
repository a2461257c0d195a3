package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/mehulsen/postmirror/internal/repository"
	"github.com/mehulsen/postmirror/internal/service"
)

type TokenRefreshJob struct {
	ca repository.ConnectedAccountRepository
	tw service.TwitterService
}

func NewTokenRefreshJob(ca repository.ConnectedAccountRepository, tw service.TwitterService) *TokenRefreshJob {
	return &TokenRefreshJob{
		ca: ca,
		tw: tw,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	accounts, err := c.ca.ListExpiringTokens(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.ConnectedAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			switch acc.Platform {
			case models.PlatformTwitter:
				if err := c.tw.RefreshTwitterToken(ctx, acc); err != nil {
					slog.Info("unable to refresh token", slog.Int64("account_id", acc.ID))
				}
			}
		}(acc)
	}

	wg.Wait()
}
