package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mehulsen/postmirror/internal/models"
	"github.com/stretchr/testify/require"
)

func newStyleFixture(account *models.ConnectedAccount) (*fakeAccountRepo, *fakePostRepo, *fakeStyleRepo, *fakeAIClient, StyleService) {
	ca := &fakeAccountRepo{}
	pr := &fakePostRepo{}
	ws := &fakeStyleRepo{}
	ai := &fakeAIClient{}
	ca.GetByIDFn = func(ctx context.Context, id int64) (*models.ConnectedAccount, error) {
		return account, nil
	}
	return ca, pr, ws, ai, NewStyleService(ca, pr, ws, ai)
}

func TestAnalyzeComputesStatistics(t *testing.T) {
	account := networkAccount()
	account.SamplePosts = []string{
		"ship it #golang",
		"ok",
	}
	_, _, ws, ai, svc := newStyleFixture(account)

	ai.SummarizeStyleFn = func(ctx context.Context, samples []string) (string, error) {
		require.Len(t, samples, 2)
		return "Terse and practical, with occasional hashtags.", nil
	}

	var stored *models.WritingStyle
	ws.ReplaceFn = func(ctx context.Context, style *models.WritingStyle) (int64, error) {
		stored = style
		return 9, nil
	}

	style, err := svc.Analyze(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(9), style.ID)
	require.Equal(t, 2, style.SampleSize)
	require.Equal(t, 0.1, style.Confidence)
	require.Equal(t, 8.5, style.AvgLength)
	require.Equal(t, 0.5, style.HashtagFrequency)
	require.Equal(t, "Terse and practical", style.Tone)
	require.NotNil(t, stored)
}

func TestAnalyzeDegradesSummaryOnAIError(t *testing.T) {
	account := networkAccount()
	account.SamplePosts = []string{"one sample post"}
	_, _, _, ai, svc := newStyleFixture(account)

	ai.SummarizeStyleFn = func(ctx context.Context, samples []string) (string, error) {
		return "", errors.New("model unavailable")
	}

	style, err := svc.Analyze(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, style.Summary)
	require.Empty(t, style.Tone)
	require.Equal(t, 1, style.SampleSize)
}

func TestAnalyzeIncludesOwnSyncedPosts(t *testing.T) {
	account := networkAccount()
	account.ExternalUserID = "tw-42"
	_, pr, _, _, svc := newStyleFixture(account)

	pr.ListByAuthorFn = func(ctx context.Context, accountID int64, authorExternalID string, limit int) ([]*models.NetworkPost, error) {
		require.Equal(t, "tw-42", authorExternalID)
		return []*models.NetworkPost{{Content: "my own post"}}, nil
	}

	style, err := svc.Analyze(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 1, style.SampleSize)
}

func TestAnalyzeRequiresSamples(t *testing.T) {
	account := networkAccount()
	_, _, _, _, svc := newStyleFixture(account)

	_, err := svc.Analyze(context.Background(), 42)
	require.Error(t, err)
}

func TestConfidenceSaturates(t *testing.T) {
	require.Equal(t, 0.5, confidence(10))
	require.Equal(t, 1.0, confidence(20))
	require.Equal(t, 1.0, confidence(50))
}
