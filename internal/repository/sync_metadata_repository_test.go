package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestSyncMetadataRescheduleCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSyncMetadataRepository(db)

	mock.ExpectQuery("RETURNING reschedule_count").
		WithArgs(int64(42), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reschedule_count"}).AddRow(3))

	count, err := repo.IncrementReschedule(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 3, count)

	mock.ExpectExec(`SET reschedule_count = 0`).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ResetReschedules(context.Background(), 42))
	require.NoError(t, mock.ExpectationsWereMet())
}
