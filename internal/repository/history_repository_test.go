package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/lmsops/lp-reset-api/internal/models"
)

func TestHistoryRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	executed := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO execution_history")).
		WithArgs(int64(3), executed, models.MethodAutomatic, int64(120)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO execution_affected_users")).
		WithArgs(int64(11), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO execution_affected_users")).
		WithArgs(int64(11), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO execution_affected_objects")).
		WithArgs(int64(11), int64(101)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result := &models.ExecutionResult{
		ScheduleID:      3,
		Date:            executed,
		Method:          models.MethodAutomatic,
		DurationMS:      120,
		AffectedUsers:   []int64{5, 9},
		AffectedObjects: []int64{101},
	}
	require.NoError(t, repo.Insert(context.Background(), result))
	require.Equal(t, int64(11), result.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryListJoinsScheduleName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	executed := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "schedule_id", "schedule_name", "date", "method", "duration_ms", "user_count", "object_count",
	}).AddRow(int64(11), int64(3), "", executed, int(models.MethodManual), int64(42), 2, 1)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN schedules")).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM execution_history")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.HistoryFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, list, 1)
	// A deleted schedule keeps its history but loses its name.
	require.Empty(t, list[0].ScheduleName)
	require.Equal(t, 2, list[0].UserCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewHistoryRepository(db)
	executed := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM execution_history WHERE id")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "date", "method", "duration_ms"}).
			AddRow(int64(11), int64(3), executed, int(models.MethodAutomatic), int64(120)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM execution_affected_users")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(5)).AddRow(int64(9)))
	mock.ExpectQuery(regexp.QuoteMeta("FROM execution_affected_objects")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"object_ref"}).AddRow(int64(101)))

	result, err := repo.FindByID(context.Background(), 11)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 9}, result.AffectedUsers)
	require.Equal(t, []int64{101}, result.AffectedObjects)
	require.NoError(t, mock.ExpectationsWereMet())
}
