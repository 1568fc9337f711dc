package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halver/lifeops/internal/model"
)

func TestRunService_Trigger_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	ownsRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = true
		return nil
	}}
	insertRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "run-1"
		return nil
	}}
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "EXISTS")
	}), mock.Anything).Return(ownsRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO cronjob_runs")
	}), mock.Anything).Return(insertRow).Once()

	run, err := svc.Trigger(ctx, "user-1", "test-cronjob-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPending, run.Status)
	assert.Equal(t, "test-cronjob-1", run.CronJobID)
	assert.WithinDuration(t, time.Now(), run.StartedAt, time.Minute)
	db.AssertExpectations(t)
}

func TestRunService_Trigger_NotOwned(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	ownsRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = false
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(ownsRow).Once()

	run, err := svc.Trigger(ctx, "user-1", "someone-elses-job")
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Contains(t, err.Error(), "not found")
	db.AssertExpectations(t)
}

func TestRunService_Trigger_DuplicatePending(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	ownsRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*bool)) = true
		return nil
	}}
	// Guarded insert matched no row, so RETURNING yields no rows.
	insertRow := &mockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}}
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "EXISTS (SELECT 1 FROM cronjobs")
	}), mock.Anything).Return(ownsRow).Once()
	db.On("QueryRow", ctx, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "INSERT INTO cronjob_runs")
	}), mock.Anything).Return(insertRow).Once()

	run, err := svc.Trigger(ctx, "user-1", "test-cronjob-1")
	require.ErrorIs(t, err, ErrDuplicateRun)
	assert.Nil(t, run)
	db.AssertExpectations(t)
}

func TestRunService_TriggerScheduled_SkipsOwnershipCheck(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	insertRow := &mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "run-1"
		return nil
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(insertRow).Once()

	run, err := svc.TriggerScheduled(ctx, "test-cronjob-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusPending, run.Status)
	db.AssertExpectations(t)
}

func TestRunService_ListByCronJob_CapsLimit(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	db.On("Query", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 3 && args[2] == DefaultRunPageSize
	})).Return(newEmptyMockRows(), nil)

	runs, err := svc.ListByCronJob(ctx, "user-1", "test-cronjob-1", 500)
	require.NoError(t, err)
	assert.Empty(t, runs)
	db.AssertExpectations(t)
}

func TestRunService_ListByCronJob_Scan(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	started := time.Now().Truncate(time.Microsecond)
	completed := started.Add(30 * time.Second)
	logs := "done"
	rows := newMockRows(func(dest ...any) error {
		*(dest[0].(*string)) = "run-1"
		*(dest[1].(*string)) = "test-cronjob-1"
		*(dest[2].(*string)) = model.RunStatusSuccess
		*(dest[3].(*time.Time)) = started
		*(dest[4].(**time.Time)) = &completed
		*(dest[5].(**string)) = &logs
		return nil
	})
	db.On("Query", ctx, mock.AnythingOfType("string"), mock.Anything).Return(rows, nil)

	runs, err := svc.ListByCronJob(ctx, "user-1", "test-cronjob-1", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Terminal())
	assert.Equal(t, "done", *runs[0].Logs)
	db.AssertExpectations(t)
}

func TestRunService_GetByID_Error(t *testing.T) {
	db := &mockDB{}
	svc := NewRunService(db)
	ctx := context.Background()

	row := &mockRow{scanFunc: func(dest ...any) error {
		return errors.New("no rows in result set")
	}}
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(row)

	run, err := svc.GetByID(ctx, "user-1", "nope")
	require.Error(t, err)
	assert.Nil(t, run)
	db.AssertExpectations(t)
}
