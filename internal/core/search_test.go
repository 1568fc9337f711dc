package core

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func searchRow(id, label, status string, at time.Time) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = label
		*(dest[2].(*string)) = status
		*(dest[3].(*time.Time)) = at
		return nil
	}
}

func TestSearchService_Search_AllTypes(t *testing.T) {
	db := &mockDB{}
	svc := NewSearchService(db)
	ctx := context.Background()

	now := time.Now()
	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM cronjobs")
	}), mock.Anything).Return(newMockRows(searchRow("cj-1", "Daily Sync", "active", now)), nil)
	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "r.logs ILIKE")
	}), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "jsonb_array_elements")
	}), mock.Anything).Return(newEmptyMockRows(), nil)
	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM activity_logs")
	}), mock.Anything).Return(newEmptyMockRows(), nil)

	resp, err := svc.Search(ctx, "user-1", "daily", nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, SearchTypeCronjob, resp.Results[0].Type)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Facets[SearchTypeCronjob])
	assert.Greater(t, resp.Results[0].Score, 0.0)
	db.AssertExpectations(t)
}

func TestSearchService_Search_TypeFilter(t *testing.T) {
	db := &mockDB{}
	svc := NewSearchService(db)
	ctx := context.Background()

	db.On("Query", mock.Anything, mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, "FROM cronjobs")
	}), mock.Anything).Return(newEmptyMockRows(), nil)

	resp, err := svc.Search(ctx, "user-1", "x", []string{SearchTypeCronjob}, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	// Only the cronjob query ran.
	db.AssertNumberOfCalls(t, "Query", 1)
}

func TestSearchService_Search_TruncatesLongQuery(t *testing.T) {
	db := &mockDB{}
	svc := NewSearchService(db)

	long := strings.Repeat("a", 300)
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(newEmptyMockRows(), nil)

	resp, err := svc.Search(context.Background(), "user-1", long, []string{SearchTypeCronjob}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, resp.Query, MaxSearchQueryLen)
}

func TestSearchService_Search_TruncatesMultibyteOnRuneBoundary(t *testing.T) {
	db := &mockDB{}
	svc := NewSearchService(db)

	// 3 bytes per rune, so a byte-indexed cut would split the last rune.
	long := strings.Repeat("日", MaxSearchQueryLen/2+1)
	var pattern string
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		pattern = args[1].(string)
		return true
	})).Return(newEmptyMockRows(), nil)

	resp, err := svc.Search(context.Background(), "user-1", long, []string{SearchTypeCronjob}, 10, 0)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(pattern))
	assert.Equal(t, long, resp.Query)

	over := strings.Repeat("日", MaxSearchQueryLen+50)
	resp, err = svc.Search(context.Background(), "user-1", over, []string{SearchTypeCronjob}, 10, 0)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(pattern))
	assert.Equal(t, MaxSearchQueryLen, len([]rune(resp.Query)))
}

func TestSearchService_Search_OffsetBeyondTotal(t *testing.T) {
	db := &mockDB{}
	svc := NewSearchService(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(
		newMockRows(searchRow("cj-1", "Daily Sync", "active", time.Now())), nil)

	resp, err := svc.Search(context.Background(), "user-1", "daily", []string{SearchTypeCronjob}, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 1, resp.Total)
}

func TestScoreResult_RecentBeatsOld(t *testing.T) {
	recent := scoreResult("sync", "Daily Sync", time.Hour)
	old := scoreResult("sync", "Daily Sync", 30*24*time.Hour)
	assert.Greater(t, recent, old)
}

func TestScoreResult_FullOverlapBeatsPartial(t *testing.T) {
	full := scoreResult("daily sync", "Daily Sync", time.Hour)
	partial := scoreResult("daily backup", "Daily Sync", time.Hour)
	assert.Greater(t, full, partial)
}

func TestScoreResult_NonLabelMatchGetsFloor(t *testing.T) {
	// Hit matched logs, not the label; score stays positive.
	s := scoreResult("traceback", "Daily Sync run", time.Hour)
	assert.Greater(t, s, 0.0)
	assert.LessOrEqual(t, s, 0.25)
}
