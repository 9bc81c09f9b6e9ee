package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horas-api/internal/hours"
)

func TestProgressServiceComputesAndCachesByVersion(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, 150, 50)
	student := f.seedStudent(t, list.ID, "Ana Paula Costa", "123.456.789-01")

	f.seedActivity(t, student.ID, "events", 32, "2024-03-01")
	f.seedActivity(t, student.ID, "organization", 10, "2024-03-05")
	f.seedActivity(t, student.ID, "research", 20, "2024-04-01")
	f.seedActivity(t, student.ID, "extension", 16, "2024-05-01")

	ctx := context.Background()
	first, err := f.progress.Get(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 78.0, first.ValidTotalHours)
	require.Equal(t, hours.StatusInProgress, first.CompletionStatus)
	require.Len(t, first.Breakdown, len(hours.Categories()))
	require.Equal(t, 52.0, first.ProgressPercent)
	require.Equal(t, uint(4), first.Version)

	keys := f.cache.Keys(ctx, "progress:student:*").Val()
	require.Len(t, keys, 1)

	cached, err := f.progress.Get(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, first.ValidTotalHours, cached.ValidTotalHours)
	require.True(t, first.ComputedAt.Equal(cached.ComputedAt))

	f.seedActivity(t, student.ID, "events", 30, "2024-05-10")

	updated, err := f.progress.Get(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 96.0, updated.ValidTotalHours)
	require.Equal(t, uint(5), updated.Version)

	events := updated.Breakdown[0]
	require.Equal(t, hours.CategoryEvents, events.Category)
	require.Equal(t, 62.0, events.RawHours)
	require.Equal(t, 50.0, events.CappedHours)
	require.True(t, events.IsCapped)
}

func TestProgressServiceRefreshWritesCacheAndEmitsCompletionOnce(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, 150, 50)
	student := f.seedStudent(t, list.ID, "Carlos Eduardo Silva", "234.567.890-12")

	f.seedActivity(t, student.ID, "events", 50, "2024-02-01")
	f.seedActivity(t, student.ID, "research", 40, "2024-02-02")
	f.seedActivity(t, student.ID, "extension", 30, "2024-02-03")
	f.seedActivity(t, student.ID, "monitoring", 30, "2024-02-04")

	ctx := context.Background()
	result, err := f.progress.Refresh(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 150.0, result.ValidTotalHours)
	require.Equal(t, hours.StatusComplete, result.CompletionStatus)
	require.False(t, result.PerCategory[hours.CategoryEvents].IsCapped)

	stored, err := f.students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 150.0, stored.TotalHours)
	require.Equal(t, hours.StatusComplete, stored.Status)

	_, err = f.progress.Refresh(ctx, student.ID)
	require.NoError(t, err)

	require.Len(t, f.publisher.ofType(ProgressEventUpdated), 2)
	completed := f.publisher.ofType(ProgressEventCompleted)
	require.Len(t, completed, 1)
	require.Equal(t, hours.StatusInProgress, completed[0].PreviousStatus)
	require.Equal(t, student.ID, completed[0].StudentID)
}

func TestProgressServiceRefreshListUsesCurrentRules(t *testing.T) {
	f := newFixture(t)
	list := f.seedList(t, 100, 50)
	first := f.seedStudent(t, list.ID, "Beatriz Santos", "345.678.901-23")
	second := f.seedStudent(t, list.ID, "Daniel Oliveira", "456.789.012-34")

	f.seedActivity(t, first.ID, "courses", 60, "2024-01-10")
	f.seedActivity(t, first.ID, "research", 50, "2024-01-11")
	f.seedActivity(t, second.ID, "courses", 45, "2024-01-12")

	ctx := context.Background()
	refreshed, err := f.progress.RefreshList(ctx, list.ID)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed)

	stored, err := f.students.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, 100.0, stored.TotalHours)
	require.Equal(t, hours.StatusComplete, stored.Status)

	list.MaxHoursPerCategory = 40
	require.NoError(t, f.lists.Update(ctx, &list))

	_, err = f.progress.RefreshAll(ctx)
	require.NoError(t, err)

	stored, err = f.students.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, 80.0, stored.TotalHours)
	require.Equal(t, hours.StatusInProgress, stored.Status)

	view, err := f.progress.Get(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, 40.0, view.ValidTotalHours)
}

func TestProgressServiceUnknownStudent(t *testing.T) {
	f := newFixture(t)

	_, err := f.progress.Get(context.Background(), 999)
	require.ErrorIs(t, err, ErrStudentNotFound)

	_, err = f.progress.RefreshList(context.Background(), 999)
	require.ErrorIs(t, err, ErrListNotFound)
}
