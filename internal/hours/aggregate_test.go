package hours_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horas-api/internal/hours"
)

var defaultConfig = hours.Config{TotalHoursRequired: 150, MaxHoursPerCategory: 50}

func TestAggregateEmptyInput(t *testing.T) {
	result, err := hours.Aggregate(nil, defaultConfig)
	require.NoError(t, err)
	require.Empty(t, result.PerCategory)
	require.Zero(t, result.ValidTotalHours)
	require.Equal(t, hours.StatusInProgress, result.CompletionStatus)
}

func TestAggregateSingleCategoryCap(t *testing.T) {
	result, err := hours.Aggregate([]hours.Record{{Category: hours.CategoryEvents, Hours: 70}}, defaultConfig)
	require.NoError(t, err)

	events := result.PerCategory[hours.CategoryEvents]
	require.Equal(t, 70.0, events.RawHours)
	require.Equal(t, 50.0, events.CappedHours)
	require.True(t, events.IsCapped)
	require.Equal(t, 50.0, result.ValidTotalHours)
}

func TestAggregateMultiCategoryUnderCap(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 32},
		{Category: hours.CategoryOrganization, Hours: 10},
		{Category: hours.CategoryResearch, Hours: 20},
		{Category: hours.CategoryExtension, Hours: 16},
	}

	result, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)
	require.Len(t, result.PerCategory, 4)
	for _, entry := range result.PerCategory {
		require.False(t, entry.IsCapped)
		require.Equal(t, entry.RawHours, entry.CappedHours)
	}
	require.Equal(t, 78.0, result.ValidTotalHours)
	require.Equal(t, hours.StatusInProgress, result.CompletionStatus)
}

func TestAggregateMixedCappedAndUncapped(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 50},
		{Category: hours.CategoryResearch, Hours: 40},
		{Category: hours.CategoryExtension, Hours: 30},
		{Category: hours.CategoryMonitoring, Hours: 30},
	}

	result, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)

	events := result.PerCategory[hours.CategoryEvents]
	require.Equal(t, 50.0, events.CappedHours)
	require.False(t, events.IsCapped, "exactly at the cap is not flagged")
	require.Equal(t, 150.0, result.ValidTotalHours)
	require.Equal(t, hours.StatusComplete, result.CompletionStatus)
}

func TestAggregateExactCompletionBoundary(t *testing.T) {
	cfg := hours.Config{TotalHoursRequired: 100, MaxHoursPerCategory: 50}
	complete := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 50},
		{Category: hours.CategoryCourses, Hours: 50},
	}
	result, err := hours.Aggregate(complete, cfg)
	require.NoError(t, err)
	require.Equal(t, hours.StatusComplete, result.CompletionStatus)

	short := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 50},
		{Category: hours.CategoryCourses, Hours: 49},
	}
	result, err = hours.Aggregate(short, cfg)
	require.NoError(t, err)
	require.Equal(t, 99.0, result.ValidTotalHours)
	require.Equal(t, hours.StatusInProgress, result.CompletionStatus)
}

func TestAggregateNoCrossCategoryBorrowing(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 120},
		{Category: hours.CategoryResearch, Hours: 10},
	}

	result, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)
	require.Equal(t, 60.0, result.ValidTotalHours)
	_, present := result.PerCategory[hours.CategoryCourses]
	require.False(t, present)
	require.LessOrEqual(t, result.ValidTotalHours, float64(len(result.PerCategory))*defaultConfig.MaxHoursPerCategory)
}

func TestAggregateOrderIndependence(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 0.1},
		{Category: hours.CategoryEvents, Hours: 0.2},
		{Category: hours.CategoryEvents, Hours: 0.3},
		{Category: hours.CategoryResearch, Hours: 12.75},
		{Category: hours.CategoryResearch, Hours: 1.05},
		{Category: hours.CategoryInternship, Hours: 33.33},
		{Category: hours.CategoryInternship, Hours: 33.33},
		{Category: hours.CategoryPublications, Hours: 7},
	}

	expected, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)
	require.Equal(t, 0.6, expected.PerCategory[hours.CategoryEvents].RawHours)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]hours.Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := hours.Aggregate(shuffled, defaultConfig)
		require.NoError(t, err)
		require.Equal(t, expected, got)
	}
}

func TestAggregateCapMonotonicity(t *testing.T) {
	var records []hours.Record
	previous := 0.0
	for i := 0; i < 10; i++ {
		records = append(records, hours.Record{Category: hours.CategoryMonitoring, Hours: 8})
		result, err := hours.Aggregate(records, defaultConfig)
		require.NoError(t, err)

		capped := result.PerCategory[hours.CategoryMonitoring].CappedHours
		require.GreaterOrEqual(t, capped, previous)
		require.LessOrEqual(t, capped, defaultConfig.MaxHoursPerCategory)
		previous = capped
	}
	require.Equal(t, 50.0, previous)
}

func TestAggregateRemovalNeverIncreasesTotal(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 40},
		{Category: hours.CategoryEvents, Hours: 30},
		{Category: hours.CategoryCourses, Hours: 10},
	}
	before, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)

	for i := range records {
		remaining := append(append([]hours.Record(nil), records[:i]...), records[i+1:]...)
		after, err := hours.Aggregate(remaining, defaultConfig)
		require.NoError(t, err)
		require.LessOrEqual(t, after.ValidTotalHours, before.ValidTotalHours)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	records := []hours.Record{{Category: hours.CategoryCourses, Hours: 12}}
	first, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)
	second, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestAggregateRejectsInvalidConfig(t *testing.T) {
	cases := []hours.Config{
		{TotalHoursRequired: 150, MaxHoursPerCategory: 0},
		{TotalHoursRequired: 150, MaxHoursPerCategory: -5},
		{TotalHoursRequired: 0, MaxHoursPerCategory: 50},
		{TotalHoursRequired: -1, MaxHoursPerCategory: 50},
		{TotalHoursRequired: 150, MaxHoursPerCategory: 1e18},
		{TotalHoursRequired: 1e18, MaxHoursPerCategory: 50},
		{TotalHoursRequired: 0.004, MaxHoursPerCategory: 50},
		{TotalHoursRequired: 150, MaxHoursPerCategory: 0.004},
		{TotalHoursRequired: hours.MaxHours + 1, MaxHoursPerCategory: 50},
		{TotalHoursRequired: math.Inf(1), MaxHoursPerCategory: 50},
		{TotalHoursRequired: 150, MaxHoursPerCategory: math.NaN()},
	}
	for _, cfg := range cases {
		_, err := hours.Aggregate(nil, cfg)
		require.ErrorIs(t, err, hours.ErrInvalidConfig)
	}
}

func TestAggregateAcceptsConfigBounds(t *testing.T) {
	result, err := hours.Aggregate(nil, hours.Config{TotalHoursRequired: hours.MinHours, MaxHoursPerCategory: hours.MaxHours})
	require.NoError(t, err)
	require.Equal(t, hours.StatusInProgress, result.CompletionStatus)

	result, err = hours.Aggregate([]hours.Record{{Category: hours.CategoryEvents, Hours: 10}},
		hours.Config{TotalHoursRequired: hours.MaxHours, MaxHoursPerCategory: hours.MaxHours})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.ValidTotalHours)
	require.False(t, result.PerCategory[hours.CategoryEvents].IsCapped)
	require.Equal(t, hours.StatusInProgress, result.CompletionStatus)
}

func TestAggregateSaturatesHugeRecords(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 1e18},
		{Category: hours.CategoryEvents, Hours: 1e18},
		{Category: hours.CategoryCourses, Hours: -1e18},
	}
	result, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)

	events := result.PerCategory[hours.CategoryEvents]
	require.Equal(t, 50.0, events.CappedHours)
	require.True(t, events.IsCapped)
	require.Greater(t, events.RawHours, 0.0)
	require.Less(t, result.PerCategory[hours.CategoryCourses].RawHours, 0.0)
	require.GreaterOrEqual(t, result.ValidTotalHours, -1e6)
	require.Equal(t, hours.StatusInProgress, result.CompletionStatus)
}

func TestAggregateToleratesMalformedHours(t *testing.T) {
	records := []hours.Record{
		{Category: hours.CategoryEvents, Hours: 20},
		{Category: hours.CategoryEvents, Hours: -5},
	}
	result, err := hours.Aggregate(records, defaultConfig)
	require.NoError(t, err)
	require.Equal(t, 15.0, result.PerCategory[hours.CategoryEvents].RawHours)
}

func TestResultWithAllCategories(t *testing.T) {
	result, err := hours.Aggregate([]hours.Record{{Category: hours.CategoryResearch, Hours: 60}}, defaultConfig)
	require.NoError(t, err)

	all := result.WithAllCategories()
	require.Len(t, all, len(hours.Categories()))
	require.Equal(t, hours.CategoryEvents, all[0].Category)
	require.Zero(t, all[0].RawHours)
	require.Equal(t, "Pesquisa", all[2].Label)
	require.True(t, all[2].IsCapped)

	require.Equal(t, 33.33, result.Progress(defaultConfig))
}

func TestParseCategory(t *testing.T) {
	category, ok := hours.ParseCategory("Extensão")
	require.True(t, ok)
	require.Equal(t, hours.CategoryExtension, category)

	category, ok = hours.ParseCategory(" COURSES ")
	require.True(t, ok)
	require.Equal(t, hours.CategoryCourses, category)

	_, ok = hours.ParseCategory("sports")
	require.False(t, ok)
}

func TestStatusLabel(t *testing.T) {
	require.Equal(t, "concluído", hours.StatusComplete.Label())
	require.Equal(t, "em andamento", hours.StatusInProgress.Label())
}
