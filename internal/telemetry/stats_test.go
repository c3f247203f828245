package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/clock"
)

func TestRecordAndFilterEvents(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC))
	repo := NewMemoryRepository(clk)

	require.NoError(t, repo.RecordEvent(EventExtractionStarted, EventMetadata{"user": "alice"}))
	clk.Advance(time.Hour)
	require.NoError(t, repo.RecordEvent(EventActionApplied, EventMetadata{"action": "create"}))

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Time filter keeps only the later event.
	later, err := repo.GetEvents(clk.Now(), nil)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, EventActionApplied, later[0].Type)

	// Type filter.
	only, err := repo.GetEvents(time.Time{}, []EventType{EventExtractionStarted})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, EventExtractionStarted, only[0].Type)

	require.NoError(t, repo.Clear())
	all, err = repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalculateStats(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 12, 5, 10, 0, 0, 0, time.UTC))
	repo := NewMemoryRepository(clk)

	record := func(et EventType, md EventMetadata) {
		require.NoError(t, repo.RecordEvent(et, md))
	}

	record(EventExtractionStarted, nil)
	record(EventExtractionSucceeded, EventMetadata{"duration_ms": 120.0})
	record(EventActionApplied, EventMetadata{"action": "create"})
	record(EventActionApplied, EventMetadata{"action": "create"})
	record(EventActionApplied, EventMetadata{"action": "delete_folder"})

	record(EventExtractionStarted, nil)
	record(EventExtractionFailed, EventMetadata{"error": "engine_unavailable"})

	record(EventExtractionStarted, nil)
	record(EventExtractionSucceeded, EventMetadata{"duration_ms": 80.0})
	record(EventActionFailed, EventMetadata{"action": "modify"})

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)

	stats, err := CalculateStats(events, clk.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Extractions)
	assert.InDelta(t, 2.0/3.0, stats.SuccessRate, 1e-9)
	assert.Equal(t, 2, stats.ActionsByType["create"])
	assert.Equal(t, 1, stats.ActionsByType["delete_folder"])
	assert.Equal(t, 1, stats.ActionFailures["modify"])
	assert.Equal(t, 1, stats.ExtractionErrors["engine_unavailable"])
	assert.InDelta(t, 100.0, stats.AvgDurationMillis, 1e-9)
}
