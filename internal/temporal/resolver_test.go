package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Friday, December 5th 2025, 10:00 local.
var ref = time.Date(2025, 12, 5, 10, 0, 0, 0, time.Local)

func TestResolveDate_Literals(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
	}{
		{"today", "2025-12-05"},
		{"Tomorrow", "2025-12-06"},
		{"yesterday", "2025-12-04"},
		{"this weekend", "2025-12-06"},
		{"next weekend", "2025-12-13"},
		{"end of week", "2025-12-05"},
		{"end of month", "2025-12-31"},
		{"beginning of week", "2025-12-08"},
		{"beginning of month", "2026-01-01"},
		{"in 3 days", "2025-12-08"},
		{"in 2 weeks", "2025-12-19"},
		{"2025-12-10", "2025-12-10"},
		{"Jan 2, 2026", "2026-01-02"},
	}
	for _, tc := range tests {
		t.Run(tc.phrase, func(t *testing.T) {
			got, ok := ResolveDate(tc.phrase, ref)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveDate_Weekdays(t *testing.T) {
	// ref is a Friday. "next friday" must skip a whole week; "this friday"
	// may match the same day.
	got, ok := ResolveDate("next friday", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-12", got)

	got, ok = ResolveDate("this friday", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-05", got)

	got, ok = ResolveDate("next monday", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-08", got)

	got, ok = ResolveDate("tuesday", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-09", got)
}

func TestResolveDate_Unrecognized(t *testing.T) {
	for _, phrase := range []string{"", "whenever", "next blursday", "in some days"} {
		_, ok := ResolveDate(phrase, ref)
		assert.False(t, ok, "phrase %q", phrase)
	}
}

func TestResolveTime(t *testing.T) {
	tests := []struct {
		phrase string
		want   string
	}{
		{"3pm", "15:00"},
		{"3:30pm", "15:30"},
		{"12am", "00:00"},
		{"12pm", "12:00"},
		{"9 am", "09:00"},
		{"7", "07:00"},
		{"14:30", "14:30"},
		{"noon", "12:00"},
		{"midnight", "00:00"},
		{"morning", "09:00"},
		{"afternoon", "14:00"},
		{"evening", "18:00"},
		{"night", "20:00"},
	}
	for _, tc := range tests {
		t.Run(tc.phrase, func(t *testing.T) {
			got, ok := ResolveTime(tc.phrase)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveTime_OutOfRangeIsNotClamped(t *testing.T) {
	for _, phrase := range []string{"25:00", "13pm", "0pm", "12:99", "99", ""} {
		_, ok := ResolveTime(phrase)
		assert.False(t, ok, "phrase %q", phrase)
	}
}

func TestResolveRelative_Durations(t *testing.T) {
	// Exact offsets, never rounded to a clock boundary.
	at := time.Date(2025, 12, 5, 14, 7, 0, 0, time.Local)

	res, ok := ResolveRelative("in 10 minutes", at)
	require.True(t, ok)
	assert.Equal(t, "2025-12-05", res.Date)
	assert.Equal(t, "14:17", res.Time)

	res, ok = ResolveRelative("in 2 hours", at)
	require.True(t, ok)
	assert.Equal(t, "2025-12-05", res.Date)
	assert.Equal(t, "16:07", res.Time)
}

func TestResolveRelative_CrossesMidnight(t *testing.T) {
	late := time.Date(2025, 12, 5, 23, 50, 0, 0, time.Local)
	res, ok := ResolveRelative("in 30 minutes", late)
	require.True(t, ok)
	assert.Equal(t, "2025-12-06", res.Date)
	assert.Equal(t, "00:20", res.Time)
}

func TestResolveRelative_Compounds(t *testing.T) {
	res, ok := ResolveRelative("friday afternoon", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-05", res.Date)
	assert.Equal(t, "14:00", res.Time)

	res, ok = ResolveRelative("tomorrow morning", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-06", res.Date)
	assert.Equal(t, "09:00", res.Time)

	res, ok = ResolveRelative("next monday evening", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-08", res.Date)
	assert.Equal(t, "18:00", res.Time)
}

func TestResolveRelative_SingleHalf(t *testing.T) {
	res, ok := ResolveRelative("tomorrow", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-12-06", res.Date)
	assert.Empty(t, res.Time)

	res, ok = ResolveRelative("3pm", ref)
	require.True(t, ok)
	assert.Empty(t, res.Date)
	assert.Equal(t, "15:00", res.Time)

	_, ok = ResolveRelative("gibberish", ref)
	assert.False(t, ok)
}

func TestNextBusinessDay(t *testing.T) {
	friday := time.Date(2025, 12, 5, 10, 0, 0, 0, time.Local)
	saturday := friday.AddDate(0, 0, 1)
	sunday := friday.AddDate(0, 0, 2)
	monday := friday.AddDate(0, 0, 3)

	// From Friday, Saturday and Sunday the answer is the same Monday.
	assert.Equal(t, "2025-12-08", NextBusinessDay(friday).Format(DateLayout))
	assert.Equal(t, "2025-12-08", NextBusinessDay(saturday).Format(DateLayout))
	assert.Equal(t, "2025-12-08", NextBusinessDay(sunday).Format(DateLayout))
	assert.Equal(t, "2025-12-09", NextBusinessDay(monday).Format(DateLayout))
}
