package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidInterval(t *testing.T) {
	for _, ok := range []string{"Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year"} {
		assert.True(t, IsValidInterval(ok), ok)
	}
	for _, bad := range []string{"", "day", "Second", "Day; DROP TABLE x"} {
		assert.False(t, IsValidInterval(bad), bad)
	}
}

func TestParseTimeRange(t *testing.T) {
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	start, end, err := ParseTimeRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, now, end)
	assert.Equal(t, now.Add(-DefaultStatsWindow), start)

	start, end, err = ParseTimeRange("2025-06-01T00:00:00Z", "2025-06-02T00:00:00Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), end)

	_, _, err = ParseTimeRange("yesterday", "", now)
	assert.Error(t, err)
	_, _, err = ParseTimeRange("", "tomorrow", now)
	assert.Error(t, err)
}
