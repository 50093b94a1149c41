package utils

import "time"

// IsValidInterval reports whether interval names a ClickHouse toStartOfX function.
func IsValidInterval(interval string) bool {
	switch interval {
	case "Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year":
		return true
	default:
		return false
	}
}

// DefaultStatsWindow is used when a stats request omits its start time.
const DefaultStatsWindow = 7 * 24 * time.Hour

// ParseTimeRange parses optional RFC3339 bounds, defaulting to the last
// DefaultStatsWindow ending at now.
func ParseTimeRange(startParam, endParam string, now time.Time) (start, end time.Time, err error) {
	end = now.UTC()
	if endParam != "" {
		if end, err = time.Parse(time.RFC3339, endParam); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	start = end.Add(-DefaultStatsWindow)
	if startParam != "" {
		if start, err = time.Parse(time.RFC3339, startParam); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}
