package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"pagetrail/api/database"
	"pagetrail/api/models"
	"pagetrail/api/utils"
)

// StatsStore runs aggregate queries over analytics_events.
type StatsStore struct {
	DB *database.ClickHouseClient
}

func NewStatsStore(chClient *database.ClickHouseClient) *StatsStore {
	return &StatsStore{DB: chClient}
}

func (s *StatsStore) GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventTypeFilter string) ([]models.CountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("interval %q: %w", interval, ErrInvalidInput)
	}

	args := []any{start, end}
	selectCols := fmt.Sprintf("toStartOf%s(timestamp) AS time_bucket, count() AS total_events", interval)
	groupByCols := "time_bucket"
	whereClause := "WHERE timestamp >= ? AND timestamp <= ?"
	orderByCols := "time_bucket ASC"
	isFilteringByType := eventTypeFilter != ""

	if isFilteringByType {
		selectCols += ", event_type"
		groupByCols += ", event_type"
		whereClause += " AND event_type = ?"
		args = append(args, eventTypeFilter)
		orderByCols += ", event_type ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM analytics_events
		%s
		GROUP BY %s
		ORDER BY %s
	`, selectCols, whereClause, groupByCols, orderByCols)

	rows, err := s.DB.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query event counts over time: %w", err)
	}
	defer rows.Close()

	var results []models.CountByTime
	for rows.Next() {
		var (
			bucket    time.Time
			count     uint64
			eventType string
			result    models.CountByTime
		)
		if isFilteringByType {
			if err := rows.Scan(&bucket, &count, &eventType); err != nil {
				return nil, fmt.Errorf("failed to scan event counts row: %w", err)
			}
			result.EventType = &eventType
		} else if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("failed to scan event counts row: %w", err)
		}
		result.Time = bucket
		result.Count = count
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event counts over time query: %w", err)
	}
	return results, nil
}

// GetAveragePageDuration is the mean duration in milliseconds of closed page
// views, optionally restricted to one path.
func (s *StatsStore) GetAveragePageDuration(ctx context.Context, pathFilter string, start, end time.Time) (float64, error) {
	return s.averageOf(ctx, "duration_ms", pathFilter, start, end)
}

func (s *StatsStore) GetAverageScrollDepth(ctx context.Context, pathFilter string, start, end time.Time) (float64, error) {
	return s.averageOf(ctx, "scroll_depth", pathFilter, start, end)
}

// averageOf is only called with fixed column names.
func (s *StatsStore) averageOf(ctx context.Context, column, pathFilter string, start, end time.Time) (float64, error) {
	query := fmt.Sprintf(`SELECT avg(%s) FROM analytics_events WHERE event_type = ? AND timestamp >= ? AND timestamp <= ?`, column)
	args := []any{models.EventPageView, start, end}
	if pathFilter != "" {
		query += ` AND page_path = ?`
		args = append(args, pathFilter)
	}

	var avg float64
	if err := s.DB.Conn.QueryRow(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to query average %s: %w", column, err)
	}
	// avg() over zero rows is NaN, which JSON cannot encode.
	if math.IsNaN(avg) {
		return 0, nil
	}
	return avg, nil
}

// GetAverageEventParameter averages a numeric key of event_data.
func (s *StatsStore) GetAverageEventParameter(ctx context.Context, eventType, paramName string, start, end time.Time) (float64, error) {
	if paramName == "" {
		return 0, fmt.Errorf("parameter name: %w", ErrInvalidInput)
	}

	query := `
		SELECT avg(JSONExtractFloat(event_data, ?))
		FROM analytics_events
		WHERE event_type = ? AND timestamp >= ? AND timestamp <= ?
	`
	var avg float64
	if err := s.DB.Conn.QueryRow(ctx, query, paramName, eventType, start, end).Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to query average of event parameter %q: %w", paramName, err)
	}
	if math.IsNaN(avg) {
		return 0, nil
	}
	return avg, nil
}

func (s *StatsStore) GetUniqueVisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]models.CountByTime, error) {
	if !utils.IsValidInterval(interval) {
		return nil, fmt.Errorf("interval %q: %w", interval, ErrInvalidInput)
	}

	query := fmt.Sprintf(`
		SELECT toStartOf%s(timestamp) AS time_bucket, uniq(visitor_id) AS unique_visitors
		FROM analytics_events
		WHERE timestamp >= ? AND timestamp <= ?
		GROUP BY time_bucket
		ORDER BY time_bucket ASC
	`, interval)

	rows, err := s.DB.Conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query unique visitors over time: %w", err)
	}
	defer rows.Close()

	var results []models.CountByTime
	for rows.Next() {
		var result models.CountByTime
		if err := rows.Scan(&result.Time, &result.Count); err != nil {
			return nil, fmt.Errorf("failed to scan unique visitors row: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for unique visitors: %w", err)
	}
	return results, nil
}

func (s *StatsStore) GetTopPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	if limit == 0 {
		limit = 10
	}

	rows, err := s.DB.Conn.Query(ctx, `
		SELECT page_path, count() AS view_count
		FROM analytics_events
		WHERE event_type = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY page_path
		ORDER BY view_count DESC
		LIMIT ?
	`, models.EventPageView, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top page paths: %w", err)
	}
	defer rows.Close()

	var results []models.TopPathResult
	for rows.Next() {
		var r models.TopPathResult
		if err := rows.Scan(&r.PagePath, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top page paths row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top page paths: %w", err)
	}
	return results, nil
}

// GetTopClicks ranks clicked elements by (page, element type, element id).
func (s *StatsStore) GetTopClicks(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopClickResult, error) {
	if limit == 0 {
		limit = 10
	}

	rows, err := s.DB.Conn.Query(ctx, `
		SELECT page_path,
			JSONExtractString(event_data, 'element_type') AS element_type,
			JSONExtractString(event_data, 'element_id') AS element_id,
			count() AS clicks
		FROM analytics_events
		WHERE event_type = ? AND timestamp >= ? AND timestamp <= ?
		GROUP BY page_path, element_type, element_id
		ORDER BY clicks DESC
		LIMIT ?
	`, models.EventClick, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top clicks: %w", err)
	}
	defer rows.Close()

	var results []models.TopClickResult
	for rows.Next() {
		var r models.TopClickResult
		if err := rows.Scan(&r.PagePath, &r.ElementType, &r.ElementID, &r.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top clicks row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows for top clicks: %w", err)
	}
	return results, nil
}
