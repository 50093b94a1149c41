package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pagetrail/api/database"
	"pagetrail/api/models"
)

// EventStore appends telemetry rows to the ClickHouse analytics_events table.
type EventStore struct {
	DB     *database.ClickHouseClient
	logger *zap.Logger
}

func NewEventStore(chClient *database.ClickHouseClient, logger *zap.Logger) *EventStore {
	return &EventStore{DB: chClient, logger: logger}
}

func (s *EventStore) InsertEvents(ctx context.Context, events []models.AnalyticsEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.DB.Conn.PrepareBatch(ctx, `
		INSERT INTO analytics_events (
			event_id, event_type, visitor_id, session_id, timestamp, page_path, referrer,
			user_agent, ip_address, duration_ms, scroll_depth, event_data
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	appended := 0
	for _, event := range events {
		err := batch.Append(
			event.EventID,
			event.EventType,
			event.VisitorID,
			event.SessionID,
			event.Timestamp,
			event.PagePath,
			event.Referrer,
			event.UserAgent,
			event.IPAddress,
			event.DurationMs,
			event.ScrollDepth,
			string(event.EventData),
		)
		if err != nil {
			s.logger.Warn("dropping event from batch", zap.String("event_id", event.EventID), zap.Error(err))
			continue
		}
		appended++
	}
	if appended == 0 {
		_ = batch.Abort()
		return fmt.Errorf("no events could be appended to the batch")
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	s.logger.Debug("inserted analytics events", zap.Int("count", appended))
	return nil
}
