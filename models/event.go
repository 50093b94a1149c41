package models

import (
	"encoding/json"
	"time"
)

// Event types stored in the analytics_events table.
const (
	EventPageView = "page_view"
	EventClick    = "click"
	EventSearch   = "search"
)

// AnalyticsEvent represents a single row of the analytics_events table.
type AnalyticsEvent struct {
	EventID     string          `json:"eventId"`
	EventType   string          `json:"eventType"`
	VisitorID   string          `json:"visitorId"`
	SessionID   string          `json:"sessionId"`
	Timestamp   time.Time       `json:"timestamp"`
	PagePath    string          `json:"pagePath"`
	Referrer    string          `json:"referrer"`
	UserAgent   string          `json:"userAgent"`
	IPAddress   string          `json:"ipAddress"`
	DurationMs  int64           `json:"durationMs"`
	ScrollDepth uint8           `json:"scrollDepth"`
	EventData   json.RawMessage `json:"eventData,omitempty"`
}

type TopPathResult struct {
	PagePath string `json:"pagePath"`
	Count    uint64 `json:"count"`
}

type TopClickResult struct {
	PagePath    string `json:"pagePath"`
	ElementType string `json:"elementType"`
	ElementID   string `json:"elementId"`
	Count       uint64 `json:"count"`
}

type CountByTime struct {
	Time      time.Time `json:"time"`
	EventType *string   `json:"eventType,omitempty"`
	Count     uint64    `json:"count"`
}
