package models

import (
	"encoding/json"
	"time"
)

// VisitorRequest is the get_or_create_visitor call. A nil IPAddress means the
// client could not determine its public address.
type VisitorRequest struct {
	VisitorID string  `json:"visitor_id" binding:"required,max=64"`
	IPAddress *string `json:"ip_address"`
	UserAgent string  `json:"user_agent"`
	Referrer  string  `json:"referrer"`
}

type VisitorResponse struct {
	SessionID string `json:"session_id"`
}

type Visitor struct {
	VisitorID  string    `json:"visitor_id"`
	IPAddress  *string   `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent"`
	Referrer   string    `json:"referrer"`
	VisitCount int       `json:"visit_count"`
	FirstSeen  time.Time `json:"first_seen"`
	LastSeen   time.Time `json:"last_seen"`
}

// PageViewRequest is the track_page_view call issued when a route opens.
type PageViewRequest struct {
	VisitorID   string            `json:"visitor_id" binding:"required,max=64"`
	Path        string            `json:"path" binding:"required"`
	Title       string            `json:"title"`
	Referrer    *string           `json:"referrer"`
	QueryParams map[string]string `json:"query_params"`
}

type PageViewResponse struct {
	PageViewID string `json:"page_view_id"`
}

// PageViewUpdate carries the final duration and max scroll depth of a view.
type PageViewUpdate struct {
	Duration    int `json:"duration" binding:"min=0"`
	ScrollDepth int `json:"scroll_depth" binding:"min=0,max=100"`
}

// ClosedPageView is a page view row after its single update.
type ClosedPageView struct {
	PageViewID  string
	VisitorID   string
	SessionID   string
	Path        string
	Referrer    string
	UserAgent   string
	IPAddress   string
	OpenedAt    time.Time
	Duration    int
	ScrollDepth int
}

// BehaviorRequest is the track_behavior call, one per click.
type BehaviorRequest struct {
	VisitorID    string         `json:"visitor_id" binding:"required,max=64"`
	BehaviorType string         `json:"behavior_type" binding:"required"`
	ElementType  string         `json:"element_type"`
	ElementID    *string        `json:"element_id"`
	ElementText  *string        `json:"element_text"`
	PagePath     string         `json:"page_path"`
	Metadata     map[string]any `json:"metadata"`
}

type SearchRequest struct {
	VisitorID    string         `json:"visitor_id" binding:"required,max=64"`
	Query        string         `json:"query"`
	Filters      map[string]any `json:"filters"`
	ResultsCount int            `json:"results_count" binding:"min=0"`
}

// PreferenceRequest upserts one preference by (visitor_id, preference_key).
type PreferenceRequest struct {
	VisitorID       string          `json:"visitor_id" binding:"required,max=64"`
	PreferenceKey   string          `json:"preference_key" binding:"required,max=128"`
	PreferenceValue json.RawMessage `json:"preference_value"`
}
