package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagetrail/api/metrics"
	"pagetrail/api/models"
	"pagetrail/api/store"
)

const storeTimeout = 10 * time.Second

type VisitorStore interface {
	GetOrCreateVisitor(ctx context.Context, req models.VisitorRequest) (string, error)
	OpenPageView(ctx context.Context, req models.PageViewRequest) (string, error)
	ClosePageView(ctx context.Context, id string, upd models.PageViewUpdate) (*models.ClosedPageView, error)
	UpsertPreference(ctx context.Context, req models.PreferenceRequest) error
}

type EventStore interface {
	InsertEvents(ctx context.Context, events []models.AnalyticsEvent) error
}

// TrackHandlers serve the calls issued by tracking clients.
type TrackHandlers struct {
	Visitors VisitorStore
	Events   EventStore
	Metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewTrackHandlers(visitors VisitorStore, events EventStore, m *metrics.Metrics, logger *zap.Logger) *TrackHandlers {
	return &TrackHandlers{Visitors: visitors, Events: events, Metrics: m, logger: logger, now: time.Now}
}

func (h *TrackHandlers) RegisterVisitor(c *gin.Context) {
	var req models.VisitorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.IPAddress == nil || *req.IPAddress == "" {
		ip := c.ClientIP()
		req.IPAddress = &ip
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	sessionID, err := h.Visitors.GetOrCreateVisitor(ctx, req)
	if err != nil {
		h.fail("get_or_create_visitor", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register visitor"})
		return
	}

	h.Metrics.EventsIngested.WithLabelValues("session").Inc()
	c.JSON(http.StatusOK, models.VisitorResponse{SessionID: sessionID})
}

func (h *TrackHandlers) OpenPageView(c *gin.Context) {
	var req models.PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	id, err := h.Visitors.OpenPageView(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrUnknownVisitor) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown visitor"})
			return
		}
		h.fail("track_page_view", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}

	c.JSON(http.StatusCreated, models.PageViewResponse{PageViewID: id})
}

// ClosePageView applies the exit-time update and appends the finished view
// to the event table. The event append is best-effort.
func (h *TrackHandlers) ClosePageView(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page view not found"})
		return
	}

	var upd models.PageViewUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	closed, err := h.Visitors.ClosePageView(ctx, id, upd)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Page view not found"})
		return
	case errors.Is(err, store.ErrPageViewClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "Page view already closed"})
		return
	case err != nil:
		h.fail("update_page_view", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update page view"})
		return
	}

	h.Metrics.ObservePageView(closed.Duration, closed.ScrollDepth)
	event := models.AnalyticsEvent{
		EventID:     uuid.NewString(),
		EventType:   models.EventPageView,
		VisitorID:   closed.VisitorID,
		SessionID:   closed.SessionID,
		Timestamp:   closed.OpenedAt,
		PagePath:    closed.Path,
		Referrer:    closed.Referrer,
		UserAgent:   closed.UserAgent,
		IPAddress:   closed.IPAddress,
		DurationMs:  int64(closed.Duration) * 1000,
		ScrollDepth: uint8(closed.ScrollDepth),
	}
	if err := h.Events.InsertEvents(ctx, []models.AnalyticsEvent{event}); err != nil {
		h.fail("page_view_event", err)
	} else {
		h.Metrics.EventsIngested.WithLabelValues(models.EventPageView).Inc()
	}

	c.Status(http.StatusNoContent)
}

func (h *TrackHandlers) TrackBehavior(c *gin.Context) {
	var req models.BehaviorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	data, err := json.Marshal(behaviorData{
		ElementType: req.ElementType,
		ElementID:   deref(req.ElementID),
		ElementText: deref(req.ElementText),
		Metadata:    req.Metadata,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid behavior metadata"})
		return
	}

	h.insert(c, models.AnalyticsEvent{
		EventType: req.BehaviorType,
		VisitorID: req.VisitorID,
		PagePath:  req.PagePath,
		EventData: data,
	})
}

func (h *TrackHandlers) TrackSearch(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	data, err := json.Marshal(searchData{Query: req.Query, Filters: req.Filters, ResultsCount: req.ResultsCount})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid search filters"})
		return
	}

	h.insert(c, models.AnalyticsEvent{
		EventType: models.EventSearch,
		VisitorID: req.VisitorID,
		EventData: data,
	})
}

func (h *TrackHandlers) UpsertPreference(c *gin.Context) {
	var req models.PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	err := h.Visitors.UpsertPreference(ctx, req)
	switch {
	case errors.Is(err, store.ErrUnknownVisitor):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown visitor"})
		return
	case errors.Is(err, store.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preference value"})
		return
	case err != nil:
		h.fail("upsert_preference", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preference"})
		return
	}
	c.Status(http.StatusNoContent)
}

// insert fills the request-derived columns of event and appends it.
func (h *TrackHandlers) insert(c *gin.Context, event models.AnalyticsEvent) {
	event.EventID = uuid.NewString()
	event.Timestamp = h.now().UTC()
	event.IPAddress = c.ClientIP()
	event.UserAgent = c.Request.UserAgent()
	event.Referrer = c.Request.Referer()

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if err := h.Events.InsertEvents(ctx, []models.AnalyticsEvent{event}); err != nil {
		h.fail("track_"+event.EventType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}
	h.Metrics.EventsIngested.WithLabelValues(event.EventType).Inc()
	c.Status(http.StatusAccepted)
}

func (h *TrackHandlers) fail(operation string, err error) {
	h.Metrics.IngestErrors.WithLabelValues(operation).Inc()
	h.logger.Error("tracking write failed", zap.String("operation", operation), zap.Error(err))
}

type behaviorData struct {
	ElementType string         `json:"element_type"`
	ElementID   string         `json:"element_id,omitempty"`
	ElementText string         `json:"element_text,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type searchData struct {
	Query        string         `json:"query"`
	Filters      map[string]any `json:"filters,omitempty"`
	ResultsCount int            `json:"results_count"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
