package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pagetrail/api/models"
	"pagetrail/api/store"
	"pagetrail/api/utils"
)

type StatsStore interface {
	GetEventCountsOverTime(ctx context.Context, interval string, start, end time.Time, eventType string) ([]models.CountByTime, error)
	GetAveragePageDuration(ctx context.Context, path string, start, end time.Time) (float64, error)
	GetAverageScrollDepth(ctx context.Context, path string, start, end time.Time) (float64, error)
	GetAverageEventParameter(ctx context.Context, eventType, paramName string, start, end time.Time) (float64, error)
	GetUniqueVisitorsOverTime(ctx context.Context, interval string, start, end time.Time) ([]models.CountByTime, error)
	GetTopPagePaths(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error)
	GetTopClicks(ctx context.Context, start, end time.Time, limit uint64) ([]models.TopClickResult, error)
}

// StatsHandlers serve the dashboard's aggregate queries.
type StatsHandlers struct {
	Stats  StatsStore
	logger *zap.Logger
	now    func() time.Time
}

func NewStatsHandlers(s StatsStore, logger *zap.Logger) *StatsHandlers {
	return &StatsHandlers{Stats: s, logger: logger, now: time.Now}
}

// timeRange parses start/end and writes a 400 when either is malformed.
func (h *StatsHandlers) timeRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, end, err := utils.ParseTimeRange(c.Query("start"), c.Query("end"), h.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'start' or 'end' timestamp format. Use RFC3339 (e.g., 2006-01-02T15:04:05Z)"})
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'end' must not be before 'start'"})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func (h *StatsHandlers) interval(c *gin.Context) (string, bool) {
	interval := c.Query("interval")
	if !utils.IsValidInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "interval query parameter is required (Minute, Hour, Day, Week, Month, Quarter, Year)"})
		return "", false
	}
	return interval, true
}

func (h *StatsHandlers) limit(c *gin.Context) (uint64, bool) {
	limitParam := c.Query("limit")
	if limitParam == "" {
		return 10, true
	}
	limit, err := strconv.ParseUint(limitParam, 10, 64)
	if err != nil || limit == 0 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be an integer between 1 and 1000."})
		return 0, false
	}
	return limit, true
}

func (h *StatsHandlers) queryFailed(c *gin.Context, what string, err error) {
	if errors.Is(err, store.ErrInvalidInput) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error("stats query failed", zap.String("query", what), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve " + what + " statistics"})
}

func (h *StatsHandlers) GetEventCountsOverTime(c *gin.Context) {
	interval, ok := h.interval(c)
	if !ok {
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	results, err := h.Stats.GetEventCountsOverTime(ctx, interval, start, end, c.Query("eventType"))
	if err != nil {
		h.queryFailed(c, "event count", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetAverageDuration(c *gin.Context) {
	h.average(c, "durationMs", "average duration", h.Stats.GetAveragePageDuration)
}

func (h *StatsHandlers) GetAverageScrollDepth(c *gin.Context) {
	h.average(c, "scrollDepth", "average scroll depth", h.Stats.GetAverageScrollDepth)
}

func (h *StatsHandlers) average(c *gin.Context, field, what string, query func(context.Context, string, time.Time, time.Time) (float64, error)) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	path := c.Query("path")

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	avg, err := query(ctx, path, start, end)
	if err != nil {
		h.queryFailed(c, what, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"path":      path,
		"startDate": start.Format(time.RFC3339),
		"endDate":   end.Format(time.RFC3339),
		field:       avg,
	})
}

func (h *StatsHandlers) GetAverageEventParameter(c *gin.Context) {
	eventType := c.Query("eventType")
	paramName := c.Query("paramName")
	if eventType == "" || paramName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType and paramName query parameters are required"})
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	avg, err := h.Stats.GetAverageEventParameter(ctx, eventType, paramName, start, end)
	if err != nil {
		h.queryFailed(c, "event parameter", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"eventType":    eventType,
		"paramName":    paramName,
		"startDate":    start.Format(time.RFC3339),
		"endDate":      end.Format(time.RFC3339),
		"averageValue": avg,
	})
}

func (h *StatsHandlers) GetUniqueVisitorsOverTime(c *gin.Context) {
	interval, ok := h.interval(c)
	if !ok {
		return
	}
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	results, err := h.Stats.GetUniqueVisitorsOverTime(ctx, interval, start, end)
	if err != nil {
		h.queryFailed(c, "unique visitor", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetTopPagePaths(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	limit, ok := h.limit(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	results, err := h.Stats.GetTopPagePaths(ctx, start, end, limit)
	if err != nil {
		h.queryFailed(c, "top page path", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *StatsHandlers) GetTopClicks(c *gin.Context) {
	start, end, ok := h.timeRange(c)
	if !ok {
		return
	}
	limit, ok := h.limit(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	results, err := h.Stats.GetTopClicks(ctx, start, end, limit)
	if err != nil {
		h.queryFailed(c, "top click", err)
		return
	}
	c.JSON(http.StatusOK, results)
}
