package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))

	// Registering twice on the same registry fails.
	assert.Error(t, m.Register(reg))
}

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.EventsIngested.WithLabelValues("click").Inc()
	m.EventsIngested.WithLabelValues("click").Inc()
	m.IngestErrors.WithLabelValues("track_page_view").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsIngested.WithLabelValues("click")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestErrors.WithLabelValues("track_page_view")))
}

func TestMetrics_ObservePageView(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))

	m.ObservePageView(42, 75)
	m.ObservePageView(3, 10)

	assert.Equal(t, 1, testutil.CollectAndCount(m.PageViewDuration))
	count, err := testutil.GatherAndCount(reg, "pagetrail_page_view_scroll_depth_percent")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
