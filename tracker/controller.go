// Package tracker records visitor sessions, page views and behavior
// telemetry for a routed client application.
//
// A Controller is built once per application session. The routing layer calls
// Start when a route mounts and Stop when it unmounts; input handlers forward
// scroll and click samples. Every remote call is fire-and-forget: failures are
// logged and never reach the caller.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pagetrail/api/models"
)

const maxElementText = 100

// ClickTarget describes the element that received a click.
type ClickTarget struct {
	TagName string
	ID      string
	Text    string
	X       float64
	Y       float64
}

type Options struct {
	Config   Config
	Emitter  Emitter
	IPLookup IPLookup
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type Controller struct {
	cfg        Config
	exclusions Exclusions
	remote     Remote
	emitter    Emitter
	registrar  *Registrar
	logger     *zap.Logger
	now        func() time.Time
	visitorID  string

	mu      sync.Mutex
	current *Route
	view    *pageView
}

func NewController(remote Remote, visitorID string, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = NewAsyncEmitter(remote, logger, DefaultMaxInFlight, DefaultSendTimeout)
	}
	return &Controller{
		cfg:        opts.Config,
		exclusions: NewExclusions(opts.Config.ExcludedPaths),
		remote:     remote,
		emitter:    emitter,
		registrar:  NewRegistrar(remote, opts.IPLookup, logger),
		logger:     logger,
		now:        now,
		visitorID:  visitorID,
	}
}

func (c *Controller) VisitorID() string { return c.visitorID }

func (c *Controller) Enabled() bool { return c.registrar.Enabled() }

func (c *Controller) Excluded(path string) bool { return c.exclusions.Excluded(path) }

// Init registers the visitor session unless the landing path is excluded.
// The returned error is informational: on failure tracking stays disabled.
func (c *Controller) Init(ctx context.Context, landingPath string, meta Metadata) error {
	if c.exclusions.Excluded(landingPath) {
		c.logger.Debug("skipping session registration on excluded path", zap.String("path", landingPath))
		return ErrExcludedPath
	}
	_, err := c.registrar.Register(ctx, c.visitorID, meta)
	return err
}

// Start makes route the mounted route. Any open view is closed first; a new
// view is opened when tracking is enabled and the path is not excluded.
func (c *Controller) Start(route Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
	r := route
	c.current = &r

	if !c.registrar.Enabled() || c.exclusions.Excluded(route.Path) {
		return
	}

	v := newPageView(route, c.now())
	c.view = v

	var referrer *string
	if route.Referrer != "" {
		ref := route.Referrer
		referrer = &ref
	}
	c.emitter.Emit(openPageView{view: v, req: models.PageViewRequest{
		VisitorID:   c.visitorID,
		Path:        route.Path,
		Title:       route.Title,
		Referrer:    referrer,
		QueryParams: route.Query,
	}})
}

// Stop unmounts route. It is a no-op when route is no longer the mounted one.
func (c *Controller) Stop(route Route) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.Key() != route.Key() {
		return
	}
	c.closeLocked()
	c.current = nil
}

func (c *Controller) closeLocked() {
	v := c.view
	if v == nil {
		return
	}
	c.view = nil

	elapsed := c.now().Sub(v.started)
	if elapsed < 0 {
		elapsed = 0
	}
	c.emitter.Emit(closePageView{view: v, upd: models.PageViewUpdate{
		Duration:    int(elapsed / time.Second),
		ScrollDepth: v.maxDepth,
	}})
}

// Scroll folds one scroll sample into the open view's running maximum.
func (c *Controller) Scroll(s ScrollSample) {
	if !c.cfg.TrackBehaviors || !c.cfg.TrackScroll {
		return
	}
	depth, ok := s.Depth()
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return
	}
	c.view.observe(depth)
}

// ScrollDepth is the running maximum of the open view, 0 without one.
func (c *Controller) ScrollDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return 0
	}
	return c.view.maxDepth
}

func (c *Controller) Click(t ClickTarget) {
	if !c.cfg.TrackBehaviors || !c.cfg.TrackClicks {
		return
	}
	path, ok := c.trackablePath()
	if !ok {
		return
	}

	req := models.BehaviorRequest{
		VisitorID:    c.visitorID,
		BehaviorType: models.EventClick,
		ElementType:  t.TagName,
		PagePath:     path,
		Metadata:     map[string]any{"x": t.X, "y": t.Y},
	}
	if t.ID != "" {
		id := t.ID
		req.ElementID = &id
	}
	if t.Text != "" {
		text := truncate(t.Text, maxElementText)
		req.ElementText = &text
	}
	c.emitter.Emit(behaviorEvent{req: req})
}

// TrackSearch records a search performed on the mounted route.
func (c *Controller) TrackSearch(query string, filters map[string]any, resultsCount int) {
	if !c.cfg.TrackBehaviors {
		return
	}
	if _, ok := c.trackablePath(); !ok {
		return
	}
	c.emitter.Emit(searchEvent{req: models.SearchRequest{
		VisitorID:    c.visitorID,
		Query:        query,
		Filters:      filters,
		ResultsCount: resultsCount,
	}})
}

// SetPreference upserts a visitor preference. It returns an error only when
// the value cannot be encoded; delivery failures are logged.
func (c *Controller) SetPreference(key string, value any) error {
	if !c.registrar.Enabled() {
		return ErrTrackingDisabled
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode preference %s: %w", key, err)
	}
	c.emitter.Emit(preferenceEvent{req: models.PreferenceRequest{
		VisitorID:       c.visitorID,
		PreferenceKey:   key,
		PreferenceValue: raw,
	}})
	return nil
}

// Shutdown closes the open view and, when the emitter supports it, waits for
// in-flight events.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closeLocked()
	c.current = nil
	c.mu.Unlock()

	if closer, ok := c.emitter.(interface{ Close(context.Context) error }); ok {
		return closer.Close(ctx)
	}
	return nil
}

// trackablePath is the mounted route's path when its page view is open.
// Behavior events never precede the Open of the route they belong to.
func (c *Controller) trackablePath() (string, bool) {
	if !c.registrar.Enabled() {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil || c.view == nil || c.view.route.Key() != c.current.Key() {
		return "", false
	}
	return c.current.Path, true
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
