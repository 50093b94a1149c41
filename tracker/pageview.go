package tracker

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sync"
	"time"

	"pagetrail/api/models"
)

// Route is one navigation target as seen by the routing layer.
type Route struct {
	Path     string
	Query    map[string]string
	Title    string
	Referrer string
}

// RouteFromURL parses a request URI such as "/projects?tab=2". Only the first
// value of a repeated query key is kept.
func RouteFromURL(rawURL, title, referrer string) (Route, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Route{}, fmt.Errorf("invalid route %q: %w", rawURL, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	var query map[string]string
	if values := u.Query(); len(values) > 0 {
		query = make(map[string]string, len(values))
		for k, v := range values {
			query[k] = v[0]
		}
	}
	return Route{Path: path, Query: query, Title: title, Referrer: referrer}, nil
}

// Key identifies a navigation: same path with a different query is a
// different key.
func (r Route) Key() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	values := make(url.Values, len(r.Query))
	for k, v := range r.Query {
		values.Set(k, v)
	}
	return r.Path + "?" + values.Encode()
}

// ScrollSample is the document geometry at one scroll event.
type ScrollSample struct {
	ScrollTop      float64
	ViewportHeight float64
	DocumentHeight float64
}

// Depth is the percentage of the document seen so far, 0..100.
func (s ScrollSample) Depth() (int, bool) {
	if s.DocumentHeight <= 0 {
		return 0, false
	}
	d := int(math.Round((s.ScrollTop + s.ViewportHeight) / s.DocumentHeight * 100))
	return min(max(d, 0), 100), true
}

// pageView is the single open view of a mounted route. The id is written
// once by the open delivery and published by closing opened.
type pageView struct {
	route    Route
	started  time.Time
	maxDepth int

	opened chan struct{}
	once   sync.Once
	id     string
}

func newPageView(route Route, started time.Time) *pageView {
	return &pageView{route: route, started: started, opened: make(chan struct{})}
}

func (v *pageView) resolve(id string) {
	v.once.Do(func() {
		v.id = id
		close(v.opened)
	})
}

// wait blocks until the open call finished and returns the view id, empty
// when the open failed or was dropped.
func (v *pageView) wait(ctx context.Context) (string, error) {
	select {
	case <-v.opened:
		return v.id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (v *pageView) observe(depth int) {
	if depth > v.maxDepth {
		v.maxDepth = depth
	}
}

type openPageView struct {
	view *pageView
	req  models.PageViewRequest
}

func (e openPageView) Name() string { return "track_page_view" }

func (e openPageView) Deliver(ctx context.Context, remote Remote) error {
	id, err := remote.TrackPageView(ctx, e.req)
	e.view.resolve(id)
	if err != nil {
		return fmt.Errorf("open page view %s: %w", e.req.Path, err)
	}
	return nil
}

func (e openPageView) Discard() { e.view.resolve("") }

type closePageView struct {
	view *pageView
	upd  models.PageViewUpdate
}

func (e closePageView) Name() string { return "update_page_view" }

func (e closePageView) Deliver(ctx context.Context, remote Remote) error {
	id, err := e.view.wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for page view %s to open: %w", e.view.route.Path, err)
	}
	if id == "" {
		return nil
	}
	if err := remote.UpdatePageView(ctx, id, e.upd); err != nil {
		return fmt.Errorf("update page view %s: %w", id, err)
	}
	return nil
}

type behaviorEvent struct{ req models.BehaviorRequest }

func (e behaviorEvent) Name() string { return "track_behavior" }

func (e behaviorEvent) Deliver(ctx context.Context, remote Remote) error {
	return remote.TrackBehavior(ctx, e.req)
}

type searchEvent struct{ req models.SearchRequest }

func (e searchEvent) Name() string { return "track_search" }

func (e searchEvent) Deliver(ctx context.Context, remote Remote) error {
	return remote.TrackSearch(ctx, e.req)
}

type preferenceEvent struct{ req models.PreferenceRequest }

func (e preferenceEvent) Name() string { return "upsert_preference" }

func (e preferenceEvent) Deliver(ctx context.Context, remote Remote) error {
	return remote.UpsertPreference(ctx, e.req)
}
