package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pagetrail/api/models"
)

type pageViewUpdateCall struct {
	ID  string
	Upd models.PageViewUpdate
}

type fakeRemote struct {
	mu sync.Mutex

	visitorErr  error
	pageViewErr error
	behaviorErr error

	visitors    []models.VisitorRequest
	opened      []models.PageViewRequest
	updates     []pageViewUpdateCall
	behaviors   []models.BehaviorRequest
	searches    []models.SearchRequest
	preferences []models.PreferenceRequest
}

func (f *fakeRemote) GetOrCreateVisitor(_ context.Context, req models.VisitorRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visitors = append(f.visitors, req)
	if f.visitorErr != nil {
		return "", f.visitorErr
	}
	return "session-1", nil
}

func (f *fakeRemote) TrackPageView(_ context.Context, req models.PageViewRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, req)
	if f.pageViewErr != nil {
		return "", f.pageViewErr
	}
	return fmt.Sprintf("pv-%d", len(f.opened)), nil
}

func (f *fakeRemote) UpdatePageView(_ context.Context, id string, upd models.PageViewUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, pageViewUpdateCall{ID: id, Upd: upd})
	return nil
}

func (f *fakeRemote) TrackBehavior(_ context.Context, req models.BehaviorRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.behaviors = append(f.behaviors, req)
	return f.behaviorErr
}

func (f *fakeRemote) TrackSearch(_ context.Context, req models.SearchRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, req)
	return nil
}

func (f *fakeRemote) UpsertPreference(_ context.Context, req models.PreferenceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.preferences = append(f.preferences, req)
	return nil
}

func (f *fakeRemote) snapshot() fakeRemote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fakeRemote{
		visitors:    append([]models.VisitorRequest(nil), f.visitors...),
		opened:      append([]models.PageViewRequest(nil), f.opened...),
		updates:     append([]pageViewUpdateCall(nil), f.updates...),
		behaviors:   append([]models.BehaviorRequest(nil), f.behaviors...),
		searches:    append([]models.SearchRequest(nil), f.searches...),
		preferences: append([]models.PreferenceRequest(nil), f.preferences...),
	}
}

// inlineEmitter delivers synchronously so assertions need no waiting.
type inlineEmitter struct {
	remote Remote
	errs   []error
}

func (e *inlineEmitter) Emit(ev Event) {
	if err := ev.Deliver(context.Background(), e.remote); err != nil {
		e.errs = append(e.errs, err)
	}
}

type stubIP struct {
	ip  string
	err error
}

func (s stubIP) LookupIP(context.Context) (string, error) { return s.ip, s.err }

var errNetwork = errors.New("network unreachable")

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
