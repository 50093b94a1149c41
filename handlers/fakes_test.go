package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"pagetrail/api/models"
	"pagetrail/api/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func doJSON(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type fakeVisitorStore struct {
	mu          sync.Mutex
	visitors    []models.VisitorRequest
	views       map[string]models.PageViewRequest
	closed      map[string]bool
	preferences []models.PreferenceRequest
	err         error
}

func newFakeVisitorStore() *fakeVisitorStore {
	return &fakeVisitorStore{views: map[string]models.PageViewRequest{}, closed: map[string]bool{}}
}

func (f *fakeVisitorStore) GetOrCreateVisitor(_ context.Context, req models.VisitorRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.visitors = append(f.visitors, req)
	return "7d7c9b0c-6c55-4b55-9c43-2b0f5c8c0a01", nil
}

func (f *fakeVisitorStore) OpenPageView(_ context.Context, req models.PageViewRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	id := "0b5a4e1e-9a4c-4c3e-8e0c-5d1f7a2b3c4d"
	f.views[id] = req
	return id, nil
}

func (f *fakeVisitorStore) ClosePageView(_ context.Context, id string, upd models.PageViewUpdate) (*models.ClosedPageView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	view, ok := f.views[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if f.closed[id] {
		return nil, store.ErrPageViewClosed
	}
	f.closed[id] = true
	return &models.ClosedPageView{
		PageViewID:  id,
		VisitorID:   view.VisitorID,
		SessionID:   "7d7c9b0c-6c55-4b55-9c43-2b0f5c8c0a01",
		Path:        view.Path,
		OpenedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    upd.Duration,
		ScrollDepth: upd.ScrollDepth,
	}, nil
}

func (f *fakeVisitorStore) UpsertPreference(_ context.Context, req models.PreferenceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.preferences = append(f.preferences, req)
	return nil
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []models.AnalyticsEvent
	err    error
}

func (f *fakeEventStore) InsertEvents(_ context.Context, events []models.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEventStore) all() []models.AnalyticsEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AnalyticsEvent(nil), f.events...)
}

type fakeStatsStore struct {
	lastInterval string
	lastStart    time.Time
	lastEnd      time.Time
	lastPath     string
	lastLimit    uint64
	err          error
}

func (f *fakeStatsStore) GetEventCountsOverTime(_ context.Context, interval string, start, end time.Time, eventType string) ([]models.CountByTime, error) {
	f.lastInterval, f.lastStart, f.lastEnd = interval, start, end
	if f.err != nil {
		return nil, f.err
	}
	row := models.CountByTime{Time: start, Count: 4}
	if eventType != "" {
		row.EventType = &eventType
	}
	return []models.CountByTime{row}, nil
}

func (f *fakeStatsStore) GetAveragePageDuration(_ context.Context, path string, start, end time.Time) (float64, error) {
	f.lastPath, f.lastStart, f.lastEnd = path, start, end
	return 1500, f.err
}

func (f *fakeStatsStore) GetAverageScrollDepth(_ context.Context, path string, start, end time.Time) (float64, error) {
	f.lastPath, f.lastStart, f.lastEnd = path, start, end
	return 62.5, f.err
}

func (f *fakeStatsStore) GetAverageEventParameter(_ context.Context, _, _ string, start, end time.Time) (float64, error) {
	f.lastStart, f.lastEnd = start, end
	return 3, f.err
}

func (f *fakeStatsStore) GetUniqueVisitorsOverTime(_ context.Context, interval string, start, end time.Time) ([]models.CountByTime, error) {
	f.lastInterval, f.lastStart, f.lastEnd = interval, start, end
	return nil, f.err
}

func (f *fakeStatsStore) GetTopPagePaths(_ context.Context, start, end time.Time, limit uint64) ([]models.TopPathResult, error) {
	f.lastStart, f.lastEnd, f.lastLimit = start, end, limit
	if f.err != nil {
		return nil, f.err
	}
	return []models.TopPathResult{{PagePath: "/portfolio", Count: 9}}, nil
}

func (f *fakeStatsStore) GetTopClicks(_ context.Context, start, end time.Time, limit uint64) ([]models.TopClickResult, error) {
	f.lastStart, f.lastEnd, f.lastLimit = start, end, limit
	return nil, f.err
}

type fakeUserStore struct {
	users map[string]*models.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email string, hashed []byte) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.users[email]; ok {
		return nil, store.ErrUserExists
	}
	u := &models.User{ID: len(f.users) + 1, Email: email, HashedPassword: hashed, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.users[email] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}
