package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pagetrail/api/models"
)

// VisitorStore keeps the mutable tracking rows: visitors, their sessions,
// page views and preferences.
type VisitorStore struct {
	db *sql.DB
}

func NewVisitorStore(db *sql.DB) *VisitorStore {
	return &VisitorStore{db: db}
}

// GetOrCreateVisitor upserts the visitor and opens a new session for it.
func (s *VisitorStore) GetOrCreateVisitor(ctx context.Context, req models.VisitorRequest) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin visitor transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO visitors (visitor_id, ip_address, user_agent, referrer)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (visitor_id) DO UPDATE SET
			ip_address = COALESCE(EXCLUDED.ip_address, visitors.ip_address),
			user_agent = EXCLUDED.user_agent,
			visit_count = visitors.visit_count + 1,
			last_seen = now();
	`, req.VisitorID, req.IPAddress, req.UserAgent, req.Referrer)
	if err != nil {
		return "", fmt.Errorf("failed to upsert visitor %s: %w", req.VisitorID, err)
	}

	sessionID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO visitor_sessions (session_id, visitor_id, ip_address, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5);
	`, sessionID, req.VisitorID, req.IPAddress, req.UserAgent, req.Referrer)
	if err != nil {
		return "", fmt.Errorf("failed to create session for visitor %s: %w", req.VisitorID, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit visitor %s: %w", req.VisitorID, err)
	}
	return sessionID, nil
}

func (s *VisitorStore) OpenPageView(ctx context.Context, req models.PageViewRequest) (string, error) {
	params := req.QueryParams
	if params == nil {
		params = map[string]string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode query params: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO page_views (page_view_id, visitor_id, path, title, referrer, query_params)
		VALUES ($1, $2, $3, $4, $5, $6);
	`, id, req.VisitorID, req.Path, req.Title, req.Referrer, paramsJSON)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return "", fmt.Errorf("page view for %s: %w", req.VisitorID, ErrUnknownVisitor)
		}
		return "", fmt.Errorf("failed to insert page view: %w", err)
	}
	return id, nil
}

// ClosePageView applies the single exit-time update. A view that was already
// closed yields ErrPageViewClosed.
func (s *VisitorStore) ClosePageView(ctx context.Context, id string, upd models.PageViewUpdate) (*models.ClosedPageView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("page view %q: %w", id, ErrNotFound)
	}

	closed := &models.ClosedPageView{PageViewID: id, Duration: upd.Duration, ScrollDepth: upd.ScrollDepth}
	err := s.db.QueryRowContext(ctx, `
		WITH closed AS (
			UPDATE page_views
			SET duration = $2, scroll_depth = $3, closed_at = now()
			WHERE page_view_id = $1 AND closed_at IS NULL
			RETURNING visitor_id, path, referrer, opened_at
		)
		SELECT c.visitor_id, c.path, COALESCE(c.referrer, ''), c.opened_at,
			COALESCE(s.session_id::text, ''), COALESCE(s.ip_address, ''), COALESCE(s.user_agent, '')
		FROM closed c
		LEFT JOIN LATERAL (
			SELECT session_id, ip_address, user_agent
			FROM visitor_sessions
			WHERE visitor_id = c.visitor_id
			ORDER BY started_at DESC
			LIMIT 1
		) s ON true;
	`, id, upd.Duration, upd.ScrollDepth).Scan(
		&closed.VisitorID,
		&closed.Path,
		&closed.Referrer,
		&closed.OpenedAt,
		&closed.SessionID,
		&closed.IPAddress,
		&closed.UserAgent,
	)
	if err == nil {
		return closed, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to close page view %s: %w", id, err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM page_views WHERE page_view_id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up page view %s: %w", id, err)
	}
	if exists {
		return nil, fmt.Errorf("page view %s: %w", id, ErrPageViewClosed)
	}
	return nil, fmt.Errorf("page view %s: %w", id, ErrNotFound)
}

func (s *VisitorStore) UpsertPreference(ctx context.Context, req models.PreferenceRequest) error {
	value := []byte(req.PreferenceValue)
	if len(value) == 0 {
		value = []byte("null")
	}
	if !json.Valid(value) {
		return fmt.Errorf("preference %s: %w", req.PreferenceKey, ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visitor_preferences (visitor_id, preference_key, preference_value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (visitor_id, preference_key) DO UPDATE SET
			preference_value = EXCLUDED.preference_value,
			updated_at = EXCLUDED.updated_at;
	`, req.VisitorID, req.PreferenceKey, value)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("preference for %s: %w", req.VisitorID, ErrUnknownVisitor)
		}
		return fmt.Errorf("failed to upsert preference %s: %w", req.PreferenceKey, err)
	}
	return nil
}
