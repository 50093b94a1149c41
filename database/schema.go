package database

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		hashed_password BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS visitors (
		visitor_id TEXT PRIMARY KEY,
		ip_address TEXT,
		user_agent TEXT NOT NULL DEFAULT '',
		referrer TEXT NOT NULL DEFAULT '',
		visit_count INTEGER NOT NULL DEFAULT 1,
		first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS visitor_sessions (
		session_id UUID PRIMARY KEY,
		visitor_id TEXT NOT NULL REFERENCES visitors(visitor_id),
		ip_address TEXT,
		user_agent TEXT NOT NULL DEFAULT '',
		referrer TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visitor_sessions_visitor ON visitor_sessions (visitor_id, started_at DESC)`,
	`CREATE TABLE IF NOT EXISTS page_views (
		page_view_id UUID PRIMARY KEY,
		visitor_id TEXT NOT NULL REFERENCES visitors(visitor_id),
		path TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		referrer TEXT,
		query_params JSONB NOT NULL DEFAULT '{}'::jsonb,
		duration INTEGER,
		scroll_depth SMALLINT,
		opened_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		closed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_page_views_visitor ON page_views (visitor_id, opened_at DESC)`,
	`CREATE TABLE IF NOT EXISTS visitor_preferences (
		visitor_id TEXT NOT NULL REFERENCES visitors(visitor_id),
		preference_key TEXT NOT NULL,
		preference_value JSONB,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (visitor_id, preference_key)
	)`,
}

const clickhouseSchema = `
CREATE TABLE IF NOT EXISTS analytics_events (
	event_id String,
	event_type LowCardinality(String),
	visitor_id String,
	session_id String,
	timestamp DateTime64(3, 'UTC'),
	page_path String,
	referrer String,
	user_agent String,
	ip_address String,
	duration_ms Int64,
	scroll_depth UInt8,
	event_data String
) ENGINE = MergeTree
PARTITION BY toYYYYMM(timestamp)
ORDER BY (event_type, timestamp, visitor_id)`
