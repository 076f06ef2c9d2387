package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_cache (
	id             TEXT NOT NULL,
	view           TEXT NOT NULL,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'open',
	category       TEXT NOT NULL DEFAULT 'question',
	creator_id     TEXT NOT NULL DEFAULT '',
	creator_name   TEXT NOT NULL DEFAULT '',
	agent_id       TEXT,
	agent_name     TEXT,
	created_at     DATETIME NOT NULL,
	updated_at     DATETIME NOT NULL,
	fetched_at     DATETIME NOT NULL,
	PRIMARY KEY (id, view)
);

CREATE TABLE IF NOT EXISTS unread_tickets (
	view       TEXT NOT NULL,
	ticket_id  TEXT NOT NULL,
	marked_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (view, ticket_id)
);

CREATE INDEX IF NOT EXISTS idx_ticket_cache_view ON ticket_cache(view);
CREATE INDEX IF NOT EXISTS idx_ticket_cache_updated ON ticket_cache(updated_at);
CREATE INDEX IF NOT EXISTS idx_unread_tickets_view ON unread_tickets(view);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
