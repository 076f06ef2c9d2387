package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/ticket-desk/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// UpsertTickets inserts or replaces a batch of cached ticket summaries
// for a view.
func (s *SQLiteStore) UpsertTickets(
	ctx context.Context,
	view string,
	tickets []model.Ticket,
) error {
	if len(tickets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT OR REPLACE INTO ticket_cache (
			id, view, title, description, status, category,
			creator_id, creator_name, agent_id, agent_name,
			created_at, updated_at, fetched_at
		) VALUES (
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, t := range tickets {
		var agentID, agentName *string
		if t.AssignedAgent != nil {
			agentID = &t.AssignedAgent.ID
			agentName = &t.AssignedAgent.Name
		}

		_, err = stmt.ExecContext(ctx,
			t.ID, view, t.Title, t.Description, string(t.Status), string(t.Category),
			t.Creator.ID, t.Creator.Name, agentID, agentName,
			t.CreatedAt.UTC(), t.UpdatedAt.UTC(), now,
		)
		if err != nil {
			return fmt.Errorf("upserting ticket %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// GetCachedTickets retrieves the cached summaries for a view, most
// recently updated first.
func (s *SQLiteStore) GetCachedTickets(
	ctx context.Context,
	view string,
) ([]model.Ticket, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM ticket_cache WHERE view = ? ORDER BY updated_at DESC",
		view,
	)
	if err != nil {
		return nil, fmt.Errorf("querying ticket cache: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// DeleteCachedTicket removes a ticket from the cache across all views.
func (s *SQLiteStore) DeleteCachedTicket(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM ticket_cache WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting cached ticket %s: %w", id, err)
	}
	return nil
}

// GetUnreadTicketIDs retrieves the persisted unseen-activity set for a view.
func (s *SQLiteStore) GetUnreadTicketIDs(
	ctx context.Context,
	view string,
) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT ticket_id FROM unread_tickets WHERE view = ? ORDER BY ticket_id",
		view,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread tickets for view %s: %w", view, err)
	}
	return ids, nil
}

// ReplaceUnreadTicketIDs atomically replaces the unseen-activity set
// for a view.
func (s *SQLiteStore) ReplaceUnreadTicketIDs(
	ctx context.Context,
	view string,
	ids []string,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM unread_tickets WHERE view = ?", view,
	); err != nil {
		return fmt.Errorf("clearing unread tickets for view %s: %w", view, err)
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO unread_tickets (view, ticket_id) VALUES (?, ?)",
			view, id,
		); err != nil {
			return fmt.Errorf("inserting unread ticket %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// MarkTicketSeen removes one ticket from a view's unseen-activity set.
func (s *SQLiteStore) MarkTicketSeen(
	ctx context.Context,
	view string,
	ticketID string,
) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM unread_tickets WHERE view = ? AND ticket_id = ?",
		view, ticketID,
	)
	if err != nil {
		return fmt.Errorf("marking ticket %s seen in view %s: %w", ticketID, view, err)
	}
	return nil
}

// scanTicket scans a ticket row from a sqlx.Rows result set.
func scanTicket(rows *sqlx.Rows) (model.Ticket, error) {
	var (
		t         model.Ticket
		view      string
		status    string
		category  string
		agentID   *string
		agentName *string
		createdAt time.Time
		updatedAt time.Time
		fetchedAt time.Time
	)

	err := rows.Scan(
		&t.ID, &view, &t.Title, &t.Description, &status, &category,
		&t.Creator.ID, &t.Creator.Name, &agentID, &agentName,
		&createdAt, &updatedAt, &fetchedAt,
	)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("scanning ticket row: %w", err)
	}

	t.Status = model.TicketStatus(status)
	t.Category = model.TicketCategory(category)
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	if agentID != nil {
		name := ""
		if agentName != nil {
			name = *agentName
		}
		t.AssignedAgent = &model.UserRef{ID: *agentID, Name: name}
	}

	return t, nil
}
