package audit

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists audit events in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed audit store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureAuditSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Record stores a single audit event.
func (s *SQLiteStore) Record(ctx context.Context, event Event) error {
	payload, err := encodePayload(event.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pipeline_audit_events (
			request_id, user_id, query_type, agent_id, capability, status, payload_json, error_text, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.RequestID,
		event.UserID,
		event.QueryType,
		event.AgentID,
		event.Capability,
		event.Status,
		string(payload),
		event.Error,
		normalizeTime(event.StartedAt),
		normalizeTime(event.FinishedAt),
	)
	return err
}

// List returns audit events matching the filter.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT request_id, user_id, query_type, agent_id, capability, status, payload_json, error_text, started_at, finished_at
		FROM pipeline_audit_events
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.RequestID != "" {
		addFilter("request_id = ?", filter.RequestID)
	}
	if filter.AgentID != "" {
		addFilter("agent_id = ?", filter.AgentID)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			payloadJSON string
			started     sql.NullTime
			finished    sql.NullTime
		)
		if err := rows.Scan(
			&event.RequestID,
			&event.UserID,
			&event.QueryType,
			&event.AgentID,
			&event.Capability,
			&event.Status,
			&payloadJSON,
			&event.Error,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		if payloadJSON != "" {
			if out, err := decodePayload([]byte(payloadJSON)); err == nil {
				event.Payload = out
			}
		}
		if started.Valid {
			event.StartedAt = started.Time
		}
		if finished.Valid {
			event.FinishedAt = finished.Time
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func ensureAuditSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pipeline_audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL,
			user_id TEXT,
			query_type TEXT,
			agent_id TEXT NOT NULL,
			capability TEXT NOT NULL,
			status TEXT NOT NULL,
			payload_json TEXT,
			error_text TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_pipeline_audit_request ON pipeline_audit_events(request_id);
		CREATE INDEX IF NOT EXISTS idx_pipeline_audit_agent ON pipeline_audit_events(agent_id);
		CREATE INDEX IF NOT EXISTS idx_pipeline_audit_status ON pipeline_audit_events(status);
	`)
	return err
}
