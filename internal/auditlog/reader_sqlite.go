package auditlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

const sqliteSelectColumns = `SELECT id, timestamp, duration_ns, transaction_id, scenario, mode,
	model, confidence, token_count, error_type, payload_hash, data FROM audit_logs`

// SQLiteReader implements Reader for SQLite databases.
type SQLiteReader struct {
	db *sql.DB
}

// NewSQLiteReader creates a new SQLite audit log reader.
func NewSQLiteReader(db *sql.DB) (*SQLiteReader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &SQLiteReader{db: db}, nil
}

// List returns a page of audit log entries.
func (r *SQLiteReader) List(ctx context.Context, q Query) (*ListResult, error) {
	limit, offset := clampLimitOffset(q.Limit, q.Offset)

	conditions, args := sqlConditions(q,
		func(int) string { return "?" },
		func(t time.Time) any { return t.Format(time.RFC3339Nano) },
	)
	where := buildWhereClause(conditions)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	dataArgs := append(append([]any(nil), args...), limit, offset)
	rows, err := r.db.QueryContext(ctx, sqliteSelectColumns+where+" ORDER BY timestamp DESC LIMIT ? OFFSET ?", dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0)
	for rows.Next() {
		e, err := scanSQLiteLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Get returns a single audit log entry by ID.
func (r *SQLiteReader) Get(ctx context.Context, id string) (*LogEntry, error) {
	rows, err := r.db.QueryContext(ctx, sqliteSelectColumns+" WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by id: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanSQLiteLogEntry(rows)
}

func scanSQLiteLogEntry(rows *sql.Rows) (*LogEntry, error) {
	var (
		e        LogEntry
		ts       string
		txID     sql.NullString
		scen     sql.NullString
		mode     sql.NullString
		model    sql.NullString
		errType  sql.NullString
		hash     sql.NullString
		dataJSON sql.NullString
	)

	if err := rows.Scan(&e.ID, &ts, &e.DurationNs, &txID, &scen, &mode,
		&model, &e.Confidence, &e.TokenCount, &errType, &hash, &dataJSON); err != nil {
		return nil, fmt.Errorf("failed to scan audit log row: %w", err)
	}

	e.Timestamp = parseSQLTimestamp(ts, e.ID)
	e.TransactionID = txID.String
	e.Scenario = scen.String
	e.Mode = mode.String
	e.Model = model.String
	e.ErrorType = errType.String
	e.PayloadHash = hash.String
	e.Data = unmarshalLogData(dataJSON.String, e.ID)

	return &e, nil
}

func unmarshalLogData(raw, id string) *LogData {
	if raw == "" {
		return nil
	}
	var data LogData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		slog.Warn("failed to unmarshal audit data JSON", "id", id, "error", err)
		return nil
	}
	return &data
}

func parseSQLTimestamp(ts string, entryID string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t
		}
	}
	slog.Warn("failed to parse audit timestamp", "id", entryID)
	return time.Time{}
}
