package auditlog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSelectColumns = `SELECT id::text, timestamp, duration_ns, COALESCE(transaction_id, ''),
	COALESCE(scenario, ''), COALESCE(mode, ''), COALESCE(model, ''), COALESCE(confidence, 0),
	COALESCE(token_count, 0), COALESCE(error_type, ''), COALESCE(payload_hash, ''),
	COALESCE(data::text, '') FROM audit_logs`

// PostgreSQLReader implements Reader for PostgreSQL databases.
type PostgreSQLReader struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLReader creates a new PostgreSQL audit log reader.
func NewPostgreSQLReader(pool *pgxpool.Pool) (*PostgreSQLReader, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	return &PostgreSQLReader{pool: pool}, nil
}

// List returns a page of audit log entries.
func (r *PostgreSQLReader) List(ctx context.Context, q Query) (*ListResult, error) {
	limit, offset := clampLimitOffset(q.Limit, q.Offset)

	conditions, args := sqlConditions(q,
		func(n int) string { return "$" + strconv.Itoa(n) },
		func(t time.Time) any { return t },
	)
	where := buildWhereClause(conditions)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	dataQuery := fmt.Sprintf("%s%s ORDER BY timestamp DESC LIMIT $%d OFFSET $%d",
		pgSelectColumns, where, len(args)+1, len(args)+2)
	dataArgs := append(append([]any(nil), args...), limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]LogEntry, 0)
	for rows.Next() {
		e, err := scanPGLogEntry(rows)
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
func (r *PostgreSQLReader) Get(ctx context.Context, id string) (*LogEntry, error) {
	row := r.pool.QueryRow(ctx, pgSelectColumns+" WHERE id::text = $1", id)
	e, err := scanPGLogEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func scanPGLogEntry(row pgx.Row) (*LogEntry, error) {
	var (
		e        LogEntry
		dataJSON string
	)
	if err := row.Scan(&e.ID, &e.Timestamp, &e.DurationNs, &e.TransactionID, &e.Scenario, &e.Mode,
		&e.Model, &e.Confidence, &e.TokenCount, &e.ErrorType, &e.PayloadHash, &dataJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan audit log row: %w", err)
	}
	e.Data = unmarshalLogData(dataJSON, e.ID)
	return &e, nil
}
