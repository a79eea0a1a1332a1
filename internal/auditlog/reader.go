package auditlog

import (
	"context"
	"time"
)

// Query filters audit entries. Zero fields do not filter.
type Query struct {
	Since         time.Time // inclusive
	Until         time.Time // exclusive
	TransactionID string
	Scenario      string
	Mode          string
	ErrorType     string
	PayloadHash   string
	// FailedOnly keeps entries with an error type
	FailedOnly bool
	Limit      int
	Offset     int
}

// ListResult holds a page of entries, newest first.
type ListResult struct {
	Entries []LogEntry `json:"entries"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
}

// Reader provides read access to the audit trail.
type Reader interface {
	// List returns a page of entries matching q.
	List(ctx context.Context, q Query) (*ListResult, error)

	// Get returns a single entry by ID.
	// Returns (nil, nil) when no entry exists for the given ID.
	Get(ctx context.Context, id string) (*LogEntry, error)
}
