// Package auditlog persists redacted resolution records.
// Entries never carry raw payload values: the logger re-validates every entry
// before it is queued and drops those that still contain PHI.
package auditlog

import (
	"context"
	"time"
)

// LogStore defines the interface for audit log storage backends.
// Implementations must be safe for concurrent use.
type LogStore interface {
	// WriteBatch writes multiple log entries to storage.
	// This is called by the Logger when flushing buffered entries.
	WriteBatch(ctx context.Context, entries []*LogEntry) error

	// Flush forces any pending writes to complete.
	// Called during graceful shutdown.
	Flush(ctx context.Context) error

	// Close releases resources and flushes pending writes.
	Close() error
}

// LogEntry is one resolution attempt, successful or not.
// Core fields are stored as columns for filtering.
type LogEntry struct {
	// ID is a unique identifier for this log entry (UUID)
	ID string `json:"id" bson:"_id"`

	// Timestamp is when the resolution started
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	// DurationNs is the resolution duration in nanoseconds
	DurationNs int64 `json:"duration_ns" bson:"duration_ns"`

	TransactionID string  `json:"transaction_id" bson:"transaction_id"`
	Scenario      string  `json:"scenario" bson:"scenario"`
	Mode          string  `json:"mode" bson:"mode"`
	Model         string  `json:"model,omitempty" bson:"model,omitempty"`
	Confidence    float64 `json:"confidence,omitempty" bson:"confidence,omitempty"`
	TokenCount    int     `json:"token_count,omitempty" bson:"token_count,omitempty"`
	ErrorType     string  `json:"error_type,omitempty" bson:"error_type,omitempty"`

	// PayloadHash is an xxhash of the redacted payload. Identical
	// rejections hash alike without the hash depending on PHI values.
	PayloadHash string `json:"payload_hash,omitempty" bson:"payload_hash,omitempty"`

	Data *LogData `json:"data,omitempty" bson:"data,omitempty"`
}

// LogData holds the variable part of an entry.
// Fields are omitted when empty to save storage space.
type LogData struct {
	RequestID    string   `json:"request_id,omitempty" bson:"request_id,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty" bson:"suggestions,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty" bson:"error_message,omitempty"`

	// SafePayload is the redacted rejection, present when payload storage
	// is enabled. Stored as a map so MongoDB keeps a native document.
	SafePayload map[string]any `json:"safe_payload,omitempty" bson:"safe_payload,omitempty"`
}

// Config holds audit logging configuration
type Config struct {
	// Enabled controls whether audit logging is active
	Enabled bool

	// StorePayloads adds the redacted payload to each entry
	StorePayloads bool

	// BufferSize is the number of log entries to buffer before flushing
	BufferSize int

	// FlushInterval is how often to flush buffered logs
	FlushInterval time.Duration

	// RetentionDays is how long to keep logs (0 = forever)
	RetentionDays int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		StorePayloads: false,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		RetentionDays: 30,
	}
}

// BatchFlushThreshold is the number of entries that triggers an immediate flush.
const BatchFlushThreshold = 100
