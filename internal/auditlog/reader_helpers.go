package auditlog

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultListLimit = 25
	maxListLimit     = 100
)

func buildWhereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func clampLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// sqlConditions turns q into WHERE conditions. placeholder renders the
// n-th (1-based) bind parameter; formatTime converts time bounds to the
// driver's representation.
func sqlConditions(q Query, placeholder func(n int) string, formatTime func(time.Time) any) ([]string, []any) {
	var (
		conditions []string
		args       []any
	)
	add := func(column, op string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s %s %s", column, op, placeholder(len(args))))
	}

	if !q.Since.IsZero() {
		add("timestamp", ">=", formatTime(q.Since.UTC()))
	}
	if !q.Until.IsZero() {
		add("timestamp", "<", formatTime(q.Until.UTC()))
	}
	if q.TransactionID != "" {
		add("transaction_id", "=", q.TransactionID)
	}
	if q.Scenario != "" {
		add("scenario", "=", q.Scenario)
	}
	if q.Mode != "" {
		add("mode", "=", q.Mode)
	}
	if q.ErrorType != "" {
		add("error_type", "=", q.ErrorType)
	}
	if q.PayloadHash != "" {
		add("payload_hash", "=", q.PayloadHash)
	}
	if q.FailedOnly {
		conditions = append(conditions, "error_type <> ''")
	}
	return conditions, args
}
