package auditlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

// Attempt is a finished resolution as seen by the caller. Exactly one of
// Result and Err is set.
type Attempt struct {
	Start     time.Time
	Duration  time.Duration
	RequestID string
	Mode      string
	Payload   *core.RejectionPayload
	Result    *core.ResolutionResult
	Err       error
}

// NewEntry builds a log entry for a. The payload is masked with detector
// before it is hashed, and only the masked form is kept when storePayload
// is set. Error messages are pattern-redacted.
func NewEntry(a Attempt, detector *phi.Detector, storePayload bool) *LogEntry {
	if detector == nil {
		detector = phi.Default()
	}
	payload := a.Payload
	if payload == nil {
		payload = &core.RejectionPayload{}
	}

	entry := &LogEntry{
		ID:            uuid.NewString(),
		Timestamp:     a.Start.UTC(),
		DurationNs:    a.Duration.Nanoseconds(),
		TransactionID: payload.TransactionID,
		Mode:          a.Mode,
		Data:          &LogData{RequestID: a.RequestID},
	}

	if r := a.Result; r != nil {
		entry.Scenario = r.Scenario
		entry.Model = r.Model
		entry.Mode = r.Mode
		entry.Confidence = r.Confidence
		entry.TokenCount = r.TokenCount
		entry.Data.Suggestions = r.Suggestions
	} else {
		entry.Scenario = scenario.Classify(payload.ErrorCode, payload.ErrorDesc).String()
	}

	if a.Err != nil {
		entry.ErrorType = errorType(a.Err)
		entry.Data.ErrorMessage = phi.RedactPatterns(a.Err.Error())
	}

	safe, _ := detector.MaskFields(payload.ToMap(), phi.MaskOptions{}).(map[string]any)
	entry.PayloadHash = hashPayload(safe)
	if storePayload {
		entry.Data.SafePayload = safe
	}
	return entry
}

func errorType(err error) string {
	var engineErr *core.EngineError
	if errors.As(err, &engineErr) {
		return string(engineErr.Type)
	}
	return "internal_error"
}

// hashPayload fingerprints the masked payload. encoding/json sorts map
// keys, so equal payloads hash alike.
func hashPayload(safe map[string]any) string {
	if len(safe) == 0 {
		return ""
	}
	raw, err := json.Marshal(safe)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(raw))
}

// redactionView is the structure the logger validates before queuing an
// entry. Keys avoid words in the PHI vocabulary. The transaction and request
// IDs are opaque correlation keys, not PHI, and are left out: a generated ID
// can hold a digit run that looks like a ZIP code.
func (e *LogEntry) redactionView() map[string]any {
	view := map[string]any{
		"scenario":  e.Scenario,
		"mode":      e.Mode,
		"model":     e.Model,
		"errorType": e.ErrorType,
	}
	if d := e.Data; d != nil {
		view["errorMessage"] = d.ErrorMessage
		if len(d.Suggestions) > 0 {
			view["suggestions"] = d.Suggestions
		}
		if d.SafePayload != nil {
			view["safePayload"] = d.SafePayload
		}
	}
	return view
}

// scrub re-redacts the free-text parts of e in place and re-masks the stored
// payload with detector.
func (e *LogEntry) scrub(detector *phi.Detector) {
	e.Model = phi.RedactPatterns(e.Model)
	e.Scenario = phi.RedactPatterns(e.Scenario)
	d := e.Data
	if d == nil {
		return
	}
	d.ErrorMessage = phi.RedactPatterns(d.ErrorMessage)
	for i, s := range d.Suggestions {
		d.Suggestions[i] = phi.RedactPatterns(s)
	}
	if d.SafePayload != nil {
		d.SafePayload, _ = detector.MaskFields(d.SafePayload, phi.MaskOptions{}).(map[string]any)
	}
}
