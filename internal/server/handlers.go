// Package server exposes the resolution engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/aurelianware/hipaa-attachments-sub007/internal/auditlog"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/core"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/metrics"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/phi"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/resolver"
	"github.com/aurelianware/hipaa-attachments-sub007/internal/scenario"
)

// Resolver is the engine surface the handlers use.
type Resolver interface {
	Resolve(ctx context.Context, payload *core.RejectionPayload, mock bool, cfg resolver.Config) (*core.ResolutionResult, error)
	Metrics() metrics.Snapshot
	ResetMetrics() metrics.Snapshot
	Detector() *phi.Detector
}

// Handler holds the HTTP handlers
type Handler struct {
	engine        Resolver
	audit         auditlog.LoggerInterface
	reader        auditlog.Reader
	live          resolver.Config
	defaultMode   string
	storePayloads bool
	now           func() time.Time
}

// NewHandler creates a handler. audit may be nil to disable the trail.
func NewHandler(engine Resolver, audit auditlog.LoggerInterface, reader auditlog.Reader, cfg *Config) *Handler {
	h := &Handler{
		engine:      engine,
		audit:       audit,
		reader:      reader,
		defaultMode: core.ModeMock,
		now:         time.Now,
	}
	if h.audit == nil {
		h.audit = &auditlog.NoopLogger{}
	}
	if cfg != nil {
		h.live = cfg.Live
		if cfg.DefaultMode != "" {
			h.defaultMode = cfg.DefaultMode
		}
	}
	h.storePayloads = h.audit.Config().StorePayloads
	return h
}

// Health handles GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":       "ok",
		"default_mode": h.defaultMode,
	})
}

// Resolve handles POST /v1/resolve
//
// @Summary      Resolve a claim rejection into correction suggestions
// @Tags         resolve
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        mode     query     string                 false  "mock or live (default from engine.mode)"
// @Param        payload  body      core.RejectionPayload  true   "Rejection payload"
// @Success      200      {object}  core.ResolutionResult
// @Failure      400      {object}  map[string]interface{}
// @Failure      401      {object}  map[string]interface{}
// @Failure      429      {object}  map[string]interface{}
// @Failure      502      {object}  map[string]interface{}
// @Router       /v1/resolve [post]
func (h *Handler) Resolve(c echo.Context) error {
	mode := strings.ToLower(c.QueryParam("mode"))
	if mode == "" {
		mode = h.defaultMode
	}
	if mode != core.ModeMock && mode != core.ModeLive {
		return handleError(c, core.NewInvalidRequestError(fmt.Sprintf("mode must be %q or %q", core.ModeMock, core.ModeLive), nil))
	}

	var payload core.RejectionPayload
	if err := json.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body", err))
	}

	ctx := core.WithTransactionID(c.Request().Context(), payload.TransactionID)
	start := h.now()
	result, err := h.engine.Resolve(ctx, &payload, mode == core.ModeMock, h.live)

	h.audit.Write(auditlog.NewEntry(auditlog.Attempt{
		Start:     start,
		Duration:  h.now().Sub(start),
		RequestID: core.GetRequestID(ctx),
		Mode:      mode,
		Payload:   &payload,
		Result:    result,
		Err:       err,
	}, h.engine.Detector(), h.storePayloads))

	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Redact handles POST /v1/redact. Query parameters: allow (comma-separated
// field paths kept verbatim), visible (suffix length kept on masked
// strings) and drop (remove PHI fields instead of masking).
//
// @Summary      Mask PHI fields in an arbitrary JSON document
// @Tags         phi
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        allow    query     string  false  "Comma-separated field paths kept verbatim"
// @Param        visible  query     int     false  "Trailing characters left visible on masked strings"
// @Param        drop     query     bool    false  "Remove PHI fields instead of masking"
// @Param        payload  body      object  true   "Any JSON document"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]interface{}
// @Router       /v1/redact [post]
func (h *Handler) Redact(c echo.Context) error {
	body, err := decodeAny(c)
	if err != nil {
		return handleError(c, err)
	}

	opts := phi.MaskOptions{}
	if v := c.QueryParam("visible"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return handleError(c, core.NewInvalidRequestError("visible must be a non-negative integer", err))
		}
		opts.VisibleSuffixLen = n
	}
	if v := c.QueryParam("drop"); v != "" {
		drop, err := strconv.ParseBool(v)
		if err != nil {
			return handleError(c, core.NewInvalidRequestError("drop must be a boolean", err))
		}
		opts.DropFields = drop
	}

	safe := h.engine.Detector().CreateSafePayload(body, splitList(c.QueryParam("allow")), opts)
	return c.JSON(http.StatusOK, safe)
}

// ValidationResponse is the body of POST /v1/validate.
type ValidationResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

// Validate handles POST /v1/validate
//
// @Summary      Report PHI left in a JSON document
// @Tags         phi
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "Any JSON document"
// @Success      200      {object}  ValidationResponse
// @Failure      400      {object}  map[string]interface{}
// @Router       /v1/validate [post]
func (h *Handler) Validate(c echo.Context) error {
	body, err := decodeAny(c)
	if err != nil {
		return handleError(c, err)
	}
	valid, violations := h.engine.Detector().ValidateRedaction(body)
	if violations == nil {
		violations = []string{}
	}
	return c.JSON(http.StatusOK, ValidationResponse{Valid: valid, Violations: violations})
}

// ClassifyRequest is the body of POST /v1/classify.
type ClassifyRequest struct {
	ErrorCode string `json:"errorCode"`
	ErrorDesc string `json:"errorDesc"`
}

// Classify handles POST /v1/classify
//
// @Summary      Classify a rejection into a scenario
// @Tags         resolve
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ClassifyRequest  true  "Error code and description"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]interface{}
// @Router       /v1/classify [post]
func (h *Handler) Classify(c echo.Context) error {
	var req ClassifyRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body", err))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"scenario": scenario.Classify(req.ErrorCode, req.ErrorDesc).String(),
	})
}

// Metrics handles GET /v1/metrics
//
// @Summary      Current metrics window
// @Tags         metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  metrics.Snapshot
// @Router       /v1/metrics [get]
func (h *Handler) Metrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.Metrics())
}

// ResetMetrics handles POST /v1/metrics/reset and returns the closed window.
//
// @Summary      Close the metrics window and start a new one
// @Tags         metrics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  metrics.Snapshot
// @Router       /v1/metrics/reset [post]
func (h *Handler) ResetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.engine.ResetMetrics())
}

// ListAudit handles GET /v1/audit
//
// @Summary      List audit entries, newest first
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        transaction_id  query     string  false  "Exact transaction ID"
// @Param        scenario        query     string  false  "Scenario name"
// @Param        mode            query     string  false  "mock or live"
// @Param        error_type      query     string  false  "Engine error type"
// @Param        payload_hash    query     string  false  "Redacted payload hash"
// @Param        failed          query     bool    false  "Only failed attempts"
// @Param        since           query     string  false  "RFC 3339 lower bound"
// @Param        until           query     string  false  "RFC 3339 upper bound"
// @Param        limit           query     int     false  "Page size"
// @Param        offset          query     int     false  "Page offset"
// @Success      200             {object}  auditlog.ListResult
// @Failure      400             {object}  map[string]interface{}
// @Router       /v1/audit [get]
func (h *Handler) ListAudit(c echo.Context) error {
	q, err := parseAuditQuery(c)
	if err != nil {
		return handleError(c, err)
	}
	res, err := h.reader.List(c.Request().Context(), q)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetAudit handles GET /v1/audit/:id
//
// @Summary      Get one audit entry
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  auditlog.LogEntry
// @Failure      404  {object}  map[string]interface{}
// @Router       /v1/audit/{id} [get]
func (h *Handler) GetAudit(c echo.Context) error {
	entry, err := h.reader.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return handleError(c, err)
	}
	if entry == nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": map[string]interface{}{
				"type":    core.ErrorTypeInvalidRequest,
				"message": "audit entry not found",
			},
		})
	}
	return c.JSON(http.StatusOK, entry)
}

func parseAuditQuery(c echo.Context) (auditlog.Query, error) {
	q := auditlog.Query{
		TransactionID: c.QueryParam("transaction_id"),
		Scenario:      c.QueryParam("scenario"),
		Mode:          c.QueryParam("mode"),
		ErrorType:     c.QueryParam("error_type"),
		PayloadHash:   c.QueryParam("payload_hash"),
	}

	ints := []struct {
		name string
		dst  *int
	}{{"limit", &q.Limit}, {"offset", &q.Offset}}
	for _, p := range ints {
		if v := c.QueryParam(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return q, core.NewInvalidRequestError(p.name+" must be an integer", err)
			}
			*p.dst = n
		}
	}

	times := []struct {
		name string
		dst  *time.Time
	}{{"since", &q.Since}, {"until", &q.Until}}
	for _, p := range times {
		if v := c.QueryParam(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return q, core.NewInvalidRequestError(p.name+" must be an RFC 3339 timestamp", err)
			}
			*p.dst = t
		}
	}

	if v := c.QueryParam("failed"); v != "" {
		failed, err := strconv.ParseBool(v)
		if err != nil {
			return q, core.NewInvalidRequestError("failed must be a boolean", err)
		}
		q.FailedOnly = failed
	}
	return q, nil
}

// decodeAny reads an arbitrary JSON document.
func decodeAny(c echo.Context) (any, error) {
	var body any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return nil, core.NewInvalidRequestError("invalid request body", err)
	}
	return body, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// handleError converts engine errors to HTTP responses. Messages are
// pattern-redacted since backend errors may quote upstream text.
func handleError(c echo.Context, err error) error {
	var engineErr *core.EngineError
	if errors.As(err, &engineErr) {
		if engineErr.Type == core.ErrorTypeRateLimit {
			secs := int64(math.Ceil(float64(engineErr.RetryAfterMs()) / 1000))
			c.Response().Header().Set("Retry-After", strconv.FormatInt(max(secs, 1), 10))
		}
		body := engineErr.ToJSON()
		if inner, ok := body["error"].(map[string]interface{}); ok {
			if msg, ok := inner["message"].(string); ok {
				inner["message"] = phi.RedactPatterns(msg)
			}
		}
		return c.JSON(engineErr.HTTPStatusCode(), body)
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	return c.JSON(http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
