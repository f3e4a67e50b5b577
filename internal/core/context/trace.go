// Package context carries request-scoped correlation values.
package context

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// TraceContext correlates log lines, audit entries and responses of one request.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string

	// IdempotencyKey is the X-Idempotency-Key of the submitting form, if any
	IdempotencyKey string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext creates a TraceContext, reusing the given IDs when non-empty.
func NewTraceContext(traceID, requestID string) *TraceContext {
	if traceID == "" {
		traceID = newHexID(32)
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}
	return &TraceContext{
		TraceID:   traceID,
		SpanID:    newHexID(16),
		RequestID: requestID,
	}
}

// ParseTraceparent extracts the trace ID from a W3C traceparent header
// ("00-<32 hex>-<16 hex>-<2 hex>"). It returns "" for anything malformed.
func ParseTraceparent(header string) string {
	parts := strings.Split(strings.TrimSpace(header), "-")
	if len(parts) != 4 || len(parts[1]) != 32 || !isHex(parts[1]) {
		return ""
	}
	if strings.Trim(parts[1], "0") == "" {
		return ""
	}
	return parts[1]
}

// Fields renders the non-empty IDs as logger key-value pairs.
func (t *TraceContext) Fields() []any {
	fields := make([]any, 0, 8)
	add := func(k, v string) {
		if v != "" {
			fields = append(fields, k, v)
		}
	}
	add("trace_id", t.TraceID)
	add("span_id", t.SpanID)
	add("request_id", t.RequestID)
	add("idempotency_key", t.IdempotencyKey)
	return fields
}

// Metadata is Fields as a map, for audit rows.
func (t *TraceContext) Metadata() map[string]string {
	fields := t.Fields()
	m := make(map[string]string, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		m[fields[i].(string)] = fields[i+1].(string)
	}
	return m
}

func newHexID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
