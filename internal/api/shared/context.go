package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// ContextKey is the type used for values this package stores in a request
// context. A named type keeps the keys from colliding with other packages.
type ContextKey string

const (
	// UserIDContextKey holds the authenticated user's uuid.UUID, placed
	// there by the authentication middleware.
	UserIDContextKey ContextKey = "userID"

	// TraceIDKey holds the per-request trace ID used to correlate log
	// lines with error responses.
	TraceIDKey ContextKey = "traceID"
)

// traceIDBytes is the raw length of a trace ID; it renders as 32 hex chars.
const traceIDBytes = 16

// SetTraceID returns a child context carrying a freshly generated trace ID.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, newTraceID())
}

// GetTraceID returns the trace ID stored in ctx, or "" if none is set.
func GetTraceID(ctx context.Context) string {
	id, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return id
}

// newTraceID produces a random hex trace ID. If the system entropy source
// fails it falls back to timestamp-derived bytes rather than a fixed value,
// so IDs stay usable for correlation even in that degenerate case.
func newTraceID() string {
	b := make([]byte, traceIDBytes)
	if _, err := rand.Read(b); err != nil {
		now := time.Now()
		binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
		binary.BigEndian.PutUint32(b[8:12], uint32(now.Nanosecond()))
		binary.BigEndian.PutUint32(b[12:16], uint32(now.Unix()))
	}
	return hex.EncodeToString(b)
}
