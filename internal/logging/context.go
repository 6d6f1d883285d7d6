package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

type contextKey string

const opIDKey contextKey = "op_id"

// WithOpID stores an operation ID in the context. Every tunnel
// lifecycle operation gets one so its log records can be correlated
// across the controller, runner, and bridge.
func WithOpID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, opIDKey, id)
}

// OpID extracts the operation ID from the context.
// Returns empty string if not set.
func OpID(ctx context.Context) string {
	id, _ := ctx.Value(opIDKey).(string)
	return id
}

// GenerateOpID creates a new operation ID in the format
// "op_<verb>_<12 hex chars>".
func GenerateOpID(verb string) string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("op_%s_%d", verb, time.Now().UnixNano())
	}
	return "op_" + verb + "_" + hex.EncodeToString(b)
}

// LogAttrsFromContext extracts the operation ID from context and
// returns it as slog attributes. Empty values are omitted.
func LogAttrsFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	if id := OpID(ctx); id != "" {
		attrs = append(attrs, slog.String("op_id", id))
	}
	return attrs
}
