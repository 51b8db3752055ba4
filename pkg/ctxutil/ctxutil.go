// Package ctxutil carries the batch run ID and the HTTP request ID through
// contexts so that log lines from deep in a call can be correlated.
package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

// key is a typed context key; the zero value of T means "absent".
type key[T comparable] struct{ name string }

func (k key[T]) get(ctx context.Context) (T, bool) {
	var zero T
	v, ok := ctx.Value(k).(T)
	if !ok || v == zero {
		return zero, false
	}
	return v, true
}

var (
	runIDKey     = key[uuid.UUID]{"run_id"}
	requestIDKey = key[string]{"request_id"}
)

// WithRunID tags ctx with the batch run it belongs to.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromCtx reports the batch run ID; uuid.Nil counts as absent.
func RunIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	return runIDKey.get(ctx)
}

// RunIDString is RunIDFromCtx formatted for logs and status rows, "" when absent.
func RunIDString(ctx context.Context) string {
	id, ok := runIDKey.get(ctx)
	if !ok {
		return ""
	}
	return id.String()
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx returns the request ID, or "".
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := requestIDKey.get(ctx)
	return id
}
