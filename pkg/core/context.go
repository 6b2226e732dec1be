package core

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}
type callerLevelKey struct{}

// WithRequestID attaches a request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request id if present.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// EnsureRequestID ensures a request id exists in the context.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := RequestID(ctx); ok {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

// WithCallerLevel attaches the caller's granted permission level.
func WithCallerLevel(ctx context.Context, level Level) context.Context {
	return context.WithValue(ctx, callerLevelKey{}, level)
}

// CallerLevel returns the caller's granted level. Absent a value it reports
// READ_ONLY, the narrowest grant.
func CallerLevel(ctx context.Context) Level {
	if level, ok := ctx.Value(callerLevelKey{}).(Level); ok {
		return level
	}
	return LevelReadOnly
}
