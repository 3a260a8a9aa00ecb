// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services and audit emission
// read them, and tests inject them without building HTTP requests.
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey   struct{}
	pluginNameKey  struct{}
	requestTimeKey struct{}
)

// WithRequestID stores the correlation ID for this request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation ID, or "" when not set.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithPluginName stores the calling plugin's self-reported name.
func WithPluginName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, pluginNameKey{}, name)
}

// PluginName returns the calling plugin's name, or "" when not set.
func PluginName(ctx context.Context) string {
	if v, ok := ctx.Value(pluginNameKey{}).(string); ok {
		return v
	}
	return ""
}

// WithTime pins the request time. Tests use this to make timestamps deterministic.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}
