// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services consume them. Keeping the package
// free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	caller := requestcontext.AccountID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithAccountID(ctx, accountID)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "givepool/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	accountIDKey   struct{}
	rolesKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyAccountID   = accountIDKey{}
	ContextKeyRoles       = rolesKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// AccountID retrieves the authenticated caller identity from the context.
// Returns the zero value (nil UUID) if not set.
func AccountID(ctx context.Context) id.AccountID {
	if accountID, ok := ctx.Value(ContextKeyAccountID).(id.AccountID); ok {
		return accountID
	}
	return id.AccountID{}
}

// WithAccountID injects a caller identity into the context.
func WithAccountID(ctx context.Context, accountID id.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyAccountID, accountID)
}

// Roles retrieves the caller's role claims from the context.
// Returns nil if not set.
func Roles(ctx context.Context) []string {
	if roles, ok := ctx.Value(ContextKeyRoles).([]string); ok {
		return roles
	}
	return nil
}

// WithRoles injects role claims into the context.
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ContextKeyRoles, roles)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain, and for workers that
// need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
