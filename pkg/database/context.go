package database

import (
	"context"
	"errors"
)

type contextKey string

const (
	// ScopeKey is the context key for storing the request-scoped database connection.
	ScopeKey contextKey = "dbScope"
)

// ErrNoScope is returned by repositories called without a connection in context.
var ErrNoScope = errors.New("no database connection in context")

// GetScope retrieves the request-scoped database connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	if !ok || scope == nil || scope.Conn == nil {
		return nil, false
	}
	return scope, true
}

// SetScope stores the request-scoped database connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// WithScope returns a context carrying a freshly acquired connection.
// The cleanup function must be called when the scope is no longer needed.
// Used by the seed command and integration tests, which run outside HTTP.
func WithScope(ctx context.Context, db *DB) (context.Context, func(), error) {
	scope, err := db.AcquireScope(ctx)
	if err != nil {
		return nil, nil, err
	}
	return SetScope(ctx, scope), scope.Close, nil
}
