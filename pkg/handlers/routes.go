package handlers

import "net/http"

// ConnectionMiddleware wraps a handler so it runs with a pooled database
// connection in its request context (see database.WithConnection).
type ConnectionMiddleware func(http.HandlerFunc) http.HandlerFunc
