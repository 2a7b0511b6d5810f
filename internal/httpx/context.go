package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey      contextKey = "userID"
	requestIDKey   contextKey = "requestID"
	requestInfoKey contextKey = "requestInfo"
)

// requestInfo is shared by outer middleware with handlers further down the
// chain, which only see a derived context.
type requestInfo struct {
	userID string
}

// UserIDFrom retrieves the authenticated user ID from the request context.
func UserIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithUser returns a new context carrying the authenticated user ID.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = userID
	}
	return context.WithValue(ctx, userIDKey, userID)
}

func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
