package logging

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type requestCtxKey struct{}

// ContextWithRequestID stores a request ID in the context for log correlation.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// ContextWithNewRequestID generates a fresh request ID and stores it.
// Returns the derived context and the generated ID.
func ContextWithNewRequestID(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return ContextWithRequestID(ctx, id), id
}

// RequestIDFromContext retrieves the request ID, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return id
	}
	return ""
}

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}
	return fields
}
