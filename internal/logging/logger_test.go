package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(&Config{Level: "info", Format: "xml"})
	require.Error(t, err)

	_, err = New(&Config{Level: "loud", Format: "json"})
	require.Error(t, err)

	logger, err := New(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx, id := ContextWithNewRequestID(ctx)
	require.NotEmpty(t, id)
	assert.Equal(t, id, RequestIDFromContext(ctx))

	// A fresh ID replaces the previous one in the derived context.
	ctx2, id2 := ContextWithNewRequestID(ctx)
	assert.NotEqual(t, id, id2)
	assert.Equal(t, id2, RequestIDFromContext(ctx2))
	assert.Equal(t, id, RequestIDFromContext(ctx))
}

func TestContextFields(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))

	ctx := ContextWithRequestID(context.Background(), "req-123")
	fields := ContextFields(ctx)
	require.Len(t, fields, 1)
	assert.Equal(t, "request.id", fields[0].Key)
}
