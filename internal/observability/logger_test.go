package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stretchr/testify/assert"

	"github.com/riftgate/llm-gateway/internal/reqctx"
)

func TestLogger_AttachesRequestIDFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewLogger(zap.New(core))

	ctx := reqctx.WithRequestID(context.Background(), "req-123")
	logger.Info(ctx, "routed request")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
}

func TestLogger_NoRequestIDWhenAbsent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewLogger(zap.New(core))

	logger.Warn(context.Background(), "no tenant resolved")

	entries := logs.All()
	assert.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["request_id"]
	assert.False(t, ok)
}
