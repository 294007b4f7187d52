package correlation

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	assert.Len(t, NewID(), 8)

	ids := make(map[string]struct{}, 50)
	for range 50 {
		ids[NewID()] = struct{}{}
	}
	assert.Len(t, ids, 50, "IDs should not collide")
}

func TestWithID_Roundtrip(t *testing.T) {
	ctx := WithID(context.Background(), "abc12345")
	id, ok := ID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc12345", id)
}

func TestID_Missing(t *testing.T) {
	id, ok := ID(context.Background())
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestID_EmptyString(t *testing.T) {
	ctx := WithID(context.Background(), "")
	_, ok := ID(ctx)
	assert.False(t, ok)
}

func newCapturingLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	inner := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewHandler(inner)), &buf
}

func TestHandler_InjectsCorrelationID(t *testing.T) {
	logger, buf := newCapturingLogger()

	ctx := WithID(context.Background(), "test1234")
	logger.InfoContext(ctx, "fetch started", "search", "fintech")

	output := buf.String()
	assert.Contains(t, output, "correlation_id=test1234")
	assert.Contains(t, output, "search=fintech")
	assert.Contains(t, output, "fetch started")
}

func TestHandler_SkipsWhenContextHasNoID(t *testing.T) {
	logger, buf := newCapturingLogger()

	logger.InfoContext(context.Background(), "no correlation")

	assert.NotContains(t, buf.String(), "correlation_id")
}

func TestHandler_WithAttrsPreservesInjection(t *testing.T) {
	logger, buf := newCapturingLogger()
	logger = logger.With("component", "api")

	ctx := WithID(context.Background(), "attr1234")
	logger.InfoContext(ctx, "with attrs")

	output := buf.String()
	assert.Contains(t, output, "correlation_id=attr1234")
	assert.Contains(t, output, "component=api")
}
