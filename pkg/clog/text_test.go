package clog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_ContextAttributes(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewAttributesHandler(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelDebug))))

	ctx := ContextWithAttributes(context.Background(), map[string]any{
		"method": "POST",
		"path":   "/api/content/01H/task",
	})
	AddCaller(ctx, "vol-1")
	AddError(ctx, errors.New("boom"))
	AddAttribute(ctx, "content_id", "01H")

	logger.InfoContext(ctx, "task created")

	out := buf.String()
	assert.Contains(t, out, "INFO POST /api/content/01H/task vol-1 task created boom")
	assert.Contains(t, out, "    content_id=01H\n")
	assert.NotContains(t, out, "error.message=")
}

func TestTextHandler_LevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(NewTextHandler(buf, WithColor(false), WithLevel(slog.LevelWarn)))

	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN shown")
}

func TestGetAttribute_Typed(t *testing.T) {
	ctx := ContextWithSlog(context.Background())
	AddAttributes(ctx, map[string]any{
		"nested": map[string]any{"a": 1},
	})
	AddAttributes(ctx, map[string]any{
		"nested": map[string]any{"b": 2},
	})

	nested := GetAttribute[map[string]any](ctx, "nested")
	require.NotNil(t, nested)
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, nested)

	assert.Equal(t, "", GetAttribute[string](ctx, "nested"))
	assert.Nil(t, GetAttributes(context.Background()))
}
