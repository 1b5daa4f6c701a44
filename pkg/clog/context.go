package clog

import (
	"context"
	"maps"
	"sync"
)

type ctxSlog struct {
	mu         sync.RWMutex
	attributes map[string]any
}

type ctxSlogKey struct{}

// ContextWithSlog attaches a mutable attribute set to ctx. Every slog record
// emitted with that context through AttributesHandler carries the set.
func ContextWithSlog(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxSlogKey{}, &ctxSlog{
		attributes: make(map[string]any),
	})
}

// ContextWithAttributes is ContextWithSlog seeded with attributes. Background
// workers use it to scope logs to one unit of work.
func ContextWithAttributes(ctx context.Context, attributes map[string]any) context.Context {
	ctx = ContextWithSlog(ctx)
	AddAttributes(ctx, attributes)
	return ctx
}

func fromContext(ctx context.Context) (*ctxSlog, bool) {
	l, ok := ctx.Value(ctxSlogKey{}).(*ctxSlog)
	return l, ok
}

func AddAttribute(ctx context.Context, key string, value any) {
	l, ok := fromContext(ctx)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attributes[key] = value
}

func AddAttributes(ctx context.Context, attributes map[string]any) {
	l, ok := fromContext(ctx)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	mergeMaps(l.attributes, attributes)
}

func GetAttribute[T any](ctx context.Context, key string) T {
	var zero T
	l, ok := fromContext(ctx)
	if !ok {
		return zero
	}
	l.mu.RLock()
	v, ok := l.attributes[key]
	l.mu.RUnlock()
	if !ok {
		return zero
	}
	typed, ok := v.(T)
	if !ok {
		return zero
	}
	return typed
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		vMap, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		if dstMap, ok := dst[k].(map[string]any); ok {
			mergeMaps(dstMap, vMap)
		} else {
			dst[k] = vMap
		}
	}
}

const (
	ErrorAttributeKey  = "error.message"
	StackAttributeKey  = "error.stack"
	CallerAttributeKey = "caller.id"
)

func AddError(ctx context.Context, err error) {
	AddAttribute(ctx, ErrorAttributeKey, err)
}

func GetError(ctx context.Context) error {
	return GetAttribute[error](ctx, ErrorAttributeKey)
}

func AddStack(ctx context.Context, stack string) {
	AddAttribute(ctx, StackAttributeKey, stack)
}

func GetStack(ctx context.Context) string {
	return GetAttribute[string](ctx, StackAttributeKey)
}

// AddCaller records the authenticated volunteer acting in this request.
func AddCaller(ctx context.Context, userID string) {
	AddAttribute(ctx, CallerAttributeKey, userID)
}

func GetAttributes(ctx context.Context) map[string]any {
	l, ok := fromContext(ctx)
	if !ok {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.attributes)
}
