package services

import (
	"context"
	"strings"
)

type contextKey string

const (
	runIDKey         contextKey = "run_id"
	nodeKey          contextKey = "node"
	correlationIDKey contextKey = "correlation_id"
)

// WithRunID attaches a run identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run identifier, if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, runIDKey)
}

// WithNode attaches the current node name to the context.
func WithNode(ctx context.Context, node string) context.Context {
	node = strings.TrimSpace(node)
	if node == "" {
		return ctx
	}
	return context.WithValue(ctx, nodeKey, node)
}

// NodeFromContext extracts the current node name, if present.
func NodeFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, nodeKey)
}

// WithCorrelationID attaches a caller-supplied correlation identifier.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation identifier, if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, correlationIDKey)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}
