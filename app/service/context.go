package service

import "context"

type runIDKey struct{}

// WithRunID stores the dispatch run ID in the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext extracts the dispatch run ID from the context.
func RunIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(runIDKey{})
	if value == nil {
		return "", false
	}
	runID, ok := value.(string)
	return runID, ok
}
