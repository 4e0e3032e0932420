package models

import (
	"context"
	"time"
)

type runContextKey struct{}

// RunContext carries the identity of a reconciliation pass through context
// so exporters can tag what they write without widening their interfaces.
type RunContext struct {
	RunId     string
	Venue     string
	StartedAt time.Time
}

// WithRunContext attaches run data to a context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// GetRunContext retrieves run data from context, or nil if absent.
func GetRunContext(ctx context.Context) *RunContext {
	rc, _ := ctx.Value(runContextKey{}).(*RunContext)
	return rc
}
