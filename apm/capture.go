package apm

import (
	"context"
)

// Capture traces the provided synchronous function by
// starting and finishing a span around its execution.
// The error returned by f is recorded on the span and returned as is.
// If the tracer is disabled, f is called without a span.
func (t *Tracer) Capture(ctx context.Context, name string, f func(context.Context) error) error {
	if !t.Enabled() {
		return f(ctx)
	}
	ctx, span := t.StartSpan(ctx, name)
	defer span.Finish()
	err := f(ctx)
	span.AddError(err)
	return err
}
