package app

import (
	"context"

	"go.uber.org/zap"
)

type compensation struct {
	desc string
	fn   func(ctx context.Context) error
}

// compensations undoes completed checkout steps in reverse order.
type compensations []compensation

func (c *compensations) add(desc string, fn func(ctx context.Context) error) {
	*c = append(*c, compensation{desc: desc, fn: fn})
}

// run executes on a context detached from ctx's cancellation.
func (c compensations) run(ctx context.Context, log *zap.Logger) {
	ctx = context.WithoutCancel(ctx)
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].fn(ctx); err != nil {
			log.Error("checkout rollback step failed", zap.String("step", c[i].desc), zap.Error(err))
		}
	}
}
