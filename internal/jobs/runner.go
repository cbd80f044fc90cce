package jobs

import (
	"context"

	"TradePulse/pkg/queue"
)

// Runner owns the distribution queue lifecycle. It hides whether jobs
// run through Redis or inline.
type Runner struct {
	svc   queue.Service
	redis *queue.RedisQueue
}

func NewRedisRunner(rq *queue.RedisQueue) *Runner {
	return &Runner{svc: rq, redis: rq}
}

func NewInlineRunner(iq *InlineQueue) *Runner {
	return &Runner{svc: iq}
}

// Service returns the producer-facing queue API.
func (r *Runner) Service() queue.Service { return r.svc }

// Start launches workers when backed by Redis; inline mode is a no-op.
func (r *Runner) Start() error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Start()
}

// Stop drains workers, bounded by ctx.
func (r *Runner) Stop(ctx context.Context) error {
	if r.redis == nil {
		return nil
	}
	return r.redis.Stop(ctx)
}
