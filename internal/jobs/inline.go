package jobs

import (
	"context"
	"fmt"

	"TradePulse/pkg/queue"
)

// InlineQueue runs jobs synchronously in the caller. Used when Redis is
// not configured; queued semantics degrade to direct dispatch.
type InlineQueue struct {
	jobs map[string]queue.Job
}

func NewInlineQueue(jobs ...queue.Job) *InlineQueue {
	m := make(map[string]queue.Job, len(jobs))
	for _, j := range jobs {
		m[j.Type()] = j
	}
	return &InlineQueue{jobs: m}
}

func (q *InlineQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	job, ok := q.jobs[msgType]
	if !ok {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}
	return job.Handle(ctx, payload)
}
