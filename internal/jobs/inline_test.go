package jobs

import (
	"context"
	"errors"
	"testing"
)

type recordingJob struct {
	typ     string
	handled []interface{}
	err     error
}

func (j *recordingJob) Name() string { return j.typ }
func (j *recordingJob) Type() string { return j.typ }
func (j *recordingJob) Handle(_ context.Context, payload interface{}) error {
	j.handled = append(j.handled, payload)
	return j.err
}

func TestInlineQueueDispatches(t *testing.T) {
	job := &recordingJob{typ: "work"}
	q := NewInlineQueue(job)

	if err := q.PublishMessage(context.Background(), "work", "payload"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(job.handled) != 1 || job.handled[0] != "payload" {
		t.Fatalf("job not invoked: %+v", job.handled)
	}
}

func TestInlineQueueUnknownType(t *testing.T) {
	q := NewInlineQueue(&recordingJob{typ: "work"})
	if err := q.PublishMessage(context.Background(), "other", nil); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestInlineQueuePropagatesJobError(t *testing.T) {
	want := errors.New("boom")
	q := NewInlineQueue(&recordingJob{typ: "work", err: want})
	if err := q.PublishMessage(context.Background(), "work", nil); !errors.Is(err, want) {
		t.Fatalf("expected job error, got %v", err)
	}
}
