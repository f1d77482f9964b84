package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"angels_reviews/internal/scheduler"
)

func TestScheduler_RunsJob(t *testing.T) {
	s := scheduler.New()
	var runs int32
	if err := s.Add("@every 1s", "tick", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Entries() != 1 {
		t.Fatalf("entries = %d", s.Entries())
	}

	s.Start()
	deadline := time.Now().Add(3 * time.Second)
	for atomic.LoadInt32(&runs) == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if atomic.LoadInt32(&runs) == 0 {
		t.Fatalf("job never ran")
	}
}

func TestScheduler_RejectsBadSpec(t *testing.T) {
	s := scheduler.New()
	if err := s.Add("every now and then", "bad", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected parse error")
	}
}
