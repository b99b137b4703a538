package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGoRecoversPanics(t *testing.T) {
	s := NewSupervisor(context.Background())
	ran := make(chan struct{})
	s.Go("boom", func(ctx context.Context) { panic("boom") })
	s.Go("ok", func(ctx context.Context) { close(ran) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	<-ran
	if s.Panics() != 1 {
		t.Fatalf("Panics = %d, want 1", s.Panics())
	}
	if s.Active() != 0 {
		t.Fatalf("Active = %d, want 0", s.Active())
	}
}

func TestCancelStopsWorkers(t *testing.T) {
	s := NewSupervisor(context.Background())
	s.Go("loop", func(ctx context.Context) { <-ctx.Done() })
	if s.Active() != 1 {
		t.Fatalf("Active = %d, want 1", s.Active())
	}
	s.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestWaitHonorsDeadline(t *testing.T) {
	s := NewSupervisor(context.Background())
	defer s.Cancel()
	s.Go("stuck", func(ctx context.Context) { <-ctx.Done() })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err = %v, want deadline exceeded", err)
	}
}
