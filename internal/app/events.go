package app

import (
	"context"
	"sync/atomic"

	"applog/internal/eventbus"
)

// failureStats counts sink and channel failures published on the bus.
type failureStats struct {
	ch    <-chan eventbus.Event
	unsub func()

	failed  atomic.Uint64
	dropped atomic.Uint64
	skipped atomic.Uint64
}

// FailureCounts is a point-in-time copy of failureStats.
type FailureCounts struct {
	Failed  uint64
	Dropped uint64
	Skipped uint64
}

func (c FailureCounts) Total() uint64 { return c.Failed + c.Dropped + c.Skipped }

// newFailureStats subscribes immediately so events published before run
// starts (skipped channels at construction) are buffered.
func newFailureStats(bus eventbus.Bus) *failureStats {
	ch, unsub := bus.Subscribe(256, eventbus.SinkFailed, eventbus.SinkDropped, eventbus.ChannelSkipped)
	return &failureStats{ch: ch, unsub: unsub}
}

func (s *failureStats) run(ctx context.Context) {
	defer s.unsub()
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case ev, ok := <-s.ch:
			if !ok {
				return
			}
			s.count(ev)
		}
	}
}

func (s *failureStats) drain() {
	for {
		select {
		case ev, ok := <-s.ch:
			if !ok {
				return
			}
			s.count(ev)
		default:
			return
		}
	}
}

func (s *failureStats) count(ev eventbus.Event) {
	switch ev.Type {
	case eventbus.SinkFailed:
		s.failed.Add(1)
	case eventbus.SinkDropped:
		s.dropped.Add(1)
	case eventbus.ChannelSkipped:
		s.skipped.Add(1)
	}
}

func (s *failureStats) Snapshot() FailureCounts {
	return FailureCounts{
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
		Skipped: s.skipped.Load(),
	}
}
