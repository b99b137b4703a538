package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"applog/internal/eventbus"
	"applog/internal/record"
	"applog/internal/runtime/supervisor"
	"applog/pkg/logx"
)

// AsyncConfig controls the background dispatcher.
type AsyncConfig struct {
	// QueueSize is the per-sink queue capacity. Default 256.
	QueueSize int
	Log       logx.Logger
	Bus       eventbus.Bus
}

type asyncJob struct {
	ctx context.Context
	rec record.Record
}

// Async runs each sink of a Registry on its own worker and FIFO queue.
// Records reach a given sink in Dispatch order; cross-sink order is not
// defined. A full queue drops the record for that sink only.
type Async struct {
	reg    *Registry
	sinks  []Sink
	queues []chan asyncJob
	sup    *supervisor.Supervisor
	bus    eventbus.Bus
	log    logx.Logger

	mu     sync.RWMutex
	closed bool
}

// NewAsync seals reg and starts one worker per sink.
func NewAsync(ctx context.Context, reg *Registry, cfg AsyncConfig) *Async {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	log := cfg.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Async{
		reg:   reg,
		sinks: reg.seal(),
		bus:   cfg.Bus,
		log:   log.With(logx.String("comp", "sink.async")),
		sup:   supervisor.NewSupervisor(ctx, supervisor.WithLogger(log)),
	}
	a.queues = make([]chan asyncJob, len(a.sinks))
	for i := range a.sinks {
		q := make(chan asyncJob, cfg.QueueSize)
		a.queues[i] = q
		s := &a.sinks[i]
		a.sup.Go(fmt.Sprintf("sink.%s", s.Name), func(context.Context) {
			for j := range q {
				// Honor the caller's context, not the supervisor's: Close
				// drains queued records.
				reg.deliverTo(j.ctx, s, j.rec)
			}
		})
	}
	return a
}

// Dispatch enqueues rec for every admitting sink and returns immediately.
// It returns the number of sinks the record was queued for.
func (a *Async) Dispatch(ctx context.Context, rec record.Record) int {
	if ctx == nil {
		ctx = context.Background()
	}
	// Detach from the caller's cancellation; the record outlives the call.
	ctx = context.WithoutCancel(ctx)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return 0
	}
	queued := 0
	for i := range a.sinks {
		s := &a.sinks[i]
		if !s.Accepts(rec.Severity, a.reg.defaultCeiling) {
			continue
		}
		select {
		case a.queues[i] <- asyncJob{ctx: ctx, rec: rec}:
			queued++
		default:
			a.drop(s, rec)
		}
	}
	return queued
}

func (a *Async) drop(s *Sink, rec record.Record) {
	if a.bus != nil {
		a.bus.Publish(eventbus.Event{Type: eventbus.SinkDropped, Data: FailureEvent{
			Sink: s.Name, Kind: s.Kind, RecordID: rec.ID, Severity: rec.Severity.String(),
			Class: "delivery", Error: ErrQueueFull.Error(), At: time.Now(),
		}})
	}
	a.reg.reportErr(s, rec, &DeliveryError{Kind: s.Kind, Err: ErrQueueFull})
}

// Pending returns the number of queued records across all sinks.
func (a *Async) Pending() int {
	n := 0
	for _, q := range a.queues {
		n += len(q)
	}
	return n
}

// Close stops intake and drains queued records until ctx is done.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	for _, q := range a.queues {
		close(q)
	}
	a.mu.Unlock()

	if err := a.sup.Wait(ctx); err != nil {
		a.log.Warn("async drain incomplete", logx.Int("pending", a.Pending()), logx.Err(err))
		a.sup.Cancel()
		return err
	}
	a.sup.Cancel()
	return nil
}
