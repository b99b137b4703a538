package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"applog/internal/format"
	"applog/internal/record"
)

// State is the registry lifecycle.
type State int

const (
	Unconfigured State = iota
	Configured
	Active
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Active:
		return "active"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result summarizes one Dispatch. It is informational only.
type Result struct {
	Admitted  int
	Delivered int
	Failed    int
}

type Option func(*Registry)

// WithDefaultCeiling sets the ceiling used by sinks that leave theirs
// unset. Default: record.Critical.
func WithDefaultCeiling(s record.Severity) Option {
	return func(r *Registry) { r.defaultCeiling = s }
}

// WithReporter sets where sink failures go. Default: dropped.
func WithReporter(rep Reporter) Option {
	return func(r *Registry) { r.reporter = rep }
}

// Registry is the append-only set of sinks of one logger.
type Registry struct {
	mu     sync.Mutex
	sinks  []Sink
	active atomic.Bool

	defaultCeiling record.Severity
	reporter       Reporter
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{defaultCeiling: record.Critical}
	for _, o := range opts {
		o(r)
	}
	if r.reporter == nil {
		r.reporter = ReporterFunc(func(*SinkError) {})
	}
	return r
}

// Add attaches a sink. It fails once the registry is Active.
func (r *Registry) Add(s Sink) error {
	if s.Formatter == nil || s.Transport == nil {
		return fmt.Errorf("sink %q: formatter and transport are required", s.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active.Load() {
		return ErrRegistrySealed
	}
	r.sinks = append(r.sinks, s)
	return nil
}

// State reports the lifecycle state.
func (r *Registry) State() State {
	if r.active.Load() {
		return Active
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sinks) == 0 {
		return Unconfigured
	}
	return Configured
}

// Sinks returns a copy of the configured sinks in registration order.
func (r *Registry) Sinks() []Sink {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sink(nil), r.sinks...)
}

// Select returns the names of the sinks that admit sev.
func (r *Registry) Select(sev record.Severity) []string {
	var names []string
	for _, s := range r.Sinks() {
		if s.Accepts(sev, r.defaultCeiling) {
			names = append(names, s.Name)
		}
	}
	return names
}

// seal moves the registry to Active and returns the now immutable sink list.
func (r *Registry) seal() []Sink {
	if r.active.Load() {
		return r.sinks
	}
	r.mu.Lock()
	r.active.Store(true)
	s := r.sinks
	r.mu.Unlock()
	return s
}

// Dispatch delivers rec to every admitting sink, in registration order.
// Failures are reported, never returned.
func (r *Registry) Dispatch(ctx context.Context, rec record.Record) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	sinks := r.seal()
	var res Result
	for i := range sinks {
		if !sinks[i].Accepts(rec.Severity, r.defaultCeiling) {
			continue
		}
		res.Admitted++
		if r.deliverTo(ctx, &sinks[i], rec) {
			res.Delivered++
		} else {
			res.Failed++
		}
	}
	return res
}

// deliverTo formats and delivers rec through one sink and reports failure.
func (r *Registry) deliverTo(ctx context.Context, s *Sink, rec record.Record) bool {
	err := attempt(ctx, s, rec)
	if err == nil {
		return true
	}
	r.reportErr(s, rec, err)
	return false
}

func (r *Registry) reportErr(s *Sink, rec record.Record, err error) {
	var fe *format.FormatError
	var de *DeliveryError
	if !errors.As(err, &fe) && !errors.As(err, &de) {
		err = &DeliveryError{Kind: s.Kind, Err: err}
	}
	se := &SinkError{Sink: s.Name, Kind: s.Kind, RecordID: rec.ID, Severity: rec.Severity, Err: err}
	func() {
		// A broken reporter must not take the dispatch loop down either.
		defer func() { _ = recover() }()
		r.reporter.Report(se)
	}()
}

func attempt(ctx context.Context, s *Sink, rec record.Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	body, err := s.Formatter.Format(rec)
	if err != nil {
		return err
	}
	return s.Transport.Deliver(ctx, Delivery{Record: rec, Body: body})
}

// Close closes every transport that implements io.Closer and returns the
// joined errors.
func (r *Registry) Close() error {
	var errs []error
	for _, s := range r.Sinks() {
		if c, ok := s.Transport.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %s: %w", s.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
