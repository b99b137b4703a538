package sink

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"applog/internal/eventbus"
	"applog/internal/format"
	"applog/pkg/logx"
)

// Reporter receives every failure caught at a sink boundary.
// Report must not block for long; it runs on the dispatching goroutine.
type Reporter interface {
	Report(err *SinkError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err *SinkError)

func (f ReporterFunc) Report(err *SinkError) { f(err) }

// FailureEvent is the eventbus payload for eventbus.SinkFailed.
type FailureEvent struct {
	Sink     string    `json:"sink"`
	Kind     string    `json:"kind"`
	RecordID string    `json:"record_id"`
	Severity string    `json:"severity"`
	Class    string    `json:"class"` // "format" or "delivery"
	Status   int       `json:"status,omitempty"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`
}

// LogReporter writes failures to the diagnostic logger and publishes them
// on the event bus. Log lines are throttled so a dead endpoint cannot flood
// the diagnostic output; events are never throttled.
type LogReporter struct {
	log        logx.Logger
	bus        eventbus.Bus
	limiter    *rate.Limiter
	suppressed atomic.Uint64
}

// NewLogReporter creates a reporter allowing perSec log lines per second
// (burst perSec). perSec <= 0 defaults to 5.
func NewLogReporter(log logx.Logger, bus eventbus.Bus, perSec int) *LogReporter {
	if log.IsZero() {
		log = logx.Nop()
	}
	if perSec <= 0 {
		perSec = 5
	}
	return &LogReporter{
		log:     log.With(logx.String("comp", "sink")),
		bus:     bus,
		limiter: rate.NewLimiter(rate.Limit(perSec), perSec),
	}
}

func (r *LogReporter) Report(se *SinkError) {
	if se == nil {
		return
	}
	ev := failureEvent(se)

	if r.bus != nil {
		r.bus.Publish(eventbus.Event{Type: eventbus.SinkFailed, Time: ev.At, Data: ev})
	}

	if !r.limiter.Allow() {
		r.suppressed.Add(1)
		return
	}
	fields := []logx.Field{
		logx.String("sink", se.Sink),
		logx.String("kind", se.Kind),
		logx.String("class", ev.Class),
		logx.String("record_id", se.RecordID),
		logx.String("severity", se.Severity.String()),
		logx.Err(se.Err),
	}
	if ev.Status != 0 {
		fields = append(fields, logx.Int("status", ev.Status))
	}
	if n := r.suppressed.Swap(0); n > 0 {
		fields = append(fields, logx.Uint64("suppressed", n))
	}
	r.log.Warn("sink failure", fields...)
}

// Suppressed returns the number of failures not yet logged because of
// throttling.
func (r *LogReporter) Suppressed() uint64 { return r.suppressed.Load() }

func failureEvent(se *SinkError) FailureEvent {
	ev := FailureEvent{
		Sink:     se.Sink,
		Kind:     se.Kind,
		RecordID: se.RecordID,
		Severity: se.Severity.String(),
		Class:    "delivery",
		At:       time.Now(),
	}
	if se.Err != nil {
		ev.Error = se.Err.Error()
	}
	var fe *format.FormatError
	if errors.As(se.Err, &fe) {
		ev.Class = "format"
	}
	var de *DeliveryError
	if errors.As(se.Err, &de) {
		ev.Status = de.Status
	}
	return ev
}
