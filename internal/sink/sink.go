package sink

import (
	"context"

	"applog/internal/format"
	"applog/internal/record"
)

// Delivery is one formatted payload handed to a transport. Record is a
// read-only snapshot; transports use it for routing metadata only.
type Delivery struct {
	Record record.Record
	Body   []byte
}

// Transport moves a payload to its destination. Implementations must be
// safe for concurrent use and must bound their own blocking time.
type Transport interface {
	Deliver(ctx context.Context, d Delivery) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, d Delivery) error

func (f TransportFunc) Deliver(ctx context.Context, d Delivery) error { return f(ctx, d) }

// Sink is one configured destination.
//
// A record is admitted when Threshold <= severity <= Ceiling. An unset
// Ceiling falls back to the registry default; an unset Threshold admits
// everything below the ceiling.
type Sink struct {
	Name      string
	Kind      string
	Threshold record.Severity
	Ceiling   record.Severity
	Formatter format.Formatter
	Transport Transport
}

// Accepts reports whether the sink admits sev given the registry default
// ceiling.
func (s Sink) Accepts(sev, defaultCeiling record.Severity) bool {
	if sev < s.Threshold {
		return false
	}
	return record.Admits(record.Resolve(s.Ceiling, defaultCeiling), sev)
}
