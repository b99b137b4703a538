package sink

import (
	"errors"
	"fmt"

	"applog/internal/record"
)

var (
	ErrRegistrySealed = errors.New("sink: registry is active; sinks can no longer be added")
	ErrQueueFull      = errors.New("sink: queue full")
	ErrClosed         = errors.New("sink: async dispatcher closed")
)

// DeliveryError is a transport failure: network error, timeout or a
// non-success response.
type DeliveryError struct {
	Kind   string // transport kind, e.g. "webhook"
	Target string // destination (URL, chat id, topic); never a credential
	Status int    // protocol status when one was received
	Err    error
}

func (e *DeliveryError) Error() string {
	msg := "deliver " + e.Kind
	if e.Target != "" {
		msg += " to " + e.Target
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// SinkError is what the Reporter receives: a format or delivery failure
// tagged with the sink and the record it happened on.
type SinkError struct {
	Sink     string
	Kind     string
	RecordID string
	Severity record.Severity
	Err      error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: record %s (%s): %v", e.Sink, e.RecordID, e.Severity, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
