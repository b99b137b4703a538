// Package sink owns the set of destinations a logger fans records out to.
//
// A Sink is a (formatter, severity band, transport) triple. The Registry is
// append-only while it is being configured and becomes read-only on the
// first Dispatch. Dispatch walks every sink in registration order on the
// caller's goroutine; a failing formatter or transport is caught at the sink
// boundary and handed to the Reporter, never to the caller or to sibling
// sinks.
//
// Async wraps a Registry with one FIFO queue per sink for callers that do
// not want to block on network transports.
package sink
