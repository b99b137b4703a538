// Package stream writes payloads to a local io.Writer, one per line.
package stream

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"applog/internal/sink"
)

const Kind = "stream"

// Transport writes Body + "\n" per delivery. Writes are serialized so lines
// from concurrent dispatches never interleave.
type Transport struct {
	w     io.Writer
	close func() error
	once  sync.Once
}

// New wraps w. A nil w writes to stderr.
func New(w io.Writer) *Transport {
	if w == nil {
		w = os.Stderr
	}
	return &Transport{w: zerolog.SyncWriter(w)}
}

// Open appends to the file at path, creating it when missing.
func Open(path string) (*Transport, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	t := New(f)
	t.close = f.Close
	return t, nil
}

func (t *Transport) Deliver(_ context.Context, d sink.Delivery) error {
	line := make([]byte, 0, len(d.Body)+1)
	line = append(line, d.Body...)
	line = append(line, '\n')
	if _, err := t.w.Write(line); err != nil {
		return &sink.DeliveryError{Kind: Kind, Err: err}
	}
	return nil
}

// Close closes the underlying file for transports created with Open.
func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		if t.close != nil {
			err = t.close()
		}
	})
	return err
}
