//go:build !kafka

package kafka

import (
	"context"

	"applog/internal/sink"
)

// Transport is unavailable in builds without the kafka tag.
type Transport struct{}

func New(cfg Config) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}

func (t *Transport) Deliver(context.Context, sink.Delivery) error {
	return &sink.DeliveryError{Kind: Kind, Err: ErrUnavailable}
}

func (t *Transport) Close() error { return nil }
