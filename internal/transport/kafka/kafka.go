// Package kafka produces structured JSON payloads to a Kafka topic.
//
// The librdkafka-backed producer is only compiled with -tags kafka; other
// builds get a constructor that returns ErrUnavailable so the channel is
// skipped at logger construction.
package kafka

import (
	"errors"
	"strings"
	"time"
)

const (
	Kind           = "kafka"
	DefaultTimeout = 10 * time.Second
)

var ErrUnavailable = errors.New("kafka: support not compiled in (build with -tags kafka)")

type Config struct {
	Brokers []string
	Topic   string
	// Timeout bounds the wait for the broker delivery report.
	Timeout time.Duration
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: no brokers")
	}
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("kafka: topic is empty")
	}
	return nil
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
