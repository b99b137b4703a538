//go:build kafka

package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"applog/internal/sink"
)

// producer is the subset of *ck.Producer the transport uses.
type producer interface {
	Produce(msg *ck.Message, deliveryChan chan ck.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Transport produces one message per delivery and waits for its report.
type Transport struct {
	cfg  Config
	p    producer
	once sync.Once
}

func New(cfg Config) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	p, err := ck.NewProducer(&ck.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"acks":              "1",
	})
	if err != nil {
		return nil, fmt.Errorf("kafka: create producer: %w", err)
	}
	return &Transport{cfg: cfg, p: p}, nil
}

func (t *Transport) Deliver(ctx context.Context, d sink.Delivery) error {
	topic := t.cfg.Topic
	report := make(chan ck.Event, 1)
	msg := &ck.Message{
		TopicPartition: ck.TopicPartition{Topic: &topic, Partition: ck.PartitionAny},
		Key:            []byte(d.Record.Logger),
		Value:          d.Body,
		Headers: []ck.Header{
			{Key: "severity", Value: []byte(d.Record.Severity.String())},
			{Key: "record_id", Value: []byte(d.Record.ID)},
		},
	}
	if err := t.p.Produce(msg, report); err != nil {
		return t.fail(err)
	}

	wctx, cancel := context.WithTimeout(ctx, t.cfg.timeout())
	defer cancel()
	select {
	case ev := <-report:
		m, ok := ev.(*ck.Message)
		if !ok {
			return t.fail(fmt.Errorf("unexpected delivery event %T", ev))
		}
		if m.TopicPartition.Error != nil {
			return t.fail(m.TopicPartition.Error)
		}
		return nil
	case <-wctx.Done():
		return t.fail(wctx.Err())
	}
}

func (t *Transport) fail(err error) error {
	return &sink.DeliveryError{Kind: Kind, Target: t.cfg.Topic, Err: err}
}

// Close flushes outstanding messages (bounded by the delivery timeout) and
// closes the producer.
func (t *Transport) Close() error {
	t.once.Do(func() {
		t.p.Flush(int(t.cfg.timeout().Milliseconds()))
		t.p.Close()
	})
	return nil
}
