package applog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"applog/internal/eventbus"
	"applog/internal/format"
	"applog/internal/record"
	"applog/internal/sink"
	"applog/internal/transport/journald"
	"applog/internal/transport/kafka"
	"applog/internal/transport/stream"
	"applog/internal/transport/telegram"
	"applog/internal/transport/webhook"
	"applog/pkg/logx"
)

// builder turns Options into registry sinks. Channel failures are recorded
// as ConfigErrors and never abort construction.
type builder struct {
	opts    Options
	reg     *sink.Registry
	log     logx.Logger
	skipped []*ConfigError
}

func (b *builder) build() {
	b.addStream()

	names := make([]string, 0, len(b.opts.Channels))
	for name := range b.opts.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch := b.opts.Channels[name]
		if ch == nil {
			b.skip(&ConfigError{Channel: name, Kind: "unknown", Reason: "channel is nil"})
			continue
		}
		sinks, err := b.channelSinks(name, ch)
		if err != nil {
			var ce *ConfigError
			if !errors.As(err, &ce) {
				ce = &ConfigError{Channel: name, Kind: ch.channelKind(), Reason: "invalid", Err: err}
			}
			b.skip(ce)
			continue
		}
		for _, s := range sinks {
			if err := b.reg.Add(s); err != nil {
				b.skip(&ConfigError{Channel: name, Kind: ch.channelKind(), Reason: "register sink", Err: err})
			}
		}
		if len(sinks) > 0 {
			b.log.Debug("channel attached", logx.String("channel", name), logx.String("kind", ch.channelKind()), logx.Int("sinks", len(sinks)))
		}
	}
}

// addStream attaches the mandatory structured stream sink.
func (b *builder) addStream() {
	t := stream.New(b.opts.Stream)
	if b.opts.Stream == nil && strings.TrimSpace(b.opts.StreamPath) != "" {
		ft, err := stream.Open(b.opts.StreamPath)
		if err != nil {
			b.log.Warn("stream file unavailable; writing to stderr",
				logx.String("path", b.opts.StreamPath), logx.Err(err))
		} else {
			t = ft
		}
	}
	// Cannot fail: formatter and transport are set and the registry is new.
	_ = b.reg.Add(sink.Sink{
		Name:      StreamSinkName,
		Kind:      stream.Kind,
		Threshold: b.opts.MinSeverity,
		Formatter: format.JSON{},
		Transport: t,
	})
}

func (b *builder) skip(ce *ConfigError) {
	b.skipped = append(b.skipped, ce)
	b.log.Warn("channel skipped",
		logx.String("channel", ce.Channel),
		logx.String("kind", ce.Kind),
		logx.String("reason", ce.Reason),
		logx.Err(ce.Err),
	)
	if b.opts.Bus != nil {
		b.opts.Bus.Publish(eventbus.Event{Type: eventbus.ChannelSkipped, Data: ce})
	}
}

func (b *builder) channelSinks(name string, ch Channel) ([]sink.Sink, error) {
	switch c := ch.(type) {
	case Notification:
		return b.notificationSinks(name, c)
	case *Notification:
		return b.notificationSinks(name, *c)
	case Webhook:
		return b.webhookSinks(name, c)
	case *Webhook:
		return b.webhookSinks(name, *c)
	case Journald:
		return b.journaldSinks(name, c)
	case *Journald:
		return b.journaldSinks(name, *c)
	case Kafka:
		return b.kafkaSinks(name, c)
	case *Kafka:
		return b.kafkaSinks(name, *c)
	case invalidChannel:
		return nil, &ConfigError{Channel: name, Kind: c.kind, Reason: c.reason}
	default:
		return nil, &ConfigError{Channel: name, Kind: fmt.Sprintf("%T", ch), Reason: "unsupported channel type"}
	}
}

// notificationSinks builds one sink per configured severity, in severity
// order. Each sink admits exactly its own severity.
func (b *builder) notificationSinks(name string, c Notification) ([]sink.Sink, error) {
	kind := c.channelKind()
	targets := map[record.Severity]telegram.Target{}
	for key, dest := range c.Destinations {
		sev, err := record.ParseSeverity(key)
		if err != nil {
			return nil, &ConfigError{Channel: name, Kind: kind, Reason: "unknown severity " + fmt.Sprintf("%q", key)}
		}
		if strings.TrimSpace(dest) == "" {
			continue
		}
		to, err := telegram.ParseTarget(dest)
		if err != nil {
			return nil, &ConfigError{Channel: name, Kind: kind, Reason: "bad destination for " + sev.String(), Err: err}
		}
		if _, dup := targets[sev]; dup {
			return nil, &ConfigError{Channel: name, Kind: kind, Reason: "duplicate destination for " + sev.String()}
		}
		targets[sev] = to
	}
	if len(targets) == 0 {
		return nil, nil
	}

	bot, err := telegram.NewBot(telegram.Config{Token: c.BotToken, APIURL: c.APIURL, Timeout: c.Timeout})
	if err != nil {
		return nil, &ConfigError{Channel: name, Kind: kind, Reason: "bot unavailable", Err: err}
	}
	var out []sink.Sink
	for _, sev := range record.Severities() {
		to, ok := targets[sev]
		if !ok {
			continue
		}
		out = append(out, sink.Sink{
			Name:      name + "." + sev.String(),
			Kind:      telegram.Kind,
			Threshold: sev,
			Ceiling:   sev,
			Formatter: format.HTML{},
			Transport: telegram.New(bot, to),
		})
	}
	return out, nil
}

func (b *builder) webhookSinks(name string, c Webhook) ([]sink.Sink, error) {
	t, err := webhook.New(c.URL,
		webhook.WithTimeout(c.Timeout),
		webhook.WithGzip(c.Gzip),
		webhook.WithHeaders(c.Headers),
	)
	if err != nil {
		return nil, &ConfigError{Channel: name, Kind: c.channelKind(), Reason: "bad url", Err: err}
	}
	return []sink.Sink{{
		Name:      name,
		Kind:      webhook.Kind,
		Threshold: b.threshold(c.MinSeverity),
		Formatter: format.JSON{},
		Transport: t,
	}}, nil
}

func (b *builder) journaldSinks(name string, c Journald) ([]sink.Sink, error) {
	id := c.Identifier
	if id == "" {
		id = b.opts.AppName
	}
	t, err := journald.New(id)
	if err != nil {
		return nil, &ConfigError{Channel: name, Kind: c.channelKind(), Reason: "journal unavailable", Err: err}
	}
	return []sink.Sink{{
		Name:      name,
		Kind:      journald.Kind,
		Threshold: b.threshold(c.MinSeverity),
		Formatter: format.JSON{},
		Transport: t,
	}}, nil
}

func (b *builder) kafkaSinks(name string, c Kafka) ([]sink.Sink, error) {
	t, err := kafka.New(kafka.Config{Brokers: c.Brokers, Topic: c.Topic, Timeout: c.Timeout})
	if err != nil {
		return nil, &ConfigError{Channel: name, Kind: c.channelKind(), Reason: "producer unavailable", Err: err}
	}
	return []sink.Sink{{
		Name:      name,
		Kind:      kafka.Kind,
		Threshold: b.threshold(c.MinSeverity),
		Formatter: format.JSON{},
		Transport: t,
	}}, nil
}

// threshold falls back to the logger's MinSeverity.
func (b *builder) threshold(s record.Severity) record.Severity {
	return record.Resolve(s, b.opts.MinSeverity)
}
