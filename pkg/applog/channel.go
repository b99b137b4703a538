package applog

import (
	"fmt"
	"time"

	"applog/internal/record"
)

// Channel is one named destination family. The concrete types are
// Notification, Webhook, Journald and Kafka.
type Channel interface {
	channelKind() string
}

// Notification routes each severity to its own chat destination. Keys of
// Destinations are severity names; values are "<chat_id>" or
// "<chat_id>:<thread_id>". Severities without a destination get no sink.
type Notification struct {
	BotToken     string
	Destinations map[string]string
	// APIURL overrides the public Bot API endpoint.
	APIURL  string
	Timeout time.Duration
}

// Webhook posts the structured JSON document to URL.
type Webhook struct {
	URL string
	// MinSeverity defaults to the logger's MinSeverity.
	MinSeverity record.Severity
	Timeout     time.Duration
	Gzip        bool
	Headers     map[string]string
}

// Journald sends the structured JSON document to the systemd journal.
type Journald struct {
	MinSeverity record.Severity
	// Identifier is SYSLOG_IDENTIFIER. Default: the app name.
	Identifier string
}

// Kafka produces the structured JSON document to Topic. Only available in
// binaries built with -tags kafka.
type Kafka struct {
	Brokers     []string
	Topic       string
	MinSeverity record.Severity
	Timeout     time.Duration
}

// invalidChannel stands in for a channel that could not be converted from
// configuration; building it always yields a ConfigError.
type invalidChannel struct {
	kind   string
	reason string
}

func (Notification) channelKind() string     { return "notification" }
func (Webhook) channelKind() string          { return "webhook" }
func (Journald) channelKind() string         { return "journald" }
func (Kafka) channelKind() string            { return "kafka" }
func (c invalidChannel) channelKind() string { return c.kind }

// ConfigError reports a channel that was skipped at construction.
type ConfigError struct {
	Channel string
	Kind    string
	Reason  string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("channel %q (%s) skipped: %s", e.Channel, e.Kind, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }
