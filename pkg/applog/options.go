package applog

import (
	"io"

	"applog/internal/eventbus"
	"applog/internal/record"
	"applog/pkg/logx"
)

const (
	DefaultLoggerName = "app"
	// StreamSinkName is the name of the mandatory stream sink.
	StreamSinkName = "stream"
)

// Options configure New. Only AppName is expected; everything else has a
// usable default.
type Options struct {
	AppName        string
	AppVersion     string
	AppEnvironment string

	// MinSeverity drops records below it before dispatch. Default: Debug.
	MinSeverity record.Severity
	// LoggerName is copied into every record. Default: "app".
	LoggerName string

	Channels map[string]Channel

	// Stream receives the structured stream sink. Default: os.Stderr.
	Stream io.Writer
	// StreamPath, when set and Stream is nil, appends to this file instead.
	StreamPath string

	// QueueSize > 0 delivers through per-sink background queues of that
	// size instead of on the calling goroutine.
	QueueSize int

	// Diagnostics receives applog's own warnings (skipped channels, sink
	// failures). Default: console logger at WARN.
	Diagnostics logx.Logger
	// DiagnosticsRate caps sink failure lines per second. Default: 5.
	DiagnosticsRate int
	// Bus, when set, receives channel.skipped, sink.failed and sink.dropped
	// events.
	Bus eventbus.Bus
}

func (o Options) withDefaults() Options {
	if o.MinSeverity == record.SeverityUnset {
		o.MinSeverity = record.Debug
	}
	if o.LoggerName == "" {
		o.LoggerName = DefaultLoggerName
	}
	if o.Diagnostics.IsZero() {
		o.Diagnostics = logx.NewConsole("warn")
	}
	return o
}
