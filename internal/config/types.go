package config

// Config is the on-disk configuration of the applog command.
type Config struct {
	Logging     LoggerConfig      `json:"logging"`
	Diagnostics DiagnosticsConfig `json:"diagnostics,omitempty"`

	// Heartbeat is an optional cron spec ("@every 1m", "*/5 * * * *").
	// Each tick emits one INFO heartbeat record.
	Heartbeat string `json:"heartbeat,omitempty"`
}

// LoggerConfig describes one application logger and its channels.
//
// Severity fields take the names DEBUG, INFO, WARNING, ERROR and CRITICAL.
// Durations are Go duration strings (e.g. "500ms", "10s").
type LoggerConfig struct {
	AppName     string `json:"app_name"`
	AppVersion  string `json:"app_version,omitempty"`
	Environment string `json:"environment,omitempty"`

	// MinSeverity drops records below it before dispatch. Default: DEBUG.
	MinSeverity string `json:"min_severity,omitempty"`
	// LoggerName is the "name" field of every record. Default: "app".
	LoggerName string `json:"logger_name,omitempty"`

	Stream StreamConfig `json:"stream,omitempty"`

	// QueueSize > 0 moves delivery to background workers with a per-sink
	// queue of this size.
	QueueSize int `json:"queue_size,omitempty"`

	Channels map[string]ChannelConfig `json:"channels,omitempty"`
}

// StreamConfig selects where the structured stream sink writes.
// An empty Path means stderr.
type StreamConfig struct {
	Path string `json:"path,omitempty"`
}

// Channel types.
const (
	ChannelNotification = "notification"
	ChannelWebhook      = "webhook"
	ChannelJournald     = "journald"
	ChannelKafka        = "kafka"
)

// ChannelConfig is a tagged union; Type selects which fields apply.
type ChannelConfig struct {
	Type string `json:"type"`

	// notification
	BotToken     string            `json:"bot_token,omitempty"`
	APIURL       string            `json:"api_url,omitempty"`
	Destinations map[string]string `json:"destinations,omitempty"`

	// webhook
	URL     string            `json:"url,omitempty"`
	Gzip    bool              `json:"gzip,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`

	// kafka
	Brokers []string `json:"brokers,omitempty"`
	Topic   string   `json:"topic,omitempty"`

	// webhook, journald, kafka
	MinSeverity string `json:"min_severity,omitempty"`
	// notification, webhook, kafka
	Timeout string `json:"timeout,omitempty"`
}

// DiagnosticsConfig controls applog's own zerolog output.
type DiagnosticsConfig struct {
	// Level: debug|info|warn|error|off. Default: warn.
	Level string `json:"level,omitempty"`
	// RatePerSec caps sink failure reports. Default: 5.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}
