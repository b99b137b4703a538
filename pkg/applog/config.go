package applog

import (
	"fmt"
	"strings"

	"applog/internal/config"
	"applog/internal/record"
)

// FromConfig fills base with the logger section of a config file. Fields
// already set on base (Stream, Diagnostics, Bus) are kept. Channels that
// cannot be converted are carried through and skipped by New with a
// ConfigError, so only logger-level fields can make FromConfig fail.
func FromConfig(lc config.LoggerConfig, base Options) (Options, error) {
	o := base
	o.AppName = lc.AppName
	o.AppVersion = lc.AppVersion
	o.AppEnvironment = lc.Environment
	o.LoggerName = strings.TrimSpace(lc.LoggerName)
	o.StreamPath = strings.TrimSpace(lc.Stream.Path)
	o.QueueSize = lc.QueueSize

	if s := strings.TrimSpace(lc.MinSeverity); s != "" {
		sev, err := record.ParseSeverity(s)
		if err != nil {
			return base, fmt.Errorf("logging.min_severity: %w", err)
		}
		o.MinSeverity = sev
	}

	o.Channels = make(map[string]Channel, len(lc.Channels))
	for name, cc := range lc.Channels {
		o.Channels[name] = channelFromConfig(cc)
	}
	return o, nil
}

func channelFromConfig(cc config.ChannelConfig) Channel {
	kind := strings.ToLower(strings.TrimSpace(cc.Type))
	bad := func(reason string, err error) Channel {
		if err != nil {
			reason += ": " + err.Error()
		}
		return invalidChannel{kind: kind, reason: reason}
	}

	var minSev record.Severity
	if s := strings.TrimSpace(cc.MinSeverity); s != "" {
		sev, err := record.ParseSeverity(s)
		if err != nil {
			return bad("min_severity", err)
		}
		minSev = sev
	}
	timeout, err := config.ParseDurationField("timeout", cc.Timeout)
	if err != nil {
		return bad("timeout", err)
	}

	switch kind {
	case config.ChannelNotification:
		return Notification{
			BotToken:     cc.BotToken,
			Destinations: cc.Destinations,
			APIURL:       cc.APIURL,
			Timeout:      timeout,
		}
	case config.ChannelWebhook:
		return Webhook{URL: cc.URL, MinSeverity: minSev, Timeout: timeout, Gzip: cc.Gzip, Headers: cc.Headers}
	case config.ChannelJournald:
		return Journald{MinSeverity: minSev}
	case config.ChannelKafka:
		return Kafka{Brokers: cc.Brokers, Topic: cc.Topic, MinSeverity: minSev, Timeout: timeout}
	default:
		return bad(fmt.Sprintf("unknown channel type %q", cc.Type), nil)
	}
}
