package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"applog/internal/record"
)

// Validate rejects configs that cannot be interpreted at all: unknown
// channel types, unparsable severities or durations. Incomplete channels
// (no URL, no token) pass; the logger skips them at construction.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	lc := cfg.Logging
	add(checkSeverity("logging.min_severity", lc.MinSeverity))
	if lc.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("logging.queue_size: must be >= 0"))
	}
	names := make([]string, 0, len(lc.Channels))
	for name := range lc.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch := lc.Channels[name]
		path := "logging.channels." + name
		switch strings.ToLower(strings.TrimSpace(ch.Type)) {
		case ChannelNotification, ChannelWebhook, ChannelJournald, ChannelKafka:
		default:
			errs = append(errs, fmt.Errorf("%s.type: unknown channel type %q", path, ch.Type))
		}
		add(checkSeverity(path+".min_severity", ch.MinSeverity))
		_, err := ParseDurationField(path+".timeout", ch.Timeout)
		add(err)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Diagnostics.Level)) {
	case "", "debug", "info", "warn", "warning", "error", "critical", "off", "disabled":
	default:
		errs = append(errs, fmt.Errorf("diagnostics.level: unknown level %q", cfg.Diagnostics.Level))
	}
	if cfg.Diagnostics.RatePerSec < 0 {
		errs = append(errs, fmt.Errorf("diagnostics.rate_per_sec: must be >= 0"))
	}
	return errors.Join(errs...)
}

func checkSeverity(path, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := record.ParseSeverity(raw); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
