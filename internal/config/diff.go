package config

import (
	"reflect"
	"sort"
	"strings"

	logx "applog/pkg/logx"
)

// SummarizeConfigChange returns the changed sections and safe structured
// attrs for logging. Tokens, URLs and headers are never included.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 8)

	o, n := oldCfg.Logging, newCfg.Logging
	if o.AppName != n.AppName || o.AppVersion != n.AppVersion || o.Environment != n.Environment ||
		o.MinSeverity != n.MinSeverity || o.LoggerName != n.LoggerName ||
		o.Stream != n.Stream || o.QueueSize != n.QueueSize {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.app_name", n.AppName),
			logx.String("logging.min_severity", strings.TrimSpace(n.MinSeverity)),
			logx.Int("logging.queue_size", n.QueueSize),
		)
	}

	if names := changedChannels(o.Channels, n.Channels); len(names) > 0 {
		changed = append(changed, "channels")
		attrs = append(attrs,
			logx.Strs("channels.changed", names),
			logx.Int("channels.count", len(n.Channels)),
		)
	}

	if oldCfg.Diagnostics != newCfg.Diagnostics {
		changed = append(changed, "diagnostics")
		attrs = append(attrs,
			logx.String("diagnostics.level", newCfg.Diagnostics.Level),
			logx.Int("diagnostics.rate_per_sec", newCfg.Diagnostics.RatePerSec),
		)
	}

	if strings.TrimSpace(oldCfg.Heartbeat) != strings.TrimSpace(newCfg.Heartbeat) {
		changed = append(changed, "heartbeat")
		attrs = append(attrs, logx.String("heartbeat", strings.TrimSpace(newCfg.Heartbeat)))
	}

	return changed, attrs
}

// changedChannels lists channel names added, removed or modified, sorted.
func changedChannels(oldM, newM map[string]ChannelConfig) []string {
	seen := map[string]struct{}{}
	var out []string
	for name, oc := range oldM {
		seen[name] = struct{}{}
		nc, ok := newM[name]
		if !ok || !reflect.DeepEqual(oc, nc) {
			out = append(out, name)
		}
	}
	for name := range newM {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
