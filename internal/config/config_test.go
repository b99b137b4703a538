package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleYAML = `
logging:
  app_name: svc
  app_version: "1.2"
  environment: prod
  min_severity: info
  channels:
    ops:
      type: notification
      bot_token: "123:abc"
      destinations:
        ERROR: "-1001"
        CRITICAL: "-1002:7"
    collector:
      type: webhook
      url: https://logs.example.com/ingest
      min_severity: WARNING
      timeout: 5s
      gzip: true
diagnostics:
  level: info
heartbeat: "@every 1m"
`

func TestDecodeYAML(t *testing.T) {
	t.Parallel()
	cfg, err := Decode("applog.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Logging.AppName != "svc" || cfg.Logging.AppVersion != "1.2" {
		t.Fatalf("unexpected logging: %+v", cfg.Logging)
	}
	ops := cfg.Logging.Channels["ops"]
	if ops.Type != ChannelNotification || ops.Destinations["CRITICAL"] != "-1002:7" {
		t.Fatalf("unexpected ops channel: %+v", ops)
	}
	if !cfg.Logging.Channels["collector"].Gzip {
		t.Fatal("collector gzip should be set")
	}
	if cfg.Heartbeat != "@every 1m" {
		t.Fatalf("heartbeat = %q", cfg.Heartbeat)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeStrict(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name, path, data string
	}{
		{"unknown field", "a.json", `{"logging":{"app_name":"x","bogus":1}}`},
		{"trailing data", "a.json", `{"logging":{}} {}`},
		{"bad yaml", "a.yml", "logging: [unclosed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.path, []byte(tc.data)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"empty ok", Config{}, ""},
		{"bad min severity", Config{Logging: LoggerConfig{MinSeverity: "loud"}}, "logging.min_severity"},
		{"unknown type", Config{Logging: LoggerConfig{Channels: map[string]ChannelConfig{"x": {Type: "smtp"}}}}, "logging.channels.x.type"},
		{"bad timeout", Config{Logging: LoggerConfig{Channels: map[string]ChannelConfig{"w": {Type: "webhook", Timeout: "soon"}}}}, "logging.channels.w.timeout"},
		{"incomplete channel ok", Config{Logging: LoggerConfig{Channels: map[string]ChannelConfig{"w": {Type: "webhook"}}}}, ""},
		{"bad diag level", Config{Diagnostics: DiagnosticsConfig{Level: "chatty"}}, "diagnostics.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			err := Validate(&cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative should fail")
	}
	if d, err := ParseDurationOrDefault("x", "", 3*time.Second); err != nil || d != 3*time.Second {
		t.Fatalf("default: %v %v", d, err)
	}
}

func TestSummarizeConfigChangeHidesSecrets(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{Logging: LoggerConfig{Channels: map[string]ChannelConfig{
		"ops": {Type: "notification", BotToken: "old-secret"},
	}}}
	newCfg := &Config{Logging: LoggerConfig{Channels: map[string]ChannelConfig{
		"ops":  {Type: "notification", BotToken: "new-secret"},
		"hook": {Type: "webhook", URL: "https://x"},
	}}, Heartbeat: "@every 1m"}

	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if strings.Join(changed, ",") != "channels,heartbeat" {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}
	if got := changedChannels(oldCfg.Logging.Channels, newCfg.Logging.Channels); strings.Join(got, ",") != "hook,ops" {
		t.Fatalf("changedChannels = %v", got)
	}
}

func TestManagerLoadAndWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "applog.json")
	if err := os.WriteFile(path, []byte(`{"logging":{"app_name":"one"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.AppName != "one" || m.Get() != cfg {
		t.Fatalf("unexpected loaded config: %+v", cfg)
	}

	updates := m.Subscribe(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Watch(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"logging":{"app_name":"two"}}`), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-updates:
		if got.Logging.AppName != "two" {
			t.Fatalf("reloaded app_name = %q", got.Logging.AppName)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestManagerLoadRejectsInvalid(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "applog.json")
	if err := os.WriteFile(path, []byte(`{"logging":{"min_severity":"loud"}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestPublishKeepsLatest(t *testing.T) {
	t.Parallel()
	m := NewManager("unused.json")
	ch := m.Subscribe(1)
	a, b := &Config{Heartbeat: "a"}, &Config{Heartbeat: "b"}
	m.publish(a)
	m.publish(b)
	if got := <-ch; got != b {
		t.Fatalf("got %q, want latest", got.Heartbeat)
	}
	m.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after Unsubscribe")
	}
}
