package applog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"applog/internal/config"
	"applog/internal/eventbus"
	"applog/internal/format"
	"applog/internal/record"
	"applog/internal/sink"
	"applog/pkg/logx"
)

type streamDoc struct {
	App map[string]any `json:"app"`
}

func lines(t *testing.T, buf *bytes.Buffer) []streamDoc {
	t.Helper()
	var out []streamDoc
	for _, l := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if l == "" {
			continue
		}
		var d streamDoc
		if err := json.Unmarshal([]byte(l), &d); err != nil {
			t.Fatalf("stream line is not JSON: %q: %v", l, err)
		}
		out = append(out, d)
	}
	return out
}

func quietOpts(stream io.Writer) Options {
	return Options{AppName: "svc", Stream: stream, Diagnostics: logx.Nop()}
}

func TestNoChannelsYieldsOnlyStreamSink(t *testing.T) {
	t.Parallel()
	l := New(quietOpts(&bytes.Buffer{}))
	defer l.Close()
	if got := l.Sinks(); len(got) != 1 || got[0] != StreamSinkName {
		t.Fatalf("Sinks() = %v, want [stream]", got)
	}
	if len(l.Skipped()) != 0 {
		t.Fatalf("unexpected skipped: %v", l.Skipped())
	}
}

func TestStreamDocumentSchema(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	opts := quietOpts(&buf)
	opts.AppVersion = "1.2"
	opts.AppEnvironment = "prod"
	l := New(opts)
	defer l.Close()

	l.Warning("disk low")

	docs := lines(t, &buf)
	if len(docs) != 1 {
		t.Fatalf("got %d lines, want 1", len(docs))
	}
	app := docs[0].App
	want := map[string]string{
		"name":        "svc",
		"version":     "1.2",
		"environment": "prod",
		"severity":    "WARNING",
		"logger":      "app",
	}
	for k, v := range want {
		if app[k] != v {
			t.Fatalf("app.%s = %v, want %q", k, app[k], v)
		}
	}
	msg, ok := app["message"].(map[string]any)
	if !ok || msg["message"] != "disk low" {
		t.Fatalf("app.message = %v", app["message"])
	}
	if p, _ := app["source_pathname"].(string); filepath.Base(p) != "logger_test.go" {
		t.Fatalf("source_pathname = %v", app["source_pathname"])
	}
	if fn, _ := app["source_funcname"].(string); fn != "TestStreamDocumentSchema" {
		t.Fatalf("source_funcname = %v", app["source_funcname"])
	}
	if _, err := time.Parse(format.TimeLayout, app["localtime"].(string)); err != nil {
		t.Fatalf("localtime: %v", err)
	}
}

func TestStructuredMessagePassesThrough(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	l := New(quietOpts(&buf))
	defer l.Close()

	l.Error(map[string]any{"event": "payment_failed", "order": 42})

	msg := lines(t, &buf)[0].App["message"].(map[string]any)
	if msg["event"] != "payment_failed" || msg["order"] != float64(42) {
		t.Fatalf("message = %v", msg)
	}
	if _, wrapped := msg["message"]; wrapped {
		t.Fatal("mapping must not be wrapped")
	}
}

func TestMinSeverityGate(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	opts := quietOpts(&buf)
	opts.MinSeverity = record.Info
	l := New(opts)
	defer l.Close()

	l.Debug("hidden")
	l.Info("shown")
	if docs := lines(t, &buf); len(docs) != 1 || docs[0].App["severity"] != "INFO" {
		t.Fatalf("docs = %v", docs)
	}
	if got := l.Route(record.Debug); got != nil {
		t.Fatalf("Route(Debug) = %v, want none", got)
	}
}

func TestWebhookRoutingBySeverity(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		mu.Lock()
		bodies = append(bodies, m)
		mu.Unlock()
	}))
	defer srv.Close()

	var buf bytes.Buffer
	opts := quietOpts(&buf)
	opts.Channels = map[string]Channel{
		"collector": Webhook{URL: srv.URL + "/ingest", MinSeverity: record.Warning},
	}
	l := New(opts)
	defer l.Close()

	if got := strings.Join(l.Sinks(), ","); got != "stream,collector" {
		t.Fatalf("Sinks() = %s", got)
	}
	l.Info("routine")
	l.Error("boom")

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("webhook got %d posts, want 1", len(bodies))
	}
	app := bodies[0]["app"].(map[string]any)
	if app["severity"] != "ERROR" {
		t.Fatalf("posted severity = %v", app["severity"])
	}
	if n := len(lines(t, &buf)); n != 2 {
		t.Fatalf("stream got %d lines, want 2", n)
	}
}

func TestFailingSinkDoesNotAffectOthers(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	bus := eventbus.New()
	failures, unsub := bus.Subscribe(4, eventbus.SinkFailed)
	defer unsub()

	var buf, diag bytes.Buffer
	opts := quietOpts(&buf)
	opts.Diagnostics = logx.New(&diag, "warn")
	opts.Bus = bus
	opts.Channels = map[string]Channel{"collector": Webhook{URL: srv.URL}}
	l := New(opts)
	defer l.Close()

	l.Critical("still logged")

	if n := len(lines(t, &buf)); n != 1 {
		t.Fatalf("stream got %d lines, want 1", n)
	}
	select {
	case ev := <-failures:
		fe, ok := ev.Data.(sink.FailureEvent)
		if !ok || fe.Sink != "collector" || fe.Status != http.StatusBadGateway {
			t.Fatalf("unexpected failure event: %+v", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no sink.failed event")
	}
	if !strings.Contains(diag.String(), "collector") {
		t.Fatalf("diagnostics should mention the failing sink: %s", diag.String())
	}
}

func TestUnformattableMessageIsContained(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	bus := eventbus.New()
	failures, unsub := bus.Subscribe(4, eventbus.SinkFailed)
	defer unsub()
	opts := quietOpts(&buf)
	opts.Bus = bus
	l := New(opts)
	defer l.Close()

	l.Info([]int{1, 2, 3})

	if buf.Len() != 0 {
		t.Fatalf("stream should be empty, got %q", buf.String())
	}
	select {
	case ev := <-failures:
		if fe := ev.Data.(sink.FailureEvent); fe.Class != "format" || fe.Sink != StreamSinkName {
			t.Fatalf("unexpected failure: %+v", fe)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a format failure")
	}
}

func TestMalformedChannelsAreSkipped(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	skippedEv, unsub := bus.Subscribe(8, eventbus.ChannelSkipped)
	defer unsub()

	opts := quietOpts(&bytes.Buffer{})
	opts.Bus = bus
	opts.Channels = map[string]Channel{
		"a-nourl":    Webhook{},
		"b-badsched": Webhook{URL: "ftp://example.com"},
		"c-notoken":  Notification{Destinations: map[string]string{"ERROR": "-1001"}},
		"d-badkey":   Notification{BotToken: "1:x", Destinations: map[string]string{"LOUD": "-1001"}},
		"e-badchat":  Notification{BotToken: "1:x", Destinations: map[string]string{"ERROR": "general"}},
		"f-empty":    Notification{},
	}
	l := New(opts)
	defer l.Close()

	if got := l.Sinks(); len(got) != 1 {
		t.Fatalf("Sinks() = %v, want only stream", got)
	}
	var names []string
	for _, ce := range l.Skipped() {
		names = append(names, ce.Channel)
	}
	if got := strings.Join(names, ","); got != "a-nourl,b-badsched,c-notoken,d-badkey,e-badchat" {
		t.Fatalf("skipped = %s", got)
	}
	for range names {
		select {
		case ev := <-skippedEv:
			var ce *ConfigError
			if err, ok := ev.Data.(error); !ok || !errors.As(err, &ce) {
				t.Fatalf("event data = %T", ev.Data)
			}
		case <-time.After(time.Second):
			t.Fatal("missing channel.skipped event")
		}
	}
}

func TestNotificationRoutesEachSeverityToItsDestination(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var m map[string]any
		_ = json.Unmarshal(b, &m)
		mu.Lock()
		bodies = append(bodies, m)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-1002,"type":"supergroup"}}}`)
	}))
	defer srv.Close()

	opts := quietOpts(&bytes.Buffer{})
	opts.Channels = map[string]Channel{
		"ops": Notification{
			BotToken: "123:abc",
			APIURL:   srv.URL,
			Destinations: map[string]string{
				"CRITICAL": "-1002:7",
				"ERROR":    "-1001",
				"INFO":     "",
			},
		},
	}
	l := New(opts)
	defer l.Close()

	if got := strings.Join(l.Sinks(), ","); got != "stream,ops.ERROR,ops.CRITICAL" {
		t.Fatalf("Sinks() = %s", got)
	}
	if got := strings.Join(l.Route(record.Error), ","); got != "stream,ops.ERROR" {
		t.Fatalf("Route(Error) = %s", got)
	}
	if got := strings.Join(l.Route(record.Warning), ","); got != "stream" {
		t.Fatalf("Route(Warning) = %s", got)
	}

	l.Warning("not notified")
	l.Critical("db <down>")

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("bot got %d messages, want 1", len(bodies))
	}
	text, _ := bodies[0]["text"].(string)
	if !strings.Contains(text, "🔴") || !strings.Contains(text, "db &lt;down&gt;") {
		t.Fatalf("text = %q", text)
	}
	if got := bodies[0]["chat_id"]; got != "-1002" && got != float64(-1002) {
		t.Fatalf("chat_id = %v", got)
	}
}

func TestAsyncDeliveryDrainsOnClose(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	opts := quietOpts(&buf)
	opts.QueueSize = 16
	l := New(opts)

	for _, m := range []string{"one", "two", "three"} {
		l.Info(m)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	docs := lines(t, &buf)
	if len(docs) != 3 {
		t.Fatalf("got %d lines, want 3", len(docs))
	}
	for i, want := range []string{"one", "two", "three"} {
		if got := docs[i].App["message"].(map[string]any)["message"]; got != want {
			t.Fatalf("line %d = %v, want %s", i, got, want)
		}
	}
}

func TestEmitOverridesIdentity(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	opts := quietOpts(&buf)
	opts.LoggerName = "worker"
	l := New(opts)
	defer l.Close()

	rec := record.New("other", record.Error, "x", record.SourceLocation{File: "f.go", Function: "g", Line: 3}, record.AppContext{Name: "nope"})
	l.Emit(context.Background(), rec)

	app := lines(t, &buf)[0].App
	if app["logger"] != "worker" || app["name"] != "svc" || app["source_lineno"] != "3" {
		t.Fatalf("app = %v", app)
	}
}

func TestFromConfig(t *testing.T) {
	t.Parallel()
	lc := config.LoggerConfig{
		AppName:     "svc",
		MinSeverity: "warning",
		LoggerName:  "api",
		Channels: map[string]config.ChannelConfig{
			"hook":  {Type: "webhook", URL: "https://logs.example.com", MinSeverity: "ERROR", Timeout: "3s", Gzip: true},
			"ops":   {Type: "notification", BotToken: "1:x", Destinations: map[string]string{"ERROR": "-1"}},
			"bogus": {Type: "pager"},
			"slow":  {Type: "webhook", URL: "https://x", Timeout: "forever"},
		},
	}
	o, err := FromConfig(lc, Options{Diagnostics: logx.Nop()})
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if o.MinSeverity != record.Warning || o.LoggerName != "api" || o.AppName != "svc" {
		t.Fatalf("unexpected options: %+v", o)
	}
	hook, ok := o.Channels["hook"].(Webhook)
	if !ok || hook.MinSeverity != record.Error || hook.Timeout != 3*time.Second || !hook.Gzip {
		t.Fatalf("hook = %#v", o.Channels["hook"])
	}
	if _, ok := o.Channels["ops"].(Notification); !ok {
		t.Fatalf("ops = %#v", o.Channels["ops"])
	}
	for _, name := range []string{"bogus", "slow"} {
		if _, ok := o.Channels[name].(invalidChannel); !ok {
			t.Fatalf("%s should be invalid, got %#v", name, o.Channels[name])
		}
	}

	if _, err := FromConfig(config.LoggerConfig{MinSeverity: "loud"}, Options{}); err == nil {
		t.Fatal("expected min_severity error")
	}
}
