package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"applog/internal/record"
	logx "applog/pkg/logx"
)

// heartbeat emits an INFO record on a cron schedule. The schedule can be
// replaced while running.
type heartbeat struct {
	emit   emitFunc
	log    logx.Logger
	parser cron.Parser
	seq    atomic.Uint64

	mu      sync.Mutex
	c       *cron.Cron
	spec    string
	started bool
}

func newHeartbeat(emit emitFunc, log logx.Logger) *heartbeat {
	return &heartbeat{
		emit:   emit,
		log:    log.With(logx.String("comp", "heartbeat")),
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Reset installs spec. An empty spec disables the heartbeat. An invalid
// spec leaves the current schedule untouched.
func (h *heartbeat) Reset(spec string) error {
	spec = strings.TrimSpace(spec)
	h.mu.Lock()
	defer h.mu.Unlock()
	if spec == h.spec {
		return nil
	}

	var next *cron.Cron
	if spec != "" {
		sched, err := h.parser.Parse(spec)
		if err != nil {
			return fmt.Errorf("heartbeat %q: %w", spec, err)
		}
		next = cron.New(cron.WithParser(h.parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		next.Schedule(sched, cron.FuncJob(func() { h.tick(spec) }))
	}

	prev := h.c
	h.c, h.spec = next, spec
	if h.started {
		if prev != nil {
			prev.Stop()
		}
		if next != nil {
			next.Start()
		}
	}
	h.log.Debug("heartbeat schedule set", logx.String("spec", spec))
	return nil
}

func (h *heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.started = true
	if h.c != nil {
		h.c.Start()
	}
}

// Stop halts the schedule and waits for a running tick until ctx is done.
func (h *heartbeat) Stop(ctx context.Context) error {
	h.mu.Lock()
	c := h.c
	h.started = false
	h.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *heartbeat) tick(spec string) {
	msg := map[string]any{
		"event":    "heartbeat",
		"seq":      h.seq.Add(1),
		"schedule": spec,
	}
	src := record.SourceLocation{File: "<heartbeat>", Function: "tick"}
	h.emit(context.Background(), record.New("", record.Info, msg, src, record.AppContext{}))
}
