// Package app runs the applog command: it owns the config manager, the
// current logger, the stdin pump and the heartbeat schedule.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"applog/internal/config"
	"applog/internal/eventbus"
	"applog/internal/record"
	"applog/internal/runtime/supervisor"
	"applog/pkg/applog"
	logx "applog/pkg/logx"
)

// Options are the command-line overrides.
type Options struct {
	ConfigPath string
	// Severity is the default for stdin lines without a LEVEL: prefix.
	Severity record.Severity
	// LoggerName overrides logging.logger_name when set.
	LoggerName string

	Stdin  io.Reader
	Stream io.Writer
	// Diagnostics overrides the logger built from the diagnostics section.
	Diagnostics logx.Logger
}

type App struct {
	opts Options
	cfgm *config.Manager
	sup  *supervisor.Supervisor
	log  logx.Logger
	bus  *eventbus.MemBus

	mu  sync.RWMutex
	cur *applog.Logger

	beat   *heartbeat
	stats  *failureStats
	notify func(state string) error
	done   chan struct{}
}

func NewApp(opts Options) (*App, error) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Severity == record.SeverityUnset {
		opts.Severity = record.Info
	}

	cfg := &config.Config{}
	var cfgm *config.Manager
	if strings.TrimSpace(opts.ConfigPath) != "" {
		cfgm = config.NewManager(opts.ConfigPath)
		c, err := cfgm.Load()
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	diag := opts.Diagnostics
	if diag.IsZero() {
		diag = logx.NewConsole(cfg.Diagnostics.Level)
	}
	opts.Diagnostics = diag
	if cfgm != nil {
		cfgm.SetLogger(diag)
	}

	bus := eventbus.New()
	a := &App{
		opts:   opts,
		cfgm:   cfgm,
		log:    diag.With(logx.String("comp", "app")),
		bus:    bus,
		stats:  newFailureStats(bus),
		notify: sdNotify,
		done:   make(chan struct{}),
	}
	l, err := a.buildLogger(cfg)
	if err != nil {
		return nil, err
	}
	a.cur = l
	a.beat = newHeartbeat(a.emit, diag)
	if err := a.beat.Reset(cfg.Heartbeat); err != nil {
		return nil, err
	}
	return a, nil
}

// buildLogger maps a config onto a fresh logger.
func (a *App) buildLogger(cfg *config.Config) (*applog.Logger, error) {
	lc := cfg.Logging
	if a.opts.LoggerName != "" {
		lc.LoggerName = a.opts.LoggerName
	}
	opts, err := applog.FromConfig(lc, applog.Options{
		Stream:          a.opts.Stream,
		Diagnostics:     a.opts.Diagnostics,
		DiagnosticsRate: cfg.Diagnostics.RatePerSec,
		Bus:             a.bus,
	})
	if err != nil {
		return nil, err
	}
	return applog.New(opts), nil
}

// Logger returns the current logger.
func (a *App) Logger() *applog.Logger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cur
}

// emit dispatches under the read lock so a swap never closes a logger
// that is mid-dispatch.
func (a *App) emit(ctx context.Context, rec record.Record) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	a.cur.Emit(ctx, rec)
}

// swap installs next and closes the previous logger.
func (a *App) swap(next *applog.Logger) {
	a.mu.Lock()
	prev := a.cur
	a.cur = next
	a.mu.Unlock()
	if prev != nil {
		if err := prev.Close(); err != nil {
			a.log.Warn("close previous logger", logx.Err(err))
		}
	}
}

// Done is closed once the app has fully stopped.
func (a *App) Done() <-chan struct{} { return a.done }

// Start launches the background loops. The app stops on its own when stdin
// reaches EOF or ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log))
	a.sup.Go("events", a.stats.run)

	if a.cfgm != nil {
		a.sup.Go("config.watch", func(c context.Context) {
			if err := a.cfgm.Watch(c); err != nil {
				a.log.Warn("config watch stopped", logx.Err(err))
			}
		})
		sub := a.cfgm.Subscribe(4)
		a.sup.Go("config.reload", func(c context.Context) {
			defer a.cfgm.Unsubscribe(sub)
			a.reloadLoop(c, sub)
		})
	}

	a.beat.Start()
	a.sup.Go("stdin", func(c context.Context) {
		n, err := pump(c, a.opts.Stdin, a.opts.Severity, a.emit)
		if err != nil {
			a.log.Warn("stdin read failed", logx.Err(err), logx.Int("lines", n))
		} else {
			a.log.Debug("stdin closed", logx.Int("lines", n))
		}
		a.sup.Cancel()
	})

	if err := a.notify(daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	}
	l := a.Logger()
	a.log.Info("started", logx.Strs("sinks", l.Sinks()), logx.Int("skipped", len(l.Skipped())))
	return nil
}

// Wait blocks until the stdin pump ends or the parent context is done.
func (a *App) Wait() {
	if a.sup == nil {
		return
	}
	<-a.sup.Context().Done()
}

func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-sub:
			if !ok {
				return
			}
			// coalesce bursts
			for drained := false; !drained; {
				select {
				case newer := <-sub:
					if newer != nil {
						next = newer
					}
				default:
					drained = true
				}
			}
			a.apply(last, next)
			last = next
		}
	}
}

func (a *App) apply(prev, next *config.Config) {
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("applying config change", fields...)

	l, err := a.buildLogger(next)
	if err != nil {
		a.log.Warn("invalid logging config; keeping previous logger", logx.Err(err))
	} else {
		a.swap(l)
	}
	if err := a.beat.Reset(next.Heartbeat); err != nil {
		a.log.Warn("invalid heartbeat; keeping previous schedule", logx.Err(err))
	}
}

// Stop cancels background loops and closes the logger. Each step is bounded
// by its own deadline within ctx.
func (a *App) Stop(ctx context.Context) error {
	defer close(a.done)
	_ = a.notify(daemon.SdNotifyStopping)
	if a.sup != nil {
		a.sup.Cancel()
	}

	a.step(ctx, "heartbeat", time.Second, func(c context.Context) error {
		return a.beat.Stop(c)
	})
	a.step(ctx, "supervisor", 2*time.Second, func(c context.Context) error {
		if a.sup == nil {
			return nil
		}
		return a.sup.Wait(c)
	})
	a.step(ctx, "logger", 5*time.Second, func(c context.Context) error {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.cur.CloseContext(c)
	})

	if s := a.stats.Snapshot(); s.Total() > 0 {
		a.log.Warn("sink failures during run",
			logx.Uint64("failed", s.Failed),
			logx.Uint64("dropped", s.Dropped),
			logx.Uint64("skipped_channels", s.Skipped),
		)
	}
	a.log.Info("stopped")
	return nil
}

func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Err(stepCtx.Err()),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}
