package applog

import (
	"context"
	"errors"
	"sync"

	"applog/internal/record"
	"applog/internal/sink"
	"applog/pkg/logx"
)

// Logger emits records to its sinks. The sink set is fixed at New; build a
// new Logger to change it. A Logger is safe for concurrent use.
type Logger struct {
	name string
	app  record.AppContext
	min  record.Severity

	reg     *sink.Registry
	async   *sink.Async
	log     logx.Logger
	skipped []*ConfigError

	closeOnce sync.Once
	closeErr  error
}

// New builds a logger. It never fails: channels that cannot be built are
// skipped, logged at WARN on opts.Diagnostics and listed by Skipped.
func New(opts Options) *Logger {
	opts = opts.withDefaults()
	diag := opts.Diagnostics.With(logx.String("comp", "applog"), logx.String("logger", opts.LoggerName))

	reg := sink.NewRegistry(
		sink.WithReporter(sink.NewLogReporter(opts.Diagnostics, opts.Bus, opts.DiagnosticsRate)),
	)
	b := &builder{opts: opts, reg: reg, log: diag}
	b.build()

	l := &Logger{
		name: opts.LoggerName,
		app: record.AppContext{
			Name:        opts.AppName,
			Version:     opts.AppVersion,
			Environment: opts.AppEnvironment,
		},
		min:     opts.MinSeverity,
		reg:     reg,
		log:     diag,
		skipped: b.skipped,
	}
	if opts.QueueSize > 0 {
		l.async = sink.NewAsync(context.Background(), reg, sink.AsyncConfig{
			QueueSize: opts.QueueSize,
			Log:       opts.Diagnostics,
			Bus:       opts.Bus,
		})
	}
	diag.Debug("logger ready", logx.Strs("sinks", l.Sinks()), logx.Int("skipped", len(b.skipped)))
	return l
}

func (l *Logger) Debug(msg any)    { l.emit(context.Background(), record.Debug, msg) }
func (l *Logger) Info(msg any)     { l.emit(context.Background(), record.Info, msg) }
func (l *Logger) Warning(msg any)  { l.emit(context.Background(), record.Warning, msg) }
func (l *Logger) Error(msg any)    { l.emit(context.Background(), record.Error, msg) }
func (l *Logger) Critical(msg any) { l.emit(context.Background(), record.Critical, msg) }

// Log emits msg at sev. msg is a string or a map with string keys; any
// other value is reported as a format failure on each admitting sink.
func (l *Logger) Log(sev record.Severity, msg any) {
	l.emit(context.Background(), sev, msg)
}

// LogContext is Log with a context bounding network deliveries.
func (l *Logger) LogContext(ctx context.Context, sev record.Severity, msg any) {
	l.emit(ctx, sev, msg)
}

// emit must be called directly by the exported emit methods so the caller
// frame lands at a fixed depth.
func (l *Logger) emit(ctx context.Context, sev record.Severity, msg any) {
	if sev < l.min {
		return
	}
	rec := record.New(l.name, sev, msg, record.CallerLocation(2), l.app)
	l.dispatch(ctx, rec)
}

// Emit dispatches a prepared record, bypassing caller capture. The record's
// logger name and app context are overwritten with this logger's.
func (l *Logger) Emit(ctx context.Context, rec record.Record) {
	if rec.Severity < l.min {
		return
	}
	rec.Logger = l.name
	rec.App = l.app
	l.dispatch(ctx, rec)
}

func (l *Logger) dispatch(ctx context.Context, rec record.Record) {
	if ctx == nil {
		ctx = context.Background()
	}
	if l.async != nil {
		l.async.Dispatch(ctx, rec)
		return
	}
	l.reg.Dispatch(ctx, rec)
}

// Name returns the logger name stamped on records.
func (l *Logger) Name() string { return l.name }

// Sinks lists sink names in registration order. The stream sink is first.
func (l *Logger) Sinks() []string {
	ss := l.reg.Sinks()
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

// Route returns the names of the sinks a record of sev would reach.
func (l *Logger) Route(sev record.Severity) []string {
	if sev < l.min {
		return nil
	}
	return l.reg.Select(sev)
}

// Skipped returns the channels skipped at construction.
func (l *Logger) Skipped() []*ConfigError {
	return append([]*ConfigError(nil), l.skipped...)
}

// Close drains background queues, when enabled, and closes every closable
// transport. Emitting after Close is undefined for file and network sinks.
func (l *Logger) Close() error {
	return l.CloseContext(context.Background())
}

// CloseContext is Close with a bound on the queue drain.
func (l *Logger) CloseContext(ctx context.Context) error {
	l.closeOnce.Do(func() {
		var drainErr error
		if l.async != nil {
			drainErr = l.async.Close(ctx)
		}
		l.closeErr = errors.Join(drainErr, l.reg.Close())
	})
	return l.closeErr
}
