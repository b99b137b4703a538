package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"applog/internal/app"
	"applog/internal/record"
)

func main() {
	var (
		cfgPath    string
		severity   string
		loggerName string
	)
	flag.StringVar(&cfgPath, "config", "", "path to config file (json or yaml)")
	flag.StringVar(&severity, "severity", "INFO", "severity of stdin lines without a LEVEL: prefix")
	flag.StringVar(&loggerName, "logger", "", "logger name (overrides logging.logger_name)")
	flag.Parse()

	sev, err := record.ParseSeverity(severity)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.NewApp(app.Options{
		ConfigPath: cfgPath,
		Severity:   sev,
		LoggerName: loggerName,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	a.Wait()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)
}
