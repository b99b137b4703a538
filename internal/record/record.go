package record

import (
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceLocation is where a record was emitted.
type SourceLocation struct {
	File     string
	Function string
	Line     int
}

// CallerLocation captures the caller skip frames above CallerLocation itself.
func CallerLocation(skip int) SourceLocation {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return SourceLocation{}
	}
	loc := SourceLocation{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		loc.Function = shortFuncName(fn.Name())
	}
	return loc
}

// shortFuncName trims the import path: "applog/pkg/applog.(*Logger).Info"
// becomes "(*Logger).Info".
func shortFuncName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// AppContext is bound once per logger and copied into every record.
type AppContext struct {
	Name        string
	Version     string
	Environment string
}

// Record is one log event. It is passed by value; sinks only ever read it.
//
// Message holds whatever the caller logged. Formatters decide how to
// render it; no normalization happens here.
type Record struct {
	ID       string
	Logger   string
	Severity Severity
	Message  any
	Time     time.Time
	Source   SourceLocation
	App      AppContext
}

// New builds a record stamped with the current time and a fresh ID.
func New(loggerName string, sev Severity, msg any, src SourceLocation, app AppContext) Record {
	return Record{
		ID:       uuid.NewString(),
		Logger:   loggerName,
		Severity: sev,
		Message:  msg,
		Time:     time.Now(),
		Source:   src,
		App:      app,
	}
}

// String renders "<path>:<func>(<line>)".
func (s SourceLocation) String() string {
	return s.File + ":" + s.Function + "(" + strconv.Itoa(s.Line) + ")"
}
