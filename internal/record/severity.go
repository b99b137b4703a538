package record

import (
	"fmt"
	"strings"
)

// Severity is a closed, totally ordered set of log levels.
// Lower values are more verbose. The zero value means "unset".
type Severity int8

const (
	SeverityUnset Severity = 0
	Debug         Severity = 10
	Info          Severity = 20
	Warning       Severity = 30
	Error         Severity = 40
	Critical      Severity = 50
)

var severities = []Severity{Debug, Info, Warning, Error, Critical}

// Severities returns every known severity in ascending order.
func Severities() []Severity {
	return append([]Severity(nil), severities...)
}

func (s Severity) String() string {
	switch s {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	case SeverityUnset:
		return "UNSET"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(s))
	}
}

// Known reports whether s is one of the five declared levels.
func (s Severity) Known() bool {
	switch s {
	case Debug, Info, Warning, Error, Critical:
		return true
	}
	return false
}

// ParseSeverity parses a level name (case-insensitive). "WARN" is accepted
// as an alias of WARNING.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "ERROR":
		return Error, nil
	case "CRITICAL":
		return Critical, nil
	}
	return SeverityUnset, fmt.Errorf("unknown severity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Empty text leaves the
// severity unset.
func (s *Severity) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*s = SeverityUnset
		return nil
	}
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Admits reports whether a record of severity sev passes a sink whose
// ceiling is ceiling: sev <= ceiling.
func Admits(ceiling, sev Severity) bool {
	return sev <= ceiling
}

// Resolve returns def when s is unset.
func Resolve(s, def Severity) Severity {
	if s == SeverityUnset {
		return def
	}
	return s
}
