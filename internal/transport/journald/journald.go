// Package journald sends structured JSON payloads to the systemd journal.
package journald

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"

	"applog/internal/record"
	"applog/internal/sink"
)

const Kind = "journald"

var ErrUnavailable = errors.New("journald: journal socket not available")

type sendFunc func(message string, priority journal.Priority, vars map[string]string) error

// Transport writes the payload as MESSAGE with a syslog priority derived
// from the record severity.
type Transport struct {
	identifier string
	send       sendFunc
}

// New returns ErrUnavailable when the journal socket cannot be reached.
func New(identifier string) (*Transport, error) {
	if !journal.Enabled() {
		return nil, ErrUnavailable
	}
	return newTransport(identifier, journal.Send), nil
}

func newTransport(identifier string, send sendFunc) *Transport {
	return &Transport{identifier: strings.TrimSpace(identifier), send: send}
}

func (t *Transport) Deliver(_ context.Context, d sink.Delivery) error {
	vars := map[string]string{
		"LOGGER":      d.Record.Logger,
		"SEVERITY":    d.Record.Severity.String(),
		"CODE_FILE":   d.Record.Source.File,
		"CODE_FUNC":   d.Record.Source.Function,
		"CODE_LINE":   strconv.Itoa(d.Record.Source.Line),
		"APP_RECORD":  d.Record.ID,
		"APP_VERSION": d.Record.App.Version,
	}
	if t.identifier != "" {
		vars["SYSLOG_IDENTIFIER"] = t.identifier
	}
	for k, v := range vars {
		if v == "" {
			delete(vars, k)
		}
	}
	if err := t.send(string(d.Body), Priority(d.Record.Severity), vars); err != nil {
		return &sink.DeliveryError{Kind: Kind, Target: t.identifier, Err: err}
	}
	return nil
}

// Priority maps a severity to its syslog priority.
func Priority(s record.Severity) journal.Priority {
	switch {
	case s >= record.Critical:
		return journal.PriCrit
	case s >= record.Error:
		return journal.PriErr
	case s >= record.Warning:
		return journal.PriWarning
	case s >= record.Info:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
