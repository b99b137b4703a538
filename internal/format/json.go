package format

import (
	"encoding/json"
	"strconv"

	"applog/internal/record"
)

// TimeLayout is used for every rendered timestamp.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// JSON renders the document-index schema. Field order is part of the
// contract; do not reorder the struct.
type JSON struct{}

type jsonDocument struct {
	App jsonApp `json:"app"`
}

type jsonApp struct {
	Name           string          `json:"name"`
	Localtime      string          `json:"localtime"`
	Environment    string          `json:"environment"`
	Severity       string          `json:"severity"`
	Message        json.RawMessage `json:"message"`
	Version        string          `json:"version"`
	Logger         string          `json:"logger"`
	Source         string          `json:"source"`
	SourcePathname string          `json:"source_pathname"`
	SourceFuncname string          `json:"source_funcname"`
	SourceLineno   string          `json:"source_lineno"`
}

func (JSON) Format(rec record.Record) ([]byte, error) {
	msg, err := messageObject(rec.Message)
	if err != nil {
		return nil, err
	}
	doc := jsonDocument{App: jsonApp{
		Name:           rec.App.Name,
		Localtime:      rec.Time.Local().Format(TimeLayout),
		Environment:    rec.App.Environment,
		Severity:       rec.Severity.String(),
		Message:        msg,
		Version:        rec.App.Version,
		Logger:         rec.Logger,
		Source:         rec.Source.String(),
		SourcePathname: rec.Source.File,
		SourceFuncname: rec.Source.Function,
		SourceLineno:   strconv.Itoa(rec.Source.Line),
	}}
	b, err := marshal(doc)
	if err != nil {
		return nil, &FormatError{Type: typeName(rec.Message), Err: err}
	}
	return b, nil
}
