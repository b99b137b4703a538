package format

import (
	"bytes"
	"encoding/json"
	"reflect"

	"applog/internal/record"
)

// Formatter renders a record snapshot into a payload.
type Formatter interface {
	Format(rec record.Record) ([]byte, error)
}

// messageObject returns the JSON object for a record message.
// Strings are wrapped as {"message": s}; maps with string keys are
// serialized as-is; everything else is a *FormatError.
func messageObject(msg any) ([]byte, error) {
	switch m := msg.(type) {
	case string:
		return marshal(map[string]string{"message": m})
	case map[string]any:
		if m == nil {
			return []byte("{}"), nil
		}
		return marshalMapping(m, msg)
	}

	rv := reflect.ValueOf(msg)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, &FormatError{Type: typeName(msg)}
	}
	if rv.IsNil() {
		return []byte("{}"), nil
	}
	return marshalMapping(msg, msg)
}

func marshalMapping(v any, orig any) ([]byte, error) {
	b, err := marshal(v)
	if err != nil {
		return nil, &FormatError{Type: typeName(orig), Err: err}
	}
	return b, nil
}

// marshal encodes v without HTML escaping and without the trailing newline
// json.Encoder appends.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
