package format

import "fmt"

// FormatError reports a record whose message is neither a string nor a
// mapping with string keys, or a mapping that cannot be serialized.
type FormatError struct {
	Type string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format: message of type %s: %v", e.Type, e.Err)
	}
	return fmt.Sprintf("format: unsupported message type %s", e.Type)
}

func (e *FormatError) Unwrap() error { return e.Err }

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
