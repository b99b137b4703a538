// Package format renders records into sink payloads.
//
// JSON produces the fixed document-index schema:
//
//	{"app": {"name", "localtime", "environment", "severity", "message",
//	         "version", "logger", "source", "source_pathname",
//	         "source_funcname", "source_lineno"}}
//
// where "message" is always an object: a string message is wrapped as
// {"message": "<text>"}. HTML produces a Telegram HTML parse-mode card.
//
// Formatters hold no mutable state, so formatting the same record twice
// yields identical bytes and concurrent use is safe.
package format
