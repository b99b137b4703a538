package app

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/valyala/fastjson"

	"applog/internal/record"
)

const maxLine = 1 << 20

// stdinSource names the pseudo-file recorded as the source of stdin lines.
const stdinSource = "<stdin>"

type emitFunc func(ctx context.Context, rec record.Record)

// pump emits one record per non-blank line of r until EOF or ctx is done.
// It returns the number of lines emitted.
func pump(ctx context.Context, r io.Reader, def record.Severity, emit emitFunc) (int, error) {
	type line struct {
		text string
		err  error
		eof  bool
	}
	lines := make(chan line)
	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxLine)
		for sc.Scan() {
			select {
			case lines <- line{text: sc.Text()}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case lines <- line{err: sc.Err(), eof: true}:
		case <-ctx.Done():
		}
	}()

	var p fastjson.Parser
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n, nil
		case l := <-lines:
			if l.eof {
				return n, l.err
			}
			if strings.TrimSpace(l.text) == "" {
				continue
			}
			sev, msg := parseLine(&p, l.text, def)
			n++
			src := record.SourceLocation{File: stdinSource, Line: n}
			emit(ctx, record.New("", sev, msg, src, record.AppContext{}))
		}
	}
}

// parseLine splits an optional "LEVEL:" prefix and decodes JSON objects
// into maps. Anything else is logged as text.
func parseLine(p *fastjson.Parser, s string, def record.Severity) (record.Severity, any) {
	sev := def
	if i := strings.IndexByte(s, ':'); i > 0 {
		if lvl := s[:i]; lvl == strings.ToUpper(lvl) {
			if v, err := record.ParseSeverity(lvl); err == nil {
				sev = v
				s = strings.TrimSpace(s[i+1:])
			}
		}
	}

	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") {
		return sev, s
	}
	v, err := p.Parse(trimmed)
	if err != nil || v.Type() != fastjson.TypeObject {
		return sev, s
	}
	return sev, toAny(v)
}

// toAny converts a fastjson value to plain Go values. Numbers keep their
// literal text so large integers survive re-encoding.
func toAny(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		o, _ := v.Object()
		m := make(map[string]any, o.Len())
		o.Visit(func(k []byte, vv *fastjson.Value) {
			m[string(k)] = toAny(vv)
		})
		return m
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = toAny(e)
		}
		return out
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		return json.Number(v.String())
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
