package format

import (
	"strconv"
	"strings"

	"applog/internal/record"
)

const placeholder = "-"

var glyphs = map[record.Severity]string{
	record.Debug:    "⚪",
	record.Info:     "🟢",
	record.Warning:  "🟡",
	record.Error:    "🟠",
	record.Critical: "🔴",
}

// fallbackGlyph marks any severity outside the declared levels.
const fallbackGlyph = "🔵"

// Glyph returns the visual indicator for a severity.
func Glyph(s record.Severity) string {
	if g, ok := glyphs[s]; ok {
		return g
	}
	return fallbackGlyph
}

// HTML renders a Telegram HTML card:
//
//	<b>svc (1.2)</b>  <b>🟡 WARNING</b>
//
//	<b>Message:</b> <code>disk low</code>
//	<b>Environment:</b> prod
//	<b>Source:</b> /srv/main.go:main(42)
//	<b>Datetime:</b> 2026-10-19T10:00:00.000+02:00
//	<b>Logger:</b> app
type HTML struct{}

func (HTML) Format(rec record.Record) ([]byte, error) {
	text, err := messageText(rec.Message)
	if err != nil {
		return nil, err
	}

	src := Esc(orPlaceholder(rec.Source.File) + ":" + orPlaceholder(rec.Source.Function) + "(" + strconv.Itoa(rec.Source.Line) + ")")

	var b strings.Builder
	b.WriteString(B(orPlaceholder(rec.App.Name) + " (" + orPlaceholder(rec.App.Version) + ")").String())
	b.WriteString("  ")
	b.WriteString(B(Glyph(rec.Severity) + " " + rec.Severity.String()).String())
	b.WriteString("\n\n")
	line(&b, "Message", Code(text))
	line(&b, "Environment", Esc(orPlaceholder(rec.App.Environment)))
	line(&b, "Source", src)
	line(&b, "Datetime", Esc(rec.Time.Local().Format(TimeLayout)))
	line(&b, "Logger", Esc(orPlaceholder(rec.Logger)))
	return []byte(b.String()), nil
}

func line(b *strings.Builder, label string, value H) {
	b.WriteString(JoinH(" ", B(label+":"), value).String())
	b.WriteString("\n")
}

// messageText returns the unescaped text for the message slot. Mappings are
// rendered as compact JSON and escaped later as a single string.
func messageText(msg any) (string, error) {
	if s, ok := msg.(string); ok {
		return s, nil
	}
	b, err := messageObject(msg)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}
