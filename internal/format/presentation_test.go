package format

import (
	"errors"
	"strings"
	"testing"

	"applog/internal/record"
)

func TestHTMLContainsEveryLine(t *testing.T) {
	t.Parallel()
	out, err := HTML{}.Format(testRecord("disk low"))
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		"<b>svc (1.2)</b>  <b>🟡 WARNING</b>\n\n",
		"<b>Message:</b> <code>disk low</code>\n",
		"<b>Environment:</b> prod\n",
		"<b>Source:</b> /srv/svc/main.go:main(42)\n",
		"<b>Datetime:</b> ",
		"<b>Logger:</b> app\n",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in:\n%s", want, s)
		}
	}
}

func TestHTMLEscapesCallerText(t *testing.T) {
	t.Parallel()
	rec := testRecord("<script>alert(1)</script> & more")
	rec.Logger = "<b>evil</b>"
	rec.Source.Function = "fn<T>"
	rec.App.Name = "a&b"
	out, err := HTML{}.Format(rec)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	s := string(out)
	for _, bad := range []string{"<script>", "<b>evil</b>", "fn<T>", "a&b"} {
		if strings.Contains(s, bad) {
			t.Fatalf("unescaped %q in:\n%s", bad, s)
		}
	}
	for _, want := range []string{"&lt;script&gt;alert(1)&lt;/script&gt; &amp; more", "&lt;b&gt;evil&lt;/b&gt;", "fn&lt;T&gt;", "a&amp;b"} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing escaped %q in:\n%s", want, s)
		}
	}
}

func TestHTMLRendersMappingAsCompactJSON(t *testing.T) {
	t.Parallel()
	out, err := HTML{}.Format(testRecord(map[string]any{"user": "<bob>", "n": 1}))
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := `<code>{&#34;n&#34;:1,&#34;user&#34;:&#34;&lt;bob&gt;&#34;}</code>`
	if !strings.Contains(string(out), want) {
		t.Fatalf("missing %q in:\n%s", want, out)
	}
}

func TestHTMLPlaceholders(t *testing.T) {
	t.Parallel()
	rec := testRecord("x")
	rec.App = record.AppContext{Name: "svc"}
	out, err := HTML{}.Format(rec)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<b>svc (-)</b>") {
		t.Fatalf("version placeholder missing:\n%s", s)
	}
	if !strings.Contains(s, "<b>Environment:</b> -\n") {
		t.Fatalf("environment placeholder missing:\n%s", s)
	}
}

func TestGlyphsAreDistinctWithFallback(t *testing.T) {
	t.Parallel()
	seen := map[string]record.Severity{}
	for _, s := range record.Severities() {
		g := Glyph(s)
		if g == fallbackGlyph {
			t.Fatalf("%s uses the fallback glyph", s)
		}
		if prev, dup := seen[g]; dup {
			t.Fatalf("%s and %s share glyph %s", prev, s, g)
		}
		seen[g] = s
	}
	if Glyph(record.Severity(35)) != fallbackGlyph {
		t.Fatal("unknown severity should use the fallback glyph")
	}
	out, err := HTML{}.Format(func() record.Record { r := testRecord("x"); r.Severity = 35; return r }())
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(string(out), fallbackGlyph) {
		t.Fatalf("fallback glyph missing:\n%s", out)
	}
}

func TestHTMLRejectsUnsupportedMessages(t *testing.T) {
	t.Parallel()
	_, err := HTML{}.Format(testRecord(3.14))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
}
