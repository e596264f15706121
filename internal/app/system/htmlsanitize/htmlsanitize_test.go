package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/cmsdesk/internal/app/system/htmlsanitize"
)

func TestText_Empty(t *testing.T) {
	if got := htmlsanitize.Text(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestText_PlainText(t *testing.T) {
	if got := htmlsanitize.Text("Hello, World!"); got != "Hello, World!" {
		t.Errorf("expected plain text unchanged, got %q", got)
	}
}

func TestText_TrimsWhitespace(t *testing.T) {
	if got := htmlsanitize.Text("   hi there  "); got != "hi there" {
		t.Errorf("expected trimmed text, got %q", got)
	}
}

func TestText_RemovesScript(t *testing.T) {
	got := htmlsanitize.Text("Hello<script>alert('xss')</script>")
	if got != "Hello" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestText_StripsTagsKeepsContent(t *testing.T) {
	got := htmlsanitize.Text("<b>Bold</b> and <em>italic</em>")
	if got != "Bold and italic" {
		t.Errorf("expected tags stripped, got %q", got)
	}
}

func TestText_KeepsAmpersand(t *testing.T) {
	if got := htmlsanitize.Text("fish & chips"); got != "fish & chips" {
		t.Errorf("expected ampersand preserved, got %q", got)
	}
}

func TestText_OnlyMarkupBecomesEmpty(t *testing.T) {
	if got := htmlsanitize.Text("<img src=x onerror=alert(1)>"); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}

func TestText_RemovesEncodedMarkup(t *testing.T) {
	cases := map[string]string{
		"&lt;script&gt;alert(1)&lt;/script&gt; hi":              "hi",
		"&lt;img src=x onerror=alert(1)&gt;":                    "",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;": "",
		"&lt;b&gt;bold&lt;/b&gt; text":                          "bold text",
	}
	for in, want := range cases {
		got := htmlsanitize.Text(in)
		if got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
		if strings.ContainsAny(got, "<>") {
			t.Errorf("Text(%q) kept markup: %q", in, got)
		}
	}
}

func TestText_KeepsLiteralComparisons(t *testing.T) {
	cases := map[string]string{
		"a < b":     "a < b",
		"5 > 3":     "5 > 3",
		"it's fine": "it's fine",
		"x &amp; y": "x & y",
	}
	for in, want := range cases {
		if got := htmlsanitize.Text(in); got != want {
			t.Errorf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}
