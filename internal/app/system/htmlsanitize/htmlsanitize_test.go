package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/haymanh/success/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if got := htmlsanitize.Sanitize(""); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Deadline</strong> is <em>firm</em></p><ul><li>CV</li><li>Transcript</li></ul>"
	if got := htmlsanitize.Sanitize(input); got != input {
		t.Errorf("expected safe HTML preserved, got %q", got)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert(1)</script>"
	if got := htmlsanitize.Sanitize(input); got != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", got)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	input := `<a href="javascript:alert(1)">Apply</a>`
	if got := htmlsanitize.Sanitize(input); strings.Contains(got, "javascript") {
		t.Errorf("expected javascript: href removed, got %q", got)
	}
}

func TestSanitize_KeepsDirection(t *testing.T) {
	input := `<p dir="rtl">مرحبا</p>`
	if got := htmlsanitize.Sanitize(input); !strings.Contains(got, `dir="rtl"`) {
		t.Errorf("expected dir attribute kept, got %q", got)
	}
}

func TestSanitize_RemovesIframe(t *testing.T) {
	got := htmlsanitize.Sanitize(`<p>Content</p><iframe src="https://evil.example"></iframe>`)
	if strings.Contains(got, "iframe") || !strings.Contains(got, "Content") {
		t.Errorf("unexpected result %q", got)
	}
}

func TestStripTags(t *testing.T) {
	if got := htmlsanitize.StripTags("  <b>Summer</b> Camp "); got != "Summer Camp" {
		t.Errorf("StripTags = %q, want %q", got, "Summer Camp")
	}
}
