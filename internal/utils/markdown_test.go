package utils

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	out := string(RenderMarkdown("**bold** text"))

	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %s", out)
	}
}

func TestRenderMarkdownSanitizesScript(t *testing.T) {
	out := string(RenderMarkdown("hello <script>alert(1)</script>"))

	if strings.Contains(out, "<script>") {
		t.Errorf("script tag survived sanitizing: %s", out)
	}
}

func TestRenderMarkdownImageAttrs(t *testing.T) {
	out := string(RenderMarkdown("![pic](https://example.com/a.png)"))

	if !strings.Contains(out, `loading="lazy"`) {
		t.Errorf("image missing lazy loading attr: %s", out)
	}
	if !strings.Contains(out, `referrerpolicy="no-referrer"`) {
		t.Errorf("image missing referrerpolicy attr: %s", out)
	}
}
