package web

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	mdRenderer      goldmark.Markdown
	htmlSanitizer   *bluemonday.Policy
	inlineSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	inlineSanitizer = bluemonday.NewPolicy().AllowElements("code", "em", "strong", "del")
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// RenderTitle renders a pull request title the way GitHub does: inline
// markdown only (code spans, emphasis, strikethrough). Titles that would
// render as block content, such as "# heading" or "1. item", are escaped
// verbatim instead.
func RenderTitle(title string) string {
	if title == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(title), &buf); err != nil {
		return html.EscapeString(title)
	}

	rendered := strings.TrimSpace(buf.String())
	inner, ok := strings.CutPrefix(rendered, "<p>")
	if !ok {
		return html.EscapeString(title)
	}
	inner, ok = strings.CutSuffix(inner, "</p>")
	if !ok || strings.Contains(inner, "<p>") {
		return html.EscapeString(title)
	}

	return inlineSanitizer.Sanitize(inner)
}
