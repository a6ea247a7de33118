package models

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// mathRules maps backend-emitted LaTeX escape delimiters to the dollar forms the client-side
// math renderer expects. The patterns key only on the backslash escape forms, so text already
// in dollar form, or containing bare brackets, passes through untouched.
var mathRules = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?s)\\\[(.*?)\\\]`), `$$$$${1}$$$$`},
	{regexp.MustCompile(`(?s)\\\((.*?)\\\)`), `$$${1}$$`},
}

// NormalizeMath rewrites display-math delimiters (\[ ... \]) to $$ ... $$ and inline-math
// delimiters (\( ... \)) to $ ... $, leaving all other content untouched. It is pure and
// idempotent: normalized output contains none of the source escape forms.
func NormalizeMath(s string) string {
	for _, rule := range mathRules {
		s = rule.pattern.ReplaceAllString(s, rule.replacement)
	}
	return s
}

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// RenderContent normalizes math delimiters in raw assistant text and converts the resulting
// markdown to HTML for the templates.
func RenderContent(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(NormalizeMath(content)), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
