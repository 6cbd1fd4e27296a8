// Package render turns answer text into HTML for the chat page.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Markdown converts CommonMark + GFM to HTML. Raw HTML in the source is
// dropped and dangerous link targets are not rendered.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown returns a renderer safe for untrusted model output.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// HTML renders source.
func (m *Markdown) HTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
