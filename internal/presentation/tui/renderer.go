package tui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns a markdown document into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a Renderer backed by glamour.
// wordWrap of zero keeps glamour's default width.
func NewRenderer(wordWrap int) Renderer {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if wordWrap > 0 {
		opts = append(opts, glamour.WithWordWrap(wordWrap))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return PlainRenderer
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns the markdown untouched. It is used when the output
// is not a terminal.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}
