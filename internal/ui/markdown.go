package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/muesli/reflow/wordwrap"
)

var (
	rendererMu sync.Mutex
	renderers  = map[int]*glamour.TermRenderer{}
)

// RenderMarkdown formats a task description for terminal output. It falls
// back to plain wrapped text when the renderer fails.
func RenderMarkdown(width int, input string) string {
	value := strings.TrimRight(strings.ReplaceAll(input, "\r\n", "\n"), "\n")
	if strings.TrimSpace(value) == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}
	if r := markdownRenderer(width); r != nil {
		if out, err := r.Render(value); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return Wrap(value, width)
}

func markdownRenderer(width int) *glamour.TermRenderer {
	rendererMu.Lock()
	defer rendererMu.Unlock()
	if cached, ok := renderers[width]; ok {
		return cached
	}
	style := styles.ASCIIStyleConfig
	style.Item.BlockPrefix = "- "
	created, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	renderers[width] = created
	return created
}

// Wrap breaks text at word boundaries to fit width.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}
