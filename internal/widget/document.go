package widget

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"hiveterm/internal/artifact"
	"hiveterm/internal/submit"
)

// Document is the passive widget for the "document" component kind. It
// renders markdown once per width and never takes input focus.
type Document struct {
	art   *artifact.Artifact
	props *artifact.DocumentProps

	// render cache keyed by the width it was produced for
	rendered string
	width    int
}

func NewDocument(a *artifact.Artifact) *Document {
	return &Document{art: a, props: a.Document()}
}

func (d *Document) Artifact() *artifact.Artifact { return d.art }
func (d *Document) Interactive() bool            { return false }
func (d *Document) Done() bool                   { return true }
func (d *Document) Result() *submit.Result       { return nil }

func (d *Document) Update(tea.KeyMsg) (Widget, tea.Cmd) { return d, nil }

func (d *Document) View(width int) string {
	if d.rendered == "" || d.width != width {
		d.rendered = renderMarkdown(d.props.Content, width)
		d.width = width
	}
	box := boxStyle
	if width > 4 {
		box = box.Width(width - 2).MaxWidth(width)
	}
	return box.Render(d.rendered)
}

// renderMarkdown runs glamour over the document body. Glamour can panic on
// pathological input, and agent output is untrusted, so any failure falls
// back to the raw text.
func renderMarkdown(body string, width int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = body
		}
	}()

	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return body
	}
	rendered, err := r.Render(body)
	if err != nil {
		return body
	}
	return strings.TrimRight(rendered, "\n")
}
