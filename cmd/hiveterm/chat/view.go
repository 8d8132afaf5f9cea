package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"hiveterm/internal/artifact"
)

// newMarkdownRenderer builds a glamour renderer sized to the terminal.
// A nil return is fine; safeRenderMarkdown falls back to raw text.
func newMarkdownRenderer(width int) *glamour.TermRenderer {
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return nil
	}
	return r
}

// safeRenderMarkdown renders agent prose through glamour. Glamour can
// panic on pathological input, and agent output is untrusted, so any
// failure falls back to the raw text.
func (m Model) safeRenderMarkdown(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()
	if m.renderer == nil {
		return text
	}
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}

func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return vp
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders every entry in arrival order. Widget entries
// re-render from live state; everything else is immutable text.
func (m Model) renderTranscript() string {
	var sb strings.Builder
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	for _, e := range m.entries {
		switch e.kind {
		case entryUserText:
			sb.WriteString(m.styles.UserLabel.Render("you") + "\n")
			sb.WriteString(m.styles.UserInput.Render(e.text))
			sb.WriteString("\n")

		case entryAgentText:
			sb.WriteString(m.styles.AgentLabel.Render("agent") + "\n")
			sb.WriteString(m.safeRenderMarkdown(e.text))
			sb.WriteString("\n")

		case entryWidget:
			sb.WriteString(m.widgets[e.widgetIdx].View(width))
			sb.WriteString("\n")

		case entryRejection:
			// Parseable-but-invalid payloads get a diagnostic note; a
			// payload that is not JSON just degrades to visible raw text.
			if e.rejection.Reason != artifact.ReasonMalformedPayload {
				sb.WriteString(m.styles.Rejection.Render(e.rejection.Summary()))
				sb.WriteString("\n")
			}
			sb.WriteString(m.styles.Muted.Render(string(e.rejection.Raw)))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()
	content := m.styles.Content.Render(m.viewport.View())

	var inputArea string
	switch m.focus {
	case FocusInput:
		inputArea = m.styles.Input.Render(m.textarea.View())
	case FocusWidget:
		inputArea = m.styles.Muted.Render("  a widget has the keyboard; finish or press esc to cancel it")
	default:
		inputArea = m.styles.Muted.Render("  stream ended; press esc to exit")
	}

	footer := m.renderFooter()

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		inputArea,
		footer,
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" hiveterm ")

	var status string
	switch {
	case m.streaming:
		status = lipgloss.JoinHorizontal(lipgloss.Center, m.spinner.View(), " ", m.styles.Muted.Render("streaming"))
	case m.endErr != nil:
		status = m.styles.Error.Render("stream failed: " + m.endErr.Error())
	default:
		status = m.styles.Success.Render("done")
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)
	return lipgloss.JoinVertical(lipgloss.Left, line, m.styles.RenderDivider(m.width))
}

func (m Model) renderFooter() string {
	var hints string
	switch m.focus {
	case FocusWidget:
		hints = "tab: next field • ctrl+s: submit • esc: cancel widget • ctrl+c: quit"
	case FocusInput:
		hints = "enter: send • pgup/pgdn: scroll • esc: quit"
	default:
		hints = "esc: quit"
	}
	if n := len(m.queue); n > 0 {
		hints = m.styles.Badge.Render("queued: "+strconv.Itoa(n)) + " " + hints
	}
	return m.styles.Footer.Render(hints)
}
