package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"hiveterm/internal/artifact"
	"hiveterm/internal/submit"
	"hiveterm/internal/widget"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 3
		footerHeight := 1
		inputHeight := 4
		vpHeight := msg.Height - headerHeight - footerHeight - inputHeight
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.viewport = newViewport(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(msg.Width - 4)
		m.renderer = newMarkdownRenderer(msg.Width)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		// Ctrl+C always quits; unresolved widgets abort on the way out.
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}

		if m.focus == FocusWidget {
			return m.updateFocusedWidget(msg)
		}

		switch msg.Type {
		case tea.KeyEsc:
			return m.quit()
		case tea.KeyPgUp, tea.KeyPgDown:
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		case tea.KeyEnter:
			if m.focus == FocusInput {
				return m.submitProse()
			}
			return m, nil
		}

		if m.focus == FocusInput {
			m.textarea, taCmd = m.textarea.Update(msg)
		}
		return m, taCmd

	case streamTextMsg:
		m.appendAgentText(string(msg))
		m.refreshViewport()
		return m, awaitEvent(m.events)

	case streamArtifactMsg:
		cmd := m.addArtifact(msg.artifact)
		m.refreshViewport()
		return m, tea.Batch(cmd, awaitEvent(m.events))

	case streamRejectMsg:
		m.entries = append(m.entries, entry{kind: entryRejection, rejection: msg.rejection, at: time.Now()})
		m.refreshViewport()
		return m, awaitEvent(m.events)

	case streamEndMsg:
		m.streaming = false
		m.endErr = msg.err
		if m.focus == FocusInput {
			m.focus = FocusDone
			m.textarea.Blur()
		}
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.streaming {
			m.spinner, spCmd = m.spinner.Update(msg)
		}
		return m, spCmd
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, vpCmd
}

// appendAgentText coalesces consecutive prose chunks into one entry so the
// transcript is not fragmented by chunk boundaries.
func (m *Model) appendAgentText(text string) {
	if n := len(m.entries); n > 0 && m.entries[n-1].kind == entryAgentText {
		m.entries[n-1].text += text
		return
	}
	m.entries = append(m.entries, entry{kind: entryAgentText, text: text, at: time.Now()})
}

// addArtifact appends a transcript entry for a decoded artifact. An
// interactive widget takes focus immediately unless one is already live,
// in which case it queues behind it.
func (m *Model) addArtifact(a *artifact.Artifact) tea.Cmd {
	w, err := m.registry.For(a)
	if err != nil {
		// No renderer: the artifact still shows up, as structured text.
		m.entries = append(m.entries, entry{kind: entryAgentText, text: widget.FallbackView(a), at: time.Now()})
		return nil
	}

	idx := len(m.widgets)
	m.widgets = append(m.widgets, w)
	m.entries = append(m.entries, entry{kind: entryWidget, widgetIdx: idx, at: time.Now()})
	m.log.Debug("widget created",
		zap.String("id", a.ID),
		zap.String("kind", string(a.Kind)),
		zap.Bool("interactive", w.Interactive()))

	if !w.Interactive() {
		return nil
	}
	if m.focus == FocusWidget {
		m.queue = append(m.queue, idx)
		return nil
	}
	m.focusWidget(idx)
	return nil
}

func (m *Model) focusWidget(idx int) {
	m.focused = idx
	m.focus = FocusWidget
	m.textarea.Blur()
	m.log.Debug("widget focused", zap.String("id", m.widgets[idx].Artifact().ID))
}

// updateFocusedWidget routes a key to the live widget and handles its
// completion: deliver the result, promote the next queued widget, or
// return focus to the input.
func (m Model) updateFocusedWidget(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w, cmd := m.widgets[m.focused].Update(msg)
	m.widgets[m.focused] = w
	cmds := []tea.Cmd{cmd}

	if w.Done() {
		if res := w.Result(); res != nil {
			cmds = append(cmds, m.deliver(*res))
		}
		m.focused = -1
		switch {
		case len(m.queue) > 0:
			next := m.queue[0]
			m.queue = m.queue[1:]
			m.focusWidget(next)
		case m.streaming:
			m.focus = FocusInput
			cmds = append(cmds, m.textarea.Focus())
		default:
			m.focus = FocusDone
		}
	}

	m.refreshViewport()
	return m, tea.Batch(cmds...)
}

// deliver relays one submission result off the UI goroutine.
func (m Model) deliver(res submit.Result) tea.Cmd {
	ch := m.channel
	return func() tea.Msg {
		ch.Send(context.Background(), res)
		return nil
	}
}

// quit aborts every unresolved interactive widget, then exits. Each widget
// still yields its one result. Aborts deliver synchronously here: a
// command issued alongside tea.Quit races program shutdown and can be
// dropped, and the agent must observe every abort.
func (m Model) quit() (tea.Model, tea.Cmd) {
	abort := func(idx int) {
		w := m.widgets[idx]
		if w.Interactive() && !w.Done() {
			m.channel.Send(context.Background(), submit.Aborted(w.Artifact().ID))
		}
	}
	if m.focused >= 0 {
		abort(m.focused)
	}
	for _, idx := range m.queue {
		abort(idx)
	}
	m.focused = -1
	m.queue = nil
	m.cancel()
	return m, tea.Quit
}

// submitProse appends the user's message to the transcript and clears the
// input. Prose is transcript-only; only widget interactions go back to the
// agent.
func (m Model) submitProse() (tea.Model, tea.Cmd) {
	text := m.textarea.Value()
	if text == "" {
		return m, nil
	}
	m.entries = append(m.entries, entry{kind: entryUserText, text: text, at: time.Now()})
	m.textarea.Reset()
	m.refreshViewport()
	return m, nil
}
