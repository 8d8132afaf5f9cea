package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"hiveterm/cmd/hiveterm/ui"
	"hiveterm/internal/logging"
	"hiveterm/internal/session"
	"hiveterm/internal/submit"
	"hiveterm/internal/widget"
)

// Options wires a Model to its session.
type Options struct {
	Events   <-chan session.Event
	Registry *widget.Registry
	Channel  *submit.Channel
	Styles   ui.Styles
	// Cancel tears down the pipeline when the user quits mid-stream.
	Cancel context.CancelFunc
}

// New builds the chat model for one session.
func New(opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Say something..."
	ta.Prompt = "┃ "
	ta.CharLimit = 4000
	ta.SetHeight(2)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = opts.Styles.Spinner

	reg := opts.Registry
	if reg == nil {
		reg = widget.NewRegistry(widget.ModeInteractive)
	}
	ch := opts.Channel
	if ch == nil {
		ch = submit.NewChannel(nil, nil)
	}
	cancel := opts.Cancel
	if cancel == nil {
		cancel = func() {}
	}

	return Model{
		textarea:  ta,
		spinner:   sp,
		styles:    opts.Styles,
		focus:     FocusInput,
		focused:   -1,
		events:    opts.Events,
		streaming: opts.Events != nil,
		registry:  reg,
		channel:   ch,
		cancel:    cancel,
		log:       logging.Get(logging.CategoryWidget),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if m.events != nil {
		cmds = append(cmds, awaitEvent(m.events))
	}
	return tea.Batch(cmds...)
}

// awaitEvent bridges the pipeline channel into the bubbletea loop, one
// event per command so transcript order matches stream order.
func awaitEvent(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamEndMsg{}
		}
		switch ev.Kind {
		case session.EventText:
			return streamTextMsg(ev.Text)
		case session.EventArtifact:
			return streamArtifactMsg{artifact: ev.Artifact}
		case session.EventRejection:
			return streamRejectMsg{rejection: ev.Rejection}
		default:
			return streamEndMsg{err: ev.Err}
		}
	}
}
