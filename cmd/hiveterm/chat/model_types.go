// Package chat provides the interactive TUI for a hiveterm session: the
// transcript viewport, the input area, and the live artifact widgets.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"hiveterm/cmd/hiveterm/ui"
	"hiveterm/internal/artifact"
	"hiveterm/internal/session"
	"hiveterm/internal/submit"
	"hiveterm/internal/widget"
)

// FocusState says who owns the keyboard.
type FocusState int

const (
	// FocusInput: the prose input owns the keyboard.
	FocusInput FocusState = iota
	// FocusWidget: exactly one interactive widget owns the keyboard.
	FocusWidget
	// FocusDone: the stream ended and no widget is pending; read-only.
	FocusDone
)

// entryKind discriminates transcript entries.
type entryKind int

const (
	entryAgentText entryKind = iota
	entryUserText
	entryWidget
	entryRejection
)

// entry is one element of the append-only transcript. Entries are only
// ever appended, in arrival order; a widget entry re-renders in place as
// its state changes but never moves.
type entry struct {
	kind      entryKind
	text      string
	widgetIdx int // index into Model.widgets for entryWidget
	rejection *artifact.Rejection
	at        time.Time
}

// Model is the bubbletea model for one chat session.
type Model struct {
	// UI components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles

	// Transcript
	entries []entry
	widgets []widget.Widget

	// Focus and queueing. queue holds widget indices waiting for focus,
	// oldest first; focused is an index into widgets or -1.
	focus   FocusState
	focused int
	queue   []int

	// Stream
	events    <-chan session.Event
	streaming bool
	endErr    error

	// Backend
	registry *widget.Registry
	channel  *submit.Channel
	cancel   context.CancelFunc
	log      *zap.Logger

	// Layout
	width    int
	height   int
	ready    bool
	renderer *glamour.TermRenderer
}

// stream messages, produced by awaitEvent

type streamTextMsg string

type streamArtifactMsg struct{ artifact *artifact.Artifact }

type streamRejectMsg struct{ rejection *artifact.Rejection }

type streamEndMsg struct{ err error }
