// Package widget maps validated artifacts to live terminal renderings. A
// widget is the only mutable projection of an artifact; the render engine
// owns every live widget and routes keyboard input to at most one of them.
package widget

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"hiveterm/internal/artifact"
	"hiveterm/internal/submit"
)

// ErrNoRenderer signals that an artifact has no widget implementation in
// the current mode. The caller falls back to rendering the artifact's
// structured data as readable text; this is the headless degradation path,
// not a failure.
var ErrNoRenderer = errors.New("no renderer for component kind")

// Widget is a live rendering of exactly one artifact. Interactive widgets
// additionally collect user input and eventually yield one submission.
type Widget interface {
	// Artifact returns the read-only source artifact.
	Artifact() *artifact.Artifact
	// Interactive reports whether the widget takes keyboard focus.
	Interactive() bool
	// Update handles one key event while the widget has focus.
	Update(msg tea.KeyMsg) (Widget, tea.Cmd)
	// View renders the widget at the given width.
	View(width int) string
	// Done reports whether interaction has ended (submit or cancel).
	// Non-interactive widgets are done from construction.
	Done() bool
	// Result returns the submission once Done, nil before. It is produced
	// exactly once per interactive widget.
	Result() *submit.Result
}

// Mode selects between live terminal rendering and headless fallback.
type Mode int

const (
	// ModeInteractive renders artifacts as live widgets.
	ModeInteractive Mode = iota
	// ModeHeadless renders every artifact as readable structured text.
	ModeHeadless
)

// Factory constructs a widget for one validated artifact.
type Factory func(a *artifact.Artifact) Widget

// Registry maps component kinds to widget factories. Validation already
// happened in the decoder; the registry only dispatches.
type Registry struct {
	mode      Mode
	factories map[artifact.Kind]Factory
}

// NewRegistry returns a registry with the reference kinds registered.
func NewRegistry(mode Mode) *Registry {
	r := &Registry{mode: mode, factories: make(map[artifact.Kind]Factory)}
	r.Register(artifact.KindForm, func(a *artifact.Artifact) Widget { return NewForm(a) })
	r.Register(artifact.KindDocument, func(a *artifact.Artifact) Widget { return NewDocument(a) })
	return r
}

// Register adds a renderer for a kind. New component kinds extend the
// widget set this way, paired with a schema registration on the decode side.
func (r *Registry) Register(kind artifact.Kind, f Factory) {
	r.factories[kind] = f
}

// Mode reports the registry's rendering mode.
func (r *Registry) Mode() Mode { return r.mode }

// For returns the widget for an artifact, or ErrNoRenderer when running
// headless or the kind has no registered implementation.
func (r *Registry) For(a *artifact.Artifact) (Widget, error) {
	if r.mode == ModeHeadless {
		return nil, ErrNoRenderer
	}
	f, ok := r.factories[a.Kind]
	if !ok {
		return nil, ErrNoRenderer
	}
	return f(a), nil
}

// FallbackView renders an artifact as pretty-printed structured text, the
// degradation used when For returns ErrNoRenderer.
func FallbackView(a *artifact.Artifact) string {
	return a.PrettyJSON()
}
