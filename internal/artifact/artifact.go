// Package artifact defines the structured UI payloads an agent can embed in
// its output stream, the per-kind schema registry, and the decoder that
// turns a candidate payload into a validated, immutable Artifact.
//
// The wire format is a JSON envelope with fixed keys:
//
//	{"type":"artifact","id":"...","component":"form"|"document","props":{...}}
//
// The dynamic props of the source protocol become closed tagged variants
// here: a payload is either a FormProps or a DocumentProps after
// validation, never an untyped map handed straight to a renderer.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"hiveterm/internal/stream"
)

// EnvelopeType is the discriminating value of the envelope "type" key.
const EnvelopeType = "artifact"

// Kind identifies a component kind. The set is closed but extensible via
// Registry.Register.
type Kind string

const (
	// KindForm is an interactive structured-input form.
	KindForm Kind = "form"
	// KindDocument is a formatted (markdown) document view.
	KindDocument Kind = "document"
	// KindMarkdown is the legacy wire name for KindDocument, accepted as an
	// alias on decode.
	KindMarkdown Kind = "markdown"
)

// FieldType enumerates form input field types.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
)

func validFieldType(t FieldType) bool {
	switch t {
	case FieldText, FieldSelect, FieldCheckbox, FieldTextarea, FieldNumber:
		return true
	}
	return false
}

// FormField describes one input in a form component.
type FormField struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Options     []string  `json:"options,omitempty"`  // select only
	Required    *bool     `json:"required,omitempty"` // wire default: true
	Default     any       `json:"default,omitempty"`  // string, bool, or number
	Placeholder string    `json:"placeholder,omitempty"`
	HelpText    string    `json:"help_text,omitempty"`
}

// IsRequired reports the effective required flag; absent means required.
func (f FormField) IsRequired() bool { return f.Required == nil || *f.Required }

// Props is the validated, typed payload of one component kind.
type Props interface {
	// Component reports the canonical kind this props value belongs to.
	Component() Kind
}

// FormProps is the contract of the "form" component kind.
type FormProps struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
	SubmitLabel string      `json:"submit_label,omitempty"` // display default: "Submit"
	CancelLabel string      `json:"cancel_label,omitempty"`
}

func (*FormProps) Component() Kind { return KindForm }

// EffectiveSubmitLabel returns the submit label, falling back to "Submit".
func (p *FormProps) EffectiveSubmitLabel() string {
	if p.SubmitLabel == "" {
		return "Submit"
	}
	return p.SubmitLabel
}

// DocumentProps is the contract of the "document" component kind.
type DocumentProps struct {
	Content string `json:"content"`
}

func (*DocumentProps) Component() Kind { return KindDocument }

// Artifact is a decoded, schema-validated payload. It is immutable once
// constructed: the render engine and decoder share it read-only. Seq is the
// decoder-assigned identifier, unique within one session; ID is whatever
// the agent put on the wire and is only unique if the agent says so.
type Artifact struct {
	ID       string
	Seq      int
	Kind     Kind
	Props    Props
	Metadata map[string]any
}

// Form returns the typed form props, or nil for other kinds.
func (a *Artifact) Form() *FormProps {
	p, _ := a.Props.(*FormProps)
	return p
}

// Document returns the typed document props, or nil for other kinds.
func (a *Artifact) Document() *DocumentProps {
	p, _ := a.Props.(*DocumentProps)
	return p
}

// Interactive reports whether this artifact collects user input.
func (a *Artifact) Interactive() bool { return a.Kind == KindForm }

// envelope is the wire shape. Unknown keys are rejected on decode, matching
// the emitter contract.
type envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Component string          `json:"component"`
	Props     json.RawMessage `json:"props"`
	Timestamp string          `json:"timestamp,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// Marshal produces the canonical wire envelope for an artifact payload.
// Used by the scripted agent and by tests; the terminal side only decodes.
func Marshal(id string, p Props) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("artifact id required")
	}
	props, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal props: %w", err)
	}
	return json.Marshal(envelope{
		Type:      EnvelopeType,
		ID:        id,
		Component: string(p.Component()),
		Props:     props,
	})
}

// MarshalBlock wraps the wire envelope in the session's stream delimiters,
// yielding a block the scanner on the receiving side extracts verbatim.
// This is the emitter half of the protocol: anything producing agent
// output embeds blocks built here, never hand-assembled delimiter strings.
func MarshalBlock(id string, p Props, delims stream.Delimiters) ([]byte, error) {
	payload, err := Marshal(id, p)
	if err != nil {
		return nil, err
	}
	var b bytes.Buffer
	b.Grow(len(delims.Open) + len(payload) + len(delims.Close) + 2)
	b.WriteString(delims.Open)
	b.WriteByte('\n')
	b.Write(payload)
	b.WriteByte('\n')
	b.WriteString(delims.Close)
	return b.Bytes(), nil
}

// NewForm builds an emitter-side form artifact. The props run through the
// same structural contract the decoder applies, so an emitted block always
// decodes cleanly on the receiving end.
func NewForm(id string, p FormProps) (*Artifact, error) {
	return emit(id, &p)
}

// NewDocument builds an emitter-side document artifact.
func NewDocument(id, content string) (*Artifact, error) {
	return emit(id, &DocumentProps{Content: content})
}

func emit(id string, p Props) (*Artifact, error) {
	if id == "" {
		return nil, fmt.Errorf("artifact id required")
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal props: %w", err)
	}
	_, validate, ok := NewRegistry().Resolve(p.Component())
	if !ok {
		return nil, fmt.Errorf("no schema for kind %q", p.Component())
	}
	typed, violations := validate(raw)
	if len(violations) > 0 {
		msgs := make([]string, len(violations))
		for i, v := range violations {
			msgs[i] = v.String()
		}
		return nil, fmt.Errorf("invalid %s artifact: %s", p.Component(), strings.Join(msgs, "; "))
	}
	return &Artifact{ID: id, Kind: p.Component(), Props: typed}, nil
}

// PrettyJSON renders the artifact's underlying structured form as readable
// indented JSON. This is the headless / no-renderer fallback view: the
// protocol degrades to logs a human can still read.
func (a *Artifact) PrettyJSON() string {
	props, err := json.Marshal(a.Props)
	if err != nil {
		return fmt.Sprintf("artifact %s (%s): %v", a.ID, a.Kind, err)
	}
	env := envelope{
		Type:      EnvelopeType,
		ID:        a.ID,
		Component: string(a.Kind),
		Props:     props,
		Metadata:  a.Metadata,
	}
	out, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Sprintf("artifact %s (%s): %v", a.ID, a.Kind, err)
	}
	return string(out)
}
