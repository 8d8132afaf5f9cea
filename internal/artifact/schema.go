package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
)

// Violation is one failed structural check, attributed to a field so the
// diagnostic rendered into the transcript is actionable.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidateFunc checks a raw props object against one kind's structural
// contract. Validation is exhaustive: it reports every violation it finds,
// not just the first. A nil Props with no violations is not a legal return.
type ValidateFunc func(raw json.RawMessage) (Props, []Violation)

// Registry is the static mapping from component kind to structural
// contract. It performs no validation itself beyond lookup; the decoder
// drives the ValidateFuncs.
type Registry struct {
	mu      sync.RWMutex
	schemas map[Kind]ValidateFunc
	aliases map[Kind]Kind
}

// NewRegistry returns a registry pre-loaded with the two reference kinds
// and the legacy "markdown" alias for "document".
func NewRegistry() *Registry {
	r := &Registry{
		schemas: make(map[Kind]ValidateFunc),
		aliases: make(map[Kind]Kind),
	}
	r.Register(KindForm, ValidateForm)
	r.Register(KindDocument, ValidateDocument)
	r.RegisterAlias(KindMarkdown, KindDocument)
	return r
}

// Register adds or replaces the structural contract for a kind. New
// component kinds extend the closed set this way.
func (r *Registry) Register(k Kind, fn ValidateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemas[k] = fn
}

// RegisterAlias maps a wire name onto a canonical kind.
func (r *Registry) RegisterAlias(alias, canonical Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = canonical
}

// Resolve canonicalizes a wire kind and returns its contract.
func (r *Registry) Resolve(k Kind) (Kind, ValidateFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[k]; ok {
		k = canonical
	}
	fn, ok := r.schemas[k]
	return k, fn, ok
}

// Kinds returns the registered canonical kinds.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.schemas))
	for k := range r.schemas {
		kinds = append(kinds, k)
	}
	return kinds
}

// strictUnmarshal decodes with unknown keys rejected, mirroring the
// emitter-side contract that props carry no extra fields.
func strictUnmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	return nil
}

// ValidateForm is the structural contract of the "form" kind.
func ValidateForm(raw json.RawMessage) (Props, []Violation) {
	var p FormProps
	if err := strictUnmarshal(raw, &p); err != nil {
		return nil, []Violation{{Field: "props", Message: err.Error()}}
	}

	var violations []Violation
	if p.Title == "" {
		violations = append(violations, Violation{Field: "title", Message: "required"})
	}
	if len(p.Fields) == 0 {
		violations = append(violations, Violation{Field: "fields", Message: "at least one field required"})
	}

	seen := make(map[string]bool, len(p.Fields))
	for i, f := range p.Fields {
		where := fmt.Sprintf("fields[%d]", i)
		if f.Name == "" {
			violations = append(violations, Violation{Field: where + ".name", Message: "required"})
		} else if seen[f.Name] {
			violations = append(violations, Violation{Field: where + ".name", Message: fmt.Sprintf("duplicate field name %q", f.Name)})
		} else {
			seen[f.Name] = true
		}
		if f.Label == "" {
			violations = append(violations, Violation{Field: where + ".label", Message: "required"})
		}
		if !validFieldType(f.Type) {
			violations = append(violations, Violation{Field: where + ".type", Message: fmt.Sprintf("unknown field type %q", f.Type)})
			continue
		}
		if f.Type == FieldSelect && len(f.Options) == 0 {
			violations = append(violations, Violation{Field: where + ".options", Message: "select field requires options"})
		}
		if f.Type != FieldSelect && len(f.Options) > 0 {
			violations = append(violations, Violation{Field: where + ".options", Message: fmt.Sprintf("options not allowed on %s field", f.Type)})
		}
		violations = append(violations, checkDefault(where, f)...)
	}

	if len(violations) > 0 {
		return nil, violations
	}
	return &p, nil
}

// checkDefault verifies the declared default matches the field's type and,
// for select fields, the choice set.
func checkDefault(where string, f FormField) []Violation {
	if f.Default == nil {
		return nil
	}
	field := where + ".default"
	switch f.Type {
	case FieldCheckbox:
		if _, ok := f.Default.(bool); !ok {
			return []Violation{{Field: field, Message: "checkbox default must be a boolean"}}
		}
	case FieldNumber:
		if _, ok := f.Default.(float64); !ok {
			return []Violation{{Field: field, Message: "number default must be numeric"}}
		}
	case FieldSelect:
		s, ok := f.Default.(string)
		if !ok {
			return []Violation{{Field: field, Message: "select default must be a string"}}
		}
		for _, opt := range f.Options {
			if opt == s {
				return nil
			}
		}
		return []Violation{{Field: field, Message: fmt.Sprintf("default %q not in options", s)}}
	default: // text, textarea
		if _, ok := f.Default.(string); !ok {
			return []Violation{{Field: field, Message: "default must be a string"}}
		}
	}
	return nil
}

// ValidateDocument is the structural contract of the "document" kind. The
// body may arrive under "content" (canonical) or "body" (wire shorthand
// some emitters use); exactly one must be present and non-empty.
func ValidateDocument(raw json.RawMessage) (Props, []Violation) {
	var wire struct {
		Content string `json:"content"`
		Body    string `json:"body"`
	}
	if err := strictUnmarshal(raw, &wire); err != nil {
		return nil, []Violation{{Field: "props", Message: err.Error()}}
	}
	content := wire.Content
	if content == "" {
		content = wire.Body
	}
	if content == "" {
		return nil, []Violation{{Field: "content", Message: "required"}}
	}
	if wire.Content != "" && wire.Body != "" && wire.Content != wire.Body {
		return nil, []Violation{{Field: "content", Message: "content and body both set with different values"}}
	}
	return &DocumentProps{Content: content}, nil
}
