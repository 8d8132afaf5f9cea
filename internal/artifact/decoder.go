package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Reason classifies why a candidate payload was rejected.
type Reason string

const (
	// ReasonMalformedPayload: the bytes are not parseable as a JSON object.
	// Degrades to plain text display of the raw payload.
	ReasonMalformedPayload Reason = "malformed-payload"
	// ReasonUnknownKind: parsed, but the discriminating type/component is
	// absent or not a registered kind.
	ReasonUnknownKind Reason = "unknown-kind"
	// ReasonSchemaViolation: recognized kind with missing or mistyped
	// fields. Rendered as a diagnostic note plus the raw payload.
	ReasonSchemaViolation Reason = "schema-violation"
)

// Rejection is the normal (non-error) outcome for an invalid payload. The
// raw bytes are retained so the transcript can still show what arrived.
type Rejection struct {
	Reason     Reason
	Kind       Kind // set for ReasonSchemaViolation and recognized-but-bad kinds
	Violations []Violation
	Raw        []byte
}

// Summary renders a one-line diagnostic for transcript display.
func (r *Rejection) Summary() string {
	switch r.Reason {
	case ReasonMalformedPayload:
		return "artifact block is not valid JSON"
	case ReasonUnknownKind:
		if r.Kind != "" {
			return fmt.Sprintf("unknown artifact component %q", r.Kind)
		}
		return "artifact block missing component discriminator"
	case ReasonSchemaViolation:
		msgs := make([]string, len(r.Violations))
		for i, v := range r.Violations {
			msgs[i] = v.String()
		}
		return fmt.Sprintf("invalid %s artifact: %s", r.Kind, strings.Join(msgs, "; "))
	}
	return string(r.Reason)
}

// Result is the decoder output: exactly one of Artifact or Rejection is
// set. Decoding never raises to the caller.
type Result struct {
	Artifact  *Artifact
	Rejection *Rejection
}

// OK reports whether decoding produced a validated Artifact.
func (r Result) OK() bool { return r.Artifact != nil }

// Decoder turns candidate payloads into Artifacts. It is purely functional
// apart from assigning sequence numbers unique within its session; it does
// not deduplicate wire ids across or within sessions.
type Decoder struct {
	registry *Registry
	session  uuid.UUID

	mu  sync.Mutex
	seq int
}

// NewDecoder returns a decoder for one session. A nil registry gets the
// default reference kinds.
func NewDecoder(reg *Registry) *Decoder {
	if reg == nil {
		reg = NewRegistry()
	}
	return &Decoder{registry: reg, session: uuid.New()}
}

// Session returns the decoder's session identifier.
func (d *Decoder) Session() uuid.UUID { return d.session }

// Decode validates one candidate payload. Rejection is a normal result,
// never an error: the caller degrades the payload to visible text.
func (d *Decoder) Decode(payload []byte) Result {
	raw := bytes.TrimSpace(payload)

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return reject(&Rejection{Reason: ReasonMalformedPayload, Raw: raw})
	}
	if dec.More() {
		// Trailing bytes after the envelope object; not a clean payload.
		return reject(&Rejection{Reason: ReasonMalformedPayload, Raw: raw})
	}

	if env.Type != EnvelopeType {
		return reject(&Rejection{Reason: ReasonUnknownKind, Raw: raw})
	}
	kind, validate, ok := d.registry.Resolve(Kind(env.Component))
	if !ok {
		return reject(&Rejection{Reason: ReasonUnknownKind, Kind: Kind(env.Component), Raw: raw})
	}

	var violations []Violation
	if env.ID == "" {
		violations = append(violations, Violation{Field: "id", Message: "required"})
	}
	if len(env.Props) == 0 {
		violations = append(violations, Violation{Field: "props", Message: "required"})
	}

	var props Props
	if len(env.Props) > 0 {
		var propViolations []Violation
		props, propViolations = validate(env.Props)
		violations = append(violations, propViolations...)
	}
	if len(violations) > 0 {
		return reject(&Rejection{
			Reason:     ReasonSchemaViolation,
			Kind:       kind,
			Violations: violations,
			Raw:        raw,
		})
	}

	d.mu.Lock()
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	return Result{Artifact: &Artifact{
		ID:       env.ID,
		Seq:      seq,
		Kind:     kind,
		Props:    props,
		Metadata: env.Metadata,
	}}
}

func reject(r *Rejection) Result { return Result{Rejection: r} }
