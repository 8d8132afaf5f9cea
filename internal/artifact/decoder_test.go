package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFormPayload() []byte {
	return []byte(`{
		"type": "artifact",
		"id": "deployment-form-01",
		"component": "form",
		"props": {
			"title": "Confirm Deployment",
			"fields": [
				{"name": "env", "type": "select", "label": "Environment", "options": ["staging", "prod"], "default": "staging"},
				{"name": "confirm", "type": "checkbox", "label": "I understand the risks"}
			],
			"submit_label": "Deploy Now"
		}
	}`)
}

func TestDecode_ValidForm(t *testing.T) {
	d := NewDecoder(nil)
	res := d.Decode(validFormPayload())
	require.True(t, res.OK(), "rejection: %+v", res.Rejection)

	a := res.Artifact
	assert.Equal(t, "deployment-form-01", a.ID)
	assert.Equal(t, KindForm, a.Kind)
	assert.Equal(t, 1, a.Seq)
	assert.True(t, a.Interactive())

	form := a.Form()
	require.NotNil(t, form)
	assert.Equal(t, "Confirm Deployment", form.Title)
	assert.Equal(t, "Deploy Now", form.EffectiveSubmitLabel())
	require.Len(t, form.Fields, 2)
	assert.Equal(t, FieldSelect, form.Fields[0].Type)
	assert.True(t, form.Fields[1].IsRequired(), "required defaults to true")
	assert.Nil(t, a.Document())
}

func TestDecode_ValidDocument(t *testing.T) {
	d := NewDecoder(nil)
	res := d.Decode([]byte(`{"type":"artifact","id":"1","component":"document","props":{"body":"Hi"}}`))
	require.True(t, res.OK(), "rejection: %+v", res.Rejection)
	assert.Equal(t, KindDocument, res.Artifact.Kind)
	assert.False(t, res.Artifact.Interactive())
	require.NotNil(t, res.Artifact.Document())
	assert.Equal(t, "Hi", res.Artifact.Document().Content)
}

func TestDecode_MarkdownAliasResolvesToDocument(t *testing.T) {
	d := NewDecoder(nil)
	res := d.Decode([]byte(`{"type":"artifact","id":"md-1","component":"markdown","props":{"content":"# Hello"}}`))
	require.True(t, res.OK(), "rejection: %+v", res.Rejection)
	assert.Equal(t, KindDocument, res.Artifact.Kind)
	assert.Equal(t, "# Hello", res.Artifact.Document().Content)
}

func TestDecode_MalformedPayload(t *testing.T) {
	d := NewDecoder(nil)
	for _, payload := range []string{
		`not json at all`,
		`{"type":"artifact","id":"x"`,
		`{"type":"artifact"} trailing`,
		`[1,2,3]`,
		``,
	} {
		res := d.Decode([]byte(payload))
		require.False(t, res.OK(), "payload %q decoded", payload)
		assert.Equal(t, ReasonMalformedPayload, res.Rejection.Reason, "payload %q", payload)
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	d := NewDecoder(nil)

	res := d.Decode([]byte(`{"type":"artifact","id":"x","component":"chart","props":{}}`))
	require.False(t, res.OK())
	assert.Equal(t, ReasonUnknownKind, res.Rejection.Reason)
	assert.Equal(t, Kind("chart"), res.Rejection.Kind)

	// Missing discriminator entirely.
	res = d.Decode([]byte(`{"type":"note","id":"x","props":{}}`))
	require.False(t, res.OK())
	assert.Equal(t, ReasonUnknownKind, res.Rejection.Reason)
}

func TestDecode_SchemaViolationsAreExhaustive(t *testing.T) {
	d := NewDecoder(nil)
	// Three independent defects: blank id, missing title, select without
	// options. All must be reported, not just the first.
	res := d.Decode([]byte(`{
		"type": "artifact",
		"id": "",
		"component": "form",
		"props": {
			"fields": [{"name": "env", "type": "select", "label": "Env"}]
		}
	}`))
	require.False(t, res.OK())
	require.Equal(t, ReasonSchemaViolation, res.Rejection.Reason)

	fields := make(map[string]bool)
	for _, v := range res.Rejection.Violations {
		fields[v.Field] = true
	}
	assert.True(t, fields["id"], "missing id violation: %+v", res.Rejection.Violations)
	assert.True(t, fields["title"], "missing title violation: %+v", res.Rejection.Violations)
	assert.True(t, fields["fields[0].options"], "missing options violation: %+v", res.Rejection.Violations)
}

func TestDecode_MissingRequiredFieldNeverPartial(t *testing.T) {
	d := NewDecoder(nil)
	res := d.Decode([]byte(`{"type":"artifact","id":"f","component":"form","props":{"title":"T"}}`))
	require.False(t, res.OK())
	assert.Nil(t, res.Artifact, "no partially populated artifact on rejection")
	assert.Equal(t, ReasonSchemaViolation, res.Rejection.Reason)
	assert.NotEmpty(t, res.Rejection.Raw, "raw payload retained for transcript display")
}

func TestDecode_SessionUniqueSequence(t *testing.T) {
	d := NewDecoder(nil)
	first := d.Decode(validFormPayload())
	second := d.Decode(validFormPayload())
	require.True(t, first.OK())
	require.True(t, second.OK())

	// Same wire id, distinct session-scoped identifiers: the decoder does
	// not deduplicate.
	assert.Equal(t, first.Artifact.ID, second.Artifact.ID)
	assert.NotEqual(t, first.Artifact.Seq, second.Artifact.Seq)

	other := NewDecoder(nil)
	assert.NotEqual(t, d.Session(), other.Session())
}

func TestMarshalRoundTrip(t *testing.T) {
	props := &FormProps{
		Title: "Quick Form",
		Fields: []FormField{
			{Name: "name", Type: FieldText, Label: "Name"},
		},
		SubmitLabel: "Go",
	}
	payload, err := Marshal("quick-form", props)
	require.NoError(t, err)

	res := NewDecoder(nil).Decode(payload)
	require.True(t, res.OK(), "rejection: %+v", res.Rejection)
	assert.Equal(t, "quick-form", res.Artifact.ID)
	assert.Equal(t, "Go", res.Artifact.Form().SubmitLabel)
}

func TestMarshal_RequiresID(t *testing.T) {
	_, err := Marshal("", &DocumentProps{Content: "x"})
	assert.Error(t, err)
}

func TestPrettyJSON(t *testing.T) {
	res := NewDecoder(nil).Decode([]byte(`{"type":"artifact","id":"doc-1","component":"document","props":{"content":"# Report"}}`))
	require.True(t, res.OK())

	out := res.Artifact.PrettyJSON()
	assert.Contains(t, out, `"type": "artifact"`)
	assert.Contains(t, out, `"doc-1"`)
	assert.Contains(t, out, "# Report")
}

func TestRejectionSummary(t *testing.T) {
	tests := []struct {
		name string
		rej  Rejection
		want string
	}{
		{
			name: "malformed",
			rej:  Rejection{Reason: ReasonMalformedPayload},
			want: "artifact block is not valid JSON",
		},
		{
			name: "unknown kind",
			rej:  Rejection{Reason: ReasonUnknownKind, Kind: "chart"},
			want: `unknown artifact component "chart"`,
		},
		{
			name: "missing discriminator",
			rej:  Rejection{Reason: ReasonUnknownKind},
			want: "artifact block missing component discriminator",
		},
		{
			name: "schema violation",
			rej: Rejection{
				Reason:     ReasonSchemaViolation,
				Kind:       KindForm,
				Violations: []Violation{{Field: "title", Message: "required"}},
			},
			want: "invalid form artifact: title: required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rej.Summary())
		})
	}
}
