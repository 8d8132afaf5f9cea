package artifact

import (
	"encoding/json"
	"testing"
)

func violationFields(vs []Violation) map[string]bool {
	out := make(map[string]bool, len(vs))
	for _, v := range vs {
		out[v.Field] = true
	}
	return out
}

func TestValidateForm(t *testing.T) {
	tests := []struct {
		name       string
		props      string
		wantOK     bool
		wantFields []string // violation fields that must be present
	}{
		{
			name:   "minimal valid",
			props:  `{"title":"T","fields":[{"name":"a","type":"text","label":"A"}]}`,
			wantOK: true,
		},
		{
			name:   "all field types",
			props:  `{"title":"T","fields":[{"name":"a","type":"text","label":"A"},{"name":"b","type":"textarea","label":"B"},{"name":"c","type":"number","label":"C"},{"name":"d","type":"checkbox","label":"D"},{"name":"e","type":"select","label":"E","options":["x","y"]}]}`,
			wantOK: true,
		},
		{
			name:       "missing title",
			props:      `{"fields":[{"name":"a","type":"text","label":"A"}]}`,
			wantFields: []string{"title"},
		},
		{
			name:       "empty fields",
			props:      `{"title":"T","fields":[]}`,
			wantFields: []string{"fields"},
		},
		{
			name:       "unknown field type",
			props:      `{"title":"T","fields":[{"name":"a","type":"slider","label":"A"}]}`,
			wantFields: []string{"fields[0].type"},
		},
		{
			name:       "select without options",
			props:      `{"title":"T","fields":[{"name":"a","type":"select","label":"A"}]}`,
			wantFields: []string{"fields[0].options"},
		},
		{
			name:       "options on text field",
			props:      `{"title":"T","fields":[{"name":"a","type":"text","label":"A","options":["x"]}]}`,
			wantFields: []string{"fields[0].options"},
		},
		{
			name:       "duplicate field names",
			props:      `{"title":"T","fields":[{"name":"a","type":"text","label":"A"},{"name":"a","type":"text","label":"B"}]}`,
			wantFields: []string{"fields[1].name"},
		},
		{
			name:       "missing name and label",
			props:      `{"title":"T","fields":[{"type":"text"}]}`,
			wantFields: []string{"fields[0].name", "fields[0].label"},
		},
		{
			name:       "select default not in options",
			props:      `{"title":"T","fields":[{"name":"a","type":"select","label":"A","options":["x","y"],"default":"z"}]}`,
			wantFields: []string{"fields[0].default"},
		},
		{
			name:   "select default in options",
			props:  `{"title":"T","fields":[{"name":"a","type":"select","label":"A","options":["x","y"],"default":"y"}]}`,
			wantOK: true,
		},
		{
			name:       "checkbox default not boolean",
			props:      `{"title":"T","fields":[{"name":"a","type":"checkbox","label":"A","default":"yes"}]}`,
			wantFields: []string{"fields[0].default"},
		},
		{
			name:   "checkbox default boolean",
			props:  `{"title":"T","fields":[{"name":"a","type":"checkbox","label":"A","default":true}]}`,
			wantOK: true,
		},
		{
			name:       "number default not numeric",
			props:      `{"title":"T","fields":[{"name":"a","type":"number","label":"A","default":"3"}]}`,
			wantFields: []string{"fields[0].default"},
		},
		{
			name:   "number default numeric",
			props:  `{"title":"T","fields":[{"name":"a","type":"number","label":"A","default":3}]}`,
			wantOK: true,
		},
		{
			name:       "unknown props key",
			props:      `{"title":"T","fields":[{"name":"a","type":"text","label":"A"}],"surprise":1}`,
			wantFields: []string{"props"},
		},
		{
			name:   "required false honored",
			props:  `{"title":"T","fields":[{"name":"a","type":"text","label":"A","required":false}]}`,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, violations := ValidateForm(json.RawMessage(tt.props))
			if tt.wantOK {
				if len(violations) > 0 {
					t.Fatalf("unexpected violations: %+v", violations)
				}
				if props == nil {
					t.Fatal("nil props with no violations")
				}
				return
			}
			if props != nil {
				t.Fatal("props returned despite violations")
			}
			got := violationFields(violations)
			for _, want := range tt.wantFields {
				if !got[want] {
					t.Errorf("missing violation for %q, got %+v", want, violations)
				}
			}
		})
	}
}

func TestValidateForm_RequiredDefault(t *testing.T) {
	props, violations := ValidateForm(json.RawMessage(
		`{"title":"T","fields":[{"name":"a","type":"text","label":"A"},{"name":"b","type":"text","label":"B","required":false}]}`))
	if len(violations) > 0 {
		t.Fatalf("unexpected violations: %+v", violations)
	}
	form := props.(*FormProps)
	if !form.Fields[0].IsRequired() {
		t.Error("absent required flag must mean required")
	}
	if form.Fields[1].IsRequired() {
		t.Error("explicit required:false ignored")
	}
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		props   string
		wantOK  bool
		content string
	}{
		{name: "content key", props: `{"content":"# Hi"}`, wantOK: true, content: "# Hi"},
		{name: "body alias", props: `{"body":"Hi"}`, wantOK: true, content: "Hi"},
		{name: "both keys same value", props: `{"content":"x","body":"x"}`, wantOK: true, content: "x"},
		{name: "both keys conflicting", props: `{"content":"x","body":"y"}`},
		{name: "empty", props: `{}`},
		{name: "wrong type", props: `{"content":42}`},
		{name: "unknown key", props: `{"content":"x","font":"mono"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props, violations := ValidateDocument(json.RawMessage(tt.props))
			if tt.wantOK {
				if len(violations) > 0 {
					t.Fatalf("unexpected violations: %+v", violations)
				}
				if got := props.(*DocumentProps).Content; got != tt.content {
					t.Errorf("content = %q, want %q", got, tt.content)
				}
				return
			}
			if len(violations) == 0 {
				t.Fatal("expected violations")
			}
		})
	}
}

func TestRegistry_RegisterNewKind(t *testing.T) {
	reg := NewRegistry()
	reg.Register("chart", func(raw json.RawMessage) (Props, []Violation) {
		return &DocumentProps{Content: "chart placeholder"}, nil
	})

	kind, fn, ok := reg.Resolve("chart")
	if !ok || kind != "chart" || fn == nil {
		t.Fatalf("Resolve(chart) = %v %v %v", kind, fn, ok)
	}

	if _, _, ok := reg.Resolve("sparkline"); ok {
		t.Error("unregistered kind resolved")
	}
}

func TestRegistry_AliasResolution(t *testing.T) {
	reg := NewRegistry()
	kind, _, ok := reg.Resolve(KindMarkdown)
	if !ok {
		t.Fatal("markdown alias not resolvable")
	}
	if kind != KindDocument {
		t.Errorf("markdown resolved to %q, want %q", kind, KindDocument)
	}
}
