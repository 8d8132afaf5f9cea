package widget

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hiveterm/internal/artifact"
	"hiveterm/internal/submit"
)

// control is one focusable input inside a form.
type control interface {
	update(msg tea.KeyMsg) tea.Cmd
	focus() tea.Cmd
	blur()
	view(focused bool) string
	// value returns the typed value and whether the user supplied one.
	value() (any, bool)
	// validate returns a problem description, or "" when acceptable.
	validate() string
}

// Form is the interactive widget for the "form" component kind. It holds
// input focus until the user submits or cancels; both outcomes produce
// exactly one submission result.
type Form struct {
	art      *artifact.Artifact
	props    *artifact.FormProps
	controls []control
	fields   []artifact.FormField
	errs     []string
	focus    int // control index; len(controls) = submit row, +1 = cancel row
	done     bool
	result   *submit.Result
	// initCmd carries the first field's focus command (cursor blink)
	// until the engine's first Update drains it.
	initCmd tea.Cmd
}

// NewForm builds a form widget with defaults pre-populated and the first
// field focused.
func NewForm(a *artifact.Artifact) *Form {
	props := a.Form()
	f := &Form{
		art:    a,
		props:  props,
		fields: props.Fields,
		errs:   make([]string, len(props.Fields)),
	}
	for _, field := range props.Fields {
		f.controls = append(f.controls, newControl(field))
	}
	if len(f.controls) > 0 {
		f.initCmd = f.controls[0].focus()
	}
	return f
}

func newControl(field artifact.FormField) control {
	switch field.Type {
	case artifact.FieldSelect:
		return newSelectControl(field)
	case artifact.FieldCheckbox:
		return newCheckboxControl(field)
	default: // text, textarea, number
		return newTextControl(field)
	}
}

func (f *Form) Artifact() *artifact.Artifact { return f.art }
func (f *Form) Interactive() bool            { return true }
func (f *Form) Done() bool                   { return f.done }
func (f *Form) Result() *submit.Result       { return f.result }

// submitPos and cancelPos are the pseudo-focus slots after the controls.
func (f *Form) submitPos() int { return len(f.controls) }
func (f *Form) cancelPos() int { return len(f.controls) + 1 }

func (f *Form) hasCancelButton() bool { return f.props.CancelLabel != "" }

func (f *Form) lastPos() int {
	if f.hasCancelButton() {
		return f.cancelPos()
	}
	return f.submitPos()
}

// Update routes one key event. The engine only calls this while the form
// has focus; Esc and Ctrl+S work from any row.
func (f *Form) Update(msg tea.KeyMsg) (Widget, tea.Cmd) {
	if f.done {
		return f, nil
	}
	if f.initCmd != nil {
		pending := f.initCmd
		f.initCmd = nil
		w, cmd := f.Update(msg)
		return w, tea.Batch(pending, cmd)
	}

	switch msg.String() {
	case "esc":
		f.cancel()
		return f, nil
	case "ctrl+s":
		f.attemptSubmit()
		return f, nil
	case "tab", "down":
		return f, f.moveFocus(1)
	case "shift+tab", "up":
		return f, f.moveFocus(-1)
	case "enter":
		switch f.focus {
		case f.submitPos():
			f.attemptSubmit()
			return f, nil
		case f.cancelPos():
			f.cancel()
			return f, nil
		default:
			// Enter on a field advances, the usual terminal form idiom.
			return f, f.moveFocus(1)
		}
	}

	if f.focus < len(f.controls) {
		return f, f.controls[f.focus].update(msg)
	}
	return f, nil
}

func (f *Form) moveFocus(delta int) tea.Cmd {
	if f.focus < len(f.controls) {
		f.controls[f.focus].blur()
	}
	last := f.lastPos()
	f.focus += delta
	if f.focus < 0 {
		f.focus = last
	} else if f.focus > last {
		f.focus = 0
	}
	if f.focus < len(f.controls) {
		return f.controls[f.focus].focus()
	}
	return nil
}

// attemptSubmit validates every field; any violation blocks submission and
// moves focus to the first offending field.
func (f *Form) attemptSubmit() {
	firstBad := -1
	for i, c := range f.controls {
		f.errs[i] = c.validate()
		if f.errs[i] != "" && firstBad < 0 {
			firstBad = i
		}
	}
	if firstBad >= 0 {
		if f.focus < len(f.controls) {
			f.controls[f.focus].blur()
		}
		f.focus = firstBad
		f.controls[firstBad].focus()
		return
	}

	data := make(map[string]any, len(f.controls))
	for i, c := range f.controls {
		if v, ok := c.value(); ok {
			data[f.fields[i].Name] = v
		}
	}
	f.done = true
	r := submit.Submitted(f.art.ID, data)
	f.result = &r
}

func (f *Form) cancel() {
	f.done = true
	r := submit.Cancelled(f.art.ID)
	f.result = &r
}

// View renders the form box. Once done it collapses to a one-line record
// so the transcript keeps a readable trace of the interaction.
func (f *Form) View(width int) string {
	if f.done {
		status := "cancelled"
		if f.result != nil && f.result.Completed() {
			status = "submitted"
		}
		line := fmt.Sprintf("%s %s", titleStyle.Render(f.props.Title), helpStyle.Render("("+status+")"))
		return boxStyle.Render(line)
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(f.props.Title))
	sb.WriteString("\n")
	if f.props.Description != "" {
		sb.WriteString(descStyle.Render(f.props.Description))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for i, c := range f.controls {
		field := f.fields[i]
		label := field.Label
		if field.IsRequired() {
			label += " *"
		}
		if f.focus == i {
			sb.WriteString(focusStyle.Render("▸ "))
		} else {
			sb.WriteString("  ")
		}
		sb.WriteString(labelStyle.Render(label))
		sb.WriteString("\n    ")
		sb.WriteString(c.view(f.focus == i))
		sb.WriteString("\n")
		if field.HelpText != "" {
			sb.WriteString("    " + helpStyle.Render(field.HelpText) + "\n")
		}
		if f.errs[i] != "" {
			sb.WriteString("    " + errorStyle.Render(f.errs[i]) + "\n")
		}
	}

	sb.WriteString("\n")
	buttons := []string{f.renderButton(f.props.EffectiveSubmitLabel(), f.focus == f.submitPos())}
	if f.hasCancelButton() {
		buttons = append(buttons, f.renderButton(f.props.CancelLabel, f.focus == f.cancelPos()))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(buttons, "  ")))
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("tab: next field • ctrl+s: submit • esc: cancel"))

	box := boxStyle
	if width > 4 {
		box = box.Width(width - 2).MaxWidth(width)
	}
	return box.Render(sb.String())
}

func (f *Form) renderButton(label string, focused bool) string {
	if focused {
		return buttonFocusStyle.Render(label)
	}
	return buttonStyle.Render(label)
}

// ----------------------------------------------------------------------------
// text / textarea / number

type textControl struct {
	field artifact.FormField
	input textinput.Model
}

func newTextControl(field artifact.FormField) *textControl {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = field.Placeholder
	ti.Width = 40
	switch v := field.Default.(type) {
	case string:
		ti.SetValue(v)
	case float64:
		ti.SetValue(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return &textControl{field: field, input: ti}
}

func (c *textControl) update(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *textControl) focus() tea.Cmd { return c.input.Focus() }
func (c *textControl) blur()          { c.input.Blur() }

func (c *textControl) view(bool) string { return c.input.View() }

func (c *textControl) value() (any, bool) {
	raw := strings.TrimSpace(c.input.Value())
	if raw == "" {
		return nil, false
	}
	if c.field.Type == artifact.FieldNumber {
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return raw, true
}

func (c *textControl) validate() string {
	raw := strings.TrimSpace(c.input.Value())
	if raw == "" {
		if c.field.IsRequired() {
			return "required"
		}
		return ""
	}
	if c.field.Type == artifact.FieldNumber {
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return "must be a number"
		}
	}
	return ""
}

// ----------------------------------------------------------------------------
// select

type selectControl struct {
	field artifact.FormField
	idx   int
}

func newSelectControl(field artifact.FormField) *selectControl {
	c := &selectControl{field: field}
	if def, ok := field.Default.(string); ok {
		for i, opt := range field.Options {
			if opt == def {
				c.idx = i
				break
			}
		}
	}
	return c
}

func (c *selectControl) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		c.idx--
		if c.idx < 0 {
			c.idx = len(c.field.Options) - 1
		}
	case "right", "l", " ":
		c.idx++
		if c.idx >= len(c.field.Options) {
			c.idx = 0
		}
	}
	return nil
}

func (c *selectControl) focus() tea.Cmd { return nil }
func (c *selectControl) blur()          {}

func (c *selectControl) view(focused bool) string {
	parts := make([]string, len(c.field.Options))
	for i, opt := range c.field.Options {
		if i == c.idx {
			if focused {
				parts[i] = focusStyle.Render("‹" + opt + "›")
			} else {
				parts[i] = "‹" + opt + "›"
			}
		} else {
			parts[i] = helpStyle.Render(opt)
		}
	}
	return strings.Join(parts, "  ")
}

func (c *selectControl) value() (any, bool) { return c.field.Options[c.idx], true }

func (c *selectControl) validate() string { return "" }

// ----------------------------------------------------------------------------
// checkbox

type checkboxControl struct {
	field   artifact.FormField
	checked bool
}

func newCheckboxControl(field artifact.FormField) *checkboxControl {
	c := &checkboxControl{field: field}
	if def, ok := field.Default.(bool); ok {
		c.checked = def
	}
	return c
}

func (c *checkboxControl) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case " ", "x":
		c.checked = !c.checked
	}
	return nil
}

func (c *checkboxControl) focus() tea.Cmd { return nil }
func (c *checkboxControl) blur()          {}

func (c *checkboxControl) view(focused bool) string {
	mark := "[ ]"
	if c.checked {
		mark = "[x]"
	}
	if focused {
		return focusStyle.Render(mark) + " " + helpStyle.Render("space to toggle")
	}
	return mark
}

func (c *checkboxControl) value() (any, bool) { return c.checked, true }

// A required checkbox must be ticked; that is what "required" means for a
// confirmation box.
func (c *checkboxControl) validate() string {
	if c.field.IsRequired() && !c.checked {
		return "must be checked"
	}
	return ""
}
