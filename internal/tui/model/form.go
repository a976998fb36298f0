package model

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// FormKind identifies what a form submits.
type FormKind int

const (
	FormCreateWorkspace FormKind = iota
	FormCreateCube
	FormEditCube
	FormCommitCube
)

// Form is a small multi-field input overlay.
type Form struct {
	Kind     FormKind
	Title    string
	TargetID string
	Labels   []string
	Inputs   []textinput.Model
	Focus    int
	Err      string
}

// FormField is one labelled input with an optional initial value.
type FormField struct {
	Label       string
	Placeholder string
	Value       string
}

// NewForm builds a form with the first field focused.
func NewForm(kind FormKind, title, targetID string, fields ...FormField) *Form {
	f := &Form{Kind: kind, Title: title, TargetID: targetID}
	for i, field := range fields {
		ti := textinput.New()
		ti.Placeholder = field.Placeholder
		ti.SetValue(field.Value)
		ti.CharLimit = 256
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		f.Labels = append(f.Labels, field.Label)
		f.Inputs = append(f.Inputs, ti)
	}
	return f
}

// Value returns the trimmed value of field i.
func (f *Form) Value(i int) string {
	if i < 0 || i >= len(f.Inputs) {
		return ""
	}
	return strings.TrimSpace(f.Inputs[i].Value())
}

// List splits field i on commas, dropping empty entries.
func (f *Form) List(i int) []string {
	var out []string
	for _, part := range strings.Split(f.Value(i), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Next moves focus forward, wrapping around. It reports whether focus
// wrapped past the last field.
func (f *Form) Next() bool {
	return f.move(1)
}

// Prev moves focus backward, wrapping around.
func (f *Form) Prev() {
	f.move(-1)
}

func (f *Form) move(delta int) bool {
	if len(f.Inputs) == 0 {
		return false
	}
	f.Inputs[f.Focus].Blur()
	next := f.Focus + delta
	wrapped := next >= len(f.Inputs)
	f.Focus = (next + len(f.Inputs)) % len(f.Inputs)
	f.Inputs[f.Focus].Focus()
	return wrapped
}

// Update forwards msg to the focused input.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if len(f.Inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.Inputs[f.Focus], cmd = f.Inputs[f.Focus].Update(msg)
	return cmd
}
