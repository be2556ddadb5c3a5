// Package form pairs editable values with inline validation feedback.
//
// A Field never shows an error before its first blur. Once an error is
// displayed, every change re-validates so the message disappears as soon as
// the value is fixed.
package form

import (
	"github.com/dukerupert/portfolio/internal/validate"
)

// Kind selects the control a Field is rendered as.
type Kind int

const (
	// SingleLine renders as a one-line input.
	SingleLine Kind = iota
	// MultiLine renders as a text area that grows with its content.
	MultiLine
)

// MultiLineMinRows is the initial height of a MultiLine control.
const MultiLineMinRows = 5

// Field is a single validated control.
type Field struct {
	Name        string
	Label       string
	Kind        Kind
	InputType   string
	Placeholder string

	rule     validate.Rule
	value    string
	err      string
	onChange func(string)
}

// Option configures a Field.
type Option func(*Field)

// WithKind sets the control kind.
func WithKind(k Kind) Option {
	return func(f *Field) { f.Kind = k }
}

// WithInputType sets the HTML input type of a SingleLine field.
func WithInputType(t string) Option {
	return func(f *Field) { f.InputType = t }
}

// WithLabel sets the caption shown next to the control.
func WithLabel(l string) Option {
	return func(f *Field) { f.Label = l }
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(p string) Option {
	return func(f *Field) { f.Placeholder = p }
}

// OnChange registers the callback invoked on every edit.
func OnChange(fn func(string)) Option {
	return func(f *Field) { f.onChange = fn }
}

// NewField creates a field validated by rule. The rule is labelled with the
// field name.
func NewField(name string, rule validate.Rule, opts ...Option) *Field {
	f := &Field{
		Name:      name,
		Label:     name,
		Kind:      SingleLine,
		InputType: "text",
		rule:      rule.Label(name),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Value returns the current value.
func (f *Field) Value() string {
	return f.value
}

// Change records an edit.
func (f *Field) Change(v string) {
	f.value = v
	if f.onChange != nil {
		f.onChange(v)
	}
	if f.err != "" {
		f.check()
	}
}

// Blur validates the current value.
func (f *Field) Blur() {
	f.check()
}

// Error returns the displayed message, or "" when none is shown.
func (f *Field) Error() string {
	return f.err
}

// Invalid reports whether an error is displayed.
func (f *Field) Invalid() bool {
	return f.err != ""
}

// Class is the CSS class for the control.
func (f *Field) Class() string {
	if f.err != "" {
		return "error"
	}
	return ""
}

// Multiline reports whether the field renders as a text area.
func (f *Field) Multiline() bool {
	return f.Kind == MultiLine
}

// Rows is the text area height for the current value, never below
// MultiLineMinRows.
func (f *Field) Rows() int {
	rows := 1
	for _, r := range f.value {
		if r == '\n' {
			rows++
		}
	}
	if rows < MultiLineMinRows {
		return MultiLineMinRows
	}
	return rows
}

// Reset clears the value and any displayed error.
func (f *Field) Reset() {
	f.value = ""
	f.err = ""
}

func (f *Field) check() {
	f.err = f.rule.Validate(f.value).Message
}
