// Package validate implements the small rule engine behind the contact form.
//
// A Rule is an ordered list of checks over a single string value. Each check
// pairs a predicate with a message template; evaluation stops at the first
// failing check and reports its message with the rule's label substituted.
package validate

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const labelPlaceholder = "{label}"

// DefaultLabel is used when a rule was never given a label.
const DefaultLabel = "value"

var checker = validator.New()

// Check is a single predicate with the message reported when it fails.
type Check struct {
	Name    string
	Test    func(value string) bool
	Message string
}

// Result is the outcome of validating one value. The zero Result is valid.
type Result struct {
	Rule    string
	Message string
}

// OK reports whether the value passed every check.
func (r Result) OK() bool {
	return r.Message == ""
}

// Rule validates a single string value.
// Rules are immutable; every builder method returns a copy.
type Rule struct {
	label    string
	required bool
	checks   []Check
}

// String starts a rule for a string value.
func String() Rule {
	return Rule{label: DefaultLabel}
}

// Label sets the name used in messages.
func (r Rule) Label(label string) Rule {
	r.label = label
	return r
}

// Required makes a missing value an error.
func (r Rule) Required() Rule {
	r.required = true
	return r
}

// Email requires a syntactically valid address. Top-level domains are not
// checked against any list.
func (r Rule) Email() Rule {
	return r.With(Check{
		Name: "email",
		Test: func(v string) bool {
			return checker.Var(v, "email") == nil
		},
		Message: labelPlaceholder + " must be a valid email",
	})
}

// Max limits the value to n characters.
func (r Rule) Max(n int) Rule {
	return r.With(Check{
		Name: "max",
		Test: func(v string) bool {
			return utf8.RuneCountInString(v) <= n
		},
		Message: labelPlaceholder + " length must be less than or equal to " + strconv.Itoa(n) + " characters long",
	})
}

// With appends a custom check.
func (r Rule) With(c Check) Rule {
	checks := make([]Check, len(r.checks), len(r.checks)+1)
	copy(checks, r.checks)
	r.checks = append(checks, c)
	return r
}

// Validate checks a value that is known to be present.
func (r Rule) Validate(value string) Result {
	return r.ValidatePresent(value, true)
}

// ValidatePresent checks a value that may be absent from its input.
// An absent optional value is valid; an empty string never is.
func (r Rule) ValidatePresent(value string, present bool) Result {
	if !present {
		if r.required {
			return r.fail("required", labelPlaceholder+" is required")
		}
		return Result{}
	}
	if value == "" {
		return r.fail("empty", labelPlaceholder+" is not allowed to be empty")
	}
	for _, c := range r.checks {
		if !c.Test(value) {
			return r.fail(c.Name, c.Message)
		}
	}
	return Result{}
}

func (r Rule) fail(name, template string) Result {
	return Result{Rule: name, Message: r.format(template)}
}

func (r Rule) format(template string) string {
	return strings.ReplaceAll(template, labelPlaceholder, quote(r.label))
}

func quote(label string) string {
	return `"` + label + `"`
}
