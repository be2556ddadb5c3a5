package form

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/portfolio/internal/validate"
)

func emailField(opts ...Option) *Field {
	return NewField("email", validate.String().Email().Required(), opts...)
}

func TestField_NoErrorBeforeFirstBlur(t *testing.T) {
	f := emailField()

	f.Change("not-an-email")

	assert.False(t, f.Invalid())
	assert.Empty(t, f.Error())
}

func TestField_BlurShowsError(t *testing.T) {
	f := emailField()

	f.Change("not-an-email")
	f.Blur()

	assert.True(t, f.Invalid())
	assert.Equal(t, `"email" must be a valid email`, f.Error())
	assert.Equal(t, "error", f.Class())
}

func TestField_ChangeClearsErrorWithoutBlur(t *testing.T) {
	f := emailField()
	f.Change("not-an-email")
	f.Blur()

	f.Change("jane@example.com")

	assert.False(t, f.Invalid())
	assert.Empty(t, f.Class())
}

func TestField_ChangeUpdatesMessageWhileInvalid(t *testing.T) {
	f := emailField()
	f.Blur()
	assert.Equal(t, `"email" is not allowed to be empty`, f.Error())

	f.Change("jane")
	assert.Equal(t, `"email" must be a valid email`, f.Error())
}

func TestField_ValidBlurThenInvalidChangeWaitsForBlur(t *testing.T) {
	f := emailField()
	f.Change("jane@example.com")
	f.Blur()
	assert.False(t, f.Invalid())

	f.Change("jane@")
	assert.False(t, f.Invalid(), "no error until the next blur")

	f.Blur()
	assert.True(t, f.Invalid())
}

func TestField_OnChangeCalledForEveryEdit(t *testing.T) {
	var seen []string
	f := emailField(OnChange(func(v string) { seen = append(seen, v) }))

	f.Change("j")
	f.Change("ja")
	f.Blur()
	f.Change("jan")

	assert.Equal(t, []string{"j", "ja", "jan"}, seen)
}

func TestField_MultiLineSharesSemantics(t *testing.T) {
	f := NewField("message", validate.String().Max(5).Required(), WithKind(MultiLine))

	f.Change("too long")
	assert.False(t, f.Invalid())
	f.Blur()
	assert.Equal(t, `"message" length must be less than or equal to 5 characters long`, f.Error())
	f.Change("ok")
	assert.False(t, f.Invalid())
	assert.True(t, f.Multiline())
}

func TestField_Rows(t *testing.T) {
	f := NewField("message", validate.String(), WithKind(MultiLine))
	assert.Equal(t, MultiLineMinRows, f.Rows())

	f.Change(strings.Repeat("line\n", 8))
	assert.Equal(t, 9, f.Rows())
}

func TestField_Reset(t *testing.T) {
	f := emailField()
	f.Change("x")
	f.Blur()
	f.Reset()

	assert.Empty(t, f.Value())
	assert.False(t, f.Invalid())
}
