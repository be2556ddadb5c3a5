package tui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/portfolio/internal/contactform"
	"github.com/dukerupert/portfolio/internal/domain"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	view := contactform.NewView(contactform.NewClient(srv.URL+"/api/contact", srv.Client()))
	return New(context.Background(), view)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func key(t *testing.T, m Model, k tea.KeyType) (Model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// runSubmit executes the batched submit command and returns its result.
func runSubmit(t *testing.T, cmd tea.Cmd) submittedMsg {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(submittedMsg); ok {
			return msg
		}
	}
	t.Fatal("no submit result in batch")
	return submittedMsg{}
}

func fillForm(t *testing.T, m Model) Model {
	t.Helper()
	m = typeText(t, m, "jane@example.com")
	m, _ = key(t, m, tea.KeyTab)
	m = typeText(t, m, "Jane")
	m, _ = key(t, m, tea.KeyTab)
	m = typeText(t, m, "Hello")
	return m
}

func TestModel_TypingUpdatesFields(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {})
	m = fillForm(t, m)

	assert.Equal(t, domain.Submission{Email: "jane@example.com", Name: "Jane", Message: "Hello"}, m.view.Submission())
}

func TestModel_BlurShowsFieldError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {})

	m = typeText(t, m, "not-an-email")
	assert.NotContains(t, m.View(), "must be a valid email")

	m, _ = key(t, m, tea.KeyTab)
	assert.Contains(t, m.View(), `"email" must be a valid email`)

	// fixing the value clears the message on the next change
	m, _ = key(t, m, tea.KeyShiftTab)
	m.email.SetValue("")
	m = typeText(t, m, "jane@example.com")
	assert.NotContains(t, m.View(), "must be a valid email")
}

func TestModel_SubmitInvalidDoesNotSend(t *testing.T) {
	called := false
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.False(t, called)
	assert.Contains(t, m.View(), `"email" is not allowed to be empty`)
	assert.Contains(t, m.View(), `"message" is not allowed to be empty`)
}

func TestModel_SubmitSuccess(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		var sub domain.Submission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.Succeeded())
	})
	m = fillForm(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, m.view.Status().Working)
	assert.Contains(t, m.View(), "sending...")

	// a second submit while in flight is ignored
	_, again := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, again)

	m, _ = update(t, m, runSubmit(t, cmd))
	assert.True(t, m.done)
	assert.Contains(t, m.View(), "Successfully sent your submission!")
	assert.Empty(t, m.view.Submission().Email)

	_, quit := key(t, m, tea.KeyEnter)
	require.NotNil(t, quit)
	assert.IsType(t, tea.QuitMsg{}, quit())
}

func TestModel_SubmitShowsServerError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(domain.Failed(domain.GenericSubmissionMessage))
	})
	m = fillForm(t, m)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = update(t, m, runSubmit(t, cmd))

	assert.False(t, m.done)
	assert.False(t, m.view.Status().Working)
	assert.Contains(t, m.View(), domain.GenericSubmissionMessage)
	// values are kept for another try
	assert.Equal(t, "Jane", m.view.Name.Value())
}

func TestModel_EnterOnSendButton(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Succeeded())
	})
	m = fillForm(t, m)
	m, _ = key(t, m, tea.KeyTab)
	assert.Equal(t, focusSend, m.focus)

	_, cmd := key(t, m, tea.KeyEnter)
	msg := runSubmit(t, cmd)
	assert.NoError(t, msg.err)
}

func TestModel_MessageGrowsWithLines(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {})
	m, _ = key(t, m, tea.KeyTab)
	m, _ = key(t, m, tea.KeyTab)
	require.Equal(t, focusMessage, m.focus)

	for i := 0; i < 7; i++ {
		m = typeText(t, m, "line")
		m, _ = key(t, m, tea.KeyEnter)
	}
	assert.Equal(t, 8, strings.Count(m.view.Message.Value(), "\n")+1)
	assert.Equal(t, 8, m.message.Height())
}
