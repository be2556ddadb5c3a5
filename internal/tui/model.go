// Package tui is the terminal rendition of the contact form.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dukerupert/portfolio/internal/contactform"
	"github.com/dukerupert/portfolio/internal/form"
)

const (
	focusEmail = iota
	focusName
	focusMessage
	focusSend
	focusCount
)

// messageMaxRows caps how far the message box grows.
const messageMaxRows = 12

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Background(lipgloss.Color("237"))
	activeButton = buttonStyle.Background(lipgloss.Color("63")).Foreground(lipgloss.Color("230"))
)

// submittedMsg carries the result of a background send.
type submittedMsg struct {
	err error
}

// Model is the bubbletea model for the contact form.
type Model struct {
	ctx  context.Context
	view *contactform.View

	email   textinput.Model
	name    textinput.Model
	message textarea.Model
	spinner spinner.Model

	focus int
	done  bool
}

// New creates the form model around view.
func New(ctx context.Context, view *contactform.View) Model {
	email := textinput.New()
	email.Placeholder = view.Email.Placeholder
	email.Prompt = ""
	email.Focus()

	name := textinput.New()
	name.Placeholder = view.Name.Placeholder
	name.Prompt = ""

	message := textarea.New()
	message.Placeholder = view.Message.Placeholder
	message.ShowLineNumbers = false
	message.CharLimit = 0
	message.SetHeight(form.MultiLineMinRows)

	return Model{
		ctx:     ctx,
		view:    view,
		email:   email,
		name:    name,
		message: message,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 4
		if width > 80 {
			width = 80
		}
		m.email.Width = width
		m.name.Width = width
		m.message.SetWidth(width)
		return m, nil

	case submittedMsg:
		if msg.err == nil && m.view.Status().Success {
			m.view.Reset()
			m.email.Reset()
			m.name.Reset()
			m.message.Reset()
			m.done = true
		}
		return m, nil

	case spinner.TickMsg:
		if !m.view.Status().Working {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			if m.focus != focusMessage || msg.String() == "tab" {
				return m, m.moveFocus(1)
			}
		case "shift+tab", "up":
			if m.focus != focusMessage || msg.String() == "shift+tab" {
				return m, m.moveFocus(-1)
			}
		case "ctrl+s":
			return m, m.submit()
		case "enter":
			if m.done {
				return m, tea.Quit
			}
			if m.focus == focusSend {
				return m, m.submit()
			}
			if m.focus != focusMessage {
				return m, m.moveFocus(1)
			}
		}
	}

	if m.done {
		return m, nil
	}
	return m, m.updateInput(msg)
}

// updateInput forwards msg to the focused control and mirrors its value into
// the matching field.
func (m *Model) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusEmail:
		m.email, cmd = m.email.Update(msg)
		m.view.Email.Change(m.email.Value())
	case focusName:
		m.name, cmd = m.name.Update(msg)
		m.view.Name.Change(m.name.Value())
	case focusMessage:
		m.message, cmd = m.message.Update(msg)
		m.view.Message.Change(m.message.Value())
		rows := m.view.Message.Rows()
		if rows > messageMaxRows {
			rows = messageMaxRows
		}
		m.message.SetHeight(rows)
	}
	return cmd
}

func (m *Model) field(i int) *form.Field {
	switch i {
	case focusEmail:
		return m.view.Email
	case focusName:
		return m.view.Name
	case focusMessage:
		return m.view.Message
	}
	return nil
}

// moveFocus blurs the current control, which validates its field, and
// focuses the next one.
func (m *Model) moveFocus(delta int) tea.Cmd {
	if f := m.field(m.focus); f != nil {
		f.Blur()
	}
	m.email.Blur()
	m.name.Blur()
	m.message.Blur()

	m.focus = (m.focus + delta + focusCount) % focusCount

	switch m.focus {
	case focusEmail:
		return m.email.Focus()
	case focusName:
		return m.name.Focus()
	case focusMessage:
		return m.message.Focus()
	}
	return nil
}

// submit validates every field and, when all pass, posts in the background.
func (m *Model) submit() tea.Cmd {
	if m.done || !m.view.Validate() {
		return nil
	}

	sub, err := m.view.Start()
	if err != nil {
		return nil
	}

	ctx, view := m.ctx, m.view
	send := func() tea.Msg {
		return submittedMsg{err: view.Send(ctx, sub)}
	}
	return tea.Batch(m.spinner.Tick, send)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Contact"))
	b.WriteString("\n")

	status := m.view.Status()
	if m.done {
		b.WriteString(successStyle.Render("Successfully sent your submission!"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter: quit"))
		return b.String()
	}

	m.writeField(&b, m.view.Email, m.email.View())
	m.writeField(&b, m.view.Name, m.name.View())
	m.writeField(&b, m.view.Message, m.message.View())

	button := buttonStyle.Render("Send")
	if m.focus == focusSend {
		button = activeButton.Render("Send")
	}
	b.WriteString(button)

	if status.Working {
		b.WriteString(" " + m.spinner.View() + " sending...")
	}
	b.WriteString("\n")

	if status.Error != "" {
		b.WriteString("\n" + errorStyle.Render(status.Error) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("tab: next field • ctrl+s: send • esc: quit"))
	return b.String()
}

func (m Model) writeField(b *strings.Builder, f *form.Field, control string) {
	b.WriteString(labelStyle.Render(f.Label))
	b.WriteString(errorStyle.Render(" *"))
	b.WriteString("\n")
	b.WriteString(control)
	b.WriteString("\n")
	if f.Invalid() {
		b.WriteString(errorStyle.Render(f.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// Run shows the form until the visitor quits.
func Run(ctx context.Context, view *contactform.View) error {
	_, err := tea.NewProgram(New(ctx, view), tea.WithContext(ctx)).Run()
	return err
}
