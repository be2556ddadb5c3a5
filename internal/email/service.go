package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/dukerupert/portfolio/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// ServiceConfig holds the addresses used by Service.
type ServiceConfig struct {
	FromAddress string // address every message is sent from
	FromName    string // display name on confirmations
	ForwardTo   string // owner mailbox receiving notifications
}

// Service handles email composition and sending
type Service struct {
	sender        Sender
	fromAddress   string
	fromName      string
	forwardTo     string
	templateCache *template.Template
}

// NewService creates a new email service
func NewService(sender Sender, config ServiceConfig) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &Service{
		sender:        sender,
		fromAddress:   config.FromAddress,
		fromName:      config.FromName,
		forwardTo:     config.ForwardTo,
		templateCache: tmpl,
	}, nil
}

// SendContactNotification forwards a submission to the owner. The sender's
// name is used as the display name and replies go straight to the sender.
func (s *Service) SendContactNotification(ctx context.Context, sub domain.Submission) error {
	data := NewContactNotification(sub)

	htmlBody, _, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return fmt.Errorf("failed to render contact notification template: %w", err)
	}

	email := &Email{
		To:       []string{s.forwardTo},
		From:     s.fromAddress,
		FromName: headerText(sub.Name),
		ReplyTo:  sub.Email,
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: sub.Message,
	}

	if _, err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send contact notification email: %w", err)
	}

	return nil
}

// SendContactConfirmation acknowledges a submission to its sender.
func (s *Service) SendContactConfirmation(ctx context.Context, sub domain.Submission) error {
	data := NewContactConfirmation(sub)

	htmlBody, textBody, err := s.renderTemplate(data.TemplateName(), data)
	if err != nil {
		return fmt.Errorf("failed to render contact confirmation template: %w", err)
	}

	email := &Email{
		To:       []string{sub.Email},
		From:     s.fromAddress,
		FromName: s.fromName,
		Subject:  data.Subject(),
		HTMLBody: htmlBody,
		TextBody: textBody,
	}

	if _, err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send contact confirmation email: %w", err)
	}

	return nil
}

// Helper method to render a template
func (s *Service) renderTemplate(templateName string, data interface{}) (string, string, error) {
	if s.templateCache.Lookup(templateName) == nil {
		return "", "", ErrTemplateNotFound(templateName)
	}

	var htmlBuf bytes.Buffer
	if err := s.templateCache.ExecuteTemplate(&htmlBuf, templateName, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	htmlBody := htmlBuf.String()

	return htmlBody, generatePlainText(htmlBody), nil
}

// generatePlainText creates a simple plain text version from HTML
func generatePlainText(html string) string {
	text := html

	text = strings.ReplaceAll(text, "<br>", "\n")
	text = strings.ReplaceAll(text, "<br/>", "\n")
	text = strings.ReplaceAll(text, "<br />", "\n")
	text = strings.ReplaceAll(text, "</p>", "\n\n")
	text = strings.ReplaceAll(text, "</div>", "\n")
	text = strings.ReplaceAll(text, "</h1>", "\n\n")
	text = strings.ReplaceAll(text, "</h2>", "\n\n")
	text = strings.ReplaceAll(text, "</h3>", "\n\n")

	for strings.Contains(text, "<") && strings.Contains(text, ">") {
		start := strings.Index(text, "<")
		end := strings.Index(text, ">")
		if start >= 0 && end > start {
			text = text[:start] + text[end+1:]
		} else {
			break
		}
	}

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#34;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")

	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
