package email

import (
	"strings"
	"unicode"

	"github.com/dukerupert/portfolio/internal/domain"
)

// EmailTemplate defines the interface for email templates
type EmailTemplate interface {
	Subject() string
	TemplateName() string
}

// ContactNotificationEmail is sent to the site owner for every submission.
type ContactNotificationEmail struct {
	Name    string
	Email   string
	Message string
}

// NewContactNotification builds the owner notification for s.
func NewContactNotification(s domain.Submission) ContactNotificationEmail {
	return ContactNotificationEmail{Name: s.Name, Email: s.Email, Message: s.Message}
}

func (e ContactNotificationEmail) Subject() string {
	return "New Contact Form Entry from (" + headerText(e.Name) + ", " + headerText(e.Email) + ")"
}

func (e ContactNotificationEmail) TemplateName() string {
	return "contact_notification"
}

// ContactConfirmationEmail acknowledges a submission to its sender.
type ContactConfirmationEmail struct {
	Name    string
	Email   string
	Message string
}

// NewContactConfirmation builds the sender confirmation for s.
func NewContactConfirmation(s domain.Submission) ContactConfirmationEmail {
	return ContactConfirmationEmail{Name: s.Name, Email: s.Email, Message: s.Message}
}

func (e ContactConfirmationEmail) Subject() string {
	return "Contact Form Confirmation"
}

func (e ContactConfirmationEmail) TemplateName() string {
	return "contact_confirmation"
}

// headerText folds s onto a single line, turning runs of whitespace and
// control characters into one space.
func headerText(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
}
