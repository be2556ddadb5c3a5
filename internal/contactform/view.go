package contactform

import (
	"context"
	"sync"

	"github.com/dukerupert/portfolio/internal/contact"
	"github.com/dukerupert/portfolio/internal/domain"
	"github.com/dukerupert/portfolio/internal/form"
)

// Fields are the three validated controls of the contact form.
type Fields struct {
	Email   *form.Field
	Name    *form.Field
	Message *form.Field
}

// NewFields creates empty contact fields using the submission rules.
func NewFields() Fields {
	return Fields{
		Email: form.NewField(contact.KeyEmail, contact.EmailRule(),
			form.WithLabel("Your Email"),
			form.WithInputType("email"),
			form.WithPlaceholder("yourname@example.com"),
		),
		Name: form.NewField(contact.KeyName, contact.NameRule(),
			form.WithLabel("Your Name"),
			form.WithPlaceholder("John Titor"),
		),
		Message: form.NewField(contact.KeyMessage, contact.MessageRule(),
			form.WithLabel("Your Message"),
			form.WithKind(form.MultiLine),
		),
	}
}

// All returns the fields in display order.
func (f Fields) All() []*form.Field {
	return []*form.Field{f.Email, f.Name, f.Message}
}

// Validate blurs every field and reports whether all of them are valid.
func (f Fields) Validate() bool {
	ok := true
	for _, field := range f.All() {
		field.Blur()
		if field.Invalid() {
			ok = false
		}
	}
	return ok
}

// Submission returns the current values.
func (f Fields) Submission() domain.Submission {
	return domain.Submission{
		Email:   f.Email.Value(),
		Name:    f.Name.Value(),
		Message: f.Message.Value(),
	}
}

// Reset clears every field.
func (f Fields) Reset() {
	for _, field := range f.All() {
		field.Reset()
	}
}

// Status is what the form shows around the fields.
type Status struct {
	Working bool
	Success bool
	Error   string
}

// View is the contact form: fields plus submission status.
//
// Fields are owned by the caller's goroutine. The status may be read from any
// goroutine.
type View struct {
	Fields

	client *Client

	mu     sync.Mutex
	status Status
}

// NewView creates a view posting through client.
func NewView(client *Client) *View {
	return &View{
		Fields: NewFields(),
		client: client,
	}
}

// Status returns a snapshot of the submission status.
func (v *View) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Submit sends the current field values. It returns ErrInFlight without
// sending when a submission is already running. Errors are also recorded in
// the status.
func (v *View) Submit(ctx context.Context) error {
	sub, err := v.Start()
	if err != nil {
		return err
	}
	return v.Send(ctx, sub)
}

// Start marks a submission in flight and snapshots the field values. It must
// be called from the goroutine that owns the fields; Send may then run
// elsewhere.
func (v *View) Start() (domain.Submission, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.status.Working {
		return domain.Submission{}, ErrInFlight
	}
	v.status.Working = true
	v.status.Error = ""

	return v.Fields.Submission(), nil
}

// Send posts sub and records the outcome. The in-flight mark is cleared
// whatever happens.
func (v *View) Send(ctx context.Context, sub domain.Submission) (err error) {
	defer func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.status.Working = false
		if err != nil {
			v.status.Error = Message(err)
		}
	}()

	outcome, err := v.client.Send(ctx, sub)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.status.Success = outcome.Success
	v.mu.Unlock()
	return nil
}
