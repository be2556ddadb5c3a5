// Package contact holds the contact form schema shared by the HTTP endpoint,
// the server-rendered form and the terminal client.
package contact

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dukerupert/portfolio/internal/domain"
	"github.com/dukerupert/portfolio/internal/validate"
)

// Payload keys.
const (
	KeyEmail   = "email"
	KeyName    = "name"
	KeyMessage = "message"
)

// EmailRule validates the sender address.
func EmailRule() validate.Rule {
	return validate.String().Email().Required().Label(KeyEmail)
}

// NameRule validates the sender name.
func NameRule() validate.Rule {
	return validate.String().Required().Label(KeyName)
}

// MessageRule validates the message body.
func MessageRule() validate.Rule {
	return validate.String().Max(domain.MessageMaxLength).Required().Label(KeyMessage)
}

// Schema is the full submission schema.
func Schema() validate.Schema {
	return validate.Object(
		validate.Field(KeyEmail, EmailRule()),
		validate.Field(KeyName, NameRule()),
		validate.Field(KeyMessage, MessageRule()),
	)
}

const opValidate = "contact.validate"

// Validate checks decoded input against the schema and builds the submission.
func Validate(input map[string]any) (domain.Submission, error) {
	values, res := Schema().Validate(input)
	if !res.OK() {
		return domain.Submission{}, domain.Invalid(opValidate, res.Message)
	}
	return domain.Submission{
		Email:   values[KeyEmail],
		Name:    values[KeyName],
		Message: values[KeyMessage],
	}, nil
}

// ValidateSubmission re-checks an already built submission.
func ValidateSubmission(s domain.Submission) error {
	_, err := Validate(map[string]any{
		KeyEmail:   s.Email,
		KeyName:    s.Name,
		KeyMessage: s.Message,
	})
	return err
}

// Decode reads a JSON object from r and validates it.
func Decode(r io.Reader) (domain.Submission, error) {
	var input map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&input); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.Submission{}, domain.Errorf(domain.ETOOLARGE, opValidate, "Request body too large")
		}
		return domain.Submission{}, domain.Invalid(opValidate, `"value" must be of type object`)
	}
	if input == nil {
		return domain.Submission{}, domain.Invalid(opValidate, `"value" must be of type object`)
	}
	if dec.More() {
		return domain.Submission{}, domain.Invalid(opValidate, `"value" must be of type object`)
	}
	return Validate(input)
}
