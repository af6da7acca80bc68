// Package contact validates contact-form submissions and produces the
// localized notifications shown for them.
package contact

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/message"
)

// Field names as they appear in the form.
const (
	FieldName    = "name"
	FieldContact = "contact"
	FieldSubject = "subject"
	FieldMessage = "message"
)

// Fields lists the required fields in the order they are checked.
var Fields = []string{FieldName, FieldContact, FieldSubject, FieldMessage}

// Form is one contact submission.
type Form struct {
	Name    string `json:"name" form:"name"`
	Contact string `json:"contact" form:"contact"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

// Value returns the named field.
func (f Form) Value(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldContact:
		return f.Contact
	case FieldSubject:
		return f.Subject
	case FieldMessage:
		return f.Message
	}
	return ""
}

// Trimmed returns the form with surrounding whitespace removed.
func (f Form) Trimmed() Form {
	return Form{
		Name:    strings.TrimSpace(f.Name),
		Contact: strings.TrimSpace(f.Contact),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
	}
}

// MissingFieldError reports the first required field left blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("contact: %s is required", e.Field)
}

// Validate rejects a form with any blank or whitespace-only field.
func Validate(f Form) error {
	for _, field := range Fields {
		if strings.TrimSpace(f.Value(field)) == "" {
			return &MissingFieldError{Field: field}
		}
	}
	return nil
}

// Kind distinguishes success from error notifications.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Notification is the inline message shown after a submission attempt.
type Notification struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Notify turns a validation result into a localized notification.
func Notify(p *message.Printer, err error) Notification {
	if err == nil {
		return Notification{Kind: Success, Text: p.Sprintf(keySent)}
	}
	var missing *MissingFieldError
	if errors.As(err, &missing) {
		return Notification{Kind: Error, Text: p.Sprintf(missingKey(missing.Field))}
	}
	return Notification{Kind: Error, Text: p.Sprintf(keyFailed)}
}

// Undelivered is the notification for a valid submission the server
// could not forward.
func Undelivered(p *message.Printer) Notification {
	return Notification{Kind: Error, Text: p.Sprintf(keyFailed)}
}
