package contact

import (
	"errors"
	"testing"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func filled() Form {
	return Form{Name: "Zach", Contact: "zach@example.com", Subject: "Hello", Message: "Nice site"}
}

func TestValidateAcceptsFilledForm(t *testing.T) {
	t.Parallel()

	if err := Validate(filled()); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidateRejectsBlankFields(t *testing.T) {
	t.Parallel()

	for _, field := range Fields {
		for _, blank := range []string{"", "   ", "\t\n"} {
			f := filled()
			switch field {
			case FieldName:
				f.Name = blank
			case FieldContact:
				f.Contact = blank
			case FieldSubject:
				f.Subject = blank
			case FieldMessage:
				f.Message = blank
			}
			err := Validate(f)
			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("field %s blank %q: err = %v, want MissingFieldError", field, blank, err)
			}
			if missing.Field != field {
				t.Fatalf("missing field = %q, want %q", missing.Field, field)
			}
		}
	}
}

func TestValidateReportsFirstMissingField(t *testing.T) {
	t.Parallel()

	err := Validate(Form{Message: "only a message"})
	var missing *MissingFieldError
	if !errors.As(err, &missing) || missing.Field != FieldName {
		t.Fatalf("err = %v, want missing name", err)
	}
}

func TestNotifyLocalized(t *testing.T) {
	t.Parallel()

	en := message.NewPrinter(language.English)
	fa := message.NewPrinter(language.Persian)

	n := Notify(en, &MissingFieldError{Field: FieldSubject})
	if n.Kind != Error || n.Text != "⚠️ Please enter a subject" {
		t.Fatalf("en notification = %+v", n)
	}
	n = Notify(fa, nil)
	if n.Kind != Success || n.Text != "✅ پیام شما با موفقیت ارسال شد!" {
		t.Fatalf("fa notification = %+v", n)
	}
	n = Notify(en, errors.New("smtp down"))
	if n.Kind != Error || n != Undelivered(en) {
		t.Fatalf("generic error notification = %+v", n)
	}
}

func TestTrimmed(t *testing.T) {
	t.Parallel()

	got := Form{Name: "  Zach ", Contact: "\tz@x.io", Subject: "Hi\n", Message: " m "}.Trimmed()
	want := Form{Name: "Zach", Contact: "z@x.io", Subject: "Hi", Message: "m"}
	if got != want {
		t.Fatalf("trimmed = %+v, want %+v", got, want)
	}
}
