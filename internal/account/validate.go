package account

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/password"
)

var notBlank = validation.NewStringRule(func(s string) bool {
	return strings.TrimSpace(s) != ""
}, "cannot be blank")

// Length counts runes; bcrypt's limit is in bytes.
var passwordBytes = validation.NewStringRule(func(s string) bool {
	return len(s) <= password.MaxBytes
}, "must be at most 72 bytes")

// RegisterInput is the registration request.
type RegisterInput struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PhoneNumber  string `json:"phoneNumber"`
	Gender       string `json:"gender"`
	Major        string `json:"major"`
	AcademicYear string `json:"academicYear"`
	Interests    string `json:"interests"`
}

// Validate reports every violated constraint at once.
func (in RegisterInput) Validate() error {
	return toValidationError(validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, validation.Length(1, 100), is.Email),
		validation.Field(&in.Password, validation.Required, notBlank, validation.Length(1, 255), passwordBytes),
		validation.Field(&in.FirstName, validation.Required, notBlank, validation.Length(1, 50)),
		validation.Field(&in.LastName, validation.Required, notBlank, validation.Length(1, 50)),
		validation.Field(&in.PhoneNumber, validation.Required, notBlank, validation.Length(1, 50)),
		validation.Field(&in.Gender, validation.Required, notBlank, validation.Length(1, 50)),
		validation.Field(&in.Major, validation.Required, notBlank, validation.Length(1, 50)),
		validation.Field(&in.AcademicYear, validation.Required, notBlank, validation.Length(1, 50)),
		validation.Field(&in.Interests, validation.Length(0, 250)),
	))
}

// Credentials is the authentication request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	return toValidationError(validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Password, validation.Required, notBlank),
	))
}

// toValidationError flattens ozzo's per-field errors into the apperr shape
// so handlers need only one error type for 400 responses.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &apperr.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for field, ferr := range fieldErrs {
		out.Fields[field] = ferr.Error()
	}
	return out
}
