package account

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
)

func TestRegisterInputValidate(t *testing.T) {
	assert.NoError(t, validInput().Validate())

	in := validInput()
	in.Interests = ""
	assert.NoError(t, in.Validate(), "interests are optional")

	in = validInput()
	in.Password = strings.Repeat("a", 72)
	assert.NoError(t, in.Validate(), "72 bytes is the bcrypt limit")

	cases := map[string]func(*RegisterInput){
		"email":          func(in *RegisterInput) { in.Email = strings.Repeat("a", 95) + "@x.com" },
		"password":       func(in *RegisterInput) { in.Password = "   " },
		"password/bytes": func(in *RegisterInput) { in.Password = strings.Repeat("a", 73) },
		"password/runes": func(in *RegisterInput) { in.Password = strings.Repeat("é", 40) },
		"firstName":      func(in *RegisterInput) { in.FirstName = strings.Repeat("n", 51) },
		"lastName":       func(in *RegisterInput) { in.LastName = "" },
		"gender":         func(in *RegisterInput) { in.Gender = "" },
		"major":          func(in *RegisterInput) { in.Major = strings.Repeat("m", 51) },
		"academicYear":   func(in *RegisterInput) { in.AcademicYear = "" },
		"interests":      func(in *RegisterInput) { in.Interests = strings.Repeat("i", 251) },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			err := in.Validate()
			require.ErrorIs(t, err, apperr.ErrValidation)
			var verr *apperr.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Fields, 1)
			assert.Contains(t, verr.Fields, strings.Split(field, "/")[0])
		})
	}
}

func TestCredentialsValidate(t *testing.T) {
	assert.NoError(t, Credentials{Email: "a@example.com", Password: "x"}.Validate())
	assert.ErrorIs(t, Credentials{Email: "a", Password: "x"}.Validate(), apperr.ErrValidation)
	assert.ErrorIs(t, Credentials{Email: "a@example.com"}.Validate(), apperr.ErrValidation)
}
