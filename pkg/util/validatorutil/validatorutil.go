// Package validatorutil builds the struct validator shared by the client forms
// and the backend services, including the account password rule.
package validatorutil

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// PasswordTag validates an account password: required, at least 8
// characters, letters and digits. Failures report the underlying rule through
// FieldError.ActualTag.
const PasswordTag = "account_password"

const passwordRule = "required,min=8,letters_digits"

// New returns a validator that names fields after their json tag and knows
// the letters_digits rule and the PasswordTag alias.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("letters_digits", func(fl validator.FieldLevel) bool {
		return LettersAndDigits(fl.Field().String())
	})
	v.RegisterAlias(PasswordTag, passwordRule)
	return v
}

// LettersAndDigits reports whether s holds at least one letter and one digit.
func LettersAndDigits(s string) bool {
	var letter, digit bool
	for _, r := range s {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	return letter && digit
}
