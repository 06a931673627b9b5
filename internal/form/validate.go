// Package form holds the create and edit ticket forms plus the account password
// rules. Forms keep their own draft state and only produce gateway inputs once
// they validate.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
	"github.com/labdesk/helpdesk/pkg/util/validatorutil"
)

var validate = validatorutil.New()

// ticketInput is the validated shape shared by the create and edit forms.
type ticketInput struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Priority    string   `json:"priority" validate:"required,oneof=Low Medium High"`
	Tags        []string `json:"tags" validate:"dive,oneof=hardware software network printer account other"`
	Images      int      `json:"images" validate:"max=5"`
}

var fieldMessages = map[string]string{
	"images.max":                "At most 5 images can be attached",
	"password.min":              "Password must be at least 8 characters long",
	"password.letters_digits":   "Password must contain both letters and numbers",
	"confirm_password.eqfield":  "Passwords do not match",
	"confirm_password.required": "Please confirm the password",
}

func check(subject string, input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]any, len(fieldErrs))
	first := ""
	for _, fe := range fieldErrs {
		if _, seen := details[fe.Field()]; seen {
			continue
		}
		msg := describe(fe)
		details[fe.Field()] = msg
		if first == "" {
			first = msg
		}
	}
	return apperrors.NewValidationError(fmt.Sprintf("%s: %s", subject, first), details)
}

func describe(fe validator.FieldError) string {
	if msg, ok := fieldMessages[fe.Field()+"."+fe.ActualTag()]; ok {
		return msg
	}
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
