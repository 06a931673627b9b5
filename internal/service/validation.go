package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
	"github.com/labdesk/helpdesk/pkg/util/validatorutil"
)

var validate = validatorutil.New()

// ticketRecord is the persisted shape every stored ticket must satisfy.
type ticketRecord struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	Status      string   `json:"status" validate:"oneof=Open Processing Closed"`
	Priority    string   `json:"priority" validate:"oneof=Low Medium High"`
	Tags        []string `json:"tags" validate:"dive,oneof=hardware software network printer account other"`
}

type signUpRecord struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"account_password"`
}

type passwordRecord struct {
	Password string `json:"new_password" validate:"account_password"`
}

func validationError(subject string, input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError(err)
	}
	details := make(map[string]any, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = fieldMessage(fe)
	}
	return apperrors.NewValidationError(subject, details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid e-mail address"
	case "letters_digits":
		return "must contain both letters and numbers"
	}
	return "is invalid"
}
