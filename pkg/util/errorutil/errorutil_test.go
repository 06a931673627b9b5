package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("load ticket: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	forbidden := ToDomainError(fmt.Errorf("wrapped: %w", NewForbidden("nope")))
	assert.Equal(t, CodeForbidden, forbidden.Code)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.ErrorContains(t, internal, "boom")
}

func TestFieldErrors(t *testing.T) {
	err := NewValidationError("invalid ticket", map[string]any{"title": "title is required"})

	assert.True(t, IsCode(err, CodeValidation))
	assert.Equal(t, map[string]string{"title": "title is required"}, FieldErrors(err))
	assert.Nil(t, FieldErrors(NewUnauthorized("x")))
}
