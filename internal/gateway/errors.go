package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches API errors raised for a missing ticket.
var ErrNotFound = errors.New("ticket not found")

// APIError is returned for every non-2xx response. Callers tell failures apart by
// Message only.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NewAPIError builds the error for a non-2xx response from its status and body.
func NewAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: fmt.Sprintf("API Error: %d", status)}

	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return apiErr
	}
	if payload.Message != "" {
		apiErr.Message = payload.Message
		return apiErr
	}
	var nested struct {
		Message string `json:"message"`
	}
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
		apiErr.Message = nested.Message
	}
	return apiErr
}
