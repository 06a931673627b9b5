package dto

import (
	"github.com/labdesk/helpdesk/internal/domain"
)

// CreateTicketRequest payload. Creator fields are taken from the token; the
// user_email sent by clients is ignored.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	UserEmail   string                `json:"user_email"`
	UserName    string                `json:"user_name"`
	Tags        []domain.Tag          `json:"tags"`
	Images      []string              `json:"images"`
}

// CreateTicketResponse carries the assigned id.
type CreateTicketResponse struct {
	Message  string `json:"message"`
	TicketID string `json:"ticket_id"`
}

// UpdateTicketRequest is a partial update; absent fields are untouched.
type UpdateTicketRequest = domain.TicketPatch

// TicketListEnvelope wraps a ticket list for the "items" shape.
type TicketListEnvelope struct {
	Items []domain.Ticket `json:"items"`
}

// TicketListEnvelopeUpper wraps a ticket list for the "Items" shape.
type TicketListEnvelopeUpper struct {
	Items []domain.Ticket `json:"Items"`
}

// UploadResponse is returned by POST /uploads.
type UploadResponse struct {
	URL string `json:"url"`
}
