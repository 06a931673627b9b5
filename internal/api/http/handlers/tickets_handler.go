package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/labdesk/helpdesk/internal/api/dto"
	"github.com/labdesk/helpdesk/internal/auth"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/service"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// List envelope shapes.
const (
	EnvelopeBare       = "bare"
	EnvelopeItems      = "items"
	EnvelopeItemsUpper = "Items"
)

// TicketsHandler exposes the ticket resource.
type TicketsHandler struct {
	tickets  *service.TicketService
	envelope string
}

// NewTicketsHandler constructs handler. envelope picks how lists are wrapped.
func NewTicketsHandler(ticketService *service.TicketService, envelope string) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, envelope: envelope}
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter, err := parseListFilter(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), callerFrom(c), filter)
	if err != nil {
		return err
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	switch h.envelope {
	case EnvelopeItems:
		return c.JSON(dto.TicketListEnvelope{Items: tickets})
	case EnvelopeItemsUpper:
		return c.JSON(dto.TicketListEnvelopeUpper{Items: tickets})
	}
	return c.JSON(tickets)
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), callerFrom(c), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		UserName:    req.UserName,
		Tags:        req.Tags,
		Images:      req.Images,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateTicketResponse{Message: "Success", TicketID: ticket.ID})
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

// Update handles PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), callerFrom(c), c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(ticket)
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.tickets.DeleteTicket(c.UserContext(), callerFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Deleted"})
}

func callerFrom(c *fiber.Ctx) service.Caller {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return service.Caller{}
	}
	return service.Caller{
		UserID:  principal.UserID,
		Email:   principal.Email,
		Name:    principal.Name,
		IsAdmin: principal.IsAdmin,
	}
}

func parseListFilter(c *fiber.Ctx) (service.TicketListFilter, error) {
	var filter service.TicketListFilter
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, ok := domain.ParseTicketStatus(part)
			if !ok {
				return filter, apperrors.NewValidationError("invalid status filter", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	filter.Mine = c.QueryBool("mine", false)
	filter.Limit = parseInt(c.Query("limit"), 0)
	filter.Offset = parseInt(c.Query("offset"), 0)
	return filter, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
