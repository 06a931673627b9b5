package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/events"
	"github.com/labdesk/helpdesk/internal/persistence"
)

// Notification kinds carried on the queue.
const (
	NotificationTicketCreated    = "TICKET_CREATED"
	NotificationConfirmationCode = "CONFIRMATION_CODE"
)

// Notification is the queued message.
type Notification struct {
	Type     string `json:"type"`
	TicketID string `json:"ticket_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email"`
	Code     string `json:"code,omitempty"`
}

// Email is a rendered notification ready for the mail transport.
type Email struct {
	From    string
	To      string
	Subject string
	Body    string
}

// NotificationService turns domain events into queued notifications and
// delivers what the worker pops.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      persistence.Queue
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue persistence.Queue, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger.Named("notifications"),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.logEvent)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.UserEmail == "" {
		return nil
	}
	return n.Enqueue(ctx, Notification{
		Type:     NotificationTicketCreated,
		TicketID: event.TicketID,
		Title:    payload.Title,
		Email:    payload.UserEmail,
	})
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

// SendConfirmationCode queues a sign-up confirmation code for email.
func (n *NotificationService) SendConfirmationCode(ctx context.Context, email, code string) error {
	return n.Enqueue(ctx, Notification{Type: NotificationConfirmationCode, Email: email, Code: code})
}

// Enqueue pushes msg onto the queue.
func (n *NotificationService) Enqueue(ctx context.Context, msg Notification) error {
	if n.queue == nil {
		n.logger.Warn("no notification queue; dropping message", zap.String("type", msg.Type))
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return n.queue.Push(ctx, payload)
}

// Deliver decodes one queued message and sends it.
func (n *NotificationService) Deliver(ctx context.Context, payload []byte) error {
	var msg Notification
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	email, err := n.Compose(msg)
	if err != nil {
		return err
	}
	n.sendEmailStub(ctx, email)
	return nil
}

// Compose renders msg as an e-mail. Ticket alerts go to the configured
// recipient when one is set, otherwise to the ticket creator.
func (n *NotificationService) Compose(msg Notification) (Email, error) {
	email := Email{From: n.cfg.EmailFrom, To: msg.Email}
	switch msg.Type {
	case NotificationTicketCreated:
		if strings.TrimSpace(n.cfg.Recipient) != "" {
			email.To = n.cfg.Recipient
		}
		email.Subject = "[Alert] New Ticket: " + msg.Title
		email.Body = fmt.Sprintf("New Ticket Created!\nID: %s\nTitle: %s\nPlease check the dashboard.", msg.TicketID, msg.Title)
	case NotificationConfirmationCode:
		email.Subject = "Your verification code"
		email.Body = fmt.Sprintf("Your confirmation code is %s", msg.Code)
	default:
		return Email{}, fmt.Errorf("unknown notification type %q", msg.Type)
	}
	if email.To == "" {
		return Email{}, fmt.Errorf("notification %s has no recipient", msg.Type)
	}
	return email, nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, email Email) {
	n.logger.Info("sendEmailNotificationStub",
		zap.String("from", email.From),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.String("body", email.Body))
}
