package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/events"
	"github.com/labdesk/helpdesk/internal/persistence"
	"github.com/labdesk/helpdesk/internal/repository"
)

func popNotification(t *testing.T, q persistence.Queue) Notification {
	t.Helper()
	payload, err := q.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	var msg Notification
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestTicketCreatedIsQueued(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	queue := persistence.NewMemoryQueue(4)
	notifications := NewNotificationService(dispatcher, queue, nil, config.NotificationConfig{})
	notifications.RegisterHandlers()
	tickets := NewTicketService(TicketDependencies{TicketRepo: repository.NewMemoryTicketRepository(), Dispatcher: dispatcher})

	ticket, err := tickets.CreateTicket(context.Background(), owner, TicketCreateInput{Title: "Dock", Description: "dead"})
	require.NoError(t, err)

	msg := popNotification(t, queue)
	assert.Equal(t, Notification{Type: NotificationTicketCreated, TicketID: ticket.ID, Title: "Dock", Email: "ana@example.test"}, msg)
}

func TestTicketWithoutCreatorEmailIsNotQueued(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(nil)
	queue := persistence.NewMemoryQueue(4)
	NewNotificationService(dispatcher, queue, nil, config.NotificationConfig{}).RegisterHandlers()
	tickets := NewTicketService(TicketDependencies{TicketRepo: repository.NewMemoryTicketRepository(), Dispatcher: dispatcher})

	_, err := tickets.CreateTicket(context.Background(), Caller{}, TicketCreateInput{Title: "Dock", Description: "dead"})
	require.NoError(t, err)

	_, err = queue.Pop(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, persistence.ErrQueueEmpty)
}

func TestComposeTicketAlert(t *testing.T) {
	n := NewNotificationService(nil, nil, nil, config.NotificationConfig{EmailFrom: "noreply@example.test"})

	email, err := n.Compose(Notification{Type: NotificationTicketCreated, TicketID: "t-1", Title: "Dock", Email: "ana@example.test"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.test", email.To)
	assert.Equal(t, "[Alert] New Ticket: Dock", email.Subject)
	assert.Equal(t, "New Ticket Created!\nID: t-1\nTitle: Dock\nPlease check the dashboard.", email.Body)

	n.cfg.Recipient = "desk@example.test"
	email, err = n.Compose(Notification{Type: NotificationTicketCreated, TicketID: "t-1", Title: "Dock", Email: "ana@example.test"})
	require.NoError(t, err)
	assert.Equal(t, "desk@example.test", email.To)

	_, err = n.Compose(Notification{Type: "SURVEY", Email: "ana@example.test"})
	assert.Error(t, err)
}

func TestDeliverLogsEmail(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	queue := persistence.NewMemoryQueue(4)
	n := NewNotificationService(nil, queue, zap.New(core), config.NotificationConfig{EmailFrom: "noreply@example.test"})

	require.NoError(t, n.SendConfirmationCode(context.Background(), "ana@example.test", "123456"))
	payload, err := queue.Pop(context.Background(), time.Second)
	require.NoError(t, err)
	require.NoError(t, n.Deliver(context.Background(), payload))

	sent := logs.FilterMessage("sendEmailNotificationStub").All()
	require.Len(t, sent, 1)
	fields := sent[0].ContextMap()
	assert.Equal(t, "ana@example.test", fields["to"])
	assert.Equal(t, "Your confirmation code is 123456", fields["body"])

	assert.Error(t, n.Deliver(context.Background(), []byte("{")))
}

func TestStatusEventsAreLoggedOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	queue := persistence.NewMemoryQueue(4)
	NewNotificationService(dispatcher, queue, zap.New(core), config.NotificationConfig{}).RegisterHandlers()

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: "t-1",
		Payload:  events.TicketStatusChangedPayload{OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusClosed},
	}))

	assert.Equal(t, 1, logs.FilterMessage(string(events.EventTicketStatusChanged)).Len())
	_, err := queue.Pop(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, persistence.ErrQueueEmpty)
}
