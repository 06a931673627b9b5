package http_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdesk/helpdesk/internal/app"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/gateway"
	"github.com/labdesk/helpdesk/internal/identity"
	"github.com/labdesk/helpdesk/internal/session"
	"github.com/labdesk/helpdesk/internal/store"
)

// fiberTransport serves client requests from the in-process app.
type fiberTransport struct {
	app *fiber.App
}

func (f fiberTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return f.app.Test(req, -1)
}

func newClient(b *testBackend) *app.App {
	httpClient := &http.Client{Transport: fiberTransport{app: b.App}}
	provider := identity.NewHTTPProvider(baseURL, identity.NewMemoryStore(), httpClient, nil)
	ctrl := session.NewController(provider, "Admins", nil)
	tokens := gateway.TokenFunc(ctrl.Token)
	gw := gateway.New(baseURL, tokens, gateway.Options{
		HTTPClient: httpClient,
		Uploader:   gateway.NewHTTPUploader(baseURL, tokens, httpClient),
	})
	return app.New(ctrl, store.New(gw, store.WithGracePeriod(0)), gw, nil)
}

func TestClientAgainstBackend(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, "Items")
	client := newClient(b)

	require.NoError(t, client.Session.Register(ctx, "ana@example.test", "Secret123", "Ana"))
	assert.Equal(t, session.ViewConfirmSignUp, client.Session.View())
	require.NoError(t, client.Session.ConfirmSignUp(ctx, b.code()))

	view, err := client.Login(ctx, "ana@example.test", "Secret123")
	require.NoError(t, err)
	require.Equal(t, session.ViewDashboard, view)
	sess, ok := client.Session.Session()
	require.True(t, ok)
	assert.Equal(t, "Ana", sess.Name)
	assert.False(t, sess.IsAdmin)

	id, err := client.Store.CreateTicket(ctx, domain.NewTicket{
		Title:       "Dock broken",
		Description: "USB-C dock dead",
		Priority:    domain.TicketPriorityHigh,
		UserEmail:   sess.Email,
		UserName:    sess.Name,
		Tags:        []domain.Tag{domain.TagHardware},
	}, []domain.ImageUpload{{Name: "dock.png", ContentType: "image/png", Data: pngHeader}})
	require.NoError(t, err)

	ticket, ok := client.Store.Ticket(id)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	require.Len(t, ticket.Images, 1)
	assert.True(t, strings.HasPrefix(ticket.Images[0], baseURL+"/uploads/"), ticket.Images[0])
	assert.Equal(t, 1, client.Store.Stats().Open)

	presenter, err := client.Detail(ctx, id)
	require.NoError(t, err)
	assert.True(t, presenter.Permissions().CanDelete)
	assert.False(t, presenter.Permissions().CanChangeStatus)

	require.NoError(t, presenter.Delete(ctx, func(context.Context, domain.Ticket) (bool, error) { return true, nil }))
	_, ok = client.Store.Ticket(id)
	assert.False(t, ok)

	require.NoError(t, client.Logout(ctx))
	view, err = client.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ViewLogin, view)
}

func TestClientAdminChangesStatus(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t, "bare")
	ana := b.signUp("ana@example.test", "Ana")
	status, _ := b.do(http.MethodPost, "/tickets", ana, map[string]any{"title": "Wifi slow", "description": "Lab wifi crawling"})
	require.Equal(t, http.StatusCreated, status)

	client := newClient(b)
	require.NoError(t, client.Session.Register(ctx, "boss@example.test", "Secret123", "Boss"))
	require.NoError(t, client.Session.ConfirmSignUp(ctx, b.code()))
	_, err := client.Login(ctx, "boss@example.test", "Secret123")
	require.NoError(t, err)
	sess, _ := client.Session.Session()
	require.True(t, sess.IsAdmin)

	tickets := client.Store.Visible()
	require.Len(t, tickets, 1)
	presenter, err := client.Detail(ctx, tickets[0].ID)
	require.NoError(t, err)
	require.True(t, presenter.Permissions().CanChangeStatus)

	require.NoError(t, presenter.ChangeStatus(ctx, domain.TicketStatusProcessing))
	ticket, ok := client.Store.Ticket(tickets[0].ID)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusProcessing, ticket.Status)
}
