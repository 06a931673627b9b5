package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/gateway"
	"github.com/labdesk/helpdesk/internal/identity"
	"github.com/labdesk/helpdesk/internal/observability"
	"github.com/labdesk/helpdesk/internal/session"
	"github.com/labdesk/helpdesk/internal/store"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

type stubProvider struct {
	identity.Provider
	current   *identity.AuthSession
	challenge bool
}

func (p *stubProvider) CurrentSession(context.Context) (identity.AuthSession, error) {
	if p.current == nil {
		return identity.AuthSession{}, identity.ErrNoSession
	}
	return *p.current, nil
}

func (p *stubProvider) SignIn(_ context.Context, email, _ string) (identity.SignInResult, error) {
	if p.challenge {
		return identity.SignInResult{Step: identity.SignInNewPasswordRequired}, nil
	}
	p.current = &identity.AuthSession{Token: "tok", Claims: identity.Claims{Email: email, Name: "Ana"}}
	return identity.SignInResult{Step: identity.SignInDone}, nil
}

func (p *stubProvider) ConfirmNewPassword(context.Context, string) error {
	p.current = &identity.AuthSession{Token: "tok", Claims: identity.Claims{Email: "ana@example.test", Groups: []string{"Admins"}}}
	return nil
}

func (p *stubProvider) SignOut(context.Context) error {
	p.current = nil
	return nil
}

func (p *stubProvider) UserAttributes(context.Context) (identity.Attributes, error) {
	return identity.Attributes{}, nil
}

type stubGateway struct {
	tickets []domain.Ticket
	lists   int
	remote  map[string]domain.Ticket
}

func (g *stubGateway) List(context.Context) ([]domain.Ticket, error) {
	g.lists++
	return g.tickets, nil
}

func (g *stubGateway) Get(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := g.remote[id]
	if !ok {
		return nil, &gateway.APIError{Status: 404, Message: "Ticket not found"}
	}
	return &t, nil
}

func (g *stubGateway) Create(_ context.Context, t domain.NewTicket, _ []domain.ImageUpload) (string, domain.NewTicket, error) {
	return "", t, errors.New("not used")
}

func (g *stubGateway) UpdateStatus(context.Context, string, domain.TicketStatus) error { return nil }

func (g *stubGateway) UpdateFields(_ context.Context, _ string, patch domain.TicketPatch, _ []domain.ImageUpload) (domain.TicketPatch, error) {
	return patch, nil
}

func (g *stubGateway) Delete(context.Context, string) error { return nil }

func newApp(provider *stubProvider, gw *stubGateway) *App {
	ctrl := session.NewController(provider, "Admins", nil)
	return New(ctrl, store.New(gw), gw, nil)
}

func sample() []domain.Ticket {
	return []domain.Ticket{
		{ID: "1", UserEmail: "ana@example.test", Title: "Dock broken", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityLow},
		{ID: "2", UserEmail: "bo@example.test", Title: "Wifi slow", Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh},
	}
}

func TestStartWithoutSession(t *testing.T) {
	gw := &stubGateway{tickets: sample()}
	a := newApp(&stubProvider{}, gw)

	view, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ViewLogin, view)
	assert.Zero(t, gw.lists)
}

func TestStartRestoresSessionAndLoads(t *testing.T) {
	gw := &stubGateway{tickets: sample()}
	provider := &stubProvider{current: &identity.AuthSession{Token: "tok", Claims: identity.Claims{Email: "ana@example.test"}}}
	a := newApp(provider, gw)

	view, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ViewDashboard, view)
	assert.Equal(t, 1, gw.lists)
	assert.Len(t, a.Store.State().Tickets, 2)
}

func TestLoginLoadsTickets(t *testing.T) {
	gw := &stubGateway{tickets: sample()}
	a := newApp(&stubProvider{}, gw)

	view, err := a.Login(context.Background(), "ana@example.test", "secret123")
	require.NoError(t, err)
	assert.Equal(t, session.ViewDashboard, view)
	assert.Equal(t, 1, gw.lists)
}

func TestChallengeDefersLoadUntilNewPassword(t *testing.T) {
	gw := &stubGateway{tickets: sample()}
	a := newApp(&stubProvider{challenge: true}, gw)

	view, err := a.Login(context.Background(), "ana@example.test", "Temp0rary")
	require.NoError(t, err)
	assert.Equal(t, session.ViewNewPassword, view)
	assert.Zero(t, gw.lists)

	view, err = a.CompleteNewPassword(context.Background(), "brandnew42")
	require.NoError(t, err)
	assert.Equal(t, session.ViewDashboard, view)
	assert.Equal(t, 1, gw.lists)
	assert.True(t, a.Viewer().IsAdmin)
}

func TestLogoutResetsStore(t *testing.T) {
	gw := &stubGateway{tickets: sample()}
	a := newApp(&stubProvider{}, gw)
	_, err := a.Login(context.Background(), "ana@example.test", "secret123")
	require.NoError(t, err)
	a.Store.Dispatch(store.SetSearch{Query: "dock"})

	require.NoError(t, a.Logout(context.Background()))

	assert.Equal(t, store.InitialState(), a.Store.State())
	assert.Equal(t, session.ViewLogin, a.Session.View())
	assert.Equal(t, domain.Viewer{}, a.Viewer())
}

func TestDetailUsesViewer(t *testing.T) {
	gw := &stubGateway{tickets: sample(), remote: map[string]domain.Ticket{
		"9": {ID: "9", UserEmail: "ana@example.test", Status: domain.TicketStatusClosed},
	}}
	a := newApp(&stubProvider{}, gw)
	_, err := a.Login(context.Background(), "ana@example.test", "secret123")
	require.NoError(t, err)

	own, err := a.Detail(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, own.Permissions().IsOwner)

	other, err := a.Detail(context.Background(), "2")
	require.NoError(t, err)
	assert.False(t, other.Permissions().CanDelete)

	remote, err := a.Detail(context.Background(), "9")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, remote.Ticket().Status)

	_, err = a.Detail(context.Background(), "missing")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
}

func TestDetailWithoutFetcher(t *testing.T) {
	gw := &stubGateway{}
	a := New(session.NewController(&stubProvider{}, "", nil), store.New(gw), nil, nil)

	_, err := a.Detail(context.Background(), "x")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestBuild(t *testing.T) {
	cfg := &config.Config{
		App:    config.AppConfig{RequestTimeoutSeconds: 5},
		Client: config.ClientConfig{APIBaseURL: "http://127.0.0.1:1", SessionFile: t.TempDir() + "/session.json", GracePeriodMillis: 10},
	}

	a := Build(cfg, zap.NewNop(), observability.NewMetrics())

	require.NotNil(t, a.Session)
	require.NotNil(t, a.Store)
	view, err := a.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ViewLogin, view)
}
