// Package app wires the session controller, the ticket store and the gateway
// into the client application.
package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/detail"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/gateway"
	"github.com/labdesk/helpdesk/internal/identity"
	"github.com/labdesk/helpdesk/internal/observability"
	"github.com/labdesk/helpdesk/internal/session"
	"github.com/labdesk/helpdesk/internal/store"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// TicketFetcher loads a single ticket from the backend.
type TicketFetcher interface {
	Get(ctx context.Context, id string) (*domain.Ticket, error)
}

// App is the client container.
type App struct {
	Session *session.Controller
	Store   *store.Store
	fetcher TicketFetcher
	logger  *zap.Logger
}

// New assembles an App from already built parts. fetcher may be nil.
func New(ctrl *session.Controller, st *store.Store, fetcher TicketFetcher, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{Session: ctrl, Store: st, fetcher: fetcher, logger: logger}
}

// Build creates the production client from configuration: the file token
// store, the HTTP identity provider, and the instrumented gateway whose token
// comes from the session controller.
func Build(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) *App {
	httpClient := gateway.NewHTTPClient(cfg.App.RequestTimeout())
	tokens := identity.NewFileStore(cfg.Client.SessionFile)
	provider := identity.NewHTTPProvider(cfg.Client.APIBaseURL, tokens, httpClient, logger)
	ctrl := session.NewController(provider, cfg.Client.AdminGroup, logger)

	tokenSource := gateway.TokenFunc(ctrl.Token)
	gw := gateway.New(cfg.Client.APIBaseURL, tokenSource, gateway.Options{
		HTTPClient: httpClient,
		Uploader:   gateway.NewHTTPUploader(cfg.Client.APIBaseURL, tokenSource, httpClient),
		Logger:     logger,
		Metrics:    metrics,
	})
	st := store.New(gw,
		store.WithGracePeriod(cfg.Client.GracePeriod()),
		store.WithLogger(logger.Named("store")),
	)
	return New(ctrl, st, gw, logger)
}

// Start restores a previous session and loads tickets when one exists.
func (a *App) Start(ctx context.Context) (session.View, error) {
	if _, err := a.Session.CheckSession(ctx); err != nil {
		if errors.Is(err, identity.ErrNoSession) {
			return a.Session.View(), nil
		}
		return a.Session.View(), err
	}
	return a.Session.View(), a.Store.Load(ctx)
}

// Login signs in and loads tickets once the dashboard is reached.
func (a *App) Login(ctx context.Context, email, password string) (session.View, error) {
	if err := a.Session.Login(ctx, email, password); err != nil {
		return a.Session.View(), err
	}
	return a.afterAuth(ctx)
}

// CompleteNewPassword answers the forced password change and loads tickets.
func (a *App) CompleteNewPassword(ctx context.Context, newPassword string) (session.View, error) {
	if err := a.Session.CompleteNewPassword(ctx, newPassword); err != nil {
		return a.Session.View(), err
	}
	return a.afterAuth(ctx)
}

// Logout signs out and drops every cached ticket.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	a.Store.Dispatch(store.Reset{})
	return err
}

// Viewer is the permission subject for the signed-in user.
func (a *App) Viewer() domain.Viewer {
	sess, _ := a.Session.Session()
	return sess.Viewer()
}

// Detail builds a presenter for ticket id, falling back to the backend when
// the ticket is not in the loaded list.
func (a *App) Detail(ctx context.Context, id string) (*detail.Presenter, error) {
	ticket, ok := a.Store.Ticket(id)
	if !ok {
		if a.fetcher == nil {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		fetched, err := a.fetcher.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		ticket = *fetched
	}
	return detail.New(ticket, a.Viewer(), a.Store), nil
}

func (a *App) afterAuth(ctx context.Context) (session.View, error) {
	view := a.Session.View()
	if view != session.ViewDashboard {
		return view, nil
	}
	if err := a.Store.Load(ctx); err != nil {
		a.logger.Warn("initial ticket load failed", zap.Error(err))
		return view, err
	}
	return view, nil
}
