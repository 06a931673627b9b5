// Package session owns the authentication state machine in front of the
// dashboard.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/form"
	"github.com/labdesk/helpdesk/internal/identity"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// View is the screen the session is on.
type View string

const (
	ViewLogin         View = "login"
	ViewRegister      View = "register"
	ViewConfirmSignUp View = "confirm-sign-up"
	ViewNewPassword   View = "new-password"
	ViewDashboard     View = "dashboard"
)

// DefaultAdminGroup is the group that grants administrator rights.
const DefaultAdminGroup = "Admins"

// Controller tracks who is signed in and which view is active.
type Controller struct {
	provider   identity.Provider
	adminGroup string
	logger     *zap.Logger

	mu           sync.Mutex
	view         View
	session      *domain.Session
	pendingEmail string
}

// NewController starts on the login view. An empty adminGroup uses
// DefaultAdminGroup.
func NewController(provider identity.Provider, adminGroup string, logger *zap.Logger) *Controller {
	if adminGroup == "" {
		adminGroup = DefaultAdminGroup
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		provider:   provider,
		adminGroup: adminGroup,
		logger:     logger.Named("session"),
		view:       ViewLogin,
	}
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Session returns the signed-in identity, if any.
func (c *Controller) Session() (domain.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.Session{}, false
	}
	return *c.session, true
}

// PendingEmail is the address awaiting sign-up confirmation.
func (c *Controller) PendingEmail() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingEmail
}

func (c *Controller) ShowLogin()    { c.setView(ViewLogin) }
func (c *Controller) ShowRegister() { c.setView(ViewRegister) }

// CheckSession loads the current identity. Any failure clears it and returns
// to the login view.
func (c *Controller) CheckSession(ctx context.Context) (domain.Session, error) {
	current, err := c.provider.CurrentSession(ctx)
	if err != nil {
		c.clear(ViewLogin)
		if !errors.Is(err, identity.ErrNoSession) {
			c.logger.Warn("session check failed", zap.Error(err))
		}
		return domain.Session{}, err
	}

	name := current.Claims.Name
	if name == "" {
		if attrs, err := c.provider.UserAttributes(ctx); err == nil {
			name = attrs.Name
		}
	}
	if name == "" {
		name = current.Claims.Email
	}
	sess := domain.Session{
		Email:   current.Claims.Email,
		Name:    name,
		IsAdmin: domain.HasGroup(current.Claims.Groups, c.adminGroup),
	}

	c.mu.Lock()
	c.session = &sess
	c.view = ViewDashboard
	c.mu.Unlock()
	c.logger.Debug("session active", zap.String("email", sess.Email), zap.Bool("admin", sess.IsAdmin))
	return sess, nil
}

// Login signs in. A new-password challenge moves to ViewNewPassword and is not
// an error.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return apperrors.NewValidationError("email and password are required", nil)
	}
	result, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		c.logger.Info("sign-in failed", zap.String("email", email), zap.Error(err))
		return err
	}
	if result.Step == identity.SignInNewPasswordRequired {
		c.setView(ViewNewPassword)
		return nil
	}
	_, err = c.CheckSession(ctx)
	return err
}

// CompleteNewPassword answers the pending challenge and signs in.
func (c *Controller) CompleteNewPassword(ctx context.Context, newPassword string) error {
	if err := form.ValidatePassword(newPassword, newPassword); err != nil {
		return err
	}
	if err := c.provider.ConfirmNewPassword(ctx, newPassword); err != nil {
		return err
	}
	_, err := c.CheckSession(ctx)
	return err
}

// Register creates an account without signing in and moves to the
// confirmation view.
func (c *Controller) Register(ctx context.Context, email, password, name string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewValidationError("email is required", map[string]any{"email": "email is required"})
	}
	input := identity.SignUpInput{Email: email, Password: password, Name: strings.TrimSpace(name)}
	if err := c.provider.SignUp(ctx, input); err != nil {
		return err
	}
	c.StartConfirmation(email)
	return nil
}

// StartConfirmation shows the confirmation view for email.
func (c *Controller) StartConfirmation(email string) {
	c.mu.Lock()
	c.pendingEmail = strings.TrimSpace(email)
	c.view = ViewConfirmSignUp
	c.mu.Unlock()
}

// ConfirmSignUp submits the verification code and returns to login.
func (c *Controller) ConfirmSignUp(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.NewValidationError("confirmation code is required", map[string]any{"code": "confirmation code is required"})
	}
	email := c.PendingEmail()
	if email == "" {
		return apperrors.NewValidationError("no sign-up awaiting confirmation", nil)
	}
	if err := c.provider.ConfirmSignUp(ctx, email, code); err != nil {
		return err
	}
	c.setView(ViewLogin)
	return nil
}

// ResendCode asks for a new verification code.
func (c *Controller) ResendCode(ctx context.Context) error {
	email := c.PendingEmail()
	if email == "" {
		return apperrors.NewValidationError("no sign-up awaiting confirmation", nil)
	}
	return c.provider.ResendSignUpCode(ctx, email)
}

// Logout signs out. Local identity is cleared even when the provider fails.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.provider.SignOut(ctx)
	c.clear(ViewLogin)
	if err != nil {
		c.logger.Warn("sign-out failed", zap.Error(err))
	}
	return err
}

// Token returns the current ID token, or "" without a session.
func (c *Controller) Token(ctx context.Context) string {
	current, err := c.provider.CurrentSession(ctx)
	if err != nil {
		return ""
	}
	return current.Token
}

func (c *Controller) setView(v View) {
	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
}

func (c *Controller) clear(v View) {
	c.mu.Lock()
	c.session = nil
	c.view = v
	c.mu.Unlock()
}
