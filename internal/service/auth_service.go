package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/auth"
	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/repository"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// ChallengeNewPassword is returned by Login for accounts that must choose a
// new password before a token is issued.
const ChallengeNewPassword = "NEW_PASSWORD_REQUIRED"

// challengeTTL bounds how long a new-password session stays valid.
const challengeTTL = 3 * time.Minute

// CodeSender delivers an account confirmation code.
type CodeSender func(ctx context.Context, email, code string) error

// LoginResult is either an issued token or a pending challenge.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Challenge string
	Session   string
}

type challenge struct {
	email     string
	expiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users       repository.UserRepository
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	adminGroup  string
	adminEmails map[string]bool
	sendCode    CodeSender
	logger      *zap.Logger
	now         func() time.Time

	mu         sync.Mutex
	challenges map[string]challenge
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	CodeSender CodeSender
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	admins := make(map[string]bool, len(cfg.Auth.AdminEmails))
	for _, email := range cfg.Auth.AdminEmails {
		admins[normalizeEmail(email)] = true
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		adminGroup:  cfg.Auth.AdminGroup,
		adminEmails: admins,
		sendCode:    deps.CodeSender,
		logger:      logger.Named("auth"),
		now:         time.Now,
		challenges:  make(map[string]challenge),
	}
}

// Register creates a pending account and sends its confirmation code.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if err := validationError("invalid registration", signUpRecord{Email: email, Name: name, Password: password}); err != nil {
		return err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("An account with the given email already exists.", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	code, err := confirmationCode()
	if err != nil {
		return err
	}
	user := &domain.User{
		ID:               uuid.NewString(),
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		Status:           domain.UserStatusPending,
		ConfirmationCode: code,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewConflict("An account with the given email already exists.", nil)
		}
		return err
	}
	s.logger.Info("registered user", zap.String("email", email))
	return s.deliverCode(ctx, email, code)
}

// ConfirmSignUp activates a pending account when code matches.
func (s *AuthService) ConfirmSignUp(ctx context.Context, email, code string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Status != domain.UserStatusPending {
		return apperrors.NewConflict("User cannot be confirmed. Current status is "+string(user.Status)+".", nil)
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(code) != user.ConfirmationCode {
		return apperrors.NewValidationError("Invalid verification code provided, please try again.",
			map[string]any{"code": "does not match"})
	}
	user.Status = domain.UserStatusActive
	user.ConfirmationCode = ""
	return s.users.Update(ctx, user)
}

// ResendCode issues a fresh confirmation code for a pending account.
func (s *AuthService) ResendCode(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Status != domain.UserStatusPending {
		return apperrors.NewConflict("User is already confirmed.", nil)
	}
	code, err := confirmationCode()
	if err != nil {
		return err
	}
	user.ConfirmationCode = code
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	return s.deliverCode(ctx, user.Email, code)
}

// Login authenticates a confirmed account. Accounts flagged for a password
// reset get a challenge session instead of a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LoginResult{}, apperrors.NewUnauthorized("Incorrect username or password.")
		}
		return LoginResult{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		return LoginResult{}, apperrors.NewUnauthorized("Incorrect username or password.")
	}

	switch user.Status {
	case domain.UserStatusPending:
		return LoginResult{}, apperrors.NewForbidden("User is not confirmed.")
	case domain.UserStatusResetRequired:
		session := uuid.NewString()
		s.mu.Lock()
		s.challenges[session] = challenge{email: user.Email, expiresAt: s.now().Add(challengeTTL)}
		s.mu.Unlock()
		return LoginResult{Challenge: ChallengeNewPassword, Session: session}, nil
	}

	token, exp, err := s.tokenMgr.GenerateToken(user, s.groupsFor(user))
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp}, nil
}

// CompleteNewPassword answers a challenge from Login and issues a token.
func (s *AuthService) CompleteNewPassword(ctx context.Context, email, session, newPassword string) (LoginResult, error) {
	email = normalizeEmail(email)
	s.mu.Lock()
	pending, ok := s.challenges[session]
	if ok && (pending.email != email || s.now().After(pending.expiresAt)) {
		ok = false
	}
	if ok {
		delete(s.challenges, session)
	}
	s.mu.Unlock()
	if !ok {
		return LoginResult{}, apperrors.NewUnauthorized("Invalid session for the user, session is expired.")
	}

	if err := validationError("invalid password", passwordRecord{Password: newPassword}); err != nil {
		return LoginResult{}, err
	}
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return LoginResult{}, err
	}
	user.PasswordHash = hash
	user.Status = domain.UserStatusActive
	if err := s.users.Update(ctx, user); err != nil {
		return LoginResult{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(user, s.groupsFor(user))
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp}, nil
}

// ProvisionUser creates a confirmed account that must replace tempPassword at
// first sign-in.
func (s *AuthService) ProvisionUser(ctx context.Context, name, email, tempPassword string, groups []string) (*domain.User, error) {
	hash, err := auth.HashPassword(tempPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		Status:       domain.UserStatusResetRequired,
		Groups:       groups,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("An account with the given email already exists.", nil)
		}
		return nil, err
	}
	return user, nil
}

// Me returns the account behind email with its effective groups.
func (s *AuthService) Me(ctx context.Context, email string) (*domain.User, []string, error) {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	return user, s.groupsFor(user), nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) groupsFor(user *domain.User) []string {
	groups := append([]string(nil), user.Groups...)
	if s.adminEmails[user.Email] && !user.InGroup(s.adminGroup) {
		groups = append(groups, s.adminGroup)
	}
	return groups
}

func (s *AuthService) userByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, err
}

func (s *AuthService) deliverCode(ctx context.Context, email, code string) error {
	if s.sendCode == nil {
		s.logger.Warn("no code sender configured; confirmation code not delivered", zap.String("email", email))
		return nil
	}
	if err := s.sendCode(ctx, email, code); err != nil {
		return fmt.Errorf("send confirmation code: %w", err)
	}
	return nil
}

func confirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
