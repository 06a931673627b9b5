package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/gateway"
)

// ChallengeNewPassword is the login challenge asking for a new password.
const ChallengeNewPassword = "NEW_PASSWORD_REQUIRED"

type loginResponse struct {
	IDToken   string `json:"id_token"`
	Challenge string `json:"challenge"`
	Session   string `json:"session"`
}

type pendingChallenge struct {
	email   string
	session string
}

// HTTPProvider implements Provider against the /auth endpoints of the ticket
// backend and keeps the ID token in a TokenStore.
type HTTPProvider struct {
	baseURL string
	http    *http.Client
	store   TokenStore
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	challenge *pendingChallenge
}

// NewHTTPProvider builds a provider. A nil httpClient uses the instrumented
// gateway client.
func NewHTTPProvider(baseURL string, store TokenStore, httpClient *http.Client, logger *zap.Logger) *HTTPProvider {
	if httpClient == nil {
		httpClient = gateway.NewHTTPClient(0)
	}
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		store:   store,
		logger:  logger.Named("identity"),
		now:     time.Now,
	}
}

// CurrentSession returns the stored session if its token has not expired.
func (p *HTTPProvider) CurrentSession(_ context.Context) (AuthSession, error) {
	stored, err := p.store.Load()
	if err != nil {
		return AuthSession{}, err
	}
	claims, err := ParseClaims(stored.Token)
	if err != nil {
		p.logger.Warn("discarding unreadable stored token", zap.Error(err))
		_ = p.store.Clear()
		return AuthSession{}, ErrNoSession
	}
	if claims.Expired(p.now()) {
		_ = p.store.Clear()
		return AuthSession{}, ErrNoSession
	}
	if claims.Email == "" {
		claims.Email = stored.Email
	}
	return AuthSession{Token: stored.Token, Claims: claims}, nil
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (SignInResult, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := p.post(ctx, "/auth/login", "", body, &resp); err != nil {
		return SignInResult{}, err
	}

	if resp.Challenge == ChallengeNewPassword {
		p.mu.Lock()
		p.challenge = &pendingChallenge{email: email, session: resp.Session}
		p.mu.Unlock()
		p.logger.Info("sign-in requires new password", zap.String("email", email))
		return SignInResult{Step: SignInNewPasswordRequired}, nil
	}
	if resp.IDToken == "" {
		return SignInResult{}, errors.New("sign-in response missing id_token")
	}
	if err := p.store.Save(StoredSession{Email: email, Token: resp.IDToken}); err != nil {
		return SignInResult{}, fmt.Errorf("store session: %w", err)
	}
	return SignInResult{Step: SignInDone}, nil
}

func (p *HTTPProvider) ConfirmNewPassword(ctx context.Context, newPassword string) error {
	p.mu.Lock()
	challenge := p.challenge
	p.mu.Unlock()
	if challenge == nil {
		return ErrNoChallenge
	}

	var resp loginResponse
	body := map[string]string{
		"email":        challenge.email,
		"session":      challenge.session,
		"new_password": newPassword,
	}
	if err := p.post(ctx, "/auth/new-password", "", body, &resp); err != nil {
		return err
	}
	if resp.IDToken == "" {
		return errors.New("new-password response missing id_token")
	}
	if err := p.store.Save(StoredSession{Email: challenge.email, Token: resp.IDToken}); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	p.mu.Lock()
	p.challenge = nil
	p.mu.Unlock()
	return nil
}

func (p *HTTPProvider) SignUp(ctx context.Context, input SignUpInput) error {
	body := map[string]string{"email": input.Email, "password": input.Password, "name": input.Name}
	return p.post(ctx, "/auth/register", "", body, nil)
}

func (p *HTTPProvider) ConfirmSignUp(ctx context.Context, email, code string) error {
	return p.post(ctx, "/auth/confirm", "", map[string]string{"email": email, "code": code}, nil)
}

func (p *HTTPProvider) ResendSignUpCode(ctx context.Context, email string) error {
	return p.post(ctx, "/auth/resend", "", map[string]string{"email": email}, nil)
}

// SignOut forgets the stored token and any pending challenge.
func (p *HTTPProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	p.challenge = nil
	p.mu.Unlock()
	return p.store.Clear()
}

// UserAttributes fetches the profile of the signed-in user.
func (p *HTTPProvider) UserAttributes(ctx context.Context) (Attributes, error) {
	session, err := p.CurrentSession(ctx)
	if err != nil {
		return Attributes{}, err
	}
	var attrs Attributes
	if err := p.call(ctx, http.MethodGet, "/auth/me", session.Token, nil, &attrs); err != nil {
		return Attributes{}, err
	}
	return attrs, nil
}

func (p *HTTPProvider) post(ctx context.Context, path, token string, body, out any) error {
	return p.call(ctx, http.MethodPost, path, token, body, out)
}

func (p *HTTPProvider) call(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := gateway.NewAPIError(resp.StatusCode, data)
		p.logger.Warn("identity request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
