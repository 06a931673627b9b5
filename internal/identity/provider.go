// Package identity talks to the identity provider: sign-in with its forced
// password change challenge, sign-up with e-mail confirmation, and the stored
// session token.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrNoSession means nobody is signed in or the stored token expired.
	ErrNoSession = errors.New("no active session")
	// ErrNoChallenge means ConfirmNewPassword was called without a pending
	// challenge.
	ErrNoChallenge = errors.New("no pending sign-in challenge")
)

// SignInStep is what the user must do after a sign-in attempt.
type SignInStep string

const (
	SignInDone                SignInStep = "DONE"
	SignInNewPasswordRequired SignInStep = "CONFIRM_SIGN_IN_WITH_NEW_PASSWORD_REQUIRED"
)

// SignInResult reports the next step of a sign-in.
type SignInResult struct {
	Step SignInStep
}

// SignUpInput registers a new account.
type SignUpInput struct {
	Email    string
	Password string
	Name     string
}

// AuthSession is the current signed-in session.
type AuthSession struct {
	Token  string
	Claims Claims
}

// Attributes are the user profile attributes held by the provider.
type Attributes struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

// Provider is the identity backend used by the session controller.
type Provider interface {
	CurrentSession(ctx context.Context) (AuthSession, error)
	SignIn(ctx context.Context, email, password string) (SignInResult, error)
	ConfirmNewPassword(ctx context.Context, newPassword string) error
	SignUp(ctx context.Context, input SignUpInput) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendSignUpCode(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	UserAttributes(ctx context.Context) (Attributes, error)
}
