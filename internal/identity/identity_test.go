package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signToken(t, jwt.MapClaims{
		"email":          "ana@example.test",
		"name":           "Ana",
		"cognito:groups": []string{"Admins", "Staff"},
		"exp":            exp.Unix(),
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.test", claims.Email)
	assert.Equal(t, "Ana", claims.Name)
	assert.Equal(t, []string{"Admins", "Staff"}, claims.Groups)
	assert.True(t, claims.ExpiresAt.Equal(exp))
	assert.False(t, claims.Expired(time.Now()))
}

func TestParseClaimsGroupFallback(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"email": "bo@example.test", "groups": []string{"Admins"}})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admins"}, claims.Groups)
	assert.True(t, claims.ExpiresAt.IsZero())
	assert.False(t, claims.Expired(time.Now()))
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-token")
	assert.Error(t, err)
}

func TestFileStore(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(StoredSession{Email: "ana@example.test", Token: "tok"}))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, StoredSession{Email: "ana@example.test", Token: "tok"}, got)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFileStoreDiscardsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	store := NewFileStore(path)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	require.NoError(t, store.Save(StoredSession{Email: "ana@example.test", Token: "tok"}))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, store.Save(StoredSession{Token: "tok"}))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
}

type authBackend struct {
	t        *testing.T
	token    string
	requests map[string]map[string]string
}

func newAuthBackend(t *testing.T, token string) (*authBackend, *httptest.Server) {
	b := &authBackend{t: t, token: token, requests: map[string]map[string]string{}}
	server := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(server.Close)
	return b, server
}

func (b *authBackend) serve(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{}
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
	}
	b.requests[r.URL.Path] = body
	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/auth/login":
		switch body["password"] {
		case "temporary1":
			_, _ = io.WriteString(w, `{"challenge":"NEW_PASSWORD_REQUIRED","session":"sess-1"}`)
		case "correct1":
			_ = json.NewEncoder(w).Encode(map[string]string{"id_token": b.token})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Incorrect username or password."}`)
		}
	case "/auth/new-password":
		_ = json.NewEncoder(w).Encode(map[string]string{"id_token": b.token})
	case "/auth/register":
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"confirmation code sent"}`)
	case "/auth/confirm", "/auth/resend":
		_, _ = io.WriteString(w, `{}`)
	case "/auth/me":
		assert.Equal(b.t, b.token, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"email":"ana@example.test","name":"Ana","groups":["Admins"]}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestHTTPProviderSignIn(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"email": "ana@example.test", "exp": time.Now().Add(time.Hour).Unix()})
	_, server := newAuthBackend(t, token)
	provider := NewHTTPProvider(server.URL, NewMemoryStore(), server.Client(), nil)
	ctx := context.Background()

	_, err := provider.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	result, err := provider.SignIn(ctx, "ana@example.test", "correct1")
	require.NoError(t, err)
	assert.Equal(t, SignInDone, result.Step)

	session, err := provider.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, session.Token)
	assert.Equal(t, "ana@example.test", session.Claims.Email)

	attrs, err := provider.UserAttributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, Attributes{Email: "ana@example.test", Name: "Ana", Groups: []string{"Admins"}}, attrs)

	require.NoError(t, provider.SignOut(ctx))
	_, err = provider.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHTTPProviderWrongPassword(t *testing.T) {
	_, server := newAuthBackend(t, "unused")
	provider := NewHTTPProvider(server.URL, NewMemoryStore(), server.Client(), nil)

	_, err := provider.SignIn(context.Background(), "ana@example.test", "nope")
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password.", err.Error())
}

func TestHTTPProviderNewPasswordChallenge(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"email": "ana@example.test"})
	backend, server := newAuthBackend(t, token)
	provider := NewHTTPProvider(server.URL, NewMemoryStore(), server.Client(), nil)
	ctx := context.Background()

	assert.ErrorIs(t, provider.ConfirmNewPassword(ctx, "fresh1234"), ErrNoChallenge)

	result, err := provider.SignIn(ctx, "ana@example.test", "temporary1")
	require.NoError(t, err)
	assert.Equal(t, SignInNewPasswordRequired, result.Step)
	_, err = provider.CurrentSession(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, provider.ConfirmNewPassword(ctx, "fresh1234"))
	assert.Equal(t, map[string]string{
		"email":        "ana@example.test",
		"session":      "sess-1",
		"new_password": "fresh1234",
	}, backend.requests["/auth/new-password"])

	session, err := provider.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, session.Token)
	assert.ErrorIs(t, provider.ConfirmNewPassword(ctx, "again1234"), ErrNoChallenge)
}

func TestHTTPProviderExpiredToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"email": "ana@example.test", "exp": time.Now().Add(-time.Minute).Unix()})
	store := NewMemoryStore()
	require.NoError(t, store.Save(StoredSession{Email: "ana@example.test", Token: token}))
	provider := NewHTTPProvider("http://unused.test", store, nil, nil)

	_, err := provider.CurrentSession(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHTTPProviderSignUpFlow(t *testing.T) {
	backend, server := newAuthBackend(t, "unused")
	provider := NewHTTPProvider(server.URL, NewMemoryStore(), server.Client(), nil)
	ctx := context.Background()

	require.NoError(t, provider.SignUp(ctx, SignUpInput{Email: "new@example.test", Password: "secret123", Name: "Newt"}))
	assert.Equal(t, map[string]string{"email": "new@example.test", "password": "secret123", "name": "Newt"}, backend.requests["/auth/register"])

	require.NoError(t, provider.ConfirmSignUp(ctx, "new@example.test", "123456"))
	assert.Equal(t, "123456", backend.requests["/auth/confirm"]["code"])

	require.NoError(t, provider.ResendSignUpCode(ctx, "new@example.test"))
	assert.Equal(t, "new@example.test", backend.requests["/auth/resend"]["email"])
}
