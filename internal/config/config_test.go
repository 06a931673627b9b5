package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("HELPDESK_API_URL", "")
	t.Setenv("HELPDESK_GRACE_PERIOD_MS", "")
	t.Setenv("LIST_ENVELOPE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Client.APIBaseURL)
	assert.Equal(t, "Admins", cfg.Client.AdminGroup)
	assert.Equal(t, time.Second, cfg.Client.GracePeriod())
	assert.Equal(t, "bare", cfg.App.ListEnvelope)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HELPDESK_API_URL", "https://api.example.test/prod")
	t.Setenv("HELPDESK_GRACE_PERIOD_MS", "250")
	t.Setenv("LIST_ENVELOPE", "Items")
	t.Setenv("AUTH_ADMIN_EMAILS", " root@example.test, ,ops@example.test")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.test/prod", cfg.Client.APIBaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.GracePeriod())
	assert.Equal(t, "Items", cfg.App.ListEnvelope)
	assert.Equal(t, []string{"root@example.test", "ops@example.test"}, cfg.Auth.AdminEmails)
	assert.Equal(t, 30, cfg.App.RequestTimeoutSeconds)
}

func TestLoadRejectsUnknownEnvelope(t *testing.T) {
	t.Setenv("LIST_ENVELOPE", "data")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIST_ENVELOPE")
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	require.Error(t, err)
}
