package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/mirror")
	t.Setenv("ORB_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("DATABASE_SCHEMA", "")
	t.Setenv("PORT", "")
	t.Setenv("VERIFY_WEBHOOK_SIGNATURE", "")
	t.Setenv("ORB_API_KEY", "")
	t.Setenv("API_KEY_SYNC", "")
	t.Setenv("API_KEY_SYNC_ALT", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "orb", cfg.DatabaseSchema)
	assert.True(t, cfg.VerifyWebhookSignature)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_SCHEMA", "billing_mirror")
	t.Setenv("API_KEY_SYNC", "key-1")
	t.Setenv("API_KEY_SYNC_ALT", "key-2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "billing_mirror", cfg.DatabaseSchema)
	assert.Equal(t, "key-1", cfg.SyncAPIKey)
	assert.Equal(t, "key-2", cfg.SyncAPIKeyAlt)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRequiresWebhookSecretWhenVerifying(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORB_WEBHOOK_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORB_WEBHOOK_SECRET")
}

func TestLoadAllowsMissingSecretWhenVerificationDisabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ORB_WEBHOOK_SECRET", "")
	t.Setenv("VERIFY_WEBHOOK_SIGNATURE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.VerifyWebhookSignature)
}

func TestLoadRejectsBadPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
}
