package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCredentialMap(t *testing.T) {
	creds := parseCredentialMap("Admin@Corp.Example=s3cret, lead@corp.example=other")
	require.Len(t, creds, 2)
	assert.Equal(t, "s3cret", creds["admin@corp.example"])
	assert.Equal(t, "other", creds["lead@corp.example"])
}

func TestParseCredentialMapSkipsMalformedPairs(t *testing.T) {
	creds := parseCredentialMap("no-equals, =missing-email, missing-password=, ok@x.y=pw")
	require.Len(t, creds, 1)
	assert.Equal(t, "pw", creds["ok@x.y"])
}

func TestParseCredentialMapEmpty(t *testing.T) {
	assert.Empty(t, parseCredentialMap(""))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 1440, cfg.Auth.AccessTokenTTLMinutes)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("SEED_ADMIN_CREDENTIALS", "root@corp.example=pw")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", cfg.App.Addr())
	assert.Equal(t, "pw", cfg.Seed.AdminCredentials["root@corp.example"])
	assert.Zero(t, cfg.App.RequestTimeout())
}
