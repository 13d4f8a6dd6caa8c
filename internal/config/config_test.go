package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "propfeed", cfg.MongoDatabase)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL())
	assert.Equal(t, 6, cfg.PasswordMinLength)
	assert.Equal(t, 32, cfg.PasswordMaxLength)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL_SECONDS", "3600")

	cfg, err := LoadConfig()

	assert.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL())
}
