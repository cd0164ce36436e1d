package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := Load()
		assert.Equal(t, "0.0.0.0", cfg.ServerHost)
		assert.Equal(t, 8080, cfg.ServerPort)
		assert.Equal(t, "postgres", cfg.DBDriver)
		assert.Equal(t, 6, cfg.OTPLength)
		assert.Equal(t, 10*time.Minute, cfg.OTPExpiration)
		assert.Equal(t, 5, cfg.OTPMaxAttempts)
		assert.Equal(t, 30*time.Second, cfg.OTPResendCooldown)
		assert.Equal(t, 5*time.Minute, cfg.CeremonyTimeout)
		assert.Equal(t, "localhost", cfg.RPID)
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("DB_DRIVER", "mysql")
		t.Setenv("OTP_MAX_ATTEMPTS", "3")
		t.Setenv("RP_ID", "app.example.com")

		cfg := Load()
		assert.Equal(t, 9090, cfg.ServerPort)
		assert.Equal(t, "mysql", cfg.DBDriver)
		assert.Equal(t, 3, cfg.OTPMaxAttempts)
		assert.Equal(t, "app.example.com", cfg.RPID)
	})
}

func TestGetGinMode(t *testing.T) {
	assert.Equal(t, "debug", (&Config{LogLevel: "debug"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "info"}).GetGinMode())
	assert.Equal(t, "release", (&Config{LogLevel: "unknown"}).GetGinMode())
}

func TestRPOriginList(t *testing.T) {
	cfg := &Config{RPOrigins: "https://app.example.com, https://staging.example.com ,"}
	assert.Equal(t, []string{"https://app.example.com", "https://staging.example.com"}, cfg.RPOriginList())
}
