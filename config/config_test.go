package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setProductionEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/devevents")
}

func TestLoad_Defaults(t *testing.T) {
	setProductionEnv(t)
	for _, k := range []string{"PORT", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT", "UPLOAD_TIMEOUT", "UPLOAD_MAX_WIDTH", "UPLOAD_MAX_PIXELS", "MAX_UPLOAD_BYTES", "UPLOAD_PROVIDER", "EMAIL_PROVIDER", "AUTH_JWT_SECRET"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "s3", cfg.Upload.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Upload.Timeout)
	assert.Equal(t, "dev-events", cfg.Upload.Folder)
	assert.Equal(t, 1600, cfg.Upload.MaxWidth)
	assert.Equal(t, 40_000_000, cfg.Upload.MaxPixels)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	setProductionEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.dev, ,https://b.dev")
	t.Setenv("UPLOAD_TIMEOUT", "30s")
	t.Setenv("UPLOAD_MAX_WIDTH", "800")
	t.Setenv("EMAIL_PROVIDER", "ses")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Upload.Timeout)
	assert.Equal(t, 800, cfg.Upload.MaxWidth)
	assert.Equal(t, "ses", cfg.Email.Provider)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "missing database url", env: map[string]string{"DATABASE_URL": ""}, wantErr: "DATABASE_URL is required"},
		{name: "bad duration", env: map[string]string{"REQUEST_TIMEOUT": "soon"}, wantErr: "REQUEST_TIMEOUT"},
		{name: "negative width", env: map[string]string{"UPLOAD_MAX_WIDTH": "-1"}, wantErr: "UPLOAD_MAX_WIDTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setProductionEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "v", line["k"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}
