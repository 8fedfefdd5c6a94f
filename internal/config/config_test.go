package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadFrom は設定の読み込みを検証する。
func TestLoadFrom(t *testing.T) {
	t.Parallel()

	t.Run("API_URLのみ指定すれば既定値で読み込めること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFrom(map[string]string{"API_URL": "http://backend:3000/"})
		require.NoError(t, err)

		assert.Equal(t, "8000", cfg.Port)
		assert.Equal(t, ":8000", cfg.Addr())
		assert.Equal(t, "http://backend:3000", cfg.APIURL)
		assert.Equal(t, "http://localhost:8080", cfg.ClientURL)
		assert.Equal(t, []string{"https://rexguzman.github.io", "http://localhost:8080"}, cfg.CORSOrigins)
		assert.Equal(t, "https://accounts.google.com", cfg.GoogleIssuerURL)
		assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
		assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
		assert.True(t, cfg.DevMode())
		assert.False(t, cfg.GoogleEnabled())
		assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	})

	t.Run("すべての値を上書きできること", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFrom(map[string]string{
			"PORT":                 "9000",
			"NODE_ENV":             "production",
			"API_URL":              "https://api.example.com",
			"API_KEY_TOKEN":        "key-1",
			"GOOGLE_CLIENT_ID":     "cid",
			"GOOGLE_CLIENT_SECRET": "csecret",
			"GOOGLE_REDIRECT_URL":  "https://gw.example.com/auth/google-oauth/callback",
			"CLIENT_URL":           "https://app.example.com/",
			"CORS_ORIGINS":         "https://app.example.com, ,https://admin.example.com",
			"BACKEND_TIMEOUT":      "3s",
			"PROVIDER_TIMEOUT":     "5s",
			"LOG_LEVEL":            "debug",
		})
		require.NoError(t, err)

		assert.Equal(t, ":9000", cfg.Addr())
		assert.False(t, cfg.DevMode())
		assert.True(t, cfg.GoogleEnabled())
		assert.Equal(t, "key-1", cfg.APIKeyToken)
		assert.Equal(t, "https://app.example.com", cfg.ClientURL)
		assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
		assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
		assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
		assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	})

	tests := []struct {
		name string
		vars map[string]string
	}{
		{name: "API_URLが無ければエラーになること", vars: map[string]string{}},
		{name: "API_URLのスキームが不正ならエラーになること", vars: map[string]string{"API_URL": "ftp://backend"}},
		{name: "Googleのクライアント設定が片方だけならエラーになること", vars: map[string]string{"API_URL": "http://b", "GOOGLE_CLIENT_ID": "cid"}},
		{name: "タイムアウトが0ならエラーになること", vars: map[string]string{"API_URL": "http://b", "BACKEND_TIMEOUT": "0s"}},
		{name: "タイムアウトが解釈できなければエラーになること", vars: map[string]string{"API_URL": "http://b", "PROVIDER_TIMEOUT": "soon"}},
		{name: "ログレベルが不正ならエラーになること", vars: map[string]string{"API_URL": "http://b", "LOG_LEVEL": "verbose"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadFrom(tt.vars)
			assert.Error(t, err)
		})
	}
}

// TestLoad はプロセスの環境変数から読み込めることを検証する。
func TestLoad(t *testing.T) {
	t.Setenv("API_URL", "http://backend:3000")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://backend:3000", cfg.APIURL)
	assert.False(t, cfg.DevMode())
}
