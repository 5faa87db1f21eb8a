package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "llama3-8b-8192", cfg.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.BaseURL)
	assert.Equal(t, 10, cfg.AgentMaxSteps)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-6)
	assert.False(t, cfg.HasAPIKey())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.True(t, cfg.HasAPIKey())
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":          "70000",
		"AGENT_MAX_ITERATIONS": "0",
		"LLM_RATE_LIMIT":       "-1",
		"LLM_MAX_TOKENS":       "many",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LLM_MODEL=llama-3.1-8b-instant\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	// godotenv.Load writes to the process environment; restore it afterwards.
	t.Setenv("LLM_MODEL", "")
	require.NoError(t, os.Unsetenv("LLM_MODEL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Model)
}
