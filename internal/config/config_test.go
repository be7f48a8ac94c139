package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PG_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Dialogue.SuppressionWindow)
	assert.Equal(t, 20, cfg.Dialogue.MaxHistoryMessages)
	assert.Equal(t, "memory", cfg.Dialogue.SessionBackend)
	assert.Equal(t, "log", cfg.Notifications.Backend)
	assert.False(t, cfg.OpenAI.Enabled)
	assert.False(t, cfg.HasDatabase())
	assert.Equal(t, 200, cfg.Search.CandidateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DIALOGUE_SUPPRESSION_WINDOW", "45s")
	t.Setenv("DIALOGUE_MAX_HISTORY_MESSAGES", "8")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("OPENAI_CHAT_TEMPERATURE", "0.7")
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("SEARCH_CANDIDATE_LIMIT", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.OpenAI.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Dialogue.SuppressionWindow)
	assert.Equal(t, 8, cfg.Dialogue.MaxHistoryMessages)
	assert.Equal(t, "redis", cfg.Dialogue.SessionBackend)
	assert.InDelta(t, 0.7, cfg.OpenAI.ChatTemperature, 0.0001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Search.CandidateLimit)
}

func TestLoad_OpenAIEnabledSwitch(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.OpenAI.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"session backend", map[string]string{"SESSION_BACKEND": "memcached"}},
		{"notify backend", map[string]string{"NOTIFY_BACKEND": "pager"}},
		{"sns without topic", map[string]string{"NOTIFY_BACKEND": "sns", "NOTIFY_SNS_TOPIC_ARN": ""}},
		{"search limits", map[string]string{"SEARCH_DEFAULT_LIMIT": "20", "SEARCH_MAX_LIMIT": "10"}},
		{"candidate limit", map[string]string{"SEARCH_CANDIDATE_LIMIT": "0"}},
		{"window", map[string]string{"DIALOGUE_SUPPRESSION_WINDOW": "-5s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "freight", Password: "secret", Database: "loads", SSLMode: "require",
	}}
	assert.True(t, cfg.HasDatabase())
	assert.Equal(t, "host=db port=5433 user=freight password=secret dbname=loads sslmode=require", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://u:p@h/db"
	assert.Equal(t, "postgres://u:p@h/db", cfg.GetPostgreSQLDSN())
}
