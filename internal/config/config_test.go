package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFailsFastWithoutVectorAPIKey(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")
	t.Setenv("VECTOR_HOST", "https://index.example.com")
	t.Setenv("LLM_API_KEY", "sk-test")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PINECONE_API_KEY")
}

func TestLoadFailsFastWithoutLLMAPIKey(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")
	t.Setenv("VECTOR_HOST", "https://index.example.com")
	t.Setenv("PINECONE_API_KEY", "pc-test")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestLoadAppliesDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "does-not-exist.toml")
	t.Setenv("VECTOR_HOST", "https://index.example.com")
	t.Setenv("PINECONE_API_KEY", "pc-test")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("VECTOR_TOP_K", "5")
	t.Setenv("VECTOR_LAMBDA_MULT", "0.7")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPAddr())
	assert.Equal(t, 5, cfg.Vector.TopK)
	assert.InDelta(t, 0.7, cfg.Vector.LambdaMult, 1e-9)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowOrigins)

	// Untouched defaults.
	assert.Equal(t, 3, cfg.LLM.HistoryExchanges)
	assert.Equal(t, 12, cfg.Vector.FetchK)
	assert.Equal(t, []string{"*"}, defaultConfig().CORS.AllowOrigins)
	assert.False(t, cfg.Archive.Enabled)
}

func TestEmbeddingEndpointFallsBackToLLMBaseURL(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.BaseURL = "https://llm.example.com/v1"

	assert.Equal(t, "https://llm.example.com/v1", cfg.EmbeddingEndpoint())

	cfg.LLM.EmbeddingBaseURL = "https://embed.example.com/v1"
	assert.Equal(t, "https://embed.example.com/v1", cfg.EmbeddingEndpoint())
}

func TestMySQLDSN(t *testing.T) {
	cfg := defaultConfig()
	cfg.MySQL.User = "finrag"
	cfg.MySQL.Password = "pw"
	cfg.MySQL.Host = "db"
	cfg.MySQL.Port = 3307
	cfg.MySQL.DB = "archive"
	cfg.MySQL.Params = "parseTime=true"

	assert.Equal(t, "finrag:pw@tcp(db:3307)/archive?parseTime=true", cfg.MySQLDSN())
}
