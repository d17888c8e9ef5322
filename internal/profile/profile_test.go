package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsSQLiteDSN(t *testing.T) {
	dir := t.TempDir()
	p := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}

	require.NoError(t, p.Validate())
	assert.Equal(t, filepath.Join(dir, "sqltalk_dev.db"), p.DSN)
}

func TestValidateNormalizesMode(t *testing.T) {
	p := &Profile{Mode: "staging", Driver: "sqlite", Data: t.TempDir()}

	require.NoError(t, p.Validate())
	assert.Equal(t, "demo", p.Mode)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "mysql", Data: t.TempDir()}
	assert.Error(t, p.Validate())
}

func TestValidateRequiresPostgresDSN(t *testing.T) {
	p := &Profile{Mode: "dev", Driver: "postgres", Data: t.TempDir()}
	assert.Error(t, p.Validate())

	p.DSN = "postgres://localhost/sqltalk"
	assert.NoError(t, p.Validate())
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("SQLTALK_AI_ENABLED", "true")
	t.Setenv("SQLTALK_AI_API_KEY", "sk-test")

	p := &Profile{}
	p.FromEnv()

	assert.True(t, p.IsAIEnabled())
	assert.Equal(t, "https://api.openai.com/v1", p.AIBaseURL)
	assert.Equal(t, "text-embedding-3-small", p.AIEmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", p.AIChatModel)
	assert.Equal(t, 1536, p.AIDimensions)
}

func TestFromEnvDimensionsOverride(t *testing.T) {
	t.Setenv("SQLTALK_AI_DIMENSIONS", "1024")
	p := &Profile{}
	p.FromEnv()
	assert.Equal(t, 1024, p.AIDimensions)

	t.Setenv("SQLTALK_AI_DIMENSIONS", "not-a-number")
	p = &Profile{}
	p.FromEnv()
	assert.Equal(t, 1536, p.AIDimensions)
}

func TestAIDisabledWithoutKey(t *testing.T) {
	t.Setenv("SQLTALK_AI_ENABLED", "true")
	t.Setenv("SQLTALK_AI_API_KEY", "")

	p := &Profile{}
	p.FromEnv()
	assert.False(t, p.IsAIEnabled())
}
