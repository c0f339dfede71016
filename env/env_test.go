package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
base_url: https://example.com
timeout_ms: 30000
credentials:
  username: tester
dingtalk:
  enabled: true
  webhook: https://oapi.dingtalk.com/robot/send?access_token=abc
  secret: SECdef
`

func writeEnv(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644))
	return dir
}

func TestLoadAndGet(t *testing.T) {
	dir := writeEnv(t, "test", sampleConfig)

	cfg, err := Load(dir, "test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Name())
	assert.Equal(t, "https://example.com", cfg.BaseURL())
	assert.Equal(t, 30000, cfg.GetInt("timeout_ms", 0))
	assert.Equal(t, "tester", cfg.GetString("credentials.username", ""))
}

func TestGetReturnsDefaultWhenMissing(t *testing.T) {
	dir := writeEnv(t, "test", sampleConfig)

	cfg, err := Load(dir, "test")
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.GetString("credentials.password", "fallback"))
	assert.Equal(t, 42, cfg.GetInt("base_url.nested", 42), "scalar segments do not recurse")
	assert.False(t, cfg.GetBool("nope", false))
}

func TestDingTalkSection(t *testing.T) {
	dir := writeEnv(t, "test", sampleConfig)
	cfg, err := Load(dir, "test")
	require.NoError(t, err)

	dt := cfg.DingTalk()
	assert.True(t, dt.Enabled)
	assert.Contains(t, dt.Webhook, "access_token=abc")
	assert.Equal(t, "SECdef", dt.Secret)

	bare, err := Load(writeEnv(t, "bare", "base_url: http://x\n"), "bare")
	require.NoError(t, err)
	assert.False(t, bare.DingTalk().Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir(), "nope")
	assert.ErrorContains(t, err, "failed to read environment config")
}

func TestLoadFallsBackToEnvVar(t *testing.T) {
	dir := writeEnv(t, "staging", "base_url: http://staging\n")
	t.Setenv("ENV", "staging")

	cfg, err := Load(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Name())
	assert.Equal(t, "http://staging", cfg.BaseURL())
}
