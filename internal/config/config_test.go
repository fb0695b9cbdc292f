package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10_000, cfg.Limits.MaxThoughts)
	assert.Equal(t, 20, cfg.Limits.MaxDepth)
	assert.Equal(t, 3, cfg.Search.BeamWidth)
}

func TestValidateCollectsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.Limits.MaxThoughts = 0
	cfg.Limits.MaxDepth = 0
	cfg.Search.BeamWidth = 0
	cfg.Search.MaxExpansions = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_thoughts")
	assert.Contains(t, err.Error(), "max_depth")
	assert.Contains(t, err.Error(), "beam_width")
	assert.Contains(t, err.Error(), "max_expansions")
}

func TestLoadFromEnvPrefix(t *testing.T) {
	t.Setenv("GOT_MAX_THOUGHTS", "42")
	t.Setenv("GOT_ALLOW_CYCLES", "true")
	t.Setenv("GOT_SCORE_THRESHOLD", "0.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Limits.MaxThoughts)
	assert.True(t, cfg.AllowCycles)
	assert.Equal(t, 0.5, cfg.Search.ScoreThreshold)
}

func TestLoadFromEnvInvalidNumericFallsBackSilently(t *testing.T) {
	t.Setenv("GOT_MAX_DEPTH", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Limits.MaxDepth)
}

func TestParseBoolCaseInsensitive(t *testing.T) {
	for _, v := range []string{"TRUE", "True", "1", "yes", "YES"} {
		b, ok := parseBool(v)
		require.True(t, ok)
		assert.True(t, b)
	}
	for _, v := range []string{"FALSE", "0", "no"} {
		b, ok := parseBool(v)
		require.True(t, ok)
		assert.False(t, b)
	}
	_, ok := parseBool("maybe")
	assert.False(t, ok)
}

func TestLoadFromFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	content := []byte("allow_cycles: true\nlimits:\n  max_thoughts: 500\nsearch:\n  beam_width: 5\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.AllowCycles)
	assert.Equal(t, 500, cfg.Limits.MaxThoughts)
	assert.Equal(t, 5, cfg.Search.BeamWidth)
	assert.Equal(t, 20, cfg.Limits.MaxDepth, "unspecified fields keep defaults")
}
