package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, lvl)

	lvl, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestCLILevel(t *testing.T) {
	t.Setenv("MEMESHARE_DEBUG", "")
	assert.Equal(t, "warn", CLILevel(false))
	assert.Equal(t, "debug", CLILevel(true))
	t.Setenv("MEMESHARE_DEBUG", "1")
	assert.Equal(t, "debug", CLILevel(false))
}

func TestNewBuildsLogger(t *testing.T) {
	l, err := New("warn", true)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}
