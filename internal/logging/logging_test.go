package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	logger, err := New("test", Config{})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNew_RejectsBadLevel(t *testing.T) {
	_, err := New("test", Config{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_RejectsBadFormat(t *testing.T) {
	_, err := New("test", Config{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "app.log")
	logger, err := New("tui", Config{Level: "info", Format: "json", File: path})
	require.NoError(t, err)

	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"logger":"tui"`), "log = %s", data)
	assert.True(t, strings.Contains(string(data), `"msg":"hello"`), "log = %s", data)
}

func TestNew_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, err := New("x", Config{Level: "warn", File: path})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}
