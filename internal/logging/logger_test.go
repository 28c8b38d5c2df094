package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToStdoutOnly(t *testing.T) {
	logger, err := New(Config{Level: InfoLevel})
	require.NoError(t, err)
	defer logger.Close()
	assert.Equal(t, InfoLevel, logger.GetLevel())
}

func TestNew_WritesToOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "app.log")

	logger, err := New(Config{Level: InfoLevel, OutputFile: path})
	require.NoError(t, err)
	defer logger.Close()

	logger.Info("hello from test")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}

func TestNew_JSONFormatter(t *testing.T) {
	logger, err := New(Config{Level: InfoLevel, JSONFormat: true})
	require.NoError(t, err)
	defer logger.Close()
	_, ok := logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestNew_TextFormatterByDefault(t *testing.T) {
	logger, err := New(Config{Level: InfoLevel})
	require.NoError(t, err)
	defer logger.Close()
	_, ok := logger.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestClose_NoopWithoutOutputFile(t *testing.T) {
	logger, err := New(Config{Level: InfoLevel})
	require.NoError(t, err)
	assert.NoError(t, logger.Close())
}

func TestRotateIfNeeded_RenamesOversizedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	require.NoError(t, os.WriteFile(path, make([]byte, 2*1024*1024), 0o644))

	logger, err := New(Config{Level: InfoLevel, OutputFile: path, MaxSizeMB: 1})
	require.NoError(t, err)
	defer logger.Close()

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
}
