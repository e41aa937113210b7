package appconfig_test

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkpjssks/queuectl/internal/appconfig"
)

func TestWriteReadRemovePID(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, appconfig.WritePID(dir))

	pid, ok := appconfig.ReadPID(dir)
	require.True(t, ok)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, appconfig.RemovePID(dir))
	_, ok = appconfig.ReadPID(dir)
	assert.False(t, ok)
}

func TestIsRunningTrueForCurrentProcess(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, appconfig.WritePID(dir))
	assert.True(t, appconfig.IsRunning(dir))
}

func TestIsRunningFalseWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, appconfig.IsRunning(dir))
}

func TestSignalNoopWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	delivered, err := appconfig.Signal(dir, syscall.SIGTERM)
	require.NoError(t, err)
	assert.False(t, delivered)
}
