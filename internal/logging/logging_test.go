package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogFilePath(t *testing.T) {
	sessionStart := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	assert.Equal(t,
		filepath.Join("overlaylogs", "snar_overlay.20260212_213836.log"),
		LogFilePath("overlaylogs", "snar_overlay", sessionStart))
	assert.Equal(t,
		filepath.Join("/var", "log", "overlay", "snar_overlay.20260212_213836.log"),
		LogFilePath(filepath.Join("/var", "log", "overlay"), "snar_overlay", sessionStart))
}

func TestOpenLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	start := time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

	f, path, err := OpenLogFile(dir, "snar_overlay", start)
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f2, path2, err := OpenLogFile(dir, "snar_overlay", start)
	require.NoError(t, err)
	defer f2.Close()
	assert.Equal(t, path, path2)

	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(old))

	info, err := f2.Stat()
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
