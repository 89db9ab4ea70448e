package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_SqliteFile(t *testing.T) {
	m := NewManager(zerolog.Nop())
	path := filepath.Join(t.TempDir(), "overlay.db")

	require.NoError(t, m.Connect(Config{Driver: "sqlite", Path: path}))
	t.Cleanup(func() { m.Close() })

	assert.Equal(t, "sqlite", m.Driver)
	assert.NotNil(t, m.DB)
	assert.FileExists(t, path)

	var version int
	require.NoError(t, m.DB.Raw("PRAGMA user_version;").Scan(&version).Error)
	assert.Equal(t, 1, version)
}

func TestConnect_DefaultsToSqlite(t *testing.T) {
	m := NewManager(zerolog.Nop())
	require.NoError(t, m.Connect(Config{Path: filepath.Join(t.TempDir(), "x.db")}))
	t.Cleanup(func() { m.Close() })
	assert.Equal(t, "sqlite", m.Driver)
}

func TestConnect_UnknownDriver(t *testing.T) {
	m := NewManager(zerolog.Nop())
	err := m.Connect(Config{Driver: "mysql"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestClose_NotConnected(t *testing.T) {
	assert.NoError(t, NewManager(zerolog.Nop()).Close())
}

func TestDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", Username: "u", Password: "p", Database: "poi"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=poi sslmode=disable", cfg.DSN())
}
