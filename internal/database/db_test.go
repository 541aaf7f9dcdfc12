package database

import (
	"path/filepath"
	"testing"

	"github.com/dev-rodrigobaliza/rest-api-course/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Driver = "sqlite3"
	cfg.Database.Path = filepath.Join(t.TempDir(), "data", "test.db")
	cfg.Database.MaxRetries = 1
	return cfg
}

func TestOpenSQLite(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	// Schema is in place and writable.
	_, err = db.Exec("INSERT INTO users (username, email, password) VALUES (?, ?, ?)",
		"alice", "alice@example.org", "hash")
	assert.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestOpenCreatesDataDirectory(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := Open(cfg)
	require.NoError(t, err)
	db.Close()

	assert.FileExists(t, cfg.Database.Path)
}

func TestOpenForeignKeysEnforced(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO activations (id, user_id, expire_at, activated, created_at) VALUES (?, ?, ?, ?, ?)",
		"abc", 9999, 0, false, 0)
	assert.Error(t, err)
}

func TestOpenUnsupportedDriver(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Driver = "mysql"
	cfg.Database.MaxRetries = 1

	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestInitTablesIdempotent(t *testing.T) {
	cfg := sqliteConfig(t)

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, InitTables(db, "sqlite3"))
}
