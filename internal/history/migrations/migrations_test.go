package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoad_ParsesEmbeddedMigrations(t *testing.T) {
	ms, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, ms)

	// Versions are sequential starting at 1.
	for i, m := range ms {
		require.Equal(t, i+1, m.Version)
		require.NotEmpty(t, m.Description)
		require.NotEmpty(t, m.SQL)
	}
}

func TestRun_AppliesAllMigrations(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Run(db))

	version, err := CurrentVersion(db)
	require.NoError(t, err)
	ms, err := Load()
	require.NoError(t, err)
	require.Equal(t, len(ms), version)

	// The history table exists and accepts rows.
	_, err = db.Exec(`INSERT INTO history_entries (id, session_id, raw_text, timestamp, exit_status)
		VALUES ('a', 'b', 'version', '2026-01-01T00:00:00Z', 0)`)
	require.NoError(t, err)
}

func TestRun_Idempotent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	version, err := CurrentVersion(db)
	require.NoError(t, err)
	require.Equal(t, 1, version)
}
