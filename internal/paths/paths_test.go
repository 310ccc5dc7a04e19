package paths

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppDataDir_ReturnsNonEmpty(t *testing.T) {
	dir := AppDataDir()
	require.NotEmpty(t, dir)
	require.NotEqual(t, ".", dir)
	require.Contains(t, strings.ToLower(dir), "plinth")
}

func TestAppLocalDataDir_ReturnsNonEmpty(t *testing.T) {
	dir := AppLocalDataDir()
	require.NotEmpty(t, dir)
	require.Contains(t, strings.ToLower(dir), "plinth")
}

func TestDerivedPaths(t *testing.T) {
	require.Equal(t, "history.db", filepath.Base(HistoryDBPath()))
	require.Equal(t, "plugins", filepath.Base(PluginsDir()))
	require.Equal(t, "plinth.log", filepath.Base(LogFilePath()))
}
