// Package paths centralizes the on-disk locations for application data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "plinth"

// AppDataDir returns the application data directory for logs and plugin
// manifests. Uses os.UserConfigDir() which returns:
//   - macOS: ~/Library/Application Support
//   - Linux: $XDG_CONFIG_HOME or ~/.config
//   - Windows: %AppData% (roaming)
func AppDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}

	path := filepath.Join(dir, appDirName)
	_ = os.MkdirAll(path, 0700)

	return path
}

// AppLocalDataDir returns the OS-appropriate local data directory. This is
// where application-managed data, like the history database, lives.
//   - macOS: ~/Library/Application Support/plinth
//   - Linux: $XDG_DATA_HOME/plinth or ~/.local/share/plinth
//   - Windows: %LOCALAPPDATA%\plinth
func AppLocalDataDir() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "."
		}
		base = filepath.Join(home, "Library", "Application Support")

	case "windows":
		base = os.Getenv("LOCALAPPDATA")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "."
			}
			base = filepath.Join(home, "AppData", "Local")
		}

	default:
		base = os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "."
			}
			base = filepath.Join(home, ".local", "share")
		}
	}

	path := filepath.Join(base, appDirName)
	_ = os.MkdirAll(path, 0700)

	return path
}

// HistoryDBPath returns the path to the persisted shell history database.
func HistoryDBPath() string {
	return filepath.Join(AppLocalDataDir(), "history.db")
}

// PluginsDir returns the directory scanned for *.plugin.yaml manifests.
func PluginsDir() string {
	return filepath.Join(AppDataDir(), "plugins")
}

// LogFilePath returns the path to the application log file.
func LogFilePath() string {
	return filepath.Join(AppDataDir(), "plinth.log")
}
