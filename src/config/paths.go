package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "threadchat"

// DefaultDatabasePath returns the SQLite file under XDG_STATE_HOME.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.StateHome, appName, "chatbot.db")
}

// DefaultConfigPaths returns the config files probed when none is given,
// in increasing precedence.
func DefaultConfigPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		filepath.Join(xdg.ConfigHome, appName, "config.json"),
	}
}
