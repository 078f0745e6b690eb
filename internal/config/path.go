// Package config loads application settings from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultDatabasePath is where the report ledger lives unless database.path is set.
const DefaultDatabasePath = "~/.local/share/bay/bay.db"

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DatabasePath returns the expanded SQLite path. The special name ":memory:"
// is passed through untouched.
func DatabasePath() string {
	path := viper.GetString("database.path")
	if path == "" {
		path = DefaultDatabasePath
	}
	if path == ":memory:" {
		return path
	}
	return ExpandPath(path)
}

// RulesPath returns the optional YAML rule table path, or "" for the built-in rules.
func RulesPath() string {
	return ExpandPath(viper.GetString("rules.path"))
}

// TokenFile returns where the Sheets OAuth2 token is cached.
func TokenFile() string {
	if v := viper.GetString("sheets.token_file"); v != "" {
		return ExpandPath(v)
	}
	return ExpandPath("~/.config/bay/sheets-token.json")
}
