// Package paths resolves the directories the application reads and writes.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// AppName names the per-user subdirectories.
const AppName = "refer"

// Environment variables overriding the resolved directories.
const (
	EnvConfigDir = "REFER_CONFIG_DIR"
	EnvDataDir   = "REFER_DATA_DIR"
	EnvLogDir    = "REFER_LOG_DIR"
)

// Dirs holds the application directories.
type Dirs struct {
	// Config holds the settings store.
	Config string
	// Data is the reference document directory that gets scanned.
	Data string
	// Log receives the application log file.
	Log string
}

// Resolve returns the default directories, letting the environment override
// each one. Non-empty fields of overrides take precedence over both.
func Resolve(overrides Dirs) (Dirs, error) {
	dirs := Dirs{
		Config: firstNonEmpty(overrides.Config, os.Getenv(EnvConfigDir)),
		Data:   firstNonEmpty(overrides.Data, os.Getenv(EnvDataDir)),
		Log:    firstNonEmpty(overrides.Log, os.Getenv(EnvLogDir)),
	}

	if dirs.Config == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Dirs{}, fmt.Errorf("resolving config directory: %w", err)
		}

		dirs.Config = filepath.Join(base, AppName)
	}

	if dirs.Data == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Dirs{}, fmt.Errorf("resolving home directory: %w", err)
		}

		dirs.Data = filepath.Join(home, "Documents", AppName)
	}

	if dirs.Log == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return Dirs{}, fmt.Errorf("resolving cache directory: %w", err)
		}

		dirs.Log = filepath.Join(base, AppName, "logs")
	}

	return dirs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
