// Package settings persists the user's theme and language behind a
// backend-agnostic Store.
package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// Supported themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Defaults applied when a stored value is missing or unreadable.
const (
	DefaultTheme    = ThemeLight
	DefaultLanguage = "en"
)

// Keys used by every backend.
const (
	KeyTheme    = "theme"
	KeyLanguage = "language"
)

var (
	// ErrInvalidSettings indicates a settings value failed validation.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrUnknownBackend indicates Open was asked for a backend it does not know.
	ErrUnknownBackend = errors.New("unknown settings backend")
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// Settings is the persisted user preference record.
type Settings struct {
	Theme    string `json:"theme"`
	Language string `json:"language"`
}

// Default returns the settings used when nothing has been stored.
func Default() Settings {
	return Settings{Theme: DefaultTheme, Language: DefaultLanguage}
}

// Validate checks that the theme is known and the language looks like an
// ISO 639 code.
func (s Settings) Validate() error {
	if !validTheme(s.Theme) {
		return fmt.Errorf("%w: theme %q must be %q or %q", ErrInvalidSettings, s.Theme, ThemeLight, ThemeDark)
	}

	if !languagePattern.MatchString(s.Language) {
		return fmt.Errorf("%w: language %q must be a lowercase 2-3 letter code", ErrInvalidSettings, s.Language)
	}

	return nil
}

// Toggle returns a copy with the theme switched between light and dark.
// Unknown themes switch to light.
func (s Settings) Toggle() Settings {
	if s.Theme == ThemeLight {
		s.Theme = ThemeDark
	} else {
		s.Theme = ThemeLight
	}

	return s
}

// fromValues builds Settings from loosely typed stored values. Each field
// falls back to its default when absent or invalid, so one bad value never
// blocks saving a change to the other.
func fromValues(values map[string]any) Settings {
	out := Default()

	if v, ok := values[KeyTheme].(string); ok && validTheme(v) {
		out.Theme = v
	}

	if v, ok := values[KeyLanguage].(string); ok && languagePattern.MatchString(v) {
		out.Language = v
	}

	return out
}

func validTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// Store loads and saves Settings.
//
// Load never fails because of missing or corrupt data; it returns defaults
// instead. Errors are reserved for the backend itself being unusable.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Close() error
}
