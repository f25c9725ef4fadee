package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"
)

// JSONFileName is the settings file written by JSONStore.
const JSONFileName = ".settings.json"

// JSONStore keeps settings as a pretty-printed JSON document on a billy filesystem.
type JSONStore struct {
	fs   billy.Filesystem
	name string
	log  *zap.Logger
}

// NewJSONStore creates a store writing JSONFileName at the root of fs.
func NewJSONStore(fs billy.Filesystem, log *zap.Logger) *JSONStore {
	if log == nil {
		log = zap.NewNop()
	}

	return &JSONStore{fs: fs, name: JSONFileName, log: log}
}

// Load reads the settings file. A missing or malformed file yields defaults.
func (s *JSONStore) Load(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}

	data, err := util.ReadFile(s.fs, s.name)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug("settings file missing, using defaults", zap.String("file", s.fs.Join(s.fs.Root(), s.name)))

		return Default(), nil
	}

	if err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		s.log.Warn("settings file is corrupt, using defaults", zap.Error(err))

		return Default(), nil
	}

	return fromValues(values), nil
}

// Save writes the settings file. The filesystem creates missing parent
// directories on open.
func (s *JSONStore) Save(ctx context.Context, settings Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := util.WriteFile(s.fs, s.name, data, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}

	return nil
}

// Close is a no-op; the filesystem holds no open handles between calls.
func (s *JSONStore) Close() error {
	return nil
}
