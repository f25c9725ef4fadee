package settings

import (
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Backends lists the names accepted by Open.
func Backends() []string {
	return []string{BackendJSON, BackendSQLite}
}

// Open returns the Store for backend, keeping its files under dir.
//
//nolint:ireturn // Callers depend only on the Store contract.
func Open(backend, dir string, log *zap.Logger) (Store, error) {
	switch backend {
	case BackendJSON:
		return NewJSONStore(osfs.New(dir), log), nil
	case BackendSQLite:
		store, err := OpenSQLite(filepath.Join(dir, SQLiteFileName), log)
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("%w %q: must be one of %v", ErrUnknownBackend, backend, Backends())
	}
}
