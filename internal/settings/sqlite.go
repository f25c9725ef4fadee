package settings

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteFileName is the database file used by SQLiteStore.
const SQLiteFileName = "settings.db"

const schema = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore keeps settings as rows of a key/value table.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens or creates the settings database at path.
func OpenSQLite(path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating settings directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening settings database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("initializing settings schema: %w", err)
	}

	log.Debug("opened settings database", zap.String("path", path))

	return &SQLiteStore{db: db, log: log}, nil
}

// Load reads all stored keys. Absent keys fall back to defaults.
func (s *SQLiteStore) Load(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return Settings{}, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]any)

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, fmt.Errorf("scanning settings row: %w", err)
		}

		values[key] = value
	}

	if err := rows.Err(); err != nil {
		return Settings{}, fmt.Errorf("iterating settings: %w", err)
	}

	return fromValues(values), nil
}

// Save upserts every field in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, settings Settings) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after Commit is a no-op

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for key, value := range map[string]string{
		KeyTheme:    settings.Theme,
		KeyLanguage: settings.Language,
	} {
		if _, err := stmt.ExecContext(ctx, key, value); err != nil {
			return fmt.Errorf("saving %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
