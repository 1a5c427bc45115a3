package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/prescripto/prescripto/internal/constants"
	"github.com/prescripto/prescripto/internal/migration"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Init opens (creating if needed) the database, migrates it and fills in
// default settings. It is safe to call on an existing database.
func (s *Store) Init() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	runner, err := s.Runner()
	if err != nil {
		return err
	}
	if _, err := runner.Apply(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	settings, err := s.GetSettings()
	if err != nil || settings.CurrencySymbol == "" {
		defaults := models.Settings{
			CurrencySymbol:       constants.DefaultCurrencySymbol,
			RefreshIntervalSec:   constants.DefaultRefreshIntervalSec,
			NotificationsEnabled: constants.DefaultNotificationsEnabled,
			Timezone:             constants.DefaultTimezone,
		}
		if err := s.SaveSettings(defaults); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}
	return nil
}

// Load opens an existing database and checks its schema version.
func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("local store not initialized at %s", s.path)
	}
	if err := s.open(); err != nil {
		return err
	}
	runner, err := s.Runner()
	if err != nil {
		return err
	}
	return runner.Validate()
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps writes serialized
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

// Runner returns a migration runner over the embedded sqlite migrations.
func (s *Store) Runner() (*migration.Runner, error) {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, sub), nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying connection, nil before Init or Load.
func (s *Store) DB() *sql.DB {
	return s.db
}
