package sqlonexcel

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

const (
	// driverName is the database/sql driver used for every connection
	driverName = "sqlite"

	// dbExt is the extension of database files in the storage directory
	dbExt = ".db"

	// DataDirEnv overrides the storage directory when set
	DataDirEnv = "SQL_ON_EXCEL_DATA_DIR"

	// defaultDataDirName is the storage directory created next to the executable
	defaultDataDirName = "Databases"
)

// DefaultDataDir resolves the storage directory: the DataDirEnv environment
// variable when set, otherwise a "Databases" directory next to the running
// executable.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), defaultDataDirName), nil
}

// Store manages SQLite database files inside a single storage directory.
// A Store opens one connection per operation and closes it before the
// operation returns. It is not safe for concurrent use.
type Store struct {
	dir    string
	logger *zap.SugaredLogger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for operation milestones. The default
// logger discards everything.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store over the given storage directory. The directory
// does not need to exist yet; Build creates it on demand.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// DatabasePath returns the file path for the named database.
func (s *Store) DatabasePath(name string) string {
	return filepath.Join(s.dir, name+dbExt)
}

// Exists reports whether the named database file exists.
func (s *Store) Exists(name string) bool {
	info, err := os.Stat(s.DatabasePath(name))
	return err == nil && !info.IsDir()
}

// Build creates the named database file, creating the storage directory
// first if needed. Building a database that already exists is a no-op.
func (s *Store) Build(ctx context.Context, name string) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("create storage directory %s: %w", s.dir, err)
	}

	// Opening a connection creates the file; SQLite itself is the source of
	// truth for whether the path is usable.
	db, err := sql.Open(driverName, s.DatabasePath(name))
	if err != nil {
		return fmt.Errorf("open database %q: %w", name, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("create database %q: %w", name, err)
	}

	s.logger.Debugw("built database", "database", name, "path", s.DatabasePath(name))
	return nil
}

// Delete removes the named database file.
func (s *Store) Delete(name string) error {
	path := s.DatabasePath(name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrDatabaseNotFound, name)
		}
		return fmt.Errorf("stat database %q: %w", name, err)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete database %q: %w", name, err)
	}

	s.logger.Debugw("deleted database", "database", name)
	return nil
}

// List returns the database file names in the storage directory in
// lexicographic order. A missing storage directory yields an empty list.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read storage directory %s: %w", s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ClearAll removes the storage directory and everything in it. Clearing a
// store whose directory does not exist is a no-op.
func (s *Store) ClearAll() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("clear storage directory %s: %w", s.dir, err)
	}

	s.logger.Debugw("cleared storage directory", "dir", s.dir)
	return nil
}

// openDatabase opens a connection to an existing database. The caller owns
// the returned handle and must close it.
func (s *Store) openDatabase(ctx context.Context, name string) (*sql.DB, error) {
	if !s.Exists(name) {
		return nil, fmt.Errorf("%w: %q", ErrDatabaseNotFound, name)
	}

	db, err := sql.Open(driverName, s.DatabasePath(name))
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", name, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close() // Ignore close error during error handling
		return nil, fmt.Errorf("connect to database %q: %w", name, err)
	}
	return db, nil
}
