// Package sqlite persists topology models in SQLite, with one JSONL file per
// model in the data directory as the source of truth.
//
// Attach recreates the database from the JSONL files; every save writes the
// database rows and the model file together. Each table slot, tombstoned
// slots included, is stored under its kind and index, so a loaded model
// hands out exactly the indices it was saved with.
package sqlite

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/brep/pkg/types"
)

const (
	dbFile   = "brep.db"
	modelExt = ".jsonl"
	dbDriver = "sqlite"
	dirPerm  = 0o755
)

// Backend stores models in SQLite as the query engine and JSONL files as the
// source of truth. A Backend is safe for concurrent use.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger for attach, save and load events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.log = l
		}
	}
}

// NewBackend creates a detached backend. Call Attach before use.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach opens the backend in config.DataDir, creating the directory if
// needed. The database is rebuilt from the model files found there.
// Returns types.ErrAlreadyAttached if the backend is attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.DataDir == "" {
		config.DataDir = "."
	}
	if err := os.MkdirAll(config.DataDir, dirPerm); err != nil {
		return err
	}

	// The database is a cache of the model files; start from scratch.
	dbPath := filepath.Join(config.DataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open(dbDriver, dbPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	n, err := loadAllJSONL(db, config.DataDir, b.log)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true
	b.log.Info("backend attached", "data_dir", config.DataDir, "models", n)
	return nil
}

// Detach closes the database. Detach is idempotent. After Detach, model
// operations return types.ErrBackendDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.log.Debug("backend detached", "data_dir", b.config.DataDir)
	return nil
}

// DataDir returns the directory of the attached backend.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

func createSchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

func (b *Backend) modelPath(id string) string {
	return filepath.Join(b.config.DataDir, id+modelExt)
}

// generateUUID returns a new UUID v7 for a model ID.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to v4 if the clock source fails.
		return uuid.New().String()
	}
	return id.String()
}
