// Package sqlite exposes the SQLite model backend while keeping its
// implementation internal.
//
//	b := sqlite.NewBackend()
//	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: ".brep-data"}); err != nil {
//	    return err
//	}
//	defer b.Detach()
//	id, err := b.SaveModel("bracket", store)
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/brep/internal/sqlite"
	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// Backend persists topology models. Loaded stores hand out the indices they
// were saved with, tombstoned holes included.
type Backend interface {
	// Attach opens the backend in config.DataDir. Returns
	// types.ErrAlreadyAttached if already attached.
	Attach(config types.Config) error

	// Detach releases the backend. Idempotent.
	Detach() error

	SaveModel(name string, r topo.Reader) (string, error)
	LoadModel(id string, opts ...topo.Option) (*topo.Store, error)
	ListModels() ([]types.Model, error)

	// FindModel resolves a model ID or, failing that, a model name.
	FindModel(ref string) (types.Model, error)
	DeleteModel(id string) error

	ImportJSONL(path, name string) (string, error)
	ExportJSONL(id, path string) error
}

var _ Backend = (*sqlite.Backend)(nil)

// Option configures a backend.
type Option = sqlite.Option

// WithLogger sets the logger for backend events.
func WithLogger(l *slog.Logger) Option { return sqlite.WithLogger(l) }

// NewBackend creates a detached SQLite backend.
func NewBackend(opts ...Option) Backend {
	return sqlite.NewBackend(opts...)
}
