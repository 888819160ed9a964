package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/brep/pkg/sqlite"
	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// withBackend attaches the configured backend, runs fn and detaches.
func (a *app) withBackend(fn func(sqlite.Backend) error) error {
	cfg, err := a.backendConfig()
	if err != nil {
		return userError(err)
	}
	b := sqlite.NewBackend(sqlite.WithLogger(a.log))
	if err := b.Attach(cfg); err != nil {
		return sysError(fmt.Errorf("attach backend: %w", err))
	}
	defer b.Detach()
	return fn(b)
}

// loadModel resolves ref as a model ID or name and loads its store.
func (a *app) loadModel(b sqlite.Backend, ref string) (types.Model, *topo.Store, error) {
	m, err := b.FindModel(ref)
	if errors.Is(err, types.ErrModelNotFound) {
		return types.Model{}, nil, userError(err)
	}
	if err != nil {
		return types.Model{}, nil, sysError(err)
	}
	s, err := b.LoadModel(m.ID, topo.WithLogger(a.log))
	if err != nil {
		return types.Model{}, nil, sysError(fmt.Errorf("load model %s: %w", m.ID, err))
	}
	return m, s, nil
}

// emit writes v as indented JSON in --json mode, otherwise calls text.
func (a *app) emit(w io.Writer, v any, text func(io.Writer)) error {
	if !a.jsonMode {
		text(w)
		return nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func parseKind(s string) (types.Kind, error) {
	k, err := types.ParseKind(s)
	if err != nil {
		return 0, userError(err)
	}
	return k, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, userError(fmt.Errorf("invalid index %q", s))
	}
	return i, nil
}

// requireActive rejects a query source that is not an active entity.
func requireActive(s *topo.Store, kind types.Kind, idx int) error {
	if !s.EntExists(kind, idx) {
		return userError(fmt.Errorf("%s %d is %s", kind, idx, s.State(kind, idx)))
	}
	return nil
}

// corrupted marks a navigation failure on a model the CLI did not build.
func corrupted(err error) error {
	return sysError(fmt.Errorf("%w: %w", types.ErrModelCorrupted, err))
}

func joinInts(idxs []int) string {
	parts := make([]string, len(idxs))
	for i, v := range idxs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
