// Package topo implements the topology store: per-kind indexed tables of
// down-links (container to constituents) and up-links (constituent to
// container), entity lifecycle, and reference-validity enforcement.
//
// Every mutation validates all of its arguments before it changes anything,
// then writes both sides of each link it touches, so a failed call leaves the
// store unchanged and a successful one is never half-applied.
//
// A Store is not safe for concurrent use. Callers must not mutate it while a
// navigation or check is running.
package topo

import (
	"io"
	"log/slog"
	"slices"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// Reader gives read access to a model's tables. *Store and *Tables both
// implement it.
type Reader interface {
	Tables() *Tables
}

var (
	_ Reader = (*Store)(nil)
	_ Reader = (*Tables)(nil)
)

// Store owns the entity tables of one model.
type Store struct {
	t   *Tables
	log *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for lifecycle events. The default discards
// all output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	return Restore(NewTables(), opts...)
}

// Restore wraps existing tables in a store without validating their links.
// Persistence loaders use it; run a check.Checker over the result before
// trusting it.
func Restore(t *Tables, opts ...Option) *Store {
	s := &Store{
		t:   t,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tables returns the store's tables. The result must not be modified.
func (s *Store) Tables() *Tables { return s.t }

// Reset drops every entity. Indices handed out before Reset are invalid
// afterwards.
func (s *Store) Reset() {
	s.t = NewTables()
	s.log.Debug("store reset")
}

// NumEnts returns the number of slots of a kind. With includeTombstoned the
// count includes tombstoned holes.
func (s *Store) NumEnts(kind types.Kind, includeTombstoned bool) int {
	n := s.t.Len(kind)
	if includeTombstoned {
		return n
	}
	return n - s.t.NumDead(kind)
}

// GetEnts returns the indices of a kind in ascending order. With
// includeTombstoned the result also lists tombstoned slots.
func (s *Store) GetEnts(kind types.Kind, includeTombstoned bool) []int {
	n := s.t.Len(kind)
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if includeTombstoned || s.t.IsActive(kind, i) {
			out = append(out, i)
		}
	}
	return out
}

// EntExists reports whether (kind, idx) is active.
func (s *Store) EntExists(kind types.Kind, idx int) bool {
	return s.t.IsActive(kind, idx)
}

// State returns the slot state of (kind, idx).
func (s *Store) State(kind types.Kind, idx int) types.SlotState {
	return s.t.State(kind, idx)
}

// Get returns a copy of the record at (kind, idx). Callers type-assert to the
// record struct of the kind (Posi, Vert, ...). Returns a
// *types.DanglingReferenceError if the slot is not active.
func (s *Store) Get(kind types.Kind, idx int) (any, error) {
	if !kind.Valid() {
		return nil, types.ErrUnknownKind
	}
	if err := s.active(kind, idx); err != nil {
		return nil, err
	}
	switch kind {
	case types.Posi:
		return s.t.Posis[idx].clone(), nil
	case types.Tri:
		return s.t.Tris[idx], nil
	case types.Vert:
		return s.t.Verts[idx].clone(), nil
	case types.Edge:
		return s.t.Edges[idx], nil
	case types.Wire:
		return s.t.Wires[idx].clone(), nil
	case types.Face:
		return s.t.Faces[idx].clone(), nil
	case types.Point:
		return s.t.Points[idx].clone(), nil
	case types.Pline:
		return s.t.Plines[idx].clone(), nil
	case types.Pgon:
		return s.t.Pgons[idx].clone(), nil
	default:
		return s.t.Colls[idx].clone(), nil
	}
}

// Posi returns a copy of position i.
func (s *Store) Posi(i int) (Posi, error) {
	if err := s.active(types.Posi, i); err != nil {
		return Posi{}, err
	}
	return s.t.Posis[i].clone(), nil
}

// Tri returns triangle i.
func (s *Store) Tri(i int) (Tri, error) {
	if err := s.active(types.Tri, i); err != nil {
		return Tri{}, err
	}
	return s.t.Tris[i], nil
}

// Vert returns a copy of vertex i.
func (s *Store) Vert(i int) (Vert, error) {
	if err := s.active(types.Vert, i); err != nil {
		return Vert{}, err
	}
	return s.t.Verts[i].clone(), nil
}

// Edge returns edge i.
func (s *Store) Edge(i int) (Edge, error) {
	if err := s.active(types.Edge, i); err != nil {
		return Edge{}, err
	}
	return s.t.Edges[i], nil
}

// Wire returns a copy of wire i.
func (s *Store) Wire(i int) (Wire, error) {
	if err := s.active(types.Wire, i); err != nil {
		return Wire{}, err
	}
	return s.t.Wires[i].clone(), nil
}

// Face returns a copy of face i.
func (s *Store) Face(i int) (Face, error) {
	if err := s.active(types.Face, i); err != nil {
		return Face{}, err
	}
	return s.t.Faces[i].clone(), nil
}

// Point returns a copy of point i.
func (s *Store) Point(i int) (Point, error) {
	if err := s.active(types.Point, i); err != nil {
		return Point{}, err
	}
	return s.t.Points[i].clone(), nil
}

// Pline returns a copy of polyline i.
func (s *Store) Pline(i int) (Pline, error) {
	if err := s.active(types.Pline, i); err != nil {
		return Pline{}, err
	}
	return s.t.Plines[i].clone(), nil
}

// Pgon returns a copy of polygon i.
func (s *Store) Pgon(i int) (Pgon, error) {
	if err := s.active(types.Pgon, i); err != nil {
		return Pgon{}, err
	}
	return s.t.Pgons[i].clone(), nil
}

// Coll returns a copy of collection i.
func (s *Store) Coll(i int) (Coll, error) {
	if err := s.active(types.Coll, i); err != nil {
		return Coll{}, err
	}
	return s.t.Colls[i].clone(), nil
}

// active returns a *types.DanglingReferenceError unless (kind, idx) is active.
func (s *Store) active(kind types.Kind, idx int) error {
	return CheckActive(s.t, kind, idx)
}

// CheckActive returns a *types.DanglingReferenceError unless (kind, idx) is an
// active slot of t.
func CheckActive(t *Tables, kind types.Kind, idx int) error {
	st := t.State(kind, idx)
	if st == types.Active {
		return nil
	}
	return &types.DanglingReferenceError{Kind: kind, Index: idx, State: st}
}

// activeAll checks every index of idxs.
func (s *Store) activeAll(kind types.Kind, idxs []int) error {
	for _, i := range idxs {
		if err := s.active(kind, i); err != nil {
			return err
		}
	}
	return nil
}

// tombstone marks a slot dead and clears its record.
func (s *Store) tombstone(kind types.Kind, idx int) {
	switch kind {
	case types.Posi:
		s.t.Posis[idx] = Posi{}
	case types.Tri:
		s.t.Tris[idx] = emptyTri
	case types.Vert:
		s.t.Verts[idx] = emptyVert
	case types.Edge:
		s.t.Edges[idx] = emptyEdge
	case types.Wire:
		s.t.Wires[idx] = emptyWire
	case types.Face:
		s.t.Faces[idx] = emptyFace
	case types.Point:
		s.t.Points[idx] = emptyPoint
	case types.Pline:
		s.t.Plines[idx] = emptyPline
	case types.Pgon:
		s.t.Pgons[idx] = emptyPgon
	case types.Coll:
		s.t.Colls[idx] = emptyColl
	}
	s.t.deadSet(kind).Add(uint32(idx))
	s.log.Debug("tombstone", "kind", kind.String(), "index", idx)
}

// Tombstone permanently removes an entity. The entity must be active and fully
// detached: no down-links of its own and no container holding it. Use Release
// and Disown first, or one of the Del* cascades.
func (s *Store) Tombstone(kind types.Kind, idx int) error {
	if !kind.Valid() {
		return types.ErrUnknownKind
	}
	if err := s.active(kind, idx); err != nil {
		return err
	}
	if rel, linked := s.linked(kind, idx); linked {
		return &types.StillReferencedError{Kind: kind, Index: idx, Relation: rel}
	}
	s.tombstone(kind, idx)
	return nil
}

// linked returns the first relation through which (kind, idx) still holds or
// is held by another entity.
func (s *Store) linked(kind types.Kind, idx int) (string, bool) {
	t := s.t
	switch kind {
	case types.Posi:
		if len(t.Posis[idx].Verts) > 0 {
			return "Posi->Vert", true
		}
	case types.Tri:
		r := t.Tris[idx]
		if slices.ContainsFunc(r.Verts[:], isSet) {
			return "Tri->Vert", true
		}
		if r.Face != None {
			return "Tri->Face", true
		}
	case types.Vert:
		r := t.Verts[idx]
		switch {
		case r.Posi != None:
			return "Vert->Posi", true
		case r.Point != None:
			return "Vert->Point", true
		case len(r.Edges) > 0:
			return "Vert->Edge", true
		case len(r.Tris) > 0:
			return "Vert->Tri", true
		}
	case types.Edge:
		r := t.Edges[idx]
		if slices.ContainsFunc(r.Verts[:], isSet) {
			return "Edge->Vert", true
		}
		if r.Wire != None {
			return "Edge->Wire", true
		}
	case types.Wire:
		r := t.Wires[idx]
		switch {
		case len(r.Edges) > 0:
			return "Wire->Edge", true
		case r.Face != None:
			return "Wire->Face", true
		case r.Pline != None:
			return "Wire->Pline", true
		}
	case types.Face:
		r := t.Faces[idx]
		switch {
		case len(r.Wires) > 0:
			return "Face->Wire", true
		case len(r.Tris) > 0:
			return "Face->Tri", true
		case r.Pgon != None:
			return "Face->Pgon", true
		}
	case types.Point:
		r := t.Points[idx]
		if r.Vert != None {
			return "Point->Vert", true
		}
		if len(r.Colls) > 0 {
			return "Point->Coll", true
		}
	case types.Pline:
		r := t.Plines[idx]
		if r.Wire != None {
			return "Pline->Wire", true
		}
		if len(r.Colls) > 0 {
			return "Pline->Coll", true
		}
	case types.Pgon:
		r := t.Pgons[idx]
		if r.Face != None {
			return "Pgon->Face", true
		}
		if len(r.Colls) > 0 {
			return "Pgon->Coll", true
		}
	case types.Coll:
		r := t.Colls[idx]
		switch {
		case r.Parent != None:
			return "Coll->Parent", true
		case len(r.Points) > 0:
			return "Coll->Point", true
		case len(r.Plines) > 0:
			return "Coll->Pline", true
		case len(r.Pgons) > 0:
			return "Coll->Pgon", true
		case len(r.Children) > 0:
			return "Coll->Child", true
		}
	}
	return "", false
}

func isSet(i int) bool { return i != None }
