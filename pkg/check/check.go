// Package check audits a topology store for structural consistency.
//
// A Checker sweeps every active entity once. It verifies that required
// links are present and point at active slots, that every link is mirrored
// by its reciprocal, that per-kind cardinalities hold, and that each wire's
// edges form a chain whose vertices hold them in the expected slots. Each
// violation becomes one Diagnostic; the sweep never fails.
//
// A mismatch between two entities is reported from one side only. When a
// required back-link is absent altogether, the entity owning that link
// reports it and the other side stays silent, so a single stripped link
// yields a single diagnostic.
package check

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// Diagnostic is one structural violation.
type Diagnostic struct {
	Kind     types.Kind
	Index    int
	Relation string
	Problem  string
}

// String renders the diagnostic as "<Kind> <idx>: <Relation> <problem>.".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %d: %s %s.", d.Kind, d.Index, d.Relation, d.Problem)
}

// Report is the result of one sweep.
type Report struct {
	// Active counts the active entities of each kind.
	Active      [types.NumKinds]int
	Diagnostics []Diagnostic
}

// OK reports whether the sweep found no violations.
func (r Report) OK() bool { return len(r.Diagnostics) == 0 }

// Strings returns the diagnostics in sweep order.
func (r Report) Strings() []string {
	out := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = d.String()
	}
	return out
}

// ByKind groups the diagnostics by the kind of the offending entity.
func (r Report) ByKind() map[types.Kind][]Diagnostic {
	m := make(map[types.Kind][]Diagnostic)
	for _, d := range r.Diagnostics {
		m[d.Kind] = append(m[d.Kind], d)
	}
	return m
}

// Checker audits the tables behind a topo.Reader.
type Checker struct {
	r   topo.Reader
	log *slog.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the logger that receives the sweep summary.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a Checker over r.
func New(r topo.Reader, opts ...Option) *Checker {
	c := &Checker{
		r:   r,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check sweeps the model and returns one string per violation. An empty
// result means the model is sound.
func (c *Checker) Check() []string {
	return c.Report().Strings()
}

// Report sweeps the model and returns the violations with entity counts.
func (c *Checker) Report() Report {
	s := &sweep{t: c.r.Tables()}
	s.run()
	if s.rep.Diagnostics == nil {
		s.rep.Diagnostics = []Diagnostic{}
	}
	attrs := []any{"diagnostics", len(s.rep.Diagnostics)}
	for _, k := range types.Kinds {
		attrs = append(attrs, k.String(), s.rep.Active[k])
	}
	if s.rep.OK() {
		c.log.Info("check complete", attrs...)
	} else {
		c.log.Warn("check found violations", attrs...)
	}
	return s.rep
}

// sweep holds the state of one pass over the tables.
type sweep struct {
	t   *topo.Tables
	rep Report

	// entity being checked, for panic reports
	kind types.Kind
	idx  int
}

func (s *sweep) run() {
	defer func() {
		if r := recover(); r != nil {
			s.add(s.kind, s.idx, "check", fmt.Sprintf("aborted: %v", r))
		}
	}()
	s.each(types.Posi, s.posi)
	s.each(types.Vert, s.vert)
	s.each(types.Tri, s.tri)
	s.each(types.Edge, s.edge)
	s.each(types.Wire, s.wire)
	s.each(types.Face, s.face)
	s.each(types.Point, s.point)
	s.each(types.Pline, s.pline)
	s.each(types.Pgon, s.pgon)
	s.each(types.Coll, s.coll)
	s.kind = types.Wire
	for i := 0; i < s.t.Len(types.Wire); i++ {
		if s.t.IsActive(types.Wire, i) {
			s.idx = i
			s.edgeOrder(i)
		}
	}
}

func (s *sweep) each(kind types.Kind, fn func(int)) {
	s.kind = kind
	for i := 0; i < s.t.Len(kind); i++ {
		if !s.t.IsActive(kind, i) {
			continue
		}
		s.idx = i
		s.rep.Active[kind]++
		fn(i)
	}
}

func (s *sweep) add(kind types.Kind, idx int, rel, problem string) {
	s.rep.Diagnostics = append(s.rep.Diagnostics, Diagnostic{Kind: kind, Index: idx, Relation: rel, Problem: problem})
}

// live reports whether link target (to, j) is active, adding a diagnostic
// naming relation rel of (kind, i) when it is not.
func (s *sweep) live(kind types.Kind, i int, rel string, to types.Kind, j int) bool {
	st := s.t.State(to, j)
	if st == types.Active {
		return true
	}
	s.add(kind, i, rel, fmt.Sprintf("index %d is %s", j, st))
	return false
}

// required reports a missing single-valued link and returns false when j is
// None.
func (s *sweep) required(kind types.Kind, i int, rel string, j int) bool {
	if j == topo.None {
		s.add(kind, i, rel, "missing")
		return false
	}
	return true
}

func (s *sweep) duplicates(kind types.Kind, i int, rel string, links []int) {
	seen := roaring.New()
	for _, l := range links {
		if l >= 0 && !seen.CheckedAdd(uint32(l)) {
			s.add(kind, i, rel, fmt.Sprintf("lists index %d twice", l))
			return
		}
	}
}

// backOne checks that the single back-link field got of target (to, j)
// equals i. An absent back-link is left to the target's own pass.
func (s *sweep) backOne(kind types.Kind, i int, rel string, to types.Kind, j, got int) {
	if got != topo.None && got != i {
		s.add(kind, i, rel, fmt.Sprintf("index is incorrect on %s %d", to, j))
	}
}

// backList checks that the back-link list of target (to, j) holds i.
func (s *sweep) backList(kind types.Kind, i int, rel string, to types.Kind, j int, list []int) {
	if !slices.Contains(list, i) {
		s.add(kind, i, rel, fmt.Sprintf("index is missing on %s %d", to, j))
	}
}

// backSlots checks that the positional vertex slots of edge or triangle
// (to, j) hold i. A slot cleared to None is reported by the edge or
// triangle.
func (s *sweep) backSlots(kind types.Kind, i int, rel string, to types.Kind, j int, slots []int) {
	if !slices.Contains(slots, i) && !slices.Contains(slots, topo.None) {
		s.add(kind, i, rel, fmt.Sprintf("index is missing on %s %d", to, j))
	}
}
