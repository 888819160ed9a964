package topo

import (
	"slices"
	"strconv"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// AddPosi appends a position and returns its index.
func (s *Store) AddPosi() int {
	s.t.Posis = append(s.t.Posis, Posi{})
	return len(s.t.Posis) - 1
}

// AddVert appends a vertex at posi. The vertex has no owner until an edge or
// point claims it.
func (s *Store) AddVert(posi int) (int, error) {
	if err := s.active(types.Posi, posi); err != nil {
		return None, err
	}
	v := len(s.t.Verts)
	s.t.Verts = append(s.t.Verts, Vert{Posi: posi, Point: None})
	s.t.Posis[posi].Verts = insertSorted(s.t.Posis[posi].Verts, v)
	return v, nil
}

// AddTri appends a render triangle over three distinct vertices. The
// triangle is unowned until a face claims it.
func (s *Store) AddTri(v0, v1, v2 int) (int, error) {
	verts := [3]int{v0, v1, v2}
	if err := s.activeAll(types.Vert, verts[:]); err != nil {
		return None, err
	}
	if v0 == v1 || v1 == v2 || v0 == v2 {
		return None, &types.InvalidCardinalityError{
			Kind: types.Tri, Index: None, Relation: "Tri->Vert", Want: "3 distinct", Got: distinct(verts[:]),
		}
	}
	tr := len(s.t.Tris)
	s.t.Tris = append(s.t.Tris, Tri{Verts: verts, Face: None})
	for _, v := range verts {
		s.t.Verts[v].Tris = insertSorted(s.t.Verts[v].Tris, tr)
	}
	return tr, nil
}

// AddEdge appends an edge from start to end. The edge takes the outgoing slot
// of start and the incoming slot of end. A vertex owned by a point, or one
// already holding an edge in the same role, is rejected.
func (s *Store) AddEdge(start, end int) (int, error) {
	if err := s.activeAll(types.Vert, []int{start, end}); err != nil {
		return None, err
	}
	if start == end {
		return None, &types.InvalidCardinalityError{
			Kind: types.Edge, Index: None, Relation: "Edge->Vert", Want: "2 distinct", Got: 1,
		}
	}
	if err := s.edgeSlotFree(start, 0); err != nil {
		return None, err
	}
	if err := s.edgeSlotFree(end, 1); err != nil {
		return None, err
	}
	e := len(s.t.Edges)
	s.t.Edges = append(s.t.Edges, Edge{Verts: [2]int{start, end}, Wire: None})
	sv := &s.t.Verts[start]
	sv.Edges = append(sv.Edges, e)
	ev := &s.t.Verts[end]
	ev.Edges = slices.Insert(ev.Edges, 0, e)
	return e, nil
}

// edgeSlotFree checks that v can take one more edge in which it is the
// start (role 0) or end (role 1) vertex.
func (s *Store) edgeSlotFree(v, role int) error {
	r := s.t.Verts[v]
	if r.Point != None {
		return &types.InvalidCardinalityError{
			Kind: types.Vert, Index: v, Relation: "Vert->Point", Want: "0 when edge-owned", Got: 1,
		}
	}
	if len(r.Edges) >= 2 {
		return &types.InvalidCardinalityError{
			Kind: types.Vert, Index: v, Relation: "Vert->Edge", Want: "at most 2", Got: len(r.Edges) + 1,
		}
	}
	for _, e := range r.Edges {
		if s.t.Edges[e].Verts[role] == v {
			rel := "Vert->Edge outgoing"
			if role == 1 {
				rel = "Vert->Edge incoming"
			}
			return &types.InvalidCardinalityError{
				Kind: types.Vert, Index: v, Relation: rel, Want: "at most 1", Got: 2,
			}
		}
	}
	return nil
}

// AddWire appends a wire over an ordered chain of unowned edges. Consecutive
// edges must meet: the end vertex of each edge is the start of the next.
func (s *Store) AddWire(edges []int) (int, error) {
	if len(edges) == 0 {
		return None, &types.InvalidCardinalityError{
			Kind: types.Wire, Index: None, Relation: "Wire->Edge", Want: "at least 1", Got: 0,
		}
	}
	if err := s.activeAll(types.Edge, edges); err != nil {
		return None, err
	}
	if hasDuplicates(edges) {
		return None, &types.InvalidCardinalityError{
			Kind: types.Wire, Index: None, Relation: "Wire->Edge", Want: "distinct edges", Got: distinct(edges),
		}
	}
	for _, e := range edges {
		if s.t.Edges[e].Wire != None {
			return None, &types.InvalidCardinalityError{
				Kind: types.Edge, Index: e, Relation: "Edge->Wire", Want: "1", Got: 2,
			}
		}
	}
	for i := 0; i+1 < len(edges); i++ {
		if s.t.Edges[edges[i]].Verts[1] != s.t.Edges[edges[i+1]].Verts[0] {
			return None, &types.ChainError{Position: i, Edge: edges[i], Next: edges[i+1]}
		}
	}
	w := len(s.t.Wires)
	s.t.Wires = append(s.t.Wires, Wire{Edges: slices.Clone(edges), Face: None, Pline: None})
	for _, e := range edges {
		s.t.Edges[e].Wire = w
	}
	return w, nil
}

// AddFace appends a face bounded by wires (outer first, then holes) with
// the given render triangles. Wires and triangles must be unowned.
func (s *Store) AddFace(wires, tris []int) (int, error) {
	if len(wires) == 0 {
		return None, &types.InvalidCardinalityError{
			Kind: types.Face, Index: None, Relation: "Face->Wire", Want: "at least 1", Got: 0,
		}
	}
	if err := s.activeAll(types.Wire, wires); err != nil {
		return None, err
	}
	if err := s.activeAll(types.Tri, tris); err != nil {
		return None, err
	}
	if hasDuplicates(wires) {
		return None, &types.InvalidCardinalityError{
			Kind: types.Face, Index: None, Relation: "Face->Wire", Want: "distinct wires", Got: distinct(wires),
		}
	}
	if hasDuplicates(tris) {
		return None, &types.InvalidCardinalityError{
			Kind: types.Face, Index: None, Relation: "Face->Tri", Want: "distinct triangles", Got: distinct(tris),
		}
	}
	for _, w := range wires {
		if err := s.wireUnowned(w); err != nil {
			return None, err
		}
	}
	for _, tr := range tris {
		if s.t.Tris[tr].Face != None {
			return None, &types.InvalidCardinalityError{
				Kind: types.Tri, Index: tr, Relation: "Tri->Face", Want: "1", Got: 2,
			}
		}
	}
	f := len(s.t.Faces)
	s.t.Faces = append(s.t.Faces, Face{Wires: slices.Clone(wires), Tris: slices.Clone(tris), Pgon: None})
	for _, w := range wires {
		s.t.Wires[w].Face = f
	}
	for _, tr := range tris {
		s.t.Tris[tr].Face = f
	}
	return f, nil
}

func (s *Store) wireUnowned(w int) error {
	r := s.t.Wires[w]
	if r.Face != None || r.Pline != None {
		return &types.InvalidCardinalityError{
			Kind: types.Wire, Index: w, Relation: "Wire->Face|Pline", Want: "1", Got: 2,
		}
	}
	return nil
}

// AddPoint appends a point owning vert. The vertex must have no owner.
func (s *Store) AddPoint(vert int) (int, error) {
	if err := s.active(types.Vert, vert); err != nil {
		return None, err
	}
	r := s.t.Verts[vert]
	if r.Point != None || len(r.Edges) > 0 {
		return None, &types.InvalidCardinalityError{
			Kind: types.Vert, Index: vert, Relation: "Vert->Point|Edge", Want: "1 owner", Got: 2,
		}
	}
	p := len(s.t.Points)
	s.t.Points = append(s.t.Points, Point{Vert: vert})
	s.t.Verts[vert].Point = p
	return p, nil
}

// AddPline appends a polyline owning an unowned wire.
func (s *Store) AddPline(wire int) (int, error) {
	if err := s.active(types.Wire, wire); err != nil {
		return None, err
	}
	if err := s.wireUnowned(wire); err != nil {
		return None, err
	}
	pl := len(s.t.Plines)
	s.t.Plines = append(s.t.Plines, Pline{Wire: wire})
	s.t.Wires[wire].Pline = pl
	return pl, nil
}

// AddPgon appends a polygon owning an unowned face.
func (s *Store) AddPgon(face int) (int, error) {
	if err := s.active(types.Face, face); err != nil {
		return None, err
	}
	if s.t.Faces[face].Pgon != None {
		return None, &types.InvalidCardinalityError{
			Kind: types.Face, Index: face, Relation: "Face->Pgon", Want: "1", Got: 2,
		}
	}
	pg := len(s.t.Pgons)
	s.t.Pgons = append(s.t.Pgons, Pgon{Face: face})
	s.t.Faces[face].Pgon = pg
	return pg, nil
}

// AddColl appends an empty collection under parent, which may be None.
func (s *Store) AddColl(parent int) (int, error) {
	if parent != None {
		if err := s.active(types.Coll, parent); err != nil {
			return None, err
		}
	}
	c := len(s.t.Colls)
	s.t.Colls = append(s.t.Colls, Coll{Parent: parent})
	if parent != None {
		s.t.Colls[parent].Children = append(s.t.Colls[parent].Children, c)
	}
	return c, nil
}

// Create appends an entity of kind with the given down-links and returns its
// index. The down-link lists per kind are:
//
//	Posi:  none
//	Vert:  [posi]
//	Tri:   [v0 v1 v2]
//	Edge:  [start end]
//	Wire:  [edges...]
//	Face:  [wires...] [tris...]
//	Point: [vert]   Pline: [wire]   Pgon: [face]
//	Coll:  [] or [parent]
//
// A list of the wrong length, or more lists than the kind takes, returns an
// *types.InvalidCardinalityError.
func (s *Store) Create(kind types.Kind, down ...[]int) (int, error) {
	if !kind.Valid() {
		return None, types.ErrUnknownKind
	}
	if err := arity(kind, kind.String()+"->", down, downLists(kind)); err != nil {
		return None, err
	}
	arg := func(i int) []int {
		if i < len(down) {
			return down[i]
		}
		return nil
	}
	switch kind {
	case types.Posi:
		return s.AddPosi(), nil
	case types.Vert:
		if err := exactly(kind, "Vert->Posi", arg(0), 1); err != nil {
			return None, err
		}
		return s.AddVert(arg(0)[0])
	case types.Tri:
		if err := exactly(kind, "Tri->Vert", arg(0), 3); err != nil {
			return None, err
		}
		v := arg(0)
		return s.AddTri(v[0], v[1], v[2])
	case types.Edge:
		if err := exactly(kind, "Edge->Vert", arg(0), 2); err != nil {
			return None, err
		}
		v := arg(0)
		return s.AddEdge(v[0], v[1])
	case types.Wire:
		return s.AddWire(arg(0))
	case types.Face:
		return s.AddFace(arg(0), arg(1))
	case types.Point:
		if err := exactly(kind, "Point->Vert", arg(0), 1); err != nil {
			return None, err
		}
		return s.AddPoint(arg(0)[0])
	case types.Pline:
		if err := exactly(kind, "Pline->Wire", arg(0), 1); err != nil {
			return None, err
		}
		return s.AddPline(arg(0)[0])
	case types.Pgon:
		if err := exactly(kind, "Pgon->Face", arg(0), 1); err != nil {
			return None, err
		}
		return s.AddPgon(arg(0)[0])
	case types.Coll:
		p := arg(0)
		if len(p) > 1 {
			return None, &types.InvalidCardinalityError{
				Kind: kind, Index: None, Relation: "Coll->Parent", Want: "0 or 1", Got: len(p),
			}
		}
		if len(p) == 0 {
			return s.AddColl(None)
		}
		return s.AddColl(p[0])
	default:
		return None, types.ErrUnknownKind
	}
}

// downLists returns the number of down-link lists Create accepts for kind.
func downLists(kind types.Kind) int {
	switch kind {
	case types.Posi:
		return 0
	case types.Face:
		return 2
	default:
		return 1
	}
}

func exactly(kind types.Kind, rel string, links []int, n int) error {
	if len(links) != n {
		return &types.InvalidCardinalityError{
			Kind: kind, Index: None, Relation: rel, Want: strconv.Itoa(n), Got: len(links),
		}
	}
	return nil
}

func arity(kind types.Kind, rel string, down [][]int, limit int) error {
	if len(down) > limit {
		return &types.InvalidCardinalityError{
			Kind: kind, Index: None, Relation: rel, Want: "at most " + strconv.Itoa(limit) + " link lists", Got: len(down),
		}
	}
	return nil
}

// distinct counts distinct values in s.
func distinct(s []int) int {
	c := slices.Clone(s)
	slices.Sort(c)
	return len(slices.Compact(c))
}
