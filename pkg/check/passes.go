package check

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

func (s *sweep) posi(i int) {
	r := s.t.Posis[i]
	s.duplicates(types.Posi, i, "Posi->Vert", r.Verts)
	for _, v := range r.Verts {
		if s.live(types.Posi, i, "Posi->Vert", types.Vert, v) {
			s.backOne(types.Posi, i, "Vert->Posi", types.Vert, v, s.t.Verts[v].Posi)
		}
	}
}

func (s *sweep) vert(i int) {
	r := s.t.Verts[i]
	if s.required(types.Vert, i, "Vert->Posi", r.Posi) && s.live(types.Vert, i, "Vert->Posi", types.Posi, r.Posi) {
		s.backList(types.Vert, i, "Posi->Vert", types.Posi, r.Posi, s.t.Posis[r.Posi].Verts)
	}

	switch hasPoint, hasEdges := r.Point != topo.None, len(r.Edges) > 0; {
	case hasPoint && hasEdges:
		s.add(types.Vert, i, "Vert->Point|Edge", "has both a point and edges")
	case !hasPoint && !hasEdges:
		s.add(types.Vert, i, "Vert->Point|Edge", "missing")
	}
	if r.Point != topo.None && s.live(types.Vert, i, "Vert->Point", types.Point, r.Point) {
		s.backOne(types.Vert, i, "Point->Vert", types.Point, r.Point, s.t.Points[r.Point].Vert)
	}

	if len(r.Edges) > 2 {
		s.add(types.Vert, i, "Vert->Edge", fmt.Sprintf("has %d edges", len(r.Edges)))
	}
	s.duplicates(types.Vert, i, "Vert->Edge", r.Edges)
	for _, e := range r.Edges {
		if s.live(types.Vert, i, "Vert->Edge", types.Edge, e) {
			ev := s.t.Edges[e].Verts
			s.backSlots(types.Vert, i, "Edge->Vert", types.Edge, e, ev[:])
		}
	}

	s.duplicates(types.Vert, i, "Vert->Tri", r.Tris)
	for _, tr := range r.Tris {
		if s.live(types.Vert, i, "Vert->Tri", types.Tri, tr) {
			tv := s.t.Tris[tr].Verts
			s.backSlots(types.Vert, i, "Tri->Vert", types.Tri, tr, tv[:])
		}
	}
}

func (s *sweep) tri(i int) {
	r := s.t.Tris[i]
	s.duplicates(types.Tri, i, "Tri->Vert", r.Verts[:])
	for _, v := range r.Verts {
		if s.required(types.Tri, i, "Tri->Vert", v) && s.live(types.Tri, i, "Tri->Vert", types.Vert, v) {
			s.backList(types.Tri, i, "Vert->Tri", types.Vert, v, s.t.Verts[v].Tris)
		}
	}
	if s.required(types.Tri, i, "Tri->Face", r.Face) && s.live(types.Tri, i, "Tri->Face", types.Face, r.Face) {
		s.backList(types.Tri, i, "Face->Tri", types.Face, r.Face, s.t.Faces[r.Face].Tris)
	}
}

func (s *sweep) edge(i int) {
	r := s.t.Edges[i]
	if r.Verts[0] != topo.None && r.Verts[0] == r.Verts[1] {
		s.add(types.Edge, i, "Edge->Vert", "starts and ends at one vertex")
	}
	for _, v := range r.Verts {
		if !s.required(types.Edge, i, "Edge->Vert", v) || !s.live(types.Edge, i, "Edge->Vert", types.Vert, v) {
			continue
		}
		// A vertex with neither a point nor edges reports itself.
		if vr := s.t.Verts[v]; vr.Point == topo.None && len(vr.Edges) == 0 {
			continue
		}
		s.backList(types.Edge, i, "Vert->Edge", types.Vert, v, s.t.Verts[v].Edges)
	}
	if s.required(types.Edge, i, "Edge->Wire", r.Wire) && s.live(types.Edge, i, "Edge->Wire", types.Wire, r.Wire) {
		s.backList(types.Edge, i, "Wire->Edge", types.Wire, r.Wire, s.t.Wires[r.Wire].Edges)
	}
}

func (s *sweep) wire(i int) {
	r := s.t.Wires[i]
	if len(r.Edges) == 0 {
		s.add(types.Wire, i, "Wire->Edge", "missing")
	}
	s.duplicates(types.Wire, i, "Wire->Edge", r.Edges)
	for _, e := range r.Edges {
		if s.live(types.Wire, i, "Wire->Edge", types.Edge, e) {
			s.backOne(types.Wire, i, "Edge->Wire", types.Edge, e, s.t.Edges[e].Wire)
		}
	}

	switch hasFace, hasPline := r.Face != topo.None, r.Pline != topo.None; {
	case hasFace && hasPline:
		s.add(types.Wire, i, "Wire->Face|Pline", "has both a face and a polyline")
	case !hasFace && !hasPline:
		s.add(types.Wire, i, "Wire->Face|Pline", "missing")
	}
	if r.Face != topo.None && s.live(types.Wire, i, "Wire->Face", types.Face, r.Face) {
		s.backList(types.Wire, i, "Face->Wire", types.Face, r.Face, s.t.Faces[r.Face].Wires)
	}
	if r.Pline != topo.None && s.live(types.Wire, i, "Wire->Pline", types.Pline, r.Pline) {
		s.backOne(types.Wire, i, "Pline->Wire", types.Pline, r.Pline, s.t.Plines[r.Pline].Wire)
	}
}

func (s *sweep) face(i int) {
	r := s.t.Faces[i]
	if len(r.Wires) == 0 {
		s.add(types.Face, i, "Face->Wire", "missing")
	}
	s.duplicates(types.Face, i, "Face->Wire", r.Wires)
	for _, w := range r.Wires {
		if s.live(types.Face, i, "Face->Wire", types.Wire, w) {
			s.backOne(types.Face, i, "Wire->Face", types.Wire, w, s.t.Wires[w].Face)
		}
	}
	s.duplicates(types.Face, i, "Face->Tri", r.Tris)
	for _, tr := range r.Tris {
		if s.live(types.Face, i, "Face->Tri", types.Tri, tr) {
			s.backOne(types.Face, i, "Tri->Face", types.Tri, tr, s.t.Tris[tr].Face)
		}
	}
	if s.required(types.Face, i, "Face->Pgon", r.Pgon) && s.live(types.Face, i, "Face->Pgon", types.Pgon, r.Pgon) {
		s.backOne(types.Face, i, "Pgon->Face", types.Pgon, r.Pgon, s.t.Pgons[r.Pgon].Face)
	}
}

func (s *sweep) point(i int) {
	r := s.t.Points[i]
	if s.required(types.Point, i, "Point->Vert", r.Vert) && s.live(types.Point, i, "Point->Vert", types.Vert, r.Vert) {
		s.backOne(types.Point, i, "Vert->Point", types.Vert, r.Vert, s.t.Verts[r.Vert].Point)
	}
	s.objColls(types.Point, i, r.Colls, func(c topo.Coll) []int { return c.Points })
}

func (s *sweep) pline(i int) {
	r := s.t.Plines[i]
	if s.required(types.Pline, i, "Pline->Wire", r.Wire) && s.live(types.Pline, i, "Pline->Wire", types.Wire, r.Wire) {
		s.backOne(types.Pline, i, "Wire->Pline", types.Wire, r.Wire, s.t.Wires[r.Wire].Pline)
	}
	s.objColls(types.Pline, i, r.Colls, func(c topo.Coll) []int { return c.Plines })
}

func (s *sweep) pgon(i int) {
	r := s.t.Pgons[i]
	if s.required(types.Pgon, i, "Pgon->Face", r.Face) && s.live(types.Pgon, i, "Pgon->Face", types.Face, r.Face) {
		s.backOne(types.Pgon, i, "Face->Pgon", types.Face, r.Face, s.t.Faces[r.Face].Pgon)
	}
	s.objColls(types.Pgon, i, r.Colls, func(c topo.Coll) []int { return c.Pgons })
}

// objColls checks the up-links of a point, polyline or polygon to its
// collections.
func (s *sweep) objColls(kind types.Kind, i int, colls []int, members func(topo.Coll) []int) {
	rel := kind.String() + "->Coll"
	s.duplicates(kind, i, rel, colls)
	for _, c := range colls {
		if s.live(kind, i, rel, types.Coll, c) {
			s.backList(kind, i, "Coll->"+kind.String(), types.Coll, c, members(s.t.Colls[c]))
		}
	}
}

func (s *sweep) coll(i int) {
	r := s.t.Colls[i]
	members := []struct {
		kind  types.Kind
		idxs  []int
		colls func(int) []int
	}{
		{types.Point, r.Points, func(j int) []int { return s.t.Points[j].Colls }},
		{types.Pline, r.Plines, func(j int) []int { return s.t.Plines[j].Colls }},
		{types.Pgon, r.Pgons, func(j int) []int { return s.t.Pgons[j].Colls }},
	}
	for _, m := range members {
		rel := "Coll->" + m.kind.String()
		s.duplicates(types.Coll, i, rel, m.idxs)
		for _, j := range m.idxs {
			if s.live(types.Coll, i, rel, m.kind, j) {
				s.backList(types.Coll, i, m.kind.String()+"->Coll", m.kind, j, m.colls(j))
			}
		}
	}

	s.duplicates(types.Coll, i, "Coll->Child", r.Children)
	for _, c := range r.Children {
		if !s.live(types.Coll, i, "Coll->Child", types.Coll, c) {
			continue
		}
		// Parent is optional, so an absent one is reported here.
		if s.t.Colls[c].Parent != i {
			s.add(types.Coll, i, "Coll->Parent", fmt.Sprintf("index of child %d is incorrect", c))
		}
	}
	if r.Parent == topo.None || !s.live(types.Coll, i, "Coll->Parent", types.Coll, r.Parent) {
		return
	}
	s.backList(types.Coll, i, "Coll->Child", types.Coll, r.Parent, s.t.Colls[r.Parent].Children)
	seen := roaring.New()
	seen.Add(uint32(i))
	for p := r.Parent; p != topo.None && s.t.IsActive(types.Coll, p); p = s.t.Colls[p].Parent {
		if !seen.CheckedAdd(uint32(p)) {
			if p == i {
				s.add(types.Coll, i, "Coll->Parent", "forms a cycle")
			}
			return
		}
	}
}

// edgeOrder checks that the edges of wire i form a chain and that each
// edge sits in the expected slot of its vertices: the outgoing slot (1) of
// its start and the incoming slot (0) of its end. At the ends of an open
// wire the lone edge sits in slot 0 and the vertex holds one edge.
// Edges or vertices that are not active are reported by their own passes
// and skipped here, as are vertices missing an edge of the wire.
func (s *sweep) edgeOrder(i int) {
	edges := s.t.Wires[i].Edges
	if len(edges) == 0 {
		return
	}
	for _, e := range edges {
		if !s.t.IsActive(types.Edge, e) {
			return
		}
		for _, v := range s.t.Edges[e].Verts {
			if !s.t.IsActive(types.Vert, v) {
				return
			}
		}
	}
	for p := 0; p+1 < len(edges); p++ {
		if s.t.Edges[edges[p]].Verts[1] != s.t.Edges[edges[p+1]].Verts[0] {
			s.add(types.Wire, i, "Wire->Edge", fmt.Sprintf("chain breaks after position %d", p))
		}
	}

	first, last := edges[0], edges[len(edges)-1]
	closed := s.t.Edges[first].Verts[0] == s.t.Edges[last].Verts[1]
	// A vertex missing one of its wire edges is reported by the edge pass;
	// its count and slots are not checked again.
	short := roaring.New()
	for _, e := range edges {
		for _, v := range s.t.Edges[e].Verts {
			if !slices.Contains(s.t.Verts[v].Edges, e) {
				short.Add(uint32(v))
			}
		}
	}
	counted := roaring.New()
	slot := func(e, v, want, wantLen int) {
		if short.Contains(uint32(v)) {
			return
		}
		ve := s.t.Verts[v].Edges
		if len(ve) != wantLen && counted.CheckedAdd(uint32(v)) {
			s.add(types.Wire, i, "Vert->Edge", fmt.Sprintf("vertex %d has %d edges, want %d", v, len(ve), wantLen))
		}
		if want >= len(ve) || ve[want] != e {
			s.add(types.Wire, i, "Vert->Edge", fmt.Sprintf("vertex %d holds edge %d in the wrong slot", v, e))
		}
	}
	for _, e := range edges {
		ev := s.t.Edges[e].Verts
		startSlot, startLen := 1, 2
		endSlot, endLen := 0, 2
		if !closed {
			if e == first {
				startSlot, startLen = 0, 1
			}
			if e == last {
				endLen = 1
			}
		}
		slot(e, ev[0], startSlot, startLen)
		slot(e, ev[1], endSlot, endLen)
	}
}
