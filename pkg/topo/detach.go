package topo

import (
	"slices"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// Release clears every down-link of (kind, idx) together with the reciprocal
// up-links on its constituents. The constituents stay active and become
// unowned. Links that point at inactive slots are dropped silently.
func (s *Store) Release(kind types.Kind, idx int) error {
	if !kind.Valid() {
		return types.ErrUnknownKind
	}
	if err := s.active(kind, idx); err != nil {
		return err
	}
	t := s.t
	switch kind {
	case types.Posi:
		// leaf
	case types.Vert:
		r := &t.Verts[idx]
		if t.IsActive(types.Posi, r.Posi) {
			p := &t.Posis[r.Posi]
			p.Verts = removeValue(p.Verts, idx)
		}
		r.Posi = None
	case types.Tri:
		r := &t.Tris[idx]
		for i, v := range r.Verts {
			if t.IsActive(types.Vert, v) {
				t.Verts[v].Tris = removeValue(t.Verts[v].Tris, idx)
			}
			r.Verts[i] = None
		}
	case types.Edge:
		r := &t.Edges[idx]
		for i, v := range r.Verts {
			if t.IsActive(types.Vert, v) {
				t.Verts[v].Edges = removeValue(t.Verts[v].Edges, idx)
			}
			r.Verts[i] = None
		}
	case types.Wire:
		r := &t.Wires[idx]
		for _, e := range r.Edges {
			if t.IsActive(types.Edge, e) && t.Edges[e].Wire == idx {
				t.Edges[e].Wire = None
			}
		}
		r.Edges = nil
	case types.Face:
		r := &t.Faces[idx]
		for _, w := range r.Wires {
			if t.IsActive(types.Wire, w) && t.Wires[w].Face == idx {
				t.Wires[w].Face = None
			}
		}
		for _, tr := range r.Tris {
			if t.IsActive(types.Tri, tr) && t.Tris[tr].Face == idx {
				t.Tris[tr].Face = None
			}
		}
		r.Wires, r.Tris = nil, nil
	case types.Point:
		r := &t.Points[idx]
		if t.IsActive(types.Vert, r.Vert) && t.Verts[r.Vert].Point == idx {
			t.Verts[r.Vert].Point = None
		}
		r.Vert = None
	case types.Pline:
		r := &t.Plines[idx]
		if t.IsActive(types.Wire, r.Wire) && t.Wires[r.Wire].Pline == idx {
			t.Wires[r.Wire].Pline = None
		}
		r.Wire = None
	case types.Pgon:
		r := &t.Pgons[idx]
		if t.IsActive(types.Face, r.Face) && t.Faces[r.Face].Pgon == idx {
			t.Faces[r.Face].Pgon = None
		}
		r.Face = None
	case types.Coll:
		r := &t.Colls[idx]
		for _, p := range r.Points {
			if t.IsActive(types.Point, p) {
				t.Points[p].Colls = removeValue(t.Points[p].Colls, idx)
			}
		}
		for _, p := range r.Plines {
			if t.IsActive(types.Pline, p) {
				t.Plines[p].Colls = removeValue(t.Plines[p].Colls, idx)
			}
		}
		for _, p := range r.Pgons {
			if t.IsActive(types.Pgon, p) {
				t.Pgons[p].Colls = removeValue(t.Pgons[p].Colls, idx)
			}
		}
		for _, c := range r.Children {
			if t.IsActive(types.Coll, c) && t.Colls[c].Parent == idx {
				t.Colls[c].Parent = None
			}
		}
		r.Points, r.Plines, r.Pgons, r.Children = nil, nil, nil, nil
	}
	return nil
}

// Disown removes (kind, idx) from every container that holds it, clearing
// its up-links and the containers' reciprocal down-links.
func (s *Store) Disown(kind types.Kind, idx int) error {
	if !kind.Valid() {
		return types.ErrUnknownKind
	}
	if err := s.active(kind, idx); err != nil {
		return err
	}
	t := s.t
	switch kind {
	case types.Posi:
		r := &t.Posis[idx]
		for _, v := range r.Verts {
			if t.IsActive(types.Vert, v) && t.Verts[v].Posi == idx {
				t.Verts[v].Posi = None
			}
		}
		r.Verts = nil
	case types.Vert:
		r := &t.Verts[idx]
		if t.IsActive(types.Point, r.Point) && t.Points[r.Point].Vert == idx {
			t.Points[r.Point].Vert = None
		}
		for _, e := range r.Edges {
			if t.IsActive(types.Edge, e) {
				replace(t.Edges[e].Verts[:], idx, None)
			}
		}
		for _, tr := range r.Tris {
			if t.IsActive(types.Tri, tr) {
				replace(t.Tris[tr].Verts[:], idx, None)
			}
		}
		r.Point, r.Edges, r.Tris = None, nil, nil
	case types.Tri:
		r := &t.Tris[idx]
		if t.IsActive(types.Face, r.Face) {
			f := &t.Faces[r.Face]
			f.Tris = removeValue(f.Tris, idx)
		}
		r.Face = None
	case types.Edge:
		r := &t.Edges[idx]
		if t.IsActive(types.Wire, r.Wire) {
			w := &t.Wires[r.Wire]
			w.Edges = removeValue(w.Edges, idx)
		}
		r.Wire = None
	case types.Wire:
		r := &t.Wires[idx]
		if t.IsActive(types.Face, r.Face) {
			f := &t.Faces[r.Face]
			f.Wires = removeValue(f.Wires, idx)
		}
		if t.IsActive(types.Pline, r.Pline) && t.Plines[r.Pline].Wire == idx {
			t.Plines[r.Pline].Wire = None
		}
		r.Face, r.Pline = None, None
	case types.Face:
		r := &t.Faces[idx]
		if t.IsActive(types.Pgon, r.Pgon) && t.Pgons[r.Pgon].Face == idx {
			t.Pgons[r.Pgon].Face = None
		}
		r.Pgon = None
	case types.Point:
		r := &t.Points[idx]
		for _, c := range r.Colls {
			if t.IsActive(types.Coll, c) {
				t.Colls[c].Points = removeValue(t.Colls[c].Points, idx)
			}
		}
		r.Colls = nil
	case types.Pline:
		r := &t.Plines[idx]
		for _, c := range r.Colls {
			if t.IsActive(types.Coll, c) {
				t.Colls[c].Plines = removeValue(t.Colls[c].Plines, idx)
			}
		}
		r.Colls = nil
	case types.Pgon:
		r := &t.Pgons[idx]
		for _, c := range r.Colls {
			if t.IsActive(types.Coll, c) {
				t.Colls[c].Pgons = removeValue(t.Colls[c].Pgons, idx)
			}
		}
		r.Colls = nil
	case types.Coll:
		r := &t.Colls[idx]
		if t.IsActive(types.Coll, r.Parent) {
			p := &t.Colls[r.Parent]
			p.Children = removeValue(p.Children, idx)
		}
		r.Parent = None
	}
	return nil
}

// FaceSetTris replaces the render triangles of face. Triangles dropped from
// the face become unowned; the caller tombstones them if they are no longer
// needed. New triangles must be unowned or already belong to face.
func (s *Store) FaceSetTris(face int, tris []int) error {
	if err := s.active(types.Face, face); err != nil {
		return err
	}
	if err := s.activeAll(types.Tri, tris); err != nil {
		return err
	}
	if hasDuplicates(tris) {
		return &types.InvalidCardinalityError{
			Kind: types.Face, Index: face, Relation: "Face->Tri", Want: "distinct triangles", Got: distinct(tris),
		}
	}
	for _, tr := range tris {
		if f := s.t.Tris[tr].Face; f != None && f != face {
			return &types.InvalidCardinalityError{
				Kind: types.Tri, Index: tr, Relation: "Tri->Face", Want: "1", Got: 2,
			}
		}
	}
	f := &s.t.Faces[face]
	for _, tr := range f.Tris {
		if s.t.IsActive(types.Tri, tr) && s.t.Tris[tr].Face == face {
			s.t.Tris[tr].Face = None
		}
	}
	f.Tris = slices.Clone(tris)
	for _, tr := range tris {
		s.t.Tris[tr].Face = face
	}
	return nil
}

// replace swaps every occurrence of old in s for v.
func replace(s []int, old, v int) {
	for i := range s {
		if s[i] == old {
			s[i] = v
		}
	}
}
