package topo

import (
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// BuildPoint creates a vertex at posi and a point owning it.
func (s *Store) BuildPoint(posi int) (int, error) {
	v, err := s.AddVert(posi)
	if err != nil {
		return None, err
	}
	return s.AddPoint(v)
}

// BuildPline creates one vertex per position, an edge between each
// consecutive pair (plus a closing edge when closed), a wire over the edges
// and a polyline owning the wire. An open polyline needs at least two
// positions, a closed one at least three.
func (s *Store) BuildPline(posis []int, closed bool) (int, error) {
	if err := s.ringArgs(types.Pline, posis, closed); err != nil {
		return None, err
	}
	w := s.buildWire(posis, closed)
	pl, err := s.AddPline(w)
	if err != nil {
		return None, err
	}
	s.log.Debug("build pline", "pline", pl, "wire", w, "posis", len(posis), "closed", closed)
	return pl, nil
}

// BuildPgon creates a polygon with an outer ring over posis and one closed
// ring per hole, each of at least three positions. tris index the ring
// vertices in order: outer ring first, then each hole.
func (s *Store) BuildPgon(posis []int, holes [][]int, tris [][3]int) (int, error) {
	if err := s.ringArgs(types.Pgon, posis, true); err != nil {
		return None, err
	}
	n := len(posis)
	for _, h := range holes {
		if err := s.ringArgs(types.Pgon, h, true); err != nil {
			return None, err
		}
		n += len(h)
	}
	for _, tr := range tris {
		for _, i := range tr {
			if i < 0 || i >= n {
				return None, &types.InvalidCardinalityError{
					Kind: types.Tri, Index: None, Relation: "Tri->Vert", Want: "ring vertex below " + strconv.Itoa(n), Got: i,
				}
			}
		}
		if tr[0] == tr[1] || tr[1] == tr[2] || tr[0] == tr[2] {
			return None, &types.InvalidCardinalityError{
				Kind: types.Tri, Index: None, Relation: "Tri->Vert", Want: "3 distinct", Got: distinct(tr[:]),
			}
		}
	}

	wires := make([]int, 0, 1+len(holes))
	wires = append(wires, s.buildWire(posis, true))
	for _, h := range holes {
		wires = append(wires, s.buildWire(h, true))
	}
	verts := make([]int, 0, n)
	for _, w := range wires {
		for _, e := range s.t.Wires[w].Edges {
			verts = append(verts, s.t.Edges[e].Verts[0])
		}
	}
	tidx := make([]int, 0, len(tris))
	for _, tr := range tris {
		t, err := s.AddTri(verts[tr[0]], verts[tr[1]], verts[tr[2]])
		if err != nil {
			return None, err
		}
		tidx = append(tidx, t)
	}
	f, err := s.AddFace(wires, tidx)
	if err != nil {
		return None, err
	}
	pg, err := s.AddPgon(f)
	if err != nil {
		return None, err
	}
	s.log.Debug("build pgon", "pgon", pg, "face", f, "wires", len(wires), "tris", len(tidx))
	return pg, nil
}

func (s *Store) ringArgs(kind types.Kind, posis []int, closed bool) error {
	least := 2
	if closed {
		least = 3
	}
	if len(posis) < least {
		return &types.InvalidCardinalityError{
			Kind: kind, Index: None, Relation: kind.String() + "->Posi", Want: "at least " + strconv.Itoa(least), Got: len(posis),
		}
	}
	return s.activeAll(types.Posi, posis)
}

// buildWire creates the vertices, edges and wire of a ring whose positions
// have been validated. Every call creates fresh vertices, so the edge slot
// and chain checks cannot fail.
func (s *Store) buildWire(posis []int, closed bool) int {
	verts := make([]int, len(posis))
	for i, p := range posis {
		verts[i], _ = s.AddVert(p)
	}
	n := len(verts) - 1
	if closed {
		n = len(verts)
	}
	edges := make([]int, n)
	for i := range edges {
		edges[i], _ = s.AddEdge(verts[i], verts[(i+1)%len(verts)])
	}
	w, _ := s.AddWire(edges)
	return w
}

// DelPoint deletes a point and its vertex. The position is tombstoned too
// unless keepPosis is set or another vertex still uses it.
func (s *Store) DelPoint(idx int, keepPosis bool) error {
	if err := s.active(types.Point, idx); err != nil {
		return err
	}
	v := s.t.Points[idx].Vert
	if err := s.owned(types.Vert, v, s.t.IsActive(types.Vert, v) && s.t.Verts[v].Point == idx); err != nil {
		return err
	}
	s.detachAll(types.Point, idx)
	s.tombstone(types.Point, idx)
	posis := roaring.New()
	s.delVert(v, posis)
	s.delPosis(posis, keepPosis)
	s.log.Debug("delete point", "point", idx, "keep_posis", keepPosis)
	return nil
}

// DelPline deletes a polyline with its wire, edges and vertices.
func (s *Store) DelPline(idx int, keepPosis bool) error {
	if err := s.active(types.Pline, idx); err != nil {
		return err
	}
	w := s.t.Plines[idx].Wire
	if err := s.owned(types.Wire, w, s.t.IsActive(types.Wire, w) && s.t.Wires[w].Pline == idx); err != nil {
		return err
	}
	if err := s.wireOwnsEdges(w); err != nil {
		return err
	}
	s.detachAll(types.Pline, idx)
	s.tombstone(types.Pline, idx)
	posis := roaring.New()
	s.delWire(w, posis)
	s.delPosis(posis, keepPosis)
	s.log.Debug("delete pline", "pline", idx, "keep_posis", keepPosis)
	return nil
}

// DelPgon deletes a polygon with its face, triangles, wires, edges and
// vertices.
func (s *Store) DelPgon(idx int, keepPosis bool) error {
	if err := s.active(types.Pgon, idx); err != nil {
		return err
	}
	f := s.t.Pgons[idx].Face
	if err := s.owned(types.Face, f, s.t.IsActive(types.Face, f) && s.t.Faces[f].Pgon == idx); err != nil {
		return err
	}
	face := s.t.Faces[f]
	for _, w := range face.Wires {
		if err := s.owned(types.Wire, w, s.t.IsActive(types.Wire, w) && s.t.Wires[w].Face == f); err != nil {
			return err
		}
		if err := s.wireOwnsEdges(w); err != nil {
			return err
		}
	}
	for _, tr := range face.Tris {
		if err := s.owned(types.Tri, tr, s.t.IsActive(types.Tri, tr) && s.t.Tris[tr].Face == f); err != nil {
			return err
		}
	}

	s.detachAll(types.Pgon, idx)
	s.tombstone(types.Pgon, idx)
	s.detachAll(types.Face, f)
	s.tombstone(types.Face, f)
	for _, tr := range face.Tris {
		s.detachAll(types.Tri, tr)
		s.tombstone(types.Tri, tr)
	}
	posis := roaring.New()
	for _, w := range face.Wires {
		s.delWire(w, posis)
	}
	s.delPosis(posis, keepPosis)
	s.log.Debug("delete pgon", "pgon", idx, "tris", len(face.Tris), "wires", len(face.Wires), "keep_posis", keepPosis)
	return nil
}

// DelColl deletes a collection. Its members and child collections are
// detached and stay active.
func (s *Store) DelColl(idx int) error {
	if err := s.active(types.Coll, idx); err != nil {
		return err
	}
	s.detachAll(types.Coll, idx)
	s.tombstone(types.Coll, idx)
	s.log.Debug("delete coll", "coll", idx)
	return nil
}

// owned returns an InvalidCardinalityError naming (kind, idx) unless ok.
func (s *Store) owned(kind types.Kind, idx int, ok bool) error {
	if ok {
		return nil
	}
	if err := s.active(kind, idx); err != nil {
		return err
	}
	return &types.InvalidCardinalityError{Kind: kind, Index: idx, Relation: "owner", Want: "1", Got: 0}
}

func (s *Store) wireOwnsEdges(w int) error {
	for _, e := range s.t.Wires[w].Edges {
		if err := s.owned(types.Edge, e, s.t.IsActive(types.Edge, e) && s.t.Edges[e].Wire == w); err != nil {
			return err
		}
	}
	return nil
}

// detachAll clears every link of an active entity on both sides.
func (s *Store) detachAll(kind types.Kind, idx int) {
	_ = s.Disown(kind, idx)
	_ = s.Release(kind, idx)
}

// delWire tombstones a wire, its edges and every vertex left without an
// owner, collecting the vertices' positions into posis.
func (s *Store) delWire(w int, posis *roaring.Bitmap) {
	edges := s.t.Wires[w].Edges
	s.detachAll(types.Wire, w)
	s.tombstone(types.Wire, w)
	for _, e := range edges {
		verts := s.t.Edges[e].Verts
		s.detachAll(types.Edge, e)
		s.tombstone(types.Edge, e)
		for _, v := range verts {
			if s.t.IsActive(types.Vert, v) {
				s.delVert(v, posis)
			}
		}
	}
}

// delVert tombstones v if nothing else holds it.
func (s *Store) delVert(v int, posis *roaring.Bitmap) {
	r := s.t.Verts[v]
	if r.Point != None || len(r.Edges) > 0 || len(r.Tris) > 0 {
		return
	}
	if r.Posi != None {
		posis.Add(uint32(r.Posi))
	}
	_ = s.Release(types.Vert, v)
	s.tombstone(types.Vert, v)
}

func (s *Store) delPosis(posis *roaring.Bitmap, keep bool) {
	if keep {
		return
	}
	it := posis.Iterator()
	for it.HasNext() {
		p := int(it.Next())
		if s.t.IsActive(types.Posi, p) && len(s.t.Posis[p].Verts) == 0 {
			s.tombstone(types.Posi, p)
		}
	}
}
