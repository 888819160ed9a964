// Package nav answers adjacency queries over a topology store: single hops
// between adjacent kinds, multi-hop any-to-any traversal, and collection
// lookups.
//
// Navigation never mutates the store. A source index or traversed link that
// is not active fails with a *types.DanglingReferenceError; an optional
// relation that is legitimately absent yields an empty, non-nil slice.
// Sequence relations (a wire's edges, a face's wires) keep their stored
// order; set relations (up-links) are returned ascending.
package nav

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// Navigator reads a store through a topo.Reader. It holds no state of its
// own, so it stays valid across Store.Reset.
type Navigator struct {
	r topo.Reader
}

// New returns a Navigator over r.
func New(r topo.Reader) *Navigator {
	return &Navigator{r: r}
}

// direction of a hop.
type direction int

const (
	down direction = iota
	up
)

func (d direction) String() string {
	if d == down {
		return "down"
	}
	return "up"
}

// NavDown follows the down-links of (from, idx) to kind to. Coll to Coll
// returns the child collections.
func (n *Navigator) NavDown(from, to types.Kind, idx int) ([]int, error) {
	return n.hop(down, from, to, idx)
}

// NavUp follows the up-links of (from, idx) to kind to. Coll to Coll returns
// the parent collection, if any.
func (n *Navigator) NavUp(from, to types.Kind, idx int) ([]int, error) {
	return n.hop(up, from, to, idx)
}

func (n *Navigator) hop(dir direction, from, to types.Kind, idx int) ([]int, error) {
	if !from.Valid() || !to.Valid() {
		return nil, types.ErrUnknownKind
	}
	t := n.r.Tables()
	if err := topo.CheckActive(t, from, idx); err != nil {
		return nil, err
	}
	links, sorted, ok := rawLinks(t, dir, from, to, idx)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s to %s", types.ErrNotAdjacent, from, dir, to)
	}
	out := make([]int, 0, len(links))
	for _, l := range links {
		if l == topo.None {
			continue
		}
		if err := topo.CheckActive(t, to, l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if sorted {
		slices.Sort(out)
	}
	return out, nil
}

func one(i int) []int {
	if i == topo.None {
		return nil
	}
	return []int{i}
}

// rawLinks returns the stored links of (from, idx) toward to and whether the
// relation is unordered. ok is false when the kinds are not adjacent in dir.
func rawLinks(t *topo.Tables, dir direction, from, to types.Kind, idx int) (links []int, sorted, ok bool) {
	type pair struct{ from, to types.Kind }
	p := pair{from, to}
	if dir == down {
		switch p {
		case pair{types.Vert, types.Posi}:
			return one(t.Verts[idx].Posi), false, true
		case pair{types.Tri, types.Vert}:
			v := t.Tris[idx].Verts
			return v[:], false, true
		case pair{types.Edge, types.Vert}:
			v := t.Edges[idx].Verts
			return v[:], false, true
		case pair{types.Wire, types.Edge}:
			return t.Wires[idx].Edges, false, true
		case pair{types.Face, types.Wire}:
			return t.Faces[idx].Wires, false, true
		case pair{types.Face, types.Tri}:
			return t.Faces[idx].Tris, false, true
		case pair{types.Point, types.Vert}:
			return one(t.Points[idx].Vert), false, true
		case pair{types.Pline, types.Wire}:
			return one(t.Plines[idx].Wire), false, true
		case pair{types.Pgon, types.Face}:
			return one(t.Pgons[idx].Face), false, true
		case pair{types.Coll, types.Point}:
			return t.Colls[idx].Points, false, true
		case pair{types.Coll, types.Pline}:
			return t.Colls[idx].Plines, false, true
		case pair{types.Coll, types.Pgon}:
			return t.Colls[idx].Pgons, false, true
		case pair{types.Coll, types.Coll}:
			return t.Colls[idx].Children, false, true
		}
		return nil, false, false
	}
	switch p {
	case pair{types.Posi, types.Vert}:
		return t.Posis[idx].Verts, true, true
	case pair{types.Vert, types.Edge}:
		return t.Verts[idx].Edges, true, true
	case pair{types.Vert, types.Point}:
		return one(t.Verts[idx].Point), true, true
	case pair{types.Vert, types.Tri}:
		return t.Verts[idx].Tris, true, true
	case pair{types.Tri, types.Face}:
		return one(t.Tris[idx].Face), true, true
	case pair{types.Edge, types.Wire}:
		return one(t.Edges[idx].Wire), true, true
	case pair{types.Wire, types.Face}:
		return one(t.Wires[idx].Face), true, true
	case pair{types.Wire, types.Pline}:
		return one(t.Wires[idx].Pline), true, true
	case pair{types.Face, types.Pgon}:
		return one(t.Faces[idx].Pgon), true, true
	case pair{types.Point, types.Coll}:
		return t.Points[idx].Colls, true, true
	case pair{types.Pline, types.Coll}:
		return t.Plines[idx].Colls, true, true
	case pair{types.Pgon, types.Coll}:
		return t.Pgons[idx].Colls, true, true
	case pair{types.Coll, types.Coll}:
		return one(t.Colls[idx].Parent), true, true
	}
	return nil, false, false
}

// Down hops.

func (n *Navigator) VertToPosi(v int) ([]int, error)  { return n.NavDown(types.Vert, types.Posi, v) }
func (n *Navigator) TriToVert(tr int) ([]int, error)  { return n.NavDown(types.Tri, types.Vert, tr) }
func (n *Navigator) EdgeToVert(e int) ([]int, error)  { return n.NavDown(types.Edge, types.Vert, e) }
func (n *Navigator) WireToEdge(w int) ([]int, error)  { return n.NavDown(types.Wire, types.Edge, w) }
func (n *Navigator) FaceToWire(f int) ([]int, error)  { return n.NavDown(types.Face, types.Wire, f) }
func (n *Navigator) FaceToTri(f int) ([]int, error)   { return n.NavDown(types.Face, types.Tri, f) }
func (n *Navigator) PointToVert(p int) ([]int, error) { return n.NavDown(types.Point, types.Vert, p) }
func (n *Navigator) PlineToWire(p int) ([]int, error) { return n.NavDown(types.Pline, types.Wire, p) }
func (n *Navigator) PgonToFace(p int) ([]int, error)  { return n.NavDown(types.Pgon, types.Face, p) }
func (n *Navigator) CollToPoint(c int) ([]int, error) { return n.NavDown(types.Coll, types.Point, c) }
func (n *Navigator) CollToPline(c int) ([]int, error) { return n.NavDown(types.Coll, types.Pline, c) }
func (n *Navigator) CollToPgon(c int) ([]int, error)  { return n.NavDown(types.Coll, types.Pgon, c) }
func (n *Navigator) CollToChild(c int) ([]int, error) { return n.NavDown(types.Coll, types.Coll, c) }

// Up hops.

func (n *Navigator) PosiToVert(p int) ([]int, error)   { return n.NavUp(types.Posi, types.Vert, p) }
func (n *Navigator) VertToEdge(v int) ([]int, error)   { return n.NavUp(types.Vert, types.Edge, v) }
func (n *Navigator) VertToPoint(v int) ([]int, error)  { return n.NavUp(types.Vert, types.Point, v) }
func (n *Navigator) VertToTri(v int) ([]int, error)    { return n.NavUp(types.Vert, types.Tri, v) }
func (n *Navigator) TriToFace(tr int) ([]int, error)   { return n.NavUp(types.Tri, types.Face, tr) }
func (n *Navigator) EdgeToWire(e int) ([]int, error)   { return n.NavUp(types.Edge, types.Wire, e) }
func (n *Navigator) WireToFace(w int) ([]int, error)   { return n.NavUp(types.Wire, types.Face, w) }
func (n *Navigator) WireToPline(w int) ([]int, error)  { return n.NavUp(types.Wire, types.Pline, w) }
func (n *Navigator) FaceToPgon(f int) ([]int, error)   { return n.NavUp(types.Face, types.Pgon, f) }
func (n *Navigator) PointToColl(p int) ([]int, error)  { return n.NavUp(types.Point, types.Coll, p) }
func (n *Navigator) PlineToColl(p int) ([]int, error)  { return n.NavUp(types.Pline, types.Coll, p) }
func (n *Navigator) PgonToColl(p int) ([]int, error)   { return n.NavUp(types.Pgon, types.Coll, p) }
func (n *Navigator) CollToParent(c int) ([]int, error) { return n.NavUp(types.Coll, types.Coll, c) }

// WireIsClosed reports whether the first edge of w starts where the last
// edge ends.
func (n *Navigator) WireIsClosed(w int) (bool, error) {
	edges, err := n.WireToEdge(w)
	if err != nil {
		return false, err
	}
	if len(edges) == 0 {
		return false, nil
	}
	t := n.r.Tables()
	first, last := t.Edges[edges[0]], t.Edges[edges[len(edges)-1]]
	return first.Verts[0] != topo.None && first.Verts[0] == last.Verts[1], nil
}

// FaceBoundary returns the outer wire of f, or topo.None for a face with no
// wires.
func (n *Navigator) FaceBoundary(f int) (int, error) {
	wires, err := n.FaceToWire(f)
	if err != nil {
		return topo.None, err
	}
	if len(wires) == 0 {
		return topo.None, nil
	}
	return wires[0], nil
}

// FaceHoles returns the hole wires of f in order.
func (n *Navigator) FaceHoles(f int) ([]int, error) {
	wires, err := n.FaceToWire(f)
	if err != nil {
		return nil, err
	}
	if len(wires) < 2 {
		return []int{}, nil
	}
	return wires[1:], nil
}
