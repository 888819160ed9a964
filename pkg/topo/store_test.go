// Tests for the topology store: creation, reciprocal links, tombstones and
// cardinality enforcement.
package topo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// triangle holds the indices of the closed triangle model built by
// newTriangle.
type triangle struct {
	P     [3]int
	V     [3]int
	E     [3]int
	W, T  int
	F, PG int
}

// newTriangle builds P0..P2, V0..V2, E0(V0,V1) E1(V1,V2) E2(V2,V0),
// W0=[E0,E1,E2], T0, F0 and PG0 one call at a time.
func newTriangle(t *testing.T) (*Store, triangle) {
	t.Helper()
	s := New()
	var m triangle
	var err error
	for i := range m.P {
		m.P[i] = s.AddPosi()
	}
	for i := range m.V {
		m.V[i], err = s.AddVert(m.P[i])
		require.NoError(t, err)
	}
	for i := range m.E {
		m.E[i], err = s.AddEdge(m.V[i], m.V[(i+1)%3])
		require.NoError(t, err)
	}
	m.W, err = s.AddWire(m.E[:])
	require.NoError(t, err)
	m.T, err = s.AddTri(m.V[0], m.V[1], m.V[2])
	require.NoError(t, err)
	m.F, err = s.AddFace([]int{m.W}, []int{m.T})
	require.NoError(t, err)
	m.PG, err = s.AddPgon(m.F)
	require.NoError(t, err)
	return s, m
}

// --- Creation and reciprocal links ---

func TestStore_TriangleLinks(t *testing.T) {
	s, m := newTriangle(t)

	for i, v := range m.V {
		p, err := s.Posi(m.P[i])
		require.NoError(t, err)
		assert.Equal(t, []int{v}, p.Verts)

		vr, err := s.Vert(v)
		require.NoError(t, err)
		assert.Equal(t, m.P[i], vr.Posi)
		assert.Equal(t, None, vr.Point)
		assert.Equal(t, []int{m.T}, vr.Tris)
	}

	// Index 0 is the incoming edge, index 1 the outgoing one.
	v0, _ := s.Vert(m.V[0])
	assert.Equal(t, []int{m.E[2], m.E[0]}, v0.Edges)
	v1, _ := s.Vert(m.V[1])
	assert.Equal(t, []int{m.E[0], m.E[1]}, v1.Edges)
	v2, _ := s.Vert(m.V[2])
	assert.Equal(t, []int{m.E[1], m.E[2]}, v2.Edges)

	for _, e := range m.E {
		er, err := s.Edge(e)
		require.NoError(t, err)
		assert.Equal(t, m.W, er.Wire)
	}
	w, _ := s.Wire(m.W)
	assert.Equal(t, m.F, w.Face)
	assert.Equal(t, None, w.Pline)

	tr, _ := s.Tri(m.T)
	assert.Equal(t, m.F, tr.Face)

	f, _ := s.Face(m.F)
	assert.Equal(t, []int{m.W}, f.Wires)
	assert.Equal(t, []int{m.T}, f.Tris)
	assert.Equal(t, m.PG, f.Pgon)

	pg, _ := s.Pgon(m.PG)
	assert.Equal(t, m.F, pg.Face)
	assert.Empty(t, pg.Colls)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s, m := newTriangle(t)

	rec, err := s.Get(types.Face, m.F)
	require.NoError(t, err)
	f, ok := rec.(Face)
	require.True(t, ok, "Get(Face) returned %T", rec)
	f.Wires[0] = 99

	again, _ := s.Face(m.F)
	assert.Equal(t, []int{m.W}, again.Wires)
}

func TestStore_Create(t *testing.T) {
	s := New()
	p, err := s.Create(types.Posi)
	require.NoError(t, err)
	v0, err := s.Create(types.Vert, []int{p})
	require.NoError(t, err)
	v1, err := s.Create(types.Vert, []int{p})
	require.NoError(t, err)
	e, err := s.Create(types.Edge, []int{v0, v1})
	require.NoError(t, err)
	w, err := s.Create(types.Wire, []int{e})
	require.NoError(t, err)
	pl, err := s.Create(types.Pline, []int{w})
	require.NoError(t, err)
	c, err := s.Create(types.Coll)
	require.NoError(t, err)
	child, err := s.Create(types.Coll, []int{c})
	require.NoError(t, err)

	assert.Equal(t, 0, pl)
	posi, _ := s.Posi(p)
	assert.Equal(t, []int{v0, v1}, posi.Verts)
	parent, _ := s.Coll(c)
	assert.Equal(t, []int{child}, parent.Children)

	_, err = s.Create(types.Kind(77))
	assert.ErrorIs(t, err, types.ErrUnknownKind)
}

func TestStore_CreateRejectsExtraLists(t *testing.T) {
	s := New()
	p := s.AddPosi()
	v0, _ := s.AddVert(p)
	v1, _ := s.AddVert(p)
	e, err := s.AddEdge(v0, v1)
	require.NoError(t, err)

	tests := []struct {
		name string
		kind types.Kind
		down [][]int
	}{
		{"posi with links", types.Posi, [][]int{{0}}},
		{"wire with two lists", types.Wire, [][]int{{e}, {e}}},
		{"vert with two lists", types.Vert, [][]int{{p}, {p}}},
		{"face with three lists", types.Face, [][]int{{0}, nil, nil}},
		{"coll with two lists", types.Coll, [][]int{nil, nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := s.Tables().Len(tt.kind)
			_, err := s.Create(tt.kind, tt.down...)
			var ce *types.InvalidCardinalityError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.Equal(t, before, s.Tables().Len(tt.kind))
		})
	}

	edge, err := s.Edge(e)
	require.NoError(t, err)
	assert.Equal(t, None, edge.Wire)
}

// --- Cardinality ---

func TestStore_CardinalityErrors(t *testing.T) {
	s, m := newTriangle(t)
	p := s.AddPosi()
	a, _ := s.AddVert(p)
	b, _ := s.AddVert(p)

	tests := []struct {
		name string
		run  func() error
	}{
		{"edge with three verts", func() error { _, err := s.Create(types.Edge, []int{a, b, m.V[0]}); return err }},
		{"edge with one vert", func() error { _, err := s.Create(types.Edge, []int{a}); return err }},
		{"edge loop on one vert", func() error { _, err := s.AddEdge(a, a); return err }},
		{"tri with repeated vert", func() error { _, err := s.AddTri(a, a, b); return err }},
		{"empty wire", func() error { _, err := s.AddWire(nil); return err }},
		{"wire over owned edge", func() error { _, err := s.AddWire([]int{m.E[0]}); return err }},
		{"face without wires", func() error { _, err := s.AddFace(nil, nil); return err }},
		{"face over owned wire", func() error { _, err := s.AddFace([]int{m.W}, nil); return err }},
		{"face over owned tri", func() error {
			e, _ := s.AddEdge(a, b)
			w, _ := s.AddWire([]int{e})
			_, err := s.AddFace([]int{w}, []int{m.T})
			return err
		}},
		{"second pgon on face", func() error { _, err := s.AddPgon(m.F); return err }},
		{"point on edge vert", func() error { _, err := s.AddPoint(m.V[0]); return err }},
		{"third edge on vert", func() error {
			c, _ := s.AddVert(p)
			_, err := s.AddEdge(m.V[0], c)
			return err
		}},
		{"coll with two parents", func() error { _, err := s.Create(types.Coll, []int{0, 1}); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidCardinality)
		})
	}
}

func TestStore_EdgeRoleTaken(t *testing.T) {
	s := New()
	p := s.AddPosi()
	a, _ := s.AddVert(p)
	b, _ := s.AddVert(p)
	c, _ := s.AddVert(p)
	_, err := s.AddEdge(a, b)
	require.NoError(t, err)

	_, err = s.AddEdge(a, c)
	var ce *types.InvalidCardinalityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Vert->Edge outgoing", ce.Relation)
	assert.Equal(t, a, ce.Index)

	_, err = s.AddEdge(c, b)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Vert->Edge incoming", ce.Relation)
}

func TestStore_FailedCallLeavesStoreUnchanged(t *testing.T) {
	s, m := newTriangle(t)
	before := s.Tables().Clone()

	_, err := s.AddWire([]int{m.E[0], 42})
	require.Error(t, err)
	_, err = s.AddFace([]int{m.W}, []int{m.T})
	require.Error(t, err)

	assert.Equal(t, before.Wires, s.Tables().Wires)
	assert.Equal(t, before.Edges, s.Tables().Edges)
	assert.Equal(t, before.Faces, s.Tables().Faces)
}

func TestStore_BrokenChain(t *testing.T) {
	s := New()
	p := s.AddPosi()
	var v [4]int
	for i := range v {
		v[i], _ = s.AddVert(p)
	}
	e0, _ := s.AddEdge(v[0], v[1])
	e1, _ := s.AddEdge(v[2], v[3])

	_, err := s.AddWire([]int{e0, e1})
	var ce *types.ChainError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 0, ce.Position)
	assert.Equal(t, e0, ce.Edge)
	assert.Equal(t, e1, ce.Next)
	assert.ErrorIs(t, err, types.ErrBrokenChain)

	e, _ := s.Edge(e0)
	assert.Equal(t, None, e.Wire)
}

// --- Tombstones ---

func TestStore_TombstoneLifecycle(t *testing.T) {
	s := New()
	p0 := s.AddPosi()
	p1 := s.AddPosi()
	p2 := s.AddPosi()

	require.NoError(t, s.Tombstone(types.Posi, p1))

	assert.Equal(t, 2, s.NumEnts(types.Posi, false))
	assert.Equal(t, 3, s.NumEnts(types.Posi, true))
	assert.Equal(t, []int{p0, p2}, s.GetEnts(types.Posi, false))
	assert.Equal(t, []int{p0, p1, p2}, s.GetEnts(types.Posi, true))
	assert.False(t, s.EntExists(types.Posi, p1))
	assert.False(t, s.EntExists(types.Posi, 9))
	assert.Equal(t, types.Tombstoned, s.State(types.Posi, p1))
	assert.Equal(t, types.Uninitialized, s.State(types.Posi, 9))

	_, err := s.AddVert(p1)
	var de *types.DanglingReferenceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, types.Tombstoned, de.State)
	assert.ErrorIs(t, err, types.ErrInvalidEntity)

	_, err = s.Get(types.Posi, p1)
	assert.ErrorIs(t, err, types.ErrDanglingReference)

	err = s.Tombstone(types.Posi, p1)
	assert.ErrorIs(t, err, types.ErrDanglingReference)

	// New slots never reuse the hole.
	assert.Equal(t, 3, s.AddPosi())
}

func TestStore_TombstoneReferenced(t *testing.T) {
	s, m := newTriangle(t)

	err := s.Tombstone(types.Wire, m.W)
	var se *types.StillReferencedError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Wire->Edge", se.Relation)
	assert.True(t, errors.Is(err, types.ErrStillReferenced))

	err = s.Tombstone(types.Posi, m.P[0])
	assert.ErrorIs(t, err, types.ErrStillReferenced)
	assert.True(t, s.EntExists(types.Posi, m.P[0]))
}

func TestStore_ReleaseDisownTombstone(t *testing.T) {
	s, m := newTriangle(t)

	require.NoError(t, s.Disown(types.Pgon, m.PG))
	require.NoError(t, s.Release(types.Pgon, m.PG))
	f, _ := s.Face(m.F)
	assert.Equal(t, None, f.Pgon)
	require.NoError(t, s.Tombstone(types.Pgon, m.PG))

	require.NoError(t, s.Release(types.Face, m.F))
	w, _ := s.Wire(m.W)
	assert.Equal(t, None, w.Face)
	tr, _ := s.Tri(m.T)
	assert.Equal(t, None, tr.Face)
	require.NoError(t, s.Tombstone(types.Face, m.F))

	require.NoError(t, s.Release(types.Tri, m.T))
	v, _ := s.Vert(m.V[1])
	assert.Empty(t, v.Tris)
	require.NoError(t, s.Tombstone(types.Tri, m.T))

	require.NoError(t, s.Release(types.Wire, m.W))
	e, _ := s.Edge(m.E[1])
	assert.Equal(t, None, e.Wire)

	require.NoError(t, s.Release(types.Edge, m.E[1]))
	v, _ = s.Vert(m.V[1])
	assert.Equal(t, []int{m.E[0]}, v.Edges)
	v, _ = s.Vert(m.V[2])
	assert.Equal(t, []int{m.E[2]}, v.Edges)
	require.NoError(t, s.Tombstone(types.Edge, m.E[1]))

	_, err := s.Get(types.Face, m.F)
	assert.ErrorIs(t, err, types.ErrDanglingReference)
}

func TestStore_DisownVertClearsEdgeSlots(t *testing.T) {
	s, m := newTriangle(t)

	require.NoError(t, s.Disown(types.Vert, m.V[0]))
	e0, _ := s.Edge(m.E[0])
	assert.Equal(t, [2]int{None, m.V[1]}, e0.Verts)
	e2, _ := s.Edge(m.E[2])
	assert.Equal(t, [2]int{m.V[2], None}, e2.Verts)
	tr, _ := s.Tri(m.T)
	assert.Equal(t, [3]int{None, m.V[1], m.V[2]}, tr.Verts)
}

func TestStore_FaceSetTris(t *testing.T) {
	s, m := newTriangle(t)
	t1, err := s.AddTri(m.V[2], m.V[1], m.V[0])
	require.NoError(t, err)

	require.NoError(t, s.FaceSetTris(m.F, []int{t1}))
	f, _ := s.Face(m.F)
	assert.Equal(t, []int{t1}, f.Tris)
	old, _ := s.Tri(m.T)
	assert.Equal(t, None, old.Face)
	tr, _ := s.Tri(t1)
	assert.Equal(t, m.F, tr.Face)

	err = s.FaceSetTris(m.F, []int{t1, t1})
	assert.ErrorIs(t, err, types.ErrInvalidCardinality)
}

func TestStore_Reset(t *testing.T) {
	s, _ := newTriangle(t)
	s.Reset()
	for _, k := range types.Kinds {
		assert.Zero(t, s.NumEnts(k, true), k.String())
	}
}

// --- Collections ---

func TestStore_Collections(t *testing.T) {
	s := New()
	p := s.AddPosi()
	pt, err := s.BuildPoint(p)
	require.NoError(t, err)
	root, _ := s.AddColl(None)
	mid, _ := s.AddColl(root)
	leaf, _ := s.AddColl(mid)

	require.NoError(t, s.CollAdd(leaf, types.Point, pt))
	require.NoError(t, s.CollAdd(root, types.Point, pt))
	require.NoError(t, s.CollAdd(root, types.Point, pt))

	point, _ := s.Point(pt)
	assert.Equal(t, []int{root, leaf}, point.Colls)
	r, _ := s.Coll(root)
	assert.Equal(t, []int{pt}, r.Points)

	err = s.CollSetParent(root, leaf)
	assert.ErrorIs(t, err, types.ErrInvalidCardinality)
	err = s.CollSetParent(root, root)
	assert.ErrorIs(t, err, types.ErrInvalidCardinality)

	require.NoError(t, s.CollSetParent(leaf, root))
	r, _ = s.Coll(root)
	assert.Equal(t, []int{mid, leaf}, r.Children)
	m, _ := s.Coll(mid)
	assert.Empty(t, m.Children)

	require.NoError(t, s.CollRemove(root, types.Point, pt))
	point, _ = s.Point(pt)
	assert.Equal(t, []int{leaf}, point.Colls)

	require.NoError(t, s.CollRemove(root, types.Coll, leaf))
	l, _ := s.Coll(leaf)
	assert.Equal(t, None, l.Parent)

	err = s.CollAdd(root, types.Edge, 0)
	assert.ErrorIs(t, err, types.ErrInvalidCardinality)
}
