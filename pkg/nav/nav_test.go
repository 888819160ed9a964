// Tests for single hops, any-to-any routing and collection lookups.
package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// newTriangleModel builds the closed triangle P0..P2, V0..V2, E0..E2, W0,
// T0, F0, PG0 with PG0 in collection C0. Every index is 0..2 in creation
// order.
func newTriangleModel(t *testing.T) *topo.Store {
	t.Helper()
	s := topo.New()
	ps := []int{s.AddPosi(), s.AddPosi(), s.AddPosi()}
	var vs [3]int
	for i, p := range ps {
		v, err := s.AddVert(p)
		require.NoError(t, err)
		vs[i] = v
	}
	var es []int
	for i := range vs {
		e, err := s.AddEdge(vs[i], vs[(i+1)%3])
		require.NoError(t, err)
		es = append(es, e)
	}
	w, err := s.AddWire(es)
	require.NoError(t, err)
	tr, err := s.AddTri(vs[0], vs[1], vs[2])
	require.NoError(t, err)
	f, err := s.AddFace([]int{w}, []int{tr})
	require.NoError(t, err)
	pg, err := s.AddPgon(f)
	require.NoError(t, err)
	c, err := s.AddColl(topo.None)
	require.NoError(t, err)
	require.NoError(t, s.CollAdd(c, types.Pgon, pg))
	return s
}

// --- Single hops ---

func TestNavigator_Hops(t *testing.T) {
	n := New(newTriangleModel(t))

	tests := []struct {
		name string
		run  func() ([]int, error)
		want []int
	}{
		{"face wires", func() ([]int, error) { return n.FaceToWire(0) }, []int{0}},
		{"face tris", func() ([]int, error) { return n.FaceToTri(0) }, []int{0}},
		{"wire edges", func() ([]int, error) { return n.WireToEdge(0) }, []int{0, 1, 2}},
		{"edge verts", func() ([]int, error) { return n.EdgeToVert(2) }, []int{2, 0}},
		{"tri verts", func() ([]int, error) { return n.TriToVert(0) }, []int{0, 1, 2}},
		{"vert posi", func() ([]int, error) { return n.VertToPosi(1) }, []int{1}},
		{"pgon face", func() ([]int, error) { return n.PgonToFace(0) }, []int{0}},
		{"coll pgons", func() ([]int, error) { return n.CollToPgon(0) }, []int{0}},
		{"posi verts", func() ([]int, error) { return n.PosiToVert(0) }, []int{0}},
		{"vert edges ascending", func() ([]int, error) { return n.VertToEdge(0) }, []int{0, 2}},
		{"vert tris", func() ([]int, error) { return n.VertToTri(2) }, []int{0}},
		{"tri face", func() ([]int, error) { return n.TriToFace(0) }, []int{0}},
		{"edge wire", func() ([]int, error) { return n.EdgeToWire(1) }, []int{0}},
		{"wire face", func() ([]int, error) { return n.WireToFace(0) }, []int{0}},
		{"face pgon", func() ([]int, error) { return n.FaceToPgon(0) }, []int{0}},
		{"pgon colls", func() ([]int, error) { return n.PgonToColl(0) }, []int{0}},
		{"wire pline absent", func() ([]int, error) { return n.WireToPline(0) }, []int{}},
		{"vert point absent", func() ([]int, error) { return n.VertToPoint(0) }, []int{}},
		{"coll parent absent", func() ([]int, error) { return n.CollToParent(0) }, []int{}},
		{"coll points empty", func() ([]int, error) { return n.CollToPoint(0) }, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.run()
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNavigator_NotAdjacent(t *testing.T) {
	n := New(newTriangleModel(t))

	_, err := n.NavDown(types.Face, types.Vert, 0)
	assert.ErrorIs(t, err, types.ErrNotAdjacent)
	_, err = n.NavUp(types.Face, types.Wire, 0)
	assert.ErrorIs(t, err, types.ErrNotAdjacent)
	_, err = n.NavDown(types.Kind(-3), types.Vert, 0)
	assert.ErrorIs(t, err, types.ErrUnknownKind)
}

func TestNavigator_DanglingVersusAbsent(t *testing.T) {
	tables := topo.NewTables()
	require.NoError(t, tables.Put(types.Edge, 0, topo.EmptyRecord(types.Edge), types.Tombstoned))
	require.NoError(t, tables.Put(types.Wire, 0, topo.Wire{Edges: []int{0}, Face: topo.None, Pline: topo.None}, types.Active))
	n := New(tables)

	// A link to a tombstoned slot is an error.
	_, err := n.WireToEdge(0)
	var de *types.DanglingReferenceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, types.Edge, de.Kind)
	assert.Equal(t, types.Tombstoned, de.State)
	assert.ErrorIs(t, err, types.ErrInvalidEntity)

	_, err = n.AnyToAny(types.Wire, types.Vert, 0)
	assert.ErrorIs(t, err, types.ErrDanglingReference)

	// The wire has no face or polyline: empty results, no error.
	got, err := n.WireToFace(0)
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = n.AnyToAny(types.Wire, types.Pgon, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// A never-allocated source is an error too.
	_, err = n.AnyToAny(types.Wire, types.Edge, 5)
	require.ErrorAs(t, err, &de)
	assert.Equal(t, types.Uninitialized, de.State)
}

// --- Any-to-any ---

func TestAnyToAny_Triangle(t *testing.T) {
	n := New(newTriangleModel(t))

	tests := []struct {
		from, to types.Kind
		idx      int
		want     []int
	}{
		{types.Face, types.Vert, 0, []int{0, 1, 2}},
		{types.Face, types.Edge, 0, []int{0, 1, 2}},
		{types.Face, types.Posi, 0, []int{0, 1, 2}},
		{types.Pgon, types.Tri, 0, []int{0}},
		{types.Coll, types.Vert, 0, []int{0, 1, 2}},
		{types.Coll, types.Pgon, 0, []int{0}},
		{types.Coll, types.Coll, 0, []int{0}},
		{types.Tri, types.Vert, 0, []int{0, 1, 2}},
		{types.Tri, types.Posi, 0, []int{0, 1, 2}},
		{types.Vert, types.Pgon, 1, []int{0}},
		{types.Vert, types.Edge, 0, []int{0, 2}},
		{types.Vert, types.Coll, 2, []int{0}},
		{types.Posi, types.Face, 2, []int{0}},
		{types.Posi, types.Tri, 1, []int{0}},
		{types.Edge, types.Edge, 1, []int{1}},
		{types.Edge, types.Tri, 1, []int{0}},
		{types.Tri, types.Edge, 0, []int{0, 1, 2}},
		{types.Tri, types.Wire, 0, []int{0}},
		{types.Wire, types.Pline, 0, []int{}},
		{types.Tri, types.Point, 0, []int{}},
		{types.Edge, types.Point, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			got, err := n.AnyToAny(tt.from, tt.to, tt.idx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnyToAny_SharedPositions(t *testing.T) {
	s := topo.New()
	p0, p1 := s.AddPosi(), s.AddPosi()
	pl, err := s.BuildPline([]int{p0, p1, p0}, false)
	require.NoError(t, err)
	n := New(s)

	got, err := n.AnyToAny(types.Pline, types.Posi, pl)
	require.NoError(t, err)
	assert.Equal(t, []int{p0, p1}, got)

	got, err = n.AnyToAny(types.Posi, types.Pline, p0)
	require.NoError(t, err)
	assert.Equal(t, []int{pl}, got)

	got, err = n.AnyToAny(types.Posi, types.Vert, p0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, got)

	got, err = n.AnyToAny(types.Posi, types.Edge, p0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	p2 := s.AddPosi()
	_, err = s.BuildPoint(p2)
	require.NoError(t, err)
	got, err = n.AnyToAny(types.Point, types.Pline, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnyToAny_NoDuplicatesAcrossMembers(t *testing.T) {
	s := topo.New()
	p := s.AddPosi()
	c, _ := s.AddColl(topo.None)
	for i := 0; i < 3; i++ {
		pt, err := s.BuildPoint(p)
		require.NoError(t, err)
		require.NoError(t, s.CollAdd(c, types.Point, pt))
	}
	n := New(s)

	got, err := n.AnyToAny(types.Coll, types.Posi, c)
	require.NoError(t, err)
	assert.Equal(t, []int{p}, got)

	got, err = n.AnyToAny(types.Coll, types.Vert, c)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)
}

// --- Collections and wires ---

func TestAnyToColl(t *testing.T) {
	s := newTriangleModel(t)
	child, err := s.AddColl(0)
	require.NoError(t, err)
	grand, err := s.AddColl(child)
	require.NoError(t, err)
	require.NoError(t, s.CollAdd(grand, types.Pgon, 0))
	n := New(s)

	got, err := n.AnyToColl(types.Vert, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, grand}, got)

	got, err = n.AnyToColl(types.Tri, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, grand}, got)

	got, err = n.AnyToColl(types.Coll, grand)
	require.NoError(t, err)
	assert.Equal(t, []int{child}, got)

	parent, err := n.CollParent(0)
	require.NoError(t, err)
	assert.Equal(t, topo.None, parent)

	chain, err := n.CollAncestors(grand)
	require.NoError(t, err)
	assert.Equal(t, []int{child, 0}, chain)
}

func TestWireAndFaceHelpers(t *testing.T) {
	s := topo.New()
	outer := []int{s.AddPosi(), s.AddPosi(), s.AddPosi(), s.AddPosi()}
	hole := []int{s.AddPosi(), s.AddPosi(), s.AddPosi()}
	pg, err := s.BuildPgon(outer, [][]int{hole}, nil)
	require.NoError(t, err)
	pl, err := s.BuildPline(outer[:2], false)
	require.NoError(t, err)
	n := New(s)

	faces, err := n.PgonToFace(pg)
	require.NoError(t, err)
	require.Len(t, faces, 1)

	bound, err := n.FaceBoundary(faces[0])
	require.NoError(t, err)
	assert.Equal(t, 0, bound)
	holes, err := n.FaceHoles(faces[0])
	require.NoError(t, err)
	assert.Equal(t, []int{1}, holes)

	closed, err := n.WireIsClosed(bound)
	require.NoError(t, err)
	assert.True(t, closed)

	wires, err := n.PlineToWire(pl)
	require.NoError(t, err)
	closed, err = n.WireIsClosed(wires[0])
	require.NoError(t, err)
	assert.False(t, closed)
}
