// Tests for the consistency checker.
package check

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/brep/pkg/nav"
	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// newModel builds a triangle polygon (P0..P2, V0..V2, E0..E2, W0, T0, F0,
// PG0) in collection C0, an open polyline PL0 over fresh vertices, a point
// PT0, and collection C1 under C0.
func newModel(t *testing.T) *topo.Store {
	t.Helper()
	s := topo.New()
	ps := []int{s.AddPosi(), s.AddPosi(), s.AddPosi()}
	pg, err := s.BuildPgon(ps, nil, [][3]int{{0, 1, 2}})
	require.NoError(t, err)
	pl, err := s.BuildPline(ps, false)
	require.NoError(t, err)
	pt, err := s.BuildPoint(ps[0])
	require.NoError(t, err)
	c0, err := s.AddColl(topo.None)
	require.NoError(t, err)
	_, err = s.AddColl(c0)
	require.NoError(t, err)
	require.NoError(t, s.CollAdd(c0, types.Pgon, pg))
	require.NoError(t, s.CollAdd(c0, types.Pline, pl))
	require.NoError(t, s.CollAdd(c0, types.Point, pt))
	return s
}

// corrupt returns a store over a copy of s's tables after applying fn.
func corrupt(s *topo.Store, fn func(*topo.Tables)) *topo.Store {
	t := s.Tables().Clone()
	fn(t)
	return topo.Restore(t)
}

func TestCheck_FreshModelIsClean(t *testing.T) {
	s := newModel(t)
	got := New(s).Check()
	require.NotNil(t, got)
	assert.Empty(t, got)

	rep := New(s).Report()
	assert.True(t, rep.OK())
	assert.Equal(t, 3, rep.Active[types.Posi])
	assert.Equal(t, 7, rep.Active[types.Vert])
	assert.Equal(t, 2, rep.Active[types.Coll])
}

// TestCheck_TriangleBuiltByHand builds P0..P2, V0..V2, E0..E2, W0, T0, F0
// and PG0 one call at a time.
func TestCheck_TriangleBuiltByHand(t *testing.T) {
	s := topo.New()
	ps := []int{s.AddPosi(), s.AddPosi(), s.AddPosi()}
	vs := make([]int, 3)
	for i, p := range ps {
		v, err := s.AddVert(p)
		require.NoError(t, err)
		vs[i] = v
	}
	es := make([]int, 3)
	for i := range vs {
		e, err := s.AddEdge(vs[i], vs[(i+1)%3])
		require.NoError(t, err)
		es[i] = e
	}
	w, err := s.AddWire(es)
	require.NoError(t, err)
	tr, err := s.AddTri(vs[0], vs[1], vs[2])
	require.NoError(t, err)
	f, err := s.AddFace([]int{w}, []int{tr})
	require.NoError(t, err)
	_, err = s.AddPgon(f)
	require.NoError(t, err)

	got := New(s).Check()
	require.NotNil(t, got)
	assert.Empty(t, got)

	verts, err := nav.New(s).AnyToAny(types.Face, types.Vert, f)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, verts)
}

func TestCheck_EmptyStore(t *testing.T) {
	assert.Empty(t, New(topo.New()).Check())
}

func TestCheck_AfterCascadeDelete(t *testing.T) {
	s := newModel(t)
	require.NoError(t, s.DelPgon(0, false))
	require.NoError(t, s.DelColl(1))
	assert.Empty(t, New(s).Check())
}

// --- One stripped link, one diagnostic ---

func TestCheck_StrippedReciprocal(t *testing.T) {
	tests := []struct {
		name  string
		strip func(*topo.Tables)
		want  string
	}{
		{"posi to vert", func(t *topo.Tables) { t.Posis[0].Verts = t.Posis[0].Verts[1:] },
			"Vert 0: Posi->Vert index is missing on Posi 0."},
		{"face to pgon", func(t *topo.Tables) { t.Faces[0].Pgon = topo.None },
			"Face 0: Face->Pgon missing."},
		{"tri to face", func(t *topo.Tables) { t.Tris[0].Face = topo.None },
			"Tri 0: Tri->Face missing."},
		{"edge to wire", func(t *topo.Tables) { t.Edges[1].Wire = topo.None },
			"Edge 1: Edge->Wire missing."},
		{"wire to face", func(t *topo.Tables) { t.Wires[0].Face = topo.None },
			"Wire 0: Wire->Face|Pline missing."},
		{"wire to pline", func(t *topo.Tables) { t.Wires[1].Pline = topo.None },
			"Wire 1: Wire->Face|Pline missing."},
		{"vert to tri", func(t *topo.Tables) { t.Verts[1].Tris = nil },
			"Tri 0: Vert->Tri index is missing on Vert 1."},
		{"vert to outgoing edge", func(t *topo.Tables) { t.Verts[0].Edges = t.Verts[0].Edges[:1] },
			"Edge 0: Vert->Edge index is missing on Vert 0."},
		{"vert to incoming edge", func(t *topo.Tables) { t.Verts[1].Edges = t.Verts[1].Edges[1:] },
			"Edge 0: Vert->Edge index is missing on Vert 1."},
		{"vert to only edge", func(t *topo.Tables) { t.Verts[3].Edges = nil },
			"Vert 3: Vert->Point|Edge missing."},
		{"vert to point", func(t *topo.Tables) { t.Verts[6].Point = topo.None },
			"Vert 6: Vert->Point|Edge missing."},
		{"pgon to coll", func(t *topo.Tables) { t.Pgons[0].Colls = nil },
			"Coll 0: Pgon->Coll index is missing on Pgon 0."},
		{"point to coll", func(t *topo.Tables) { t.Points[0].Colls = nil },
			"Coll 0: Point->Coll index is missing on Point 0."},
		{"coll to parent", func(t *topo.Tables) { t.Colls[1].Parent = topo.None },
			"Coll 0: Coll->Parent index of child 1 is incorrect."},
		{"coll to child", func(t *topo.Tables) { t.Colls[0].Children = nil },
			"Coll 1: Coll->Child index is missing on Coll 0."},
		{"coll to pline", func(t *topo.Tables) { t.Colls[0].Plines = nil },
			"Pline 0: Coll->Pline index is missing on Coll 0."},
		{"pline to wire", func(t *topo.Tables) { t.Plines[0].Wire = topo.None },
			"Pline 0: Pline->Wire missing."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := corrupt(newModel(t), tt.strip)
			assert.Equal(t, []string{tt.want}, New(s).Check())
		})
	}
}

// --- Other violations ---

func TestCheck_EdgeSlotOrder(t *testing.T) {
	s := corrupt(newModel(t), func(t *topo.Tables) {
		e := t.Verts[0].Edges
		e[0], e[1] = e[1], e[0]
	})
	assert.Equal(t, []string{
		"Wire 0: Vert->Edge vertex 0 holds edge 0 in the wrong slot.",
		"Wire 0: Vert->Edge vertex 0 holds edge 2 in the wrong slot.",
	}, New(s).Check())
}

func TestCheck_OpenWireEndCount(t *testing.T) {
	// Give the first vertex of the polyline (V3) a second edge.
	s := newModel(t)
	p := s.AddPosi()
	v, err := s.AddVert(p)
	require.NoError(t, err)
	_, err = s.AddEdge(v, 3)
	require.NoError(t, err)

	got := New(s).Check()
	assert.Contains(t, got, "Wire 1: Vert->Edge vertex 3 has 2 edges, want 1.")
	assert.Contains(t, got, "Wire 1: Vert->Edge vertex 3 holds edge 3 in the wrong slot.")
	assert.Contains(t, got, "Edge 5: Edge->Wire missing.")
}

func TestCheck_DanglingLinks(t *testing.T) {
	tables := topo.NewTables()
	require.NoError(t, tables.Put(types.Wire, 0, topo.EmptyRecord(types.Wire), types.Tombstoned))
	require.NoError(t, tables.Put(types.Face, 0, topo.Face{Wires: []int{0, 4}, Pgon: topo.None}, types.Active))

	got := New(tables).Check()
	assert.Equal(t, []string{
		"Face 0: Face->Wire index 0 is tombstoned.",
		"Face 0: Face->Wire index 4 is uninitialized.",
		"Face 0: Face->Pgon missing.",
	}, got)
}

func TestCheck_DoubleOwnership(t *testing.T) {
	s := corrupt(newModel(t), func(t *topo.Tables) {
		t.Wires[0].Pline = 0
		t.Verts[6].Edges = []int{0}
	})
	got := New(s).Check()
	assert.Contains(t, got, "Wire 0: Wire->Face|Pline has both a face and a polyline.")
	assert.Contains(t, got, "Wire 0: Pline->Wire index is incorrect on Pline 0.")
	assert.Contains(t, got, "Vert 6: Vert->Point|Edge has both a point and edges.")
}

func TestCheck_CollCycle(t *testing.T) {
	s := corrupt(newModel(t), func(t *topo.Tables) {
		t.Colls[0].Parent = 1
		t.Colls[1].Children = []int{0}
	})
	got := New(s).Check()
	assert.Contains(t, got, "Coll 0: Coll->Parent forms a cycle.")
	assert.Contains(t, got, "Coll 1: Coll->Parent forms a cycle.")
}

type nilReader struct{}

func (nilReader) Tables() *topo.Tables { return nil }

func TestCheck_RecoversPanic(t *testing.T) {
	got := New(nilReader{}).Check()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "check aborted")
}

func TestCheck_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	s := corrupt(newModel(t), func(t *topo.Tables) { t.Faces[0].Pgon = topo.None })

	rep := New(s, WithLogger(log)).Report()
	assert.False(t, rep.OK())
	assert.Len(t, rep.ByKind()[types.Face], 1)
	assert.Contains(t, buf.String(), `"msg":"check found violations"`)
	assert.Contains(t, buf.String(), `"diagnostics":1`)
}
