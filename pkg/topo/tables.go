package topo

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// None marks an absent link.
const None = -1

// Posi is a position slot. Coordinates live in an external attribute store
// keyed by the position index.
type Posi struct {
	Verts []int `json:"verts"` // ascending
}

// Vert is a vertex slot. A vertex is owned by a point or by one or two
// edges, never both. Edges is positional: index 0 holds the edge ending at
// the vertex and index 1 the edge starting at it; a lone edge sits at 0.
type Vert struct {
	Posi  int   `json:"posi"`
	Point int   `json:"point"`
	Edges []int `json:"edges"`
	Tris  []int `json:"tris"` // ascending
}

// Tri is a render triangle slot.
type Tri struct {
	Verts [3]int `json:"verts"`
	Face  int    `json:"face"`
}

// Edge is an edge slot; Verts holds the start and end vertex.
type Edge struct {
	Verts [2]int `json:"verts"`
	Wire  int    `json:"wire"`
}

// Wire is an ordered chain of edges owned by a face or a polyline.
type Wire struct {
	Edges []int `json:"edges"`
	Face  int   `json:"face"`
	Pline int   `json:"pline"`
}

// Face is a face slot. Wires[0] is the outer boundary, the rest are holes.
type Face struct {
	Wires []int `json:"wires"`
	Tris  []int `json:"tris"`
	Pgon  int   `json:"pgon"`
}

// Point owns one vertex.
type Point struct {
	Vert  int   `json:"vert"`
	Colls []int `json:"colls"` // ascending
}

// Pline owns one wire.
type Pline struct {
	Wire  int   `json:"wire"`
	Colls []int `json:"colls"` // ascending
}

// Pgon owns one face.
type Pgon struct {
	Face  int   `json:"face"`
	Colls []int `json:"colls"` // ascending
}

// Coll groups points, polylines, polygons and child collections.
type Coll struct {
	Parent   int   `json:"parent"`
	Points   []int `json:"points"`
	Plines   []int `json:"plines"`
	Pgons    []int `json:"pgons"`
	Children []int `json:"children"`
}

// Tables holds one slice per kind plus the tombstone set of each kind. The
// index of a record in its slice is the entity's identity.
//
// Tables is exported for auditing and persistence. Code outside this package
// must treat a *Tables obtained from a Store as read-only.
type Tables struct {
	Posis  []Posi
	Tris   []Tri
	Verts  []Vert
	Edges  []Edge
	Wires  []Wire
	Faces  []Face
	Points []Point
	Plines []Pline
	Pgons  []Pgon
	Colls  []Coll

	dead [types.NumKinds]*roaring.Bitmap
}

// NewTables returns empty tables.
func NewTables() *Tables {
	t := &Tables{}
	for i := range t.dead {
		t.dead[i] = roaring.New()
	}
	return t
}

// Tables lets *Tables stand in for a Reader.
func (t *Tables) Tables() *Tables { return t }

// Len returns the number of allocated slots of a kind, tombstones included.
func (t *Tables) Len(kind types.Kind) int {
	switch kind {
	case types.Posi:
		return len(t.Posis)
	case types.Tri:
		return len(t.Tris)
	case types.Vert:
		return len(t.Verts)
	case types.Edge:
		return len(t.Edges)
	case types.Wire:
		return len(t.Wires)
	case types.Face:
		return len(t.Faces)
	case types.Point:
		return len(t.Points)
	case types.Pline:
		return len(t.Plines)
	case types.Pgon:
		return len(t.Pgons)
	case types.Coll:
		return len(t.Colls)
	default:
		return 0
	}
}

// NumDead returns the number of tombstoned slots of a kind.
func (t *Tables) NumDead(kind types.Kind) int {
	if !kind.Valid() {
		return 0
	}
	if t.dead[kind] == nil {
		return 0
	}
	return int(t.dead[kind].GetCardinality())
}

// deadSet returns the tombstone set of a kind, allocating it on first use so
// that a zero Tables is usable.
func (t *Tables) deadSet(kind types.Kind) *roaring.Bitmap {
	if t.dead[kind] == nil {
		t.dead[kind] = roaring.New()
	}
	return t.dead[kind]
}

// State returns the slot state of (kind, idx).
func (t *Tables) State(kind types.Kind, idx int) types.SlotState {
	if !kind.Valid() || idx < 0 || idx >= t.Len(kind) {
		return types.Uninitialized
	}
	if d := t.dead[kind]; d != nil && d.Contains(uint32(idx)) {
		return types.Tombstoned
	}
	return types.Active
}

// IsActive reports whether (kind, idx) is an allocated, live slot.
func (t *Tables) IsActive(kind types.Kind, idx int) bool {
	return t.State(kind, idx) == types.Active
}

// Record returns the record stored at (kind, idx) without checking its state.
// The returned value shares slices with the table.
func (t *Tables) Record(kind types.Kind, idx int) any {
	if idx < 0 || idx >= t.Len(kind) {
		return nil
	}
	switch kind {
	case types.Posi:
		return t.Posis[idx]
	case types.Tri:
		return t.Tris[idx]
	case types.Vert:
		return t.Verts[idx]
	case types.Edge:
		return t.Edges[idx]
	case types.Wire:
		return t.Wires[idx]
	case types.Face:
		return t.Faces[idx]
	case types.Point:
		return t.Points[idx]
	case types.Pline:
		return t.Plines[idx]
	case types.Pgon:
		return t.Pgons[idx]
	case types.Coll:
		return t.Colls[idx]
	default:
		return nil
	}
}

// Put appends rec as the next slot of kind in the given state. Loaders use it
// to rebuild tables slot by slot; idx must equal the current length so that
// indices round-trip exactly. No link validation is done.
func (t *Tables) Put(kind types.Kind, idx int, rec any, state types.SlotState) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", types.ErrUnknownKind, int(kind))
	}
	if idx != t.Len(kind) {
		return fmt.Errorf("put %s %d: next slot is %d", kind, idx, t.Len(kind))
	}
	if state == types.Uninitialized {
		return fmt.Errorf("put %s %d: slot state must be active or tombstoned", kind, idx)
	}
	var ok bool
	switch kind {
	case types.Posi:
		var r Posi
		r, ok = rec.(Posi)
		t.Posis = append(t.Posis, r)
	case types.Tri:
		var r Tri
		r, ok = rec.(Tri)
		t.Tris = append(t.Tris, r)
	case types.Vert:
		var r Vert
		r, ok = rec.(Vert)
		t.Verts = append(t.Verts, r)
	case types.Edge:
		var r Edge
		r, ok = rec.(Edge)
		t.Edges = append(t.Edges, r)
	case types.Wire:
		var r Wire
		r, ok = rec.(Wire)
		t.Wires = append(t.Wires, r)
	case types.Face:
		var r Face
		r, ok = rec.(Face)
		t.Faces = append(t.Faces, r)
	case types.Point:
		var r Point
		r, ok = rec.(Point)
		t.Points = append(t.Points, r)
	case types.Pline:
		var r Pline
		r, ok = rec.(Pline)
		t.Plines = append(t.Plines, r)
	case types.Pgon:
		var r Pgon
		r, ok = rec.(Pgon)
		t.Pgons = append(t.Pgons, r)
	case types.Coll:
		var r Coll
		r, ok = rec.(Coll)
		t.Colls = append(t.Colls, r)
	}
	if !ok {
		t.truncate(kind, idx)
		return fmt.Errorf("put %s %d: record has type %T", kind, idx, rec)
	}
	if state == types.Tombstoned {
		t.deadSet(kind).Add(uint32(idx))
	}
	return nil
}

// truncate drops slots from idx on; used to undo a failed Put.
func (t *Tables) truncate(kind types.Kind, idx int) {
	switch kind {
	case types.Posi:
		t.Posis = t.Posis[:idx]
	case types.Tri:
		t.Tris = t.Tris[:idx]
	case types.Vert:
		t.Verts = t.Verts[:idx]
	case types.Edge:
		t.Edges = t.Edges[:idx]
	case types.Wire:
		t.Wires = t.Wires[:idx]
	case types.Face:
		t.Faces = t.Faces[:idx]
	case types.Point:
		t.Points = t.Points[:idx]
	case types.Pline:
		t.Plines = t.Plines[:idx]
	case types.Pgon:
		t.Pgons = t.Pgons[:idx]
	case types.Coll:
		t.Colls = t.Colls[:idx]
	}
}

// Clone returns a deep copy of the tables.
func (t *Tables) Clone() *Tables {
	c := NewTables()
	c.Posis = make([]Posi, len(t.Posis))
	for i, r := range t.Posis {
		c.Posis[i] = r.clone()
	}
	c.Tris = slices.Clone(t.Tris)
	c.Verts = make([]Vert, len(t.Verts))
	for i, r := range t.Verts {
		c.Verts[i] = r.clone()
	}
	c.Edges = slices.Clone(t.Edges)
	c.Wires = make([]Wire, len(t.Wires))
	for i, r := range t.Wires {
		c.Wires[i] = r.clone()
	}
	c.Faces = make([]Face, len(t.Faces))
	for i, r := range t.Faces {
		c.Faces[i] = r.clone()
	}
	c.Points = make([]Point, len(t.Points))
	for i, r := range t.Points {
		c.Points[i] = r.clone()
	}
	c.Plines = make([]Pline, len(t.Plines))
	for i, r := range t.Plines {
		c.Plines[i] = r.clone()
	}
	c.Pgons = make([]Pgon, len(t.Pgons))
	for i, r := range t.Pgons {
		c.Pgons[i] = r.clone()
	}
	c.Colls = make([]Coll, len(t.Colls))
	for i, r := range t.Colls {
		c.Colls[i] = r.clone()
	}
	for i := range t.dead {
		if t.dead[i] != nil {
			c.dead[i] = t.dead[i].Clone()
		}
	}
	return c
}

func (r Posi) clone() Posi { return Posi{Verts: slices.Clone(r.Verts)} }

func (r Vert) clone() Vert {
	return Vert{Posi: r.Posi, Point: r.Point, Edges: slices.Clone(r.Edges), Tris: slices.Clone(r.Tris)}
}

func (r Wire) clone() Wire {
	return Wire{Edges: slices.Clone(r.Edges), Face: r.Face, Pline: r.Pline}
}

func (r Face) clone() Face {
	return Face{Wires: slices.Clone(r.Wires), Tris: slices.Clone(r.Tris), Pgon: r.Pgon}
}

func (r Point) clone() Point { return Point{Vert: r.Vert, Colls: slices.Clone(r.Colls)} }

func (r Pline) clone() Pline { return Pline{Wire: r.Wire, Colls: slices.Clone(r.Colls)} }

func (r Pgon) clone() Pgon { return Pgon{Face: r.Face, Colls: slices.Clone(r.Colls)} }

func (r Coll) clone() Coll {
	return Coll{
		Parent:   r.Parent,
		Points:   slices.Clone(r.Points),
		Plines:   slices.Clone(r.Plines),
		Pgons:    slices.Clone(r.Pgons),
		Children: slices.Clone(r.Children),
	}
}

// Empty records written into tombstoned slots.
var (
	emptyVert  = Vert{Posi: None, Point: None}
	emptyTri   = Tri{Verts: [3]int{None, None, None}, Face: None}
	emptyEdge  = Edge{Verts: [2]int{None, None}, Wire: None}
	emptyWire  = Wire{Face: None, Pline: None}
	emptyFace  = Face{Pgon: None}
	emptyPoint = Point{Vert: None}
	emptyPline = Pline{Wire: None}
	emptyPgon  = Pgon{Face: None}
	emptyColl  = Coll{Parent: None}
)

// EmptyRecord returns the record with no links for a kind.
func EmptyRecord(kind types.Kind) any {
	switch kind {
	case types.Posi:
		return Posi{}
	case types.Tri:
		return emptyTri
	case types.Vert:
		return emptyVert
	case types.Edge:
		return emptyEdge
	case types.Wire:
		return emptyWire
	case types.Face:
		return emptyFace
	case types.Point:
		return emptyPoint
	case types.Pline:
		return emptyPline
	case types.Pgon:
		return emptyPgon
	case types.Coll:
		return emptyColl
	default:
		return nil
	}
}

// insertSorted inserts v into the ascending slice s unless already present.
func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}
	return slices.Insert(s, i, v)
}

// removeValue deletes every occurrence of v, keeping order.
func removeValue(s []int, v int) []int {
	return slices.DeleteFunc(s, func(x int) bool { return x == v })
}

// hasDuplicates reports whether s holds any value twice.
func hasDuplicates(s []int) bool {
	seen := roaring.New()
	for _, v := range s {
		if v < 0 {
			continue
		}
		if !seen.CheckedAdd(uint32(v)) {
			return true
		}
	}
	return false
}
