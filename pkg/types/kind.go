package types

import (
	"fmt"
	"strings"
)

// Kind identifies one entity table of the topology store.
type Kind int

// Entity kinds, leaves first. The order is the table order used when
// enumerating or persisting a model.
const (
	Posi Kind = iota
	Tri
	Vert
	Edge
	Wire
	Face
	Point
	Pline
	Pgon
	Coll
)

// NumKinds is the number of entity kinds.
const NumKinds = int(Coll) + 1

// Kinds lists every kind in table order.
var Kinds = []Kind{Posi, Tri, Vert, Edge, Wire, Face, Point, Pline, Pgon, Coll}

var kindNames = [...]string{
	Posi:  "Posi",
	Tri:   "Tri",
	Vert:  "Vert",
	Edge:  "Edge",
	Wire:  "Wire",
	Face:  "Face",
	Point: "Point",
	Pline: "Pline",
	Pgon:  "Pgon",
	Coll:  "Coll",
}

// kindAliases maps accepted lower-case spellings to kinds for ParseKind.
var kindAliases = map[string]Kind{
	"posi": Posi, "position": Posi, "positions": Posi, "posis": Posi,
	"tri": Tri, "triangle": Tri, "triangles": Tri, "tris": Tri,
	"vert": Vert, "vertex": Vert, "vertices": Vert, "verts": Vert,
	"edge": Edge, "edges": Edge,
	"wire": Wire, "wires": Wire,
	"face": Face, "faces": Face,
	"point": Point, "points": Point,
	"pline": Pline, "polyline": Pline, "polylines": Pline, "plines": Pline,
	"pgon": Pgon, "polygon": Pgon, "polygons": Pgon, "pgons": Pgon,
	"coll": Coll, "collection": Coll, "collections": Coll, "colls": Coll,
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool {
	return k >= Posi && k <= Coll
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsObject reports whether k is a top-level object kind that can be a
// collection member.
func (k Kind) IsObject() bool {
	return k == Point || k == Pline || k == Pgon
}

// ParseKind resolves a kind name such as "vert", "Vertex" or "polylines".
// Returns ErrUnknownKind if the name is not recognized.
func ParseKind(name string) (Kind, error) {
	k, ok := kindAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

// SlotState is the lifecycle state of a table slot.
type SlotState int

// Slot states. A slot moves from Active to Tombstoned at most once and never
// back; Uninitialized slots have never been allocated.
const (
	Uninitialized SlotState = iota
	Active
	Tombstoned
)

func (s SlotState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Tombstoned:
		return "tombstoned"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// ParseSlotState resolves "active" or "tombstoned". Persisted slots are never
// uninitialized, so that name is rejected.
func ParseSlotState(name string) (SlotState, error) {
	switch name {
	case "active":
		return Active, nil
	case "tombstoned":
		return Tombstoned, nil
	default:
		return Uninitialized, fmt.Errorf("unknown slot state %q", name)
	}
}
