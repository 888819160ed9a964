package nav

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// Routing graph of the canonical hierarchy. Coll fans out to every object
// kind; Tri is a side branch of Face and Vert.
var (
	downNext = map[types.Kind][]types.Kind{
		types.Coll:  {types.Point, types.Pline, types.Pgon},
		types.Pgon:  {types.Face},
		types.Pline: {types.Wire},
		types.Point: {types.Vert},
		types.Face:  {types.Wire, types.Tri},
		types.Wire:  {types.Edge},
		types.Edge:  {types.Vert},
		types.Tri:   {types.Vert},
		types.Vert:  {types.Posi},
	}
	upNext = map[types.Kind][]types.Kind{
		types.Posi:  {types.Vert},
		types.Vert:  {types.Edge, types.Point, types.Tri},
		types.Edge:  {types.Wire},
		types.Tri:   {types.Face},
		types.Wire:  {types.Face, types.Pline},
		types.Face:  {types.Pgon},
		types.Point: {types.Coll},
		types.Pline: {types.Coll},
		types.Pgon:  {types.Coll},
	}
)

// reaches reports whether walking dir from k can arrive at to. Entering Tri
// leads nowhere but Tri itself.
func reaches(dir direction, k, to types.Kind) bool {
	if k == to {
		return true
	}
	if k == types.Tri {
		return false
	}
	next := downNext
	if dir == up {
		next = upNext
	}
	for _, nk := range next[k] {
		if reaches(dir, nk, to) {
			return true
		}
	}
	return false
}

// reachesFrom is reaches for a walk that starts at k, where leaving Tri is
// allowed.
func reachesFrom(dir direction, k, to types.Kind) bool {
	if k == to {
		return true
	}
	next := downNext
	if dir == up {
		next = upNext
	}
	for _, nk := range next[k] {
		if reaches(dir, nk, to) {
			return true
		}
	}
	return false
}

// AnyToAny returns the entities of kind to reachable from (from, idx) along
// the canonical hierarchy, without duplicates. Descending routes keep
// traversal order; ascending routes are sorted. Kinds that are neither
// above nor below each other meet at their lowest shared container below
// Coll; without one the result is empty. A collection reaches only its
// direct members.
func (n *Navigator) AnyToAny(from, to types.Kind, idx int) ([]int, error) {
	if !from.Valid() || !to.Valid() {
		return nil, types.ErrUnknownKind
	}
	if err := topo.CheckActive(n.r.Tables(), from, idx); err != nil {
		return nil, err
	}
	switch {
	case from == to:
		return []int{idx}, nil
	case reachesFrom(down, from, to):
		return n.descend(from, []int{idx}, to)
	case reachesFrom(up, from, to):
		set, err := n.ascend(from, []int{idx}, to)
		if err != nil {
			return nil, err
		}
		return toInts(set), nil
	}
	via, ok := meet(from, to)
	if !ok {
		return []int{}, nil
	}
	set, err := n.ascend(from, []int{idx}, via)
	if err != nil {
		return nil, err
	}
	return n.descend(via, toInts(set), to)
}

// meet returns the nearest kind above from, short of Coll, that reaches to
// on the way down.
func meet(from, to types.Kind) (types.Kind, bool) {
	queue := []types.Kind{from}
	seen := map[types.Kind]bool{from: true}
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		for _, nk := range upNext[k] {
			if nk == types.Coll || nk == types.Tri || seen[nk] {
				continue
			}
			seen[nk] = true
			if reaches(down, nk, to) {
				return nk, true
			}
			queue = append(queue, nk)
		}
	}
	return 0, false
}

// descend walks down from idxs of kind k to kind to, keeping first-seen
// order at every level.
func (n *Navigator) descend(k types.Kind, idxs []int, to types.Kind) ([]int, error) {
	if k == to {
		return idxs, nil
	}
	out := []int{}
	seen := roaring.New()
	for _, nk := range downNext[k] {
		if !reaches(down, nk, to) {
			continue
		}
		var level []int
		lseen := roaring.New()
		for _, i := range idxs {
			links, err := n.NavDown(k, nk, i)
			if err != nil {
				return nil, err
			}
			for _, l := range links {
				if lseen.CheckedAdd(uint32(l)) {
					level = append(level, l)
				}
			}
		}
		got, err := n.descend(nk, level, to)
		if err != nil {
			return nil, err
		}
		for _, g := range got {
			if seen.CheckedAdd(uint32(g)) {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

// ascend walks up from idxs of kind k to kind to, collecting the result as a
// set.
func (n *Navigator) ascend(k types.Kind, idxs []int, to types.Kind) (*roaring.Bitmap, error) {
	out := roaring.New()
	if k == to {
		for _, i := range idxs {
			out.Add(uint32(i))
		}
		return out, nil
	}
	for _, nk := range upNext[k] {
		if !reaches(up, nk, to) {
			continue
		}
		level := roaring.New()
		for _, i := range idxs {
			links, err := n.NavUp(k, nk, i)
			if err != nil {
				return nil, err
			}
			for _, l := range links {
				level.Add(uint32(l))
			}
		}
		got, err := n.ascend(nk, toInts(level), to)
		if err != nil {
			return nil, err
		}
		out.Or(got)
	}
	return out, nil
}

func toInts(b *roaring.Bitmap) []int {
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// AnyToColl returns, ascending, the collections that hold (kind, idx)
// directly or through the point, polyline or polygon that owns it. For a
// collection it returns its parent.
func (n *Navigator) AnyToColl(kind types.Kind, idx int) ([]int, error) {
	if !kind.Valid() {
		return nil, types.ErrUnknownKind
	}
	if kind == types.Coll {
		return n.CollToParent(idx)
	}
	colls := roaring.New()
	for _, obj := range []types.Kind{types.Point, types.Pline, types.Pgon} {
		owners, err := n.AnyToAny(kind, obj, idx)
		if err != nil {
			return nil, err
		}
		for _, o := range owners {
			cs, err := n.NavUp(obj, types.Coll, o)
			if err != nil {
				return nil, err
			}
			for _, c := range cs {
				colls.Add(uint32(c))
			}
		}
	}
	return toInts(colls), nil
}

// CollParent returns the parent of collection c, or topo.None.
func (n *Navigator) CollParent(c int) (int, error) {
	p, err := n.CollToParent(c)
	if err != nil {
		return topo.None, err
	}
	if len(p) == 0 {
		return topo.None, nil
	}
	return p[0], nil
}

// CollAncestors returns the parent chain of c, nearest first. The walk stops
// if the chain loops back on itself.
func (n *Navigator) CollAncestors(c int) ([]int, error) {
	out := []int{}
	seen := roaring.New()
	seen.Add(uint32(c))
	for {
		p, err := n.CollParent(c)
		if err != nil {
			return nil, err
		}
		if p == topo.None || !seen.CheckedAdd(uint32(p)) {
			return out, nil
		}
		out = append(out, p)
		c = p
	}
}
