package topo

import (
	"slices"

	"github.com/mesh-intelligence/brep/pkg/types"
)

// CollAdd makes (kind, idx) a member of coll. kind must be Point, Pline,
// Pgon or Coll; adding a collection sets coll as its parent. Adding an
// existing member is a no-op.
func (s *Store) CollAdd(coll int, kind types.Kind, idx int) error {
	if err := s.active(types.Coll, coll); err != nil {
		return err
	}
	if kind == types.Coll {
		return s.CollSetParent(idx, coll)
	}
	if !kind.IsObject() {
		return &types.InvalidCardinalityError{
			Kind: types.Coll, Index: coll, Relation: "Coll->" + kind.String(), Want: "Point, Pline, Pgon or Coll member", Got: 1,
		}
	}
	if err := s.active(kind, idx); err != nil {
		return err
	}
	c := &s.t.Colls[coll]
	switch kind {
	case types.Point:
		p := &s.t.Points[idx]
		if !slices.Contains(c.Points, idx) {
			c.Points = append(c.Points, idx)
		}
		p.Colls = insertSorted(p.Colls, coll)
	case types.Pline:
		p := &s.t.Plines[idx]
		if !slices.Contains(c.Plines, idx) {
			c.Plines = append(c.Plines, idx)
		}
		p.Colls = insertSorted(p.Colls, coll)
	case types.Pgon:
		p := &s.t.Pgons[idx]
		if !slices.Contains(c.Pgons, idx) {
			c.Pgons = append(c.Pgons, idx)
		}
		p.Colls = insertSorted(p.Colls, coll)
	}
	return nil
}

// CollRemove drops (kind, idx) from coll. Removing a collection clears its
// parent. Removing a non-member is a no-op.
func (s *Store) CollRemove(coll int, kind types.Kind, idx int) error {
	if err := s.active(types.Coll, coll); err != nil {
		return err
	}
	if err := s.active(kind, idx); err != nil {
		return err
	}
	c := &s.t.Colls[coll]
	switch kind {
	case types.Point:
		c.Points = removeValue(c.Points, idx)
		s.t.Points[idx].Colls = removeValue(s.t.Points[idx].Colls, coll)
	case types.Pline:
		c.Plines = removeValue(c.Plines, idx)
		s.t.Plines[idx].Colls = removeValue(s.t.Plines[idx].Colls, coll)
	case types.Pgon:
		c.Pgons = removeValue(c.Pgons, idx)
		s.t.Pgons[idx].Colls = removeValue(s.t.Pgons[idx].Colls, coll)
	case types.Coll:
		if s.t.Colls[idx].Parent == coll {
			return s.CollSetParent(idx, None)
		}
	default:
		return &types.InvalidCardinalityError{
			Kind: types.Coll, Index: coll, Relation: "Coll->" + kind.String(), Want: "Point, Pline, Pgon or Coll member", Got: 1,
		}
	}
	return nil
}

// CollSetParent moves coll under parent, or detaches it when parent is None.
// A parent that is coll itself or one of its descendants is rejected.
func (s *Store) CollSetParent(coll, parent int) error {
	if err := s.active(types.Coll, coll); err != nil {
		return err
	}
	if parent != None {
		if err := s.active(types.Coll, parent); err != nil {
			return err
		}
		depth := 0
		for p := parent; p != None && s.t.IsActive(types.Coll, p); p = s.t.Colls[p].Parent {
			depth++
			if p == coll || depth > len(s.t.Colls) {
				return &types.InvalidCardinalityError{
					Kind: types.Coll, Index: coll, Relation: "Coll->Parent", Want: "acyclic", Got: depth,
				}
			}
		}
	}
	c := &s.t.Colls[coll]
	if c.Parent == parent {
		return nil
	}
	if s.t.IsActive(types.Coll, c.Parent) {
		old := &s.t.Colls[c.Parent]
		old.Children = removeValue(old.Children, coll)
	}
	c.Parent = parent
	if parent != None {
		s.t.Colls[parent].Children = append(s.t.Colls[parent].Children, coll)
	}
	return nil
}
