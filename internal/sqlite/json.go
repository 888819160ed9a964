package sqlite

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/mesh-intelligence/brep/pkg/topo"
	"github.com/mesh-intelligence/brep/pkg/types"
)

// Line types of a model file. The first model line is the header; every
// slot line is one table slot. Lines of other types are ignored.
const (
	lineModel = "model"
	lineSlot  = "slot"
)

// createdLayout is RFC 3339 with fixed-width nanoseconds, so created_at
// strings sort in time order.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

type modelLine struct {
	Type      string `json:"type"`
	ModelID   string `json:"model_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

type slotLine struct {
	Type  string          `json:"type"`
	Kind  string          `json:"kind"`
	Idx   int             `json:"idx"`
	State string          `json:"state"`
	Links json.RawMessage `json:"links"`
}

func newModelLine(m types.Model) modelLine {
	return modelLine{
		Type:      lineModel,
		ModelID:   m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt.UTC().Format(createdLayout),
	}
}

func (l modelLine) model(slots int) (types.Model, error) {
	created, err := time.Parse(time.RFC3339, l.CreatedAt)
	if err != nil {
		return types.Model{}, fmt.Errorf("model %s: created_at: %w", l.ModelID, err)
	}
	return types.Model{ID: l.ModelID, Name: l.Name, CreatedAt: created, Slots: slots}, nil
}

// encodeTables returns one slot line per slot of t in table order.
func encodeTables(t *topo.Tables) ([]slotLine, error) {
	var out []slotLine
	for _, k := range types.Kinds {
		for i := 0; i < t.Len(k); i++ {
			links, err := json.Marshal(t.Record(k, i))
			if err != nil {
				return nil, fmt.Errorf("encoding %s %d: %w", k, i, err)
			}
			out = append(out, slotLine{
				Type:  lineSlot,
				Kind:  k.String(),
				Idx:   i,
				State: t.State(k, i).String(),
				Links: links,
			})
		}
	}
	return out, nil
}

// buildTables rebuilds tables from slot lines given in any order. Every kind
// must list its slots 0..n-1 without gaps. Links are not validated.
func buildTables(lines []slotLine) (*topo.Tables, error) {
	type slot struct {
		kind types.Kind
		line slotLine
	}
	slots := make([]slot, 0, len(lines))
	for _, l := range lines {
		k, err := types.ParseKind(l.Kind)
		if err != nil {
			return nil, fmt.Errorf("slot %s %d: %w", l.Kind, l.Idx, err)
		}
		slots = append(slots, slot{kind: k, line: l})
	}
	slices.SortFunc(slots, func(a, b slot) int {
		if c := cmp.Compare(a.kind, b.kind); c != 0 {
			return c
		}
		return cmp.Compare(a.line.Idx, b.line.Idx)
	})

	t := topo.NewTables()
	for _, s := range slots {
		state, err := types.ParseSlotState(s.line.State)
		if err != nil {
			return nil, fmt.Errorf("slot %s %d: %w", s.kind, s.line.Idx, err)
		}
		rec, err := decodeRecord(s.kind, s.line.Links)
		if err != nil {
			return nil, fmt.Errorf("slot %s %d: %w", s.kind, s.line.Idx, err)
		}
		if err := t.Put(s.kind, s.line.Idx, rec, state); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// decodeRecord parses the links of one slot. Fields absent from raw keep
// their empty value, so a missing single link reads as topo.None.
func decodeRecord(kind types.Kind, raw json.RawMessage) (any, error) {
	switch kind {
	case types.Posi:
		return decodeAs[topo.Posi](kind, raw)
	case types.Tri:
		return decodeAs[topo.Tri](kind, raw)
	case types.Vert:
		return decodeAs[topo.Vert](kind, raw)
	case types.Edge:
		return decodeAs[topo.Edge](kind, raw)
	case types.Wire:
		return decodeAs[topo.Wire](kind, raw)
	case types.Face:
		return decodeAs[topo.Face](kind, raw)
	case types.Point:
		return decodeAs[topo.Point](kind, raw)
	case types.Pline:
		return decodeAs[topo.Pline](kind, raw)
	case types.Pgon:
		return decodeAs[topo.Pgon](kind, raw)
	case types.Coll:
		return decodeAs[topo.Coll](kind, raw)
	default:
		return nil, types.ErrUnknownKind
	}
}

func decodeAs[T any](kind types.Kind, raw json.RawMessage) (any, error) {
	r := topo.EmptyRecord(kind).(T)
	if len(raw) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decoding links: %w", err)
	}
	return r, nil
}

// parseModelFile splits the lines of a model file into its header and slot
// lines. A file without a header yields a zero header.
func parseModelFile(lines []json.RawMessage) (modelLine, []slotLine, error) {
	var (
		head   modelLine
		slots  []slotLine
		gotHdr bool
	)
	for _, raw := range lines {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		switch probe.Type {
		case lineModel:
			if gotHdr {
				continue
			}
			if err := json.Unmarshal(raw, &head); err != nil {
				return modelLine{}, nil, fmt.Errorf("decoding header: %w", err)
			}
			gotHdr = true
		case lineSlot:
			var s slotLine
			if err := json.Unmarshal(raw, &s); err != nil {
				return modelLine{}, nil, fmt.Errorf("decoding slot: %w", err)
			}
			slots = append(slots, s)
		}
	}
	return head, slots, nil
}

// modelFileLines renders a header and slot lines as JSONL records.
func modelFileLines(head modelLine, slots []slotLine) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(slots)+1)
	b, err := json.Marshal(head)
	if err != nil {
		return nil, err
	}
	out = append(out, b)
	for _, s := range slots {
		b, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
