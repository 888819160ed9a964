package types

import (
	"errors"
	"fmt"
)

// Store and navigator errors. Typed errors below match these sentinels with
// errors.Is.
var (
	ErrDanglingReference  = errors.New("dangling reference")
	ErrInvalidEntity      = errors.New("invalid entity")
	ErrInvalidCardinality = errors.New("invalid cardinality")
	ErrStillReferenced    = errors.New("entity still referenced")
	ErrBrokenChain        = errors.New("edges do not form a chain")
	ErrUnknownKind        = errors.New("unknown entity kind")
	ErrNotAdjacent        = errors.New("kinds are not adjacent")
)

// ErrModelCorrupted marks a navigation failure surfaced to a caller that did
// not mutate the store itself. A corrupted model indicates a bug in the code
// that built it.
var ErrModelCorrupted = errors.New("model corrupted")

// DanglingReferenceError reports an operation on an index that was never
// allocated or has been tombstoned.
type DanglingReferenceError struct {
	Kind  Kind
	Index int
	State SlotState
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference: %s %d is %s", e.Kind, e.Index, e.State)
}

// Is matches both ErrDanglingReference and ErrInvalidEntity, so navigation
// callers can test for either.
func (e *DanglingReferenceError) Is(target error) bool {
	return target == ErrDanglingReference || target == ErrInvalidEntity
}

// InvalidCardinalityError reports an operation that would violate a kind's
// fixed arity or exclusive ownership.
type InvalidCardinalityError struct {
	Kind     Kind
	Index    int // -1 when the entity does not exist yet
	Relation string
	Want     string
	Got      int
}

func (e *InvalidCardinalityError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid cardinality: new %s %s: want %s, got %d", e.Kind, e.Relation, e.Want, e.Got)
	}
	return fmt.Sprintf("invalid cardinality: %s %d %s: want %s, got %d", e.Kind, e.Index, e.Relation, e.Want, e.Got)
}

func (e *InvalidCardinalityError) Unwrap() error { return ErrInvalidCardinality }

// StillReferencedError reports a tombstone request for an entity that still
// holds or is held by an active link.
type StillReferencedError struct {
	Kind     Kind
	Index    int
	Relation string
}

func (e *StillReferencedError) Error() string {
	return fmt.Sprintf("cannot tombstone %s %d: %s still linked", e.Kind, e.Index, e.Relation)
}

func (e *StillReferencedError) Unwrap() error { return ErrStillReferenced }

// ChainError reports a wire whose edges are not consecutive: the end vertex of
// the edge at Position differs from the start vertex of the next one.
type ChainError struct {
	Position int
	Edge     int
	Next     int
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("edges do not form a chain: edge %d at position %d does not meet edge %d", e.Edge, e.Position, e.Next)
}

func (e *ChainError) Unwrap() error { return ErrBrokenChain }
