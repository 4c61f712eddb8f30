package seq

import (
	"fmt"
	"strings"

	"github.com/kevinxiao27/failfast-seq/util"
)

func New[T comparable](values ...T) *Sequence[T] {
	elements := make([]T, len(values))
	copy(elements, values)
	return &Sequence[T]{elements: elements}
}

// Observe registers fn to be called after every structural mutation.
func (s *Sequence[T]) Observe(fn func(Op[T])) {
	s.observers = append(s.observers, fn)
}

func (s *Sequence[T]) bump(op Op[T]) {
	s.version++
	op.Version = s.version
	for _, fn := range s.observers {
		fn(op)
	}
}

func (s *Sequence[T]) Size() int {
	return len(s.elements)
}

func (s *Sequence[T]) Version() Version {
	return s.version
}

func (s *Sequence[T]) Get(index int) (T, error) {
	if index < 0 || index >= len(s.elements) {
		var zero T
		return zero, fmt.Errorf("%w: index %d, size %d", ErrIndexOutOfRange, index, len(s.elements))
	}
	return s.elements[index], nil
}

// Set replaces the element at index and returns the previous one. Replacement
// is not structural, so live cursors stay valid.
func (s *Sequence[T]) Set(index int, value T) (T, error) {
	old, err := s.Get(index)
	if err != nil {
		return old, err
	}
	s.elements[index] = value
	return old, nil
}

func (s *Sequence[T]) Append(value T) {
	s.elements = append(s.elements, value)
	s.bump(Op[T]{Kind: Append, Pos: len(s.elements) - 1, Value: value})
}

func (s *Sequence[T]) InsertAt(index int, value T) error {
	if index < 0 || index > len(s.elements) {
		return fmt.Errorf("%w: insert at %d, size %d", ErrIndexOutOfRange, index, len(s.elements))
	}
	var zero T
	s.elements = append(s.elements, zero)
	copy(s.elements[index+1:], s.elements[index:])
	s.elements[index] = value
	s.bump(Op[T]{Kind: Insert, Pos: index, Value: value})
	return nil
}

func (s *Sequence[T]) RemoveAt(index int) (T, error) {
	removed, err := s.Get(index)
	if err != nil {
		return removed, err
	}
	s.removeIndex(index)
	s.bump(Op[T]{Kind: Remove, Pos: index, Value: removed, Removed: 1})
	return removed, nil
}

func (s *Sequence[T]) removeIndex(index int) {
	copy(s.elements[index:], s.elements[index+1:])
	var zero T
	s.elements[len(s.elements)-1] = zero
	s.elements = s.elements[:len(s.elements)-1]
}

// RemoveValue removes the first element equal to value. The version moves
// even when nothing matched.
func (s *Sequence[T]) RemoveValue(value T) bool {
	for i, v := range s.elements {
		if v == value {
			s.removeIndex(i)
			s.bump(Op[T]{Kind: Remove, Pos: i, Value: v, Removed: 1})
			return true
		}
	}
	s.bump(Op[T]{Kind: Remove, Pos: -1, Value: value})
	return false
}

// RemoveWhere drops every element matching pred, keeping survivors in order,
// and counts as a single structural mutation.
func (s *Sequence[T]) RemoveWhere(pred func(T) bool) int {
	kept := s.elements[:0]
	var dropped []int
	for i, v := range s.elements {
		if pred(v) {
			dropped = append(dropped, i)
			continue
		}
		kept = append(kept, v)
	}
	removed := len(s.elements) - len(kept)
	var zero T
	for i := len(kept); i < len(s.elements); i++ {
		s.elements[i] = zero
	}
	s.elements = kept
	s.bump(Op[T]{Kind: RemoveIf, Pos: -1, Removed: removed, Indices: dropped})
	return removed
}

func (s *Sequence[T]) Clear() {
	n := len(s.elements)
	s.elements = s.elements[:0:0]
	s.bump(Op[T]{Kind: Clear, Pos: -1, Removed: n})
}

// Items returns a copy of the current elements.
func (s *Sequence[T]) Items() []T {
	items := make([]T, len(s.elements))
	copy(items, s.elements)
	return items
}

// Clone returns an independent sequence with the same elements, a fresh
// version and no observers.
func (s *Sequence[T]) Clone() *Sequence[T] {
	return New(s.elements...)
}

func (s *Sequence[T]) Iterate() *Cursor[T] {
	return &Cursor[T]{seq: s, boundVersion: s.version, lastYielded: -1}
}

// ForEach walks the sequence with a fresh cursor. It stops at the first error
// returned by fn or by the cursor. A structural change made by fn that is not
// caught by a later Advance, because the loop ran out first, is still reported.
func (s *Sequence[T]) ForEach(fn func(T) error) error {
	c := s.Iterate()
	for c.HasNext() {
		v, err := c.Advance()
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return c.check()
}

func (s *Sequence[T]) String() string {
	parts := util.MapN(s.elements, func(v T) (string, error) {
		return fmt.Sprint(v), nil
	})
	return "[" + strings.Join(parts, ", ") + "]"
}
