// Package removal holds the ways to drop elements from a seq.Sequence without
// tripping the fail-fast check. Every strategy yields the same survivors for
// the same predicate; only Filter leaves its input untouched.
package removal

import (
	"errors"
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kevinxiao27/failfast-seq/seq"
	"github.com/kevinxiao27/failfast-seq/util"
)

type Strategy string

const (
	Cursor  Strategy = "cursor"
	Where   Strategy = "where"
	Collect Strategy = "collect"
	Reverse Strategy = "reverse"
	Filter  Strategy = "filter"
)

var Strategies = []Strategy{Cursor, Where, Collect, Reverse, Filter}

var ErrUnknownStrategy = errors.New("unknown removal strategy")

func ParseStrategy(name string) (Strategy, error) {
	for _, st := range Strategies {
		if string(st) == name {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// WithCursor removes matches through the cursor that found them.
func WithCursor[T comparable](s *seq.Sequence[T], pred func(T) bool) error {
	c := s.Iterate()
	for c.HasNext() {
		v, err := c.Advance()
		if err != nil {
			return err
		}
		if pred(v) {
			if err := c.RemoveCurrentAndContinue(); err != nil {
				return err
			}
		}
	}
	return nil
}

func RemoveWhere[T comparable](s *seq.Sequence[T], pred func(T) bool) int {
	return s.RemoveWhere(pred)
}

// CollectThenRemove records matching positions on a read-only pass and
// removes them afterwards, highest index first.
func CollectThenRemove[T comparable](s *seq.Sequence[T], pred func(T) bool) error {
	matches := mapset.NewThreadUnsafeSet[int]()
	i := 0
	err := s.ForEach(func(v T) error {
		if pred(v) {
			matches.Add(i)
		}
		i++
		return nil
	})
	if err != nil {
		return err
	}

	indices := matches.ToSlice()
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, idx := range indices {
		if _, err := s.RemoveAt(idx); err != nil {
			return err
		}
	}
	return nil
}

// ReverseIndexed walks indices from the back so removals never shift the
// positions still to be visited.
func ReverseIndexed[T comparable](s *seq.Sequence[T], pred func(T) bool) error {
	for i := s.Size() - 1; i >= 0; i-- {
		v, err := s.Get(i)
		if err != nil {
			return err
		}
		if pred(v) {
			if _, err := s.RemoveAt(i); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilterNew returns a new sequence with the elements that do not match.
func FilterNew[T comparable](s *seq.Sequence[T], pred func(T) bool) *seq.Sequence[T] {
	return seq.New(util.Filter(s.Items(), util.Not(pred))...)
}

// Apply runs the named strategy and returns the sequence holding the
// survivors: s itself for in-place strategies, a new one for Filter.
func Apply[T comparable](st Strategy, s *seq.Sequence[T], pred func(T) bool) (*seq.Sequence[T], error) {
	var err error
	switch st {
	case Cursor:
		err = WithCursor(s, pred)
	case Where:
		RemoveWhere(s, pred)
	case Collect:
		err = CollectThenRemove(s, pred)
	case Reverse:
		err = ReverseIndexed(s, pred)
	case Filter:
		return FilterNew(s, pred), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, st)
	}
	if err != nil {
		return nil, fmt.Errorf("%s removal: %w", st, err)
	}
	return s, nil
}

func Equals[T comparable](value T) func(T) bool {
	return func(v T) bool { return v == value }
}
