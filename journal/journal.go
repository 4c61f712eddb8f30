// Package journal keeps an ordered log of the structural mutations applied to
// a seq.Sequence and can replay them.
package journal

import (
	"fmt"
	"slices"

	"github.com/kevinxiao27/failfast-seq/seq"
	"github.com/kevinxiao27/failfast-seq/util"
)

type Log[T comparable] struct {
	Ops  []seq.Op[T]
	Base []T // elements at the moment recording started
	head seq.Version
}

func NewLog[T comparable]() *Log[T] {
	return &Log[T]{
		Ops:  []seq.Op[T]{},
		Base: []T{},
	}
}

// Record starts logging every structural mutation of s into a new Log.
func Record[T comparable](s *seq.Sequence[T]) *Log[T] {
	log := NewLog[T]()
	log.Base = s.Items()
	log.head = s.Version()
	s.Observe(log.push)
	return log
}

func (l *Log[T]) push(op seq.Op[T]) {
	op.Indices = slices.Clone(op.Indices)
	l.Ops = append(l.Ops, op)
	l.head = op.Version
}

func (l *Log[T]) Head() seq.Version {
	return l.head
}

// Since returns the ops that moved the sequence past version v, which is what
// a cursor bound at v missed.
func (l *Log[T]) Since(v seq.Version) []seq.Op[T] {
	i, _ := slices.BinarySearchFunc(l.Ops, v, func(op seq.Op[T], v seq.Version) int {
		if op.Version <= v {
			return -1
		}
		return 1
	})
	return l.Ops[i:]
}

// Removed counts the elements dropped across all logged ops.
func (l *Log[T]) Removed() int {
	return util.Reduce(l.Ops, func(op seq.Op[T], n int) int {
		return n + op.Removed
	}, 0)
}

func applyOp[T comparable](doc []T, op seq.Op[T]) ([]T, error) {
	switch op.Kind {
	case seq.Append:
		return append(doc, op.Value), nil
	case seq.Insert:
		if op.Pos < 0 || op.Pos > len(doc) {
			return nil, fmt.Errorf("replay v%d: %w: insert at %d, size %d", op.Version, seq.ErrIndexOutOfRange, op.Pos, len(doc))
		}
		return slices.Insert(doc, op.Pos, op.Value), nil
	case seq.Remove:
		if op.Removed == 0 { // value was absent
			return doc, nil
		}
		if op.Pos < 0 || op.Pos >= len(doc) {
			return nil, fmt.Errorf("replay v%d: %w: remove at %d, size %d", op.Version, seq.ErrIndexOutOfRange, op.Pos, len(doc))
		}
		return slices.Delete(doc, op.Pos, op.Pos+1), nil
	case seq.RemoveIf:
		for j := len(op.Indices) - 1; j >= 0; j-- {
			idx := op.Indices[j]
			if idx < 0 || idx >= len(doc) {
				return nil, fmt.Errorf("replay v%d: %w: remove at %d, size %d", op.Version, seq.ErrIndexOutOfRange, idx, len(doc))
			}
			doc = slices.Delete(doc, idx, idx+1)
		}
		return doc, nil
	case seq.Clear:
		return doc[:0], nil
	}
	return nil, fmt.Errorf("replay v%d: unknown op %q", op.Version, op.Kind)
}

// Checkout replays the log over its base and returns the resulting elements.
func Checkout[T comparable](l *Log[T]) ([]T, error) {
	doc := slices.Clone(l.Base)
	if doc == nil {
		doc = []T{}
	}
	for _, op := range l.Ops {
		var err error
		if doc, err = applyOp(doc, op); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
