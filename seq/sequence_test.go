package seq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func letters() *Sequence[string] {
	return New("A", "B", "C", "D", "E")
}

func TestNewCopiesInput(t *testing.T) {
	in := []string{"A", "B"}
	s := New(in...)
	in[0] = "Z"

	assert.Equal(t, []string{"A", "B"}, s.Items())
	assert.Equal(t, Version(0), s.Version())
	assert.Equal(t, 2, s.Size())
}

func TestStructuralMutationsBumpVersionOnce(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, s *Sequence[string])
		want   []string
	}{
		{"append", func(t *testing.T, s *Sequence[string]) { s.Append("F") }, []string{"A", "B", "C", "D", "E", "F"}},
		{"insert front", func(t *testing.T, s *Sequence[string]) { require.NoError(t, s.InsertAt(0, "Z")) }, []string{"Z", "A", "B", "C", "D", "E"}},
		{"insert end", func(t *testing.T, s *Sequence[string]) { require.NoError(t, s.InsertAt(5, "Z")) }, []string{"A", "B", "C", "D", "E", "Z"}},
		{"remove at", func(t *testing.T, s *Sequence[string]) {
			v, err := s.RemoveAt(1)
			require.NoError(t, err)
			assert.Equal(t, "B", v)
		}, []string{"A", "C", "D", "E"}},
		{"remove value", func(t *testing.T, s *Sequence[string]) { assert.True(t, s.RemoveValue("D")) }, []string{"A", "B", "C", "E"}},
		{"remove absent value", func(t *testing.T, s *Sequence[string]) { assert.False(t, s.RemoveValue("Q")) }, []string{"A", "B", "C", "D", "E"}},
		{"clear", func(t *testing.T, s *Sequence[string]) { s.Clear() }, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := letters()
			before := s.Version()
			tt.mutate(t, s)
			assert.Equal(t, before+1, s.Version())
			assert.Equal(t, tt.want, s.Items())
		})
	}
}

func TestRemoveValueOnlyFirstMatch(t *testing.T) {
	s := New("A", "B", "A")
	require.True(t, s.RemoveValue("A"))
	assert.Equal(t, []string{"B", "A"}, s.Items())
}

func TestIndexOutOfRange(t *testing.T) {
	s := letters()

	_, err := s.Get(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.Get(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = s.RemoveAt(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, s.InsertAt(6, "X"), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.InsertAt(-1, "X"), ErrIndexOutOfRange)
	_, err = s.Set(9, "X")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.Equal(t, Version(0), s.Version(), "failed calls must not count as mutations")
	assert.Equal(t, 5, s.Size())
}

func TestGetAndSetLeaveVersionAlone(t *testing.T) {
	s := letters()

	v, err := s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "C", v)

	old, err := s.Set(2, "c")
	require.NoError(t, err)
	assert.Equal(t, "C", old)
	assert.Equal(t, "[A, B, c, D, E]", s.String())
	assert.Equal(t, Version(0), s.Version())
}

func TestRemoveWhere(t *testing.T) {
	vowelInitial := func(s string) bool { return strings.ContainsAny(s[:1], "AEIOU") }
	s := New("Apple", "Banana", "Cherry", "Egg", "Date")

	assert.Equal(t, 2, s.RemoveWhere(vowelInitial))
	assert.Equal(t, []string{"Banana", "Cherry", "Date"}, s.Items())
	assert.Equal(t, Version(1), s.Version())

	// second pass is a no-op that still counts as a call
	assert.Equal(t, 0, s.RemoveWhere(vowelInitial))
	assert.Equal(t, []string{"Banana", "Cherry", "Date"}, s.Items())
	assert.Equal(t, Version(2), s.Version())
}

func TestCloneIsIndependent(t *testing.T) {
	s := letters()
	s.Append("F")

	c := s.Clone()
	assert.Equal(t, Version(0), c.Version())
	c.RemoveValue("A")

	assert.Equal(t, "[A, B, C, D, E, F]", s.String())
	assert.Equal(t, "[B, C, D, E, F]", c.String())
}

func TestString(t *testing.T) {
	assert.Equal(t, "[A, B, C, D, E]", letters().String())
	assert.Equal(t, "[]", New[string]().String())
	assert.Equal(t, "[1, 2]", New(1, 2).String())
}

func TestObserveReceivesOps(t *testing.T) {
	s := letters()
	var ops []Op[string]
	s.Observe(func(op Op[string]) { ops = append(ops, op) })

	s.Append("F")
	_, _ = s.RemoveAt(0)
	_, _ = s.Set(0, "b") // not structural
	s.RemoveWhere(func(v string) bool { return v == "C" || v == "D" })
	s.Clear()

	require.Len(t, ops, 4)
	assert.Equal(t, Op[string]{Kind: Append, Pos: 5, Value: "F", Version: 1}, ops[0])
	assert.Equal(t, Op[string]{Kind: Remove, Pos: 0, Value: "A", Removed: 1, Version: 2}, ops[1])
	assert.Equal(t, Op[string]{Kind: RemoveIf, Pos: -1, Removed: 2, Indices: []int{1, 2}, Version: 3}, ops[2])
	assert.Equal(t, Op[string]{Kind: Clear, Pos: -1, Removed: 3, Version: 4}, ops[3])
}
