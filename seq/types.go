package seq

import "errors"

type Version uint64 // structural modification counter

type OpKind string

const (
	Append   OpKind = "append"
	Insert   OpKind = "ins"
	Remove   OpKind = "del"
	RemoveIf OpKind = "del-where"
	Clear    OpKind = "clear"
)

// Op describes one structural mutation. Pos is -1 when the mutation has no
// single position (RemoveIf, Clear, or a RemoveValue that found nothing).
type Op[T any] struct {
	Kind    OpKind
	Pos     int
	Value   T // Only meaningful for Append/Insert/Remove
	Removed int
	Indices []int   // RemoveIf only: pre-mutation positions that were dropped
	Version Version // version after the mutation
}

var (
	ErrConcurrentMutation = errors.New("concurrent mutation")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrIllegalState       = errors.New("illegal cursor state")
)

type Sequence[T comparable] struct {
	elements  []T
	version   Version
	observers []func(Op[T])
}

type Cursor[T comparable] struct {
	seq          *Sequence[T]
	position     int
	boundVersion Version
	lastYielded  int // -1 when nothing can be removed
	faulted      bool
}
