package seq

import "fmt"

func (c *Cursor[T]) HasNext() bool {
	return c.position < c.seq.Size()
}

// Faulted reports whether the cursor has seen a foreign structural mutation.
// A faulted cursor never recovers.
func (c *Cursor[T]) Faulted() bool {
	return c.faulted
}

func (c *Cursor[T]) check() error {
	if !c.faulted && c.boundVersion == c.seq.version {
		return nil
	}
	c.faulted = true
	return fmt.Errorf("%w: cursor bound at version %d, sequence at version %d",
		ErrConcurrentMutation, c.boundVersion, c.seq.version)
}

// Advance returns the next element. It fails without moving when the sequence
// changed shape since the cursor was bound.
func (c *Cursor[T]) Advance() (T, error) {
	var zero T
	if err := c.check(); err != nil {
		return zero, err
	}
	if c.position >= c.seq.Size() {
		return zero, fmt.Errorf("%w: cursor exhausted at %d", ErrIndexOutOfRange, c.position)
	}
	v := c.seq.elements[c.position]
	c.lastYielded = c.position
	c.position++
	return v, nil
}

// RemoveCurrentAndContinue removes the element last returned by Advance and
// absorbs the resulting version bump, so iteration continues with the element
// that shifted into the vacated slot.
func (c *Cursor[T]) RemoveCurrentAndContinue() error {
	if c.lastYielded < 0 {
		return fmt.Errorf("%w: no element to remove", ErrIllegalState)
	}
	if err := c.check(); err != nil {
		return err
	}
	if _, err := c.seq.RemoveAt(c.lastYielded); err != nil {
		return err
	}
	c.position--
	c.lastYielded = -1
	c.boundVersion = c.seq.version
	return nil
}
