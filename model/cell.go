package model

import "errors"

// ErrAlreadyAssigned is returned when a derived field is written a second time.
var ErrAlreadyAssigned = errors.New("derived field already assigned")

// Cell is a write-once slot for a derived value. A cell can be assigned
// exactly once, either with a value or explicitly as absent.
type Cell[T any] struct {
	value    T
	valid    bool
	assigned bool
}

// Store assigns the cell. valid=false records an explicit absence.
func (c *Cell[T]) Store(v T, valid bool) error {
	if c.assigned {
		return ErrAlreadyAssigned
	}
	if valid {
		c.value = v
	}
	c.valid = valid
	c.assigned = true
	return nil
}

// StorePtr assigns *v, or an explicit absence when v is nil.
func (c *Cell[T]) StorePtr(v *T) error {
	if v == nil {
		var zero T
		return c.Store(zero, false)
	}
	return c.Store(*v, true)
}

// Load returns the value and whether it is defined.
func (c *Cell[T]) Load() (T, bool) {
	return c.value, c.valid
}

// Assigned reports whether Store has been called, with or without a value.
func (c *Cell[T]) Assigned() bool {
	return c.assigned
}
