// Package ledger stores the record collections of a session: home and
// foreign expenses, income, investments and investment returns.
package ledger

import (
	"iter"
	"slices"

	"github.com/google/uuid"
)

// Entry is the constraint every stored record type satisfies.
type Entry interface {
	comparable
	Validate() error
	GetID() string
	SetID(id string)
}

// Collection is an ordered list of records of one kind. Records are kept in
// append order; Filter sequences are lazy and may be ranged over repeatedly.
type Collection[T Entry] struct {
	name     Name
	items    []T
	newID    func() string
	onAdd    func(T)
	onRemove func(T)
}

// NewCollection returns an empty collection.
func NewCollection[T Entry](name Name) *Collection[T] {
	return &Collection[T]{name: name, newID: uuid.NewString}
}

// Name returns the collection name.
func (c *Collection[T]) Name() Name { return c.name }

// Len returns the number of records.
func (c *Collection[T]) Len() int { return len(c.items) }

// Append validates rec, assigns an identifier if it has none and stores it.
func (c *Collection[T]) Append(rec T) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	c.Restore(rec)
	return nil
}

// Restore stores rec without validation. It is the load path for persisted
// records, which are kept even when incomplete.
func (c *Collection[T]) Restore(rec T) {
	if rec.GetID() == "" {
		rec.SetID(c.newID())
	}
	c.items = append(c.items, rec)
	if c.onAdd != nil {
		c.onAdd(rec)
	}
}

// All yields every record in append order.
func (c *Collection[T]) All() iter.Seq[T] {
	return c.Filter(nil)
}

// Filter yields the records matching pred. A nil pred matches everything.
func (c *Collection[T]) Filter(pred func(T) bool) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, rec := range c.items {
			if pred != nil && !pred(rec) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// Items returns a copy of the record slice.
func (c *Collection[T]) Items() []T {
	return slices.Clone(c.items)
}

// RemoveWhere drops every record matching pred and returns how many went.
// A nil pred matches everything, as in Filter.
func (c *Collection[T]) RemoveWhere(pred func(T) bool) int {
	kept := c.items[:0]
	removed := 0
	for _, rec := range c.items {
		if pred == nil || pred(rec) {
			removed++
			if c.onRemove != nil {
				c.onRemove(rec)
			}
			continue
		}
		kept = append(kept, rec)
	}
	clear(c.items[len(kept):])
	c.items = kept
	return removed
}
