// Package nonempty provides a set type that always holds at least one element.
//
// A Set is immutable: every operation that would change it returns a new Set.
// The zero Set is not a valid value; obtain one through New, FromSlice, FromSeq
// or From.
package nonempty

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrEmpty is returned when a Set is requested from an empty collection.
var ErrEmpty = errors.New("nonempty: collection is empty")

// Set is a duplicate-insensitive collection guaranteed to contain at least one
// element. Iteration follows first-insertion order.
type Set[E comparable] struct {
	index map[E]struct{}
	order []E
}

// Collection is anything that can enumerate its elements.
type Collection[E comparable] interface {
	All() iter.Seq[E]
}

// New builds a Set from at least one element.
func New[E comparable](first E, rest ...E) Set[E] {
	s := Set[E]{index: make(map[E]struct{}, 1+len(rest))}
	s.insert(first)
	for _, e := range rest {
		s.insert(e)
	}
	return s
}

// FromSlice builds a Set from items. An empty slice yields an error wrapping ErrEmpty.
func FromSlice[E comparable](items []E) (Set[E], error) {
	if len(items) == 0 {
		return Set[E]{}, fmt.Errorf("from slice: %w", ErrEmpty)
	}
	return New(items[0], items[1:]...), nil
}

// FromSeq builds a Set from a sequence. An empty sequence yields an error wrapping ErrEmpty.
func FromSeq[E comparable](seq iter.Seq[E]) (Set[E], error) {
	s := Set[E]{index: make(map[E]struct{})}
	for e := range seq {
		s.insert(e)
	}
	if len(s.order) == 0 {
		return Set[E]{}, fmt.Errorf("from sequence: %w", ErrEmpty)
	}
	return s, nil
}

// From converts c into a Set. When c already is a valid Set it is returned
// unchanged, sharing its storage.
func From[E comparable](c Collection[E]) (Set[E], error) {
	if s, ok := c.(Set[E]); ok && !s.IsZero() {
		return s, nil
	}
	return FromSeq(c.All())
}

func (s *Set[E]) insert(e E) {
	if _, ok := s.index[e]; ok {
		return
	}
	s.index[e] = struct{}{}
	s.order = append(s.order, e)
}

// IsZero reports whether s is the invalid zero value.
func (s Set[E]) IsZero() bool { return len(s.order) == 0 }

// Len returns the number of distinct elements, always >= 1 for a valid Set.
func (s Set[E]) Len() int { return len(s.order) }

// Contains reports whether e is a member of s.
func (s Set[E]) Contains(e E) bool {
	_, ok := s.index[e]
	return ok
}

// Head returns the first inserted element.
func (s Set[E]) Head() E { return s.order[0] }

// Plus returns the union of s and other.
func (s Set[E]) Plus(other Set[E]) Set[E] {
	out := s.clone(len(other.order))
	for _, e := range other.order {
		out.insert(e)
	}
	return out
}

// Add returns a Set holding the elements of s and e.
func (s Set[E]) Add(e E) Set[E] {
	if s.Contains(e) {
		return s
	}
	out := s.clone(1)
	out.insert(e)
	return out
}

func (s Set[E]) clone(extra int) Set[E] {
	if s.IsZero() {
		panic("nonempty: use of zero Set")
	}
	out := Set[E]{
		index: make(map[E]struct{}, len(s.order)+extra),
		order: make([]E, 0, len(s.order)+extra),
	}
	for _, e := range s.order {
		out.insert(e)
	}
	return out
}

// Equal reports whether s and other hold the same elements, ignoring order.
func (s Set[E]) Equal(other Set[E]) bool {
	if len(s.order) != len(other.order) {
		return false
	}
	for _, e := range s.order {
		if !other.Contains(e) {
			return false
		}
	}
	return true
}

// All iterates the elements in insertion order.
func (s Set[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, e := range s.order {
			if !yield(e) {
				return
			}
		}
	}
}

// Slice returns a copy of the elements in insertion order.
func (s Set[E]) Slice() []E {
	out := make([]E, len(s.order))
	copy(out, s.order)
	return out
}

func (s Set[E]) String() string {
	parts := make([]string, len(s.order))
	for i, e := range s.order {
		parts[i] = fmt.Sprint(e)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
