package annotation

import (
	"iter"
	"slices"
)

// Set is the ordered collection of one decode run. It has no mutators, so
// it may be read concurrently once obtained.
type Set struct {
	items []Annotation
}

// NewSet creates a set holding a copy of items.
func NewSet(items ...Annotation) *Set {
	return &Set{items: slices.Clone(items)}
}

// Builder accumulates the annotations of a run. It is owned by the run's
// goroutine.
type Builder struct {
	items []Annotation
}

// Append adds a to the end of the run.
func (b *Builder) Append(a Annotation) {
	b.items = append(b.items, a)
}

// Len returns the number of annotations appended so far.
func (b *Builder) Len() int {
	return len(b.items)
}

// Set returns the annotations appended so far. Later appends are not
// visible in the returned set.
func (b *Builder) Set() *Set {
	return &Set{items: slices.Clip(b.items)}
}

// Len returns the number of annotations. A nil set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}

	return len(s.items)
}

// At returns the i-th annotation in insertion order.
func (s *Set) At(i int) Annotation {
	return s.items[i]
}

// All iterates over the annotations in insertion order.
func (s *Set) All() iter.Seq2[int, Annotation] {
	return func(yield func(int, Annotation) bool) {
		if s == nil {
			return
		}
		for i, a := range s.items {
			if !yield(i, a) {
				return
			}
		}
	}
}

// Filter iterates over the annotations whose kind is one of kinds.
func (s *Set) Filter(kinds ...Kind) iter.Seq[Annotation] {
	return func(yield func(Annotation) bool) {
		for _, a := range s.All() {
			if slices.Contains(kinds, a.Kind) && !yield(a) {
				return
			}
		}
	}
}

// Count returns the number of annotations whose kind is one of kinds.
func (s *Set) Count(kinds ...Kind) int {
	n := 0
	for range s.Filter(kinds...) {
		n++
	}

	return n
}

// Datagrams returns the number of payload-carrying annotations.
func (s *Set) Datagrams() int {
	n := 0
	for _, a := range s.All() {
		if a.Kind.IsDatagram() {
			n++
		}
	}

	return n
}

// Events returns the number of structural event annotations.
func (s *Set) Events() int {
	n := 0
	for _, a := range s.All() {
		if a.Kind.IsEvent() {
			n++
		}
	}

	return n
}

// Clone returns a copy of the annotations.
func (s *Set) Clone() []Annotation {
	if s == nil {
		return nil
	}

	return slices.Clone(s.items)
}

// Channels returns the distinct channels annotated, in ascending order.
func (s *Set) Channels() []int {
	var channels []int
	for _, a := range s.All() {
		if !slices.Contains(channels, a.Channel) {
			channels = append(channels, a.Channel)
		}
	}
	slices.Sort(channels)

	return channels
}
