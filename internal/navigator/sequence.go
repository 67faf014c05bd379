package navigator

// Sequence is an ordered list of entries with a current position
type Sequence[T any] struct {
	entries []T
	idx     int
}

// NewSequence wraps entries, positioned at index 0
func NewSequence[T any](entries []T) *Sequence[T] {
	return &Sequence[T]{entries: entries}
}

// Len returns the number of entries
func (s *Sequence[T]) Len() int {
	return len(s.entries)
}

// Index returns the current position
func (s *Sequence[T]) Index() int {
	return s.idx
}

// Current returns the entry at the current position.
// The sequence must not be empty.
func (s *Sequence[T]) Current() T {
	return s.entries[s.idx]
}

// Entries returns a copy of the entries
func (s *Sequence[T]) Entries() []T {
	return append([]T(nil), s.entries...)
}

// Set moves to idx, which must be a valid position
func (s *Sequence[T]) Set(idx int) {
	s.idx = idx
}

// Step moves one position forward (+1) or back (-1), wrapping at either end
func (s *Sequence[T]) Step(dir int) {
	s.idx = wrap(s.idx+dir, len(s.entries))
}

// Remove drops the current entry. The position stays put,
// and wraps to the start when the last entry was removed.
func (s *Sequence[T]) Remove() {
	s.entries = append(s.entries[:s.idx], s.entries[s.idx+1:]...)
	s.idx = wrap(s.idx, len(s.entries))
}

// wrap maps a single-step overflow back into range: n wraps to 0 and -1 wraps to n-1.
// It is not a modulo; any other out-of-range value passes through unchanged.
func wrap(idx, n int) int {
	switch idx {
	case n:
		return 0
	case -1:
		return n - 1
	default:
		return idx
	}
}
