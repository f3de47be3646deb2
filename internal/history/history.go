// Package history keeps the back-navigation stack of a view class.
package history

import (
	"bytes"
	"slices"
)

type entry[P any] struct {
	pos  P
	blob []byte
}

// Stack is a LIFO of saved positions, each paired with an opaque blob that
// identifies what was being shown (a revision, a path, ...).
type Stack[P any] struct {
	entries []entry[P]
}

// Push saves pos and a copy of blob. It does nothing and returns false when
// blob equals the blob on top of the stack.
func (s *Stack[P]) Push(pos P, blob []byte) bool {
	if n := len(s.entries); n > 0 && bytes.Equal(s.entries[n-1].blob, blob) {
		return false
	}
	s.entries = append(s.entries, entry[P]{pos: pos, blob: slices.Clone(blob)})
	return true
}

// Pop removes the top entry and returns its position and blob.
func (s *Stack[P]) Pop() (P, []byte, bool) {
	var zero P
	n := len(s.entries)
	if n == 0 {
		return zero, nil, false
	}
	top := s.entries[n-1]
	s.entries[n-1] = entry[P]{}
	s.entries = s.entries[:n-1]
	return top.pos, top.blob, true
}

// Top returns a copy of the blob on top of the stack.
func (s *Stack[P]) Top() ([]byte, bool) {
	if len(s.entries) == 0 {
		return nil, false
	}
	return slices.Clone(s.entries[len(s.entries)-1].blob), true
}

func (s *Stack[P]) Len() int {
	return len(s.entries)
}

// Reset drops every entry.
func (s *Stack[P]) Reset() {
	clear(s.entries)
	s.entries = s.entries[:0]
}
