// Package linestore holds the ordered, classified lines a view displays.
//
// The store is an arena: lines live in one slice and are addressed by slot
// index. Pointers returned by At are only valid until the next Append or
// InsertAt.
package linestore

import "iter"

// Type classifies a line; the values are defined by the view backends.
type Type uint16

// Direction selects the search direction of Find.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Line is one record of a view. Its type is fixed when the line is added.
type Line struct {
	typ     Type
	Payload any
	// Index is the slot of the line in its store.
	Index int
	// Lineno is the 1-based display number; custom lines have none.
	Lineno int
	Custom bool

	Selected bool
	Dirty    bool
	Wrapped  bool
	Matched  bool
}

// Type returns the class the line was added with.
func (l *Line) Type() Type {
	return l.typ
}

// Store is the line arena of a single view.
type Store struct {
	lines  []Line
	custom int
}

// Append adds a line at the end and returns its slot.
func (s *Store) Append(typ Type, payload any, custom bool) int {
	idx := len(s.lines)
	line := Line{typ: typ, Payload: payload, Index: idx, Custom: custom}
	if custom {
		s.custom++
	} else {
		line.Lineno = s.Numbered() + 1
	}
	s.lines = append(s.lines, line)
	return idx
}

// InsertAt inserts a line at slot pos, shifting and renumbering every
// following line. pos is clamped to [0, Len()].
func (s *Store) InsertAt(pos int, typ Type, payload any, custom bool) int {
	pos = min(max(pos, 0), len(s.lines))
	if pos == len(s.lines) {
		return s.Append(typ, payload, custom)
	}
	line := Line{typ: typ, Payload: payload, Index: pos, Custom: custom}
	if custom {
		s.custom++
	} else {
		line.Lineno = s.numberedBefore(pos) + 1
	}
	s.lines = append(s.lines, Line{})
	copy(s.lines[pos+1:], s.lines[pos:])
	s.lines[pos] = line
	for i := pos + 1; i < len(s.lines); i++ {
		s.lines[i].Index = i
		if !custom && !s.lines[i].Custom {
			s.lines[i].Lineno++
		}
	}
	return pos
}

func (s *Store) numberedBefore(pos int) int {
	for i := pos - 1; i >= 0; i-- {
		if !s.lines[i].Custom {
			return s.lines[i].Lineno
		}
	}
	return 0
}

// At returns the line in slot i, or nil when i is out of range.
func (s *Store) At(i int) *Line {
	if i < 0 || i >= len(s.lines) {
		return nil
	}
	return &s.lines[i]
}

// Len returns the number of lines, custom lines included.
func (s *Store) Len() int {
	return len(s.lines)
}

// Numbered returns the number of lines that carry a display number.
func (s *Store) Numbered() int {
	return len(s.lines) - s.custom
}

// CustomCount returns the number of synthetic lines.
func (s *Store) CustomCount() int {
	return s.custom
}

// Find returns the slot of the nearest line of type typ, starting at slot
// from (inclusive) and moving in dir.
func (s *Store) Find(typ Type, dir Direction, from int) (int, bool) {
	if dir != Backward {
		dir = Forward
	}
	for i := from; i >= 0 && i < len(s.lines); i += int(dir) {
		if s.lines[i].typ == typ {
			return i, true
		}
	}
	return -1, false
}

// All iterates over the lines in display order.
func (s *Store) All() iter.Seq2[int, *Line] {
	return func(yield func(int, *Line) bool) {
		for i := range s.lines {
			if !yield(i, &s.lines[i]) {
				return
			}
		}
	}
}

// Reset drops every line and its payload.
func (s *Store) Reset() {
	clear(s.lines)
	s.lines = s.lines[:0]
	s.custom = 0
}
