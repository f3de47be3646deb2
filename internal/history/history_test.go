package history

import (
	"bytes"
	"testing"
)

type position struct {
	offset, lineno int
}

func TestPushPopRoundTrip(t *testing.T) {
	t.Parallel()

	var s Stack[position]
	blob := []byte("HEAD:docs")
	s.Push(position{offset: 3, lineno: 7}, blob)
	blob[0] = 'X'

	pos, got, ok := s.Pop()
	if !ok {
		t.Fatal("Pop() on non-empty stack returned false")
	}
	if pos != (position{offset: 3, lineno: 7}) {
		t.Fatalf("pos = %+v", pos)
	}
	if !bytes.Equal(got, []byte("HEAD:docs")) {
		t.Fatalf("blob = %q, want the bytes at push time", got)
	}
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after pop", s.Len())
	}
	if _, _, ok := s.Pop(); ok {
		t.Fatal("Pop() on empty stack returned true")
	}
}

func TestPushSuppressesDuplicateTop(t *testing.T) {
	t.Parallel()

	var s Stack[position]
	if !s.Push(position{lineno: 1}, []byte("a")) {
		t.Fatal("first push suppressed")
	}
	if s.Push(position{lineno: 9}, []byte("a")) {
		t.Fatal("push of identical blob was not suppressed")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	s.Push(position{lineno: 2}, []byte("b"))
	s.Push(position{lineno: 3}, []byte("a"))
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (only the top is compared)", s.Len())
	}

	pos, blob, _ := s.Pop()
	if pos.lineno != 3 || string(blob) != "a" {
		t.Fatalf("Pop() = %+v %q", pos, blob)
	}
	if top, ok := s.Top(); !ok || string(top) != "b" {
		t.Fatalf("Top() = %q, %v", top, ok)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	var s Stack[position]
	s.Push(position{}, []byte("a"))
	s.Push(position{}, []byte("b"))
	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after Reset", s.Len())
	}
	if _, ok := s.Top(); ok {
		t.Fatal("Top() after Reset returned true")
	}
}
