package graph

import "strings"

// Glyphs maps symbols to two-cell strings: a connector towards the previous
// column followed by the column itself.
type Glyphs struct {
	Commit, Boundary, Initial, MergeCommit string

	MergeMiddle, MergeLast string

	BranchedMiddle, BranchedLast string
	Crossing, Lane, Horizontal   string
	Empty                        string
}

var (
	ASCII = Glyphs{
		Commit:         " *",
		Boundary:       " o",
		Initial:        " I",
		MergeCommit:    " M",
		MergeMiddle:    "-+",
		MergeLast:      "-.",
		BranchedMiddle: "-+",
		BranchedLast:   "-'",
		Crossing:       "-|",
		Lane:           " |",
		Horizontal:     "--",
		Empty:          "  ",
	}
	UTF8 = Glyphs{
		Commit:         " ∙",
		Boundary:       " ◯",
		Initial:        " ◎",
		MergeCommit:    " ●",
		MergeMiddle:    "━┯",
		MergeLast:      "━┑",
		BranchedMiddle: "─┴",
		BranchedLast:   "─┘",
		Crossing:       "─┼",
		Lane:           " │",
		Horizontal:     "──",
		Empty:          "  ",
	}
)

// Glyph returns the cells for one symbol.
func (g Glyphs) Glyph(s Symbol) string {
	switch {
	case s.Commit && s.Boundary:
		return g.Boundary
	case s.Commit && s.Merge:
		return g.MergeCommit
	case s.Commit && s.Initial:
		return g.Initial
	case s.Commit:
		return g.Commit
	case s.Merge && s.VBranch:
		return g.MergeMiddle
	case s.Merge:
		return g.MergeLast
	case s.Branched && s.VBranch:
		return g.BranchedMiddle
	case s.Branched:
		return g.BranchedLast
	case s.Branch && s.VBranch:
		return g.Crossing
	case s.Branch:
		return g.Lane
	case s.VBranch:
		return g.Horizontal
	}
	return g.Empty
}

// String renders the canvas without colors.
func (c Canvas) String(g Glyphs) string {
	var b strings.Builder
	for _, s := range c {
		b.WriteString(g.Glyph(s))
	}
	return b.String()
}
