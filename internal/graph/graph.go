// Package graph lays out commit ancestry lanes one row at a time.
//
// Commits arrive in display order (children before parents) and each one is
// placed in the lane that was waiting for it. The renderer only knows the
// current row of lanes; every call to AddCommit emits the symbols for that
// commit's row and updates the lanes handed to the next one.
package graph

import "slices"

// PaletteSize is the number of lane colors.
const PaletteSize = 7

// Symbol describes one column of a rendered row.
type Symbol struct {
	Color int

	Commit   bool
	Boundary bool
	Initial  bool
	Merge    bool

	// Branch marks a live lane passing through the column.
	Branch bool
	// VBranch marks a horizontal connector crossing the column.
	VBranch bool
	// Branched marks a lane that ends in this row by joining the commit.
	Branched bool
}

// Canvas is the row of symbols produced for one commit.
type Canvas []Symbol

type column struct {
	id    string
	color int
}

// Renderer tracks the open lanes between rows.
type Renderer struct {
	row    []column
	colors [PaletteSize]int
}

func New() *Renderer {
	return &Renderer{}
}

// Reset forgets every lane and color assignment.
func (r *Renderer) Reset() {
	r.row = r.row[:0]
	r.colors = [PaletteSize]int{}
}

// Width returns the number of columns carried to the next row.
func (r *Renderer) Width() int {
	return len(r.row)
}

// Lanes returns the identifiers each column is waiting for; empty strings are
// unused columns.
func (r *Renderer) Lanes() []string {
	ids := make([]string, len(r.row))
	for i, col := range r.row {
		ids[i] = col.id
	}
	return ids
}

// AddCommit places commit id with the given parents and returns its row.
// A commit without parents ends its lane. boundary marks a commit whose
// parents were not loaded.
func (r *Renderer) AddCommit(id string, parents []string, boundary bool) Canvas {
	if len(parents) == 0 {
		parents = []string{""}
	} else {
		parents = slices.Clone(parents)
	}
	pos, found := r.locate(id)
	r.expand(pos, len(parents))
	r.reorder(pos, parents)
	canvas := r.emit(id, pos, found, parents, boundary)
	r.collapse()
	return canvas
}

// locate returns the column waiting for id, or the first free column.
func (r *Renderer) locate(id string) (int, bool) {
	free := -1
	for i, col := range r.row {
		if id != "" && col.id == id {
			return i, true
		}
		if col.id == "" && free < 0 {
			free = i
		}
	}
	if free >= 0 {
		return free, false
	}
	return len(r.row), false
}

// expand makes room for n parent lanes starting at pos. Columns after pos that
// are still in use are shifted right instead of being overwritten.
func (r *Renderer) expand(pos, n int) {
	if pos == len(r.row) {
		r.row = append(r.row, column{})
	}
	free := 0
	for i := pos + 1; i < len(r.row) && free < n-1 && r.row[i].id == ""; i++ {
		free++
	}
	if missing := n - 1 - free; missing > 0 {
		r.row = slices.Insert(r.row, pos+1, make([]column, missing)...)
	}
}

// reorder moves secondary parents that some lane right of the parent block is
// already waiting for to the end of the block, next to that lane. The first
// parent keeps the commit's own column.
func (r *Renderer) reorder(pos int, parents []string) {
	if len(parents) < 3 {
		return
	}
	end := pos + len(parents)
	awaited := func(id string) int {
		for _, col := range r.row[end:] {
			if id != "" && col.id == id {
				return 1
			}
		}
		return 0
	}
	slices.SortStableFunc(parents[1:], func(a, b string) int {
		return awaited(a) - awaited(b)
	})
}

func (r *Renderer) emit(id string, pos int, found bool, parents []string, boundary bool) Canvas {
	n := len(parents)
	canvas := make(Canvas, 0, len(r.row))

	for i := range pos {
		col := r.row[i]
		canvas = append(canvas, Symbol{
			Color:   col.color,
			Branch:  col.id != "",
			Initial: col.id != "" && slices.Contains(parents, col.id),
		})
	}

	for i := pos; i < pos+n; i++ {
		col := &r.row[i]
		parent := parents[i-pos]
		sym := Symbol{Merge: n > 1}
		if i == pos {
			sym.Commit = true
			sym.Boundary = boundary
			sym.Initial = !found
		} else {
			sym.VBranch = i < pos+n-1
		}
		if col.id == "" && parent != "" {
			col.color = r.nextColor()
		}
		col.id = parent
		sym.Color = col.color
		canvas = append(canvas, sym)
	}

	last := -1
	for i := pos + n; i < len(r.row); i++ {
		if id != "" && r.row[i].id == id {
			last = i
		}
	}
	for i := pos + n; i < len(r.row); i++ {
		col := &r.row[i]
		sym := Symbol{Color: col.color, Branch: col.id != "", VBranch: i < last}
		if id != "" && col.id == id {
			sym.Branched = true
			col.id = ""
		}
		canvas = append(canvas, sym)
	}
	return canvas
}

// collapse drops unused columns at the end of the row.
func (r *Renderer) collapse() {
	for len(r.row) > 0 && r.row[len(r.row)-1].id == "" {
		r.row = r.row[:len(r.row)-1]
	}
}

// nextColor hands out the least used lane color, lowest index first.
func (r *Renderer) nextColor() int {
	best := 0
	for i, used := range r.colors {
		if used < r.colors[best] {
			best = i
		}
	}
	r.colors[best]++
	return best
}
