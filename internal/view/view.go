// Package view implements the views of tigo and the scheduler that keeps them
// loading.
//
// A View owns a line store filled by its Backend from the output of one child
// process at a time. All methods run on the UI goroutine; the only concurrent
// parts are the reader goroutines inside procio channels.
package view

import (
	"fmt"
	"io"
	"time"

	"github.com/thiagokokada/tigo/internal/history"
	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/procio"
	"github.com/thiagokokada/tigo/internal/watch"
)

// Flags modify a load started with Scheduler.Begin.
type Flags uint16

const (
	// Reload resets the line store and calls Backend.Open again.
	Reload Flags = 1 << iota
	// Refresh reruns the previous command; old lines stay until new output
	// arrives.
	Refresh
	// Extra appends the output of another command to the current lines.
	Extra
	// ForwardStdin hands the program's stdin to the next child. Only one
	// load ever reads it.
	ForwardStdin
	// WithStderr merges the child's stderr into its output.
	WithStderr
	// Prepared skips Backend.Open; the source was set with Run, Feed or Stream.
	Prepared
)

// State is the load state of a view.
type State uint8

const (
	Idle State = iota
	Loading
	// Draining is the state during the final nil Read after end of output.
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Draining:
		return "draining"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Position is a scroll offset and a cursor, both line slots, plus the
// horizontal scroll column.
type Position struct {
	Offset int
	Lineno int
	Col    int
}

// Request is a user action forwarded to the backend.
type Request uint8

const (
	ReqEnter Request = iota
	ReqNext
	ReqPrev
	ReqParent
	ReqToggle
)

// Action tells the UI what to do after a request.
type Action struct {
	// Open switches to the named view, loaded with Arg.
	Open string
	Arg  string
	// Push saves the current position on the view's history and reloads the
	// same view with Arg.
	Push bool
	// Back returns to the previous entry of the view's history.
	Back bool
	// Exec runs a command that may modify the repository, then probes.
	Exec    *procio.Command
	Message string
}

// Backend feeds a view. Read is called once per output line and once more
// with a nil line at end of output; returning false aborts the load.
type Backend interface {
	Open(v *View, flags Flags) error
	Read(v *View, line []byte, forceStop bool) bool
	Select(v *View, line *linestore.Line)
	Done(v *View)
	Render(v *View, line *linestore.Line) string
	Request(v *View, req Request, line *linestore.Line) Action
}

type source struct {
	cmd    procio.Command
	text   *string
	reader io.Reader
}

// rerunnable reports whether the source can be started again as is. Text,
// streams and forwarded stdin are consumed by the first run.
func (s source) rerunnable() bool {
	return s.text == nil && s.reader == nil && s.cmd.Stdin == nil && len(s.cmd.Argv) > 0
}

func (s source) String() string {
	switch {
	case s.text != nil:
		return "(text)"
	case s.reader != nil:
		return "(stream)"
	}
	return s.cmd.String()
}

type View struct {
	Name    string
	Backend Backend
	Lines   linestore.Store
	Pos     Position
	Height  int
	// Arg is what the view shows: a revision, a path, ... Backends interpret it.
	Arg string
	// Dir is the working directory of the commands.
	Dir string
	// Private holds backend state; it is cleared on reload.
	Private any
	// Triggers are the repository changes that make the view stale.
	Triggers  watch.Trigger
	Watch     watch.Watch
	History   history.Stack[Position]
	Displayed bool

	state   State
	ch      *procio.Channel
	next    *source
	src     source
	queue   []source
	started time.Time
	loaded  bool

	// prev is the position to restore when the current load finishes.
	prev         *Position
	restore      *Position
	resetPending bool

	err     error
	status  string
	waited  int
	updated bool
}

func New(name string, b Backend, triggers watch.Trigger) *View {
	return &View{Name: name, Backend: b, Triggers: triggers}
}

// Run sets the command the next load streams from. Backends call it from Open.
func (v *View) Run(cmd procio.Command) {
	if cmd.Dir == "" {
		cmd.Dir = v.Dir
	}
	v.next = &source{cmd: cmd}
}

// Feed sets precomputed text as the output of the next load.
func (v *View) Feed(text string) {
	v.next = &source{text: &text}
}

// Stream sets a reader as the output of the next load.
func (v *View) Stream(r io.Reader) {
	v.next = &source{reader: r}
}

// Queue appends a command to run once the current one ends. Called from
// Read at end of output, it chains another phase to the load.
func (v *View) Queue(cmd procio.Command) {
	if cmd.Dir == "" {
		cmd.Dir = v.Dir
	}
	v.queue = append(v.queue, source{cmd: cmd})
}

// RestoreTo makes the next load end at pos instead of the top.
func (v *View) RestoreTo(pos Position) {
	v.restore = &pos
}

func (v *View) State() State { return v.state }

// Loading reports whether the view has an open channel.
func (v *View) Loading() bool { return v.ch != nil }

// Loaded reports whether a load ever completed.
func (v *View) Loaded() bool { return v.loaded }

func (v *View) Err() error { return v.err }

// Status is the text of the status line: an error, a progress note or a
// message set by the backend.
func (v *View) Status() string {
	if v.err != nil {
		return v.err.Error()
	}
	return v.status
}

func (v *View) SetStatus(format string, args ...any) {
	v.status = fmt.Sprintf(format, args...)
	v.updated = true
}

// Current returns the line under the cursor.
func (v *View) Current() *linestore.Line {
	return v.Lines.At(v.Pos.Lineno)
}

// Title describes the view and the cursor location.
func (v *View) Title() string {
	title := v.Name
	if v.Arg != "" {
		title += " " + v.Arg
	}
	if line := v.Current(); line != nil && line.Lineno > 0 {
		title += fmt.Sprintf(" - line %d of %d", line.Lineno, v.Lines.Numbered())
	}
	if v.ch != nil {
		title += " [loading]"
	}
	return title
}

// MoveTo puts the cursor on slot and tells the backend.
func (v *View) MoveTo(slot int) {
	v.Pos.Lineno = slot
	v.Clamp()
	if line := v.Current(); line != nil {
		v.Backend.Select(v, line)
	}
	v.updated = true
}

// Scroll moves the cursor by delta lines.
func (v *View) Scroll(delta int) {
	v.MoveTo(v.Pos.Lineno + delta)
}

// Clamp restores 0 ≤ offset ≤ lineno < max(1, lines) and keeps the cursor
// within the viewport.
func (v *View) Clamp() {
	last := max(v.Lines.Len()-1, 0)
	v.Pos.Lineno = min(max(v.Pos.Lineno, 0), last)
	v.Pos.Offset = min(max(v.Pos.Offset, 0), v.Pos.Lineno)
	if h := max(v.Height, 1); v.Pos.Lineno-v.Pos.Offset >= h {
		v.Pos.Offset = v.Pos.Lineno - h + 1
	}
	v.Pos.Col = max(v.Pos.Col, 0)
}

// restorePosition applies the saved position after a load: exactly when the
// new content covers it, otherwise clamped to the last line.
func (v *View) restorePosition() {
	if v.prev != nil {
		saved := *v.prev
		v.prev = nil
		if total := v.Lines.Len(); total > saved.Lineno {
			v.Pos = saved
		} else {
			v.Pos = Position{Offset: saved.Offset, Lineno: total - 1, Col: saved.Col}
		}
	}
	v.Clamp()
	if line := v.Current(); line != nil {
		v.Backend.Select(v, line)
	}
}
