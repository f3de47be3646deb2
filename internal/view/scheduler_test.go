package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/procio"
	"github.com/thiagokokada/tigo/internal/watch"
)

type fakeBackend struct {
	open func(v *View, flags Flags) error
	read func(v *View, line []byte, forceStop bool) bool

	opens    int
	dones    int
	nilReads int
	forced   int
	selects  int
}

func (b *fakeBackend) Open(v *View, flags Flags) error {
	b.opens++
	if b.open != nil {
		return b.open(v, flags)
	}
	return nil
}

func (b *fakeBackend) Read(v *View, line []byte, forceStop bool) bool {
	if line == nil {
		b.nilReads++
		if forceStop {
			b.forced++
		}
	}
	if b.read != nil {
		return b.read(v, line, forceStop)
	}
	if line != nil {
		v.Lines.Append(1, string(line), false)
	}
	return true
}

func (b *fakeBackend) Select(*View, *linestore.Line) { b.selects++ }

func (b *fakeBackend) Done(*View) { b.dones++ }

func (b *fakeBackend) Render(_ *View, line *linestore.Line) string {
	return line.Payload.(string)
}

func (b *fakeBackend) Request(*View, Request, *linestore.Line) Action { return Action{} }

func feedText(text *string) func(v *View, _ Flags) error {
	return func(v *View, _ Flags) error {
		v.Feed(*text)
		return nil
	}
}

func numbered(n int) string {
	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "l%d\n", i)
	}
	return b.String()
}

func payloads(v *View) []string {
	var out []string
	for _, line := range v.Lines.All() {
		out = append(out, line.Payload.(string))
	}
	return out
}

func newTestScheduler(registry *watch.Registry) *Scheduler {
	return NewScheduler(context.Background(), registry, zerolog.Nop())
}

func runUntilIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		s.Tick()
		if !s.Loading() {
			return
		}
		if d, ok := s.Timeout(); ok && d == 0 {
			continue
		}
		select {
		case <-s.Wake():
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatal("views never finished loading")
		}
	}
}

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestLoadFeedsLinesAndFlushesOnce(t *testing.T) {
	t.Parallel()

	text := "one\ntwo\nthree"
	b := &fakeBackend{open: feedText(&text)}
	s := newTestScheduler(nil)
	v := New("main", b, 0)
	s.Register(v)

	if err := s.Begin(v, 0); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if v.State() != Loading {
		t.Fatalf("state = %v, want loading", v.State())
	}
	runUntilIdle(t, s)

	if got := payloads(v); !slices.Equal(got, []string{"one", "two", "three"}) {
		t.Fatalf("lines = %q", got)
	}
	if b.nilReads != 1 {
		t.Fatalf("nil reads = %d, want exactly 1", b.nilReads)
	}
	if v.State() != Idle || !v.Loaded() || v.Err() != nil {
		t.Fatalf("state = %v loaded = %v err = %v", v.State(), v.Loaded(), v.Err())
	}
}

func TestReloadResetsAndRestoresPosition(t *testing.T) {
	t.Parallel()

	text := numbered(20)
	b := &fakeBackend{open: feedText(&text)}
	s := newTestScheduler(nil)
	v := New("main", b, 0)
	v.Height = 5
	s.Register(v)
	if err := s.Begin(v, 0); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(t, s)

	v.Pos = Position{Offset: 8, Lineno: 10}
	if err := s.Begin(v, Reload); err != nil {
		t.Fatal(err)
	}
	if v.Lines.Len() != 0 {
		t.Fatalf("reload kept %d lines, want 0", v.Lines.Len())
	}
	if b.opens != 2 || b.dones != 2 {
		t.Fatalf("opens = %d dones = %d, want 2 and 2", b.opens, b.dones)
	}
	runUntilIdle(t, s)
	if v.Pos != (Position{Offset: 8, Lineno: 10}) {
		t.Fatalf("position = %+v, want exact restore", v.Pos)
	}

	text = numbered(4)
	v.Pos = Position{Offset: 10, Lineno: 12}
	if err := s.Begin(v, Reload); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(t, s)
	if v.Pos.Lineno != 3 {
		t.Fatalf("lineno = %d, want clamp to last line 3", v.Pos.Lineno)
	}
	if v.Pos.Offset > v.Pos.Lineno || v.Pos.Lineno-v.Pos.Offset >= v.Height {
		t.Fatalf("position %+v breaks the viewport invariant", v.Pos)
	}
}

func TestPlainBeginStartsAtTop(t *testing.T) {
	t.Parallel()

	text := numbered(30)
	b := &fakeBackend{open: feedText(&text)}
	s := newTestScheduler(nil)
	v := New("diff", b, 0)
	v.Height = 10
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)
	v.MoveTo(20)

	_ = s.Begin(v, 0)
	runUntilIdle(t, s)
	if v.Pos != (Position{}) {
		t.Fatalf("position = %+v, want top", v.Pos)
	}
}

func TestRefreshKeepsLinesUntilNewOutput(t *testing.T) {
	t.Parallel()
	requireCommand(t, "cat")

	file := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(file, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Run(procio.Command{Argv: []string{"cat", file}})
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("status", b, 0)
	v.Height = 10
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)
	v.MoveTo(2)

	if err := os.WriteFile(file, []byte("x\ny\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Begin(v, Refresh); err != nil {
		t.Fatalf("Begin(Refresh) error = %v", err)
	}
	if got := payloads(v); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("lines right after refresh = %q, want the old ones", got)
	}
	if b.opens != 1 {
		t.Fatalf("refresh called Open (opens = %d)", b.opens)
	}
	if b.dones != 2 {
		t.Fatalf("dones = %d, want 2", b.dones)
	}
	runUntilIdle(t, s)
	if got := payloads(v); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("lines = %q", got)
	}
	if v.Pos.Lineno != 1 {
		t.Fatalf("lineno = %d, want 1", v.Pos.Lineno)
	}

	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	_ = s.Begin(v, Refresh)
	runUntilIdle(t, s)
	if v.Lines.Len() != 0 {
		t.Fatalf("refresh with empty output kept %d lines", v.Lines.Len())
	}
}

func TestExtraWhileLoadingIsQueued(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{open: func(v *View, flags Flags) error {
		if flags&Extra != 0 {
			v.Feed("c\n")
		} else {
			v.Feed("a\nb\n")
		}
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("blame", b, 0)
	s.Register(v)
	_ = s.Begin(v, 0)
	if err := s.Begin(v, Extra); err != nil {
		t.Fatalf("Begin(Extra) error = %v", err)
	}
	runUntilIdle(t, s)

	if got := payloads(v); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("lines = %q", got)
	}
	if b.nilReads != 2 || b.dones != 1 {
		t.Fatalf("nil reads = %d dones = %d, want 2 and 1", b.nilReads, b.dones)
	}
}

func TestQueueChainsPhases(t *testing.T) {
	t.Parallel()
	requireCommand(t, "cat")

	file := filepath.Join(t.TempDir(), "phase2")
	if err := os.WriteFile(file, []byte("second\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	phases := 0
	b := &fakeBackend{
		open: func(v *View, _ Flags) error {
			v.Feed("first\n")
			return nil
		},
	}
	b.read = func(v *View, line []byte, _ bool) bool {
		if line == nil {
			phases++
			if phases == 1 {
				v.Queue(procio.Command{Argv: []string{"cat", file}})
			}
			return true
		}
		v.Lines.Append(1, string(line), false)
		return true
	}
	s := newTestScheduler(nil)
	v := New("status", b, 0)
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)

	if got := payloads(v); !slices.Equal(got, []string{"first", "second"}) {
		t.Fatalf("lines = %q", got)
	}
	if phases != 2 {
		t.Fatalf("phases = %d, want 2", phases)
	}
}

func TestParseFailureKeepsPartialContent(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Feed("ok\nbad\nlater\n")
		return nil
	}}
	b.read = func(v *View, line []byte, _ bool) bool {
		if string(line) == "bad" {
			return false
		}
		if line != nil {
			v.Lines.Append(1, string(line), false)
		}
		return true
	}
	s := newTestScheduler(nil)
	v := New("log", b, 0)
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)

	if !errors.Is(v.Err(), ErrParseFailure) {
		t.Fatalf("Err() = %v, want parse failure", v.Err())
	}
	if got := payloads(v); !slices.Equal(got, []string{"ok"}) {
		t.Fatalf("lines = %q", got)
	}
	if v.State() != Idle || v.Loading() {
		t.Fatalf("view still loading after failure")
	}
	if !strings.Contains(v.Status(), "parse failure") {
		t.Fatalf("Status() = %q", v.Status())
	}
}

func TestSpawnErrorIsReported(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Run(procio.Command{Argv: []string{"/nonexistent/tigo-test-binary"}})
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("main", b, 0)
	s.Register(v)

	err := s.Begin(v, 0)
	var spawnErr *procio.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("Begin() error = %v, want SpawnError", err)
	}
	if v.Err() == nil || v.Loading() {
		t.Fatalf("Err() = %v loading = %v", v.Err(), v.Loading())
	}
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		open func(v *View, _ Flags) error
		want string
	}{
		{name: "backend error", open: func(*View, Flags) error { return errors.New("bad revision") }, want: "bad revision"},
		{name: "no source", open: func(*View, Flags) error { return nil }, want: ErrNoCommand.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestScheduler(nil)
			v := New("tree", &fakeBackend{open: tt.open}, 0)
			s.Register(v)
			err := s.Begin(v, 0)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Begin() error = %v, want %q", err, tt.want)
			}
			if !strings.HasPrefix(v.Status(), "tree: ") {
				t.Fatalf("Status() = %q", v.Status())
			}
		})
	}
}

func TestLoadingStatusAndTimeout(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	s := newTestScheduler(nil)
	s.now = func() time.Time { return now }

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	v := New("main", &fakeBackend{open: func(v *View, _ Flags) error {
		v.Stream(pr)
		return nil
	}}, 0)
	v.Displayed = true
	s.Register(v)
	_ = s.Begin(v, 0)
	s.Tick()

	if d, ok := s.Timeout(); !ok || d != time.Second {
		t.Fatalf("Timeout() = %v, %v; want 1s", d, ok)
	}
	now = now.Add(1500 * time.Millisecond)
	if !s.Tick() {
		t.Fatal("Tick() did not request a redraw for the loading status")
	}
	if v.Status() != "loading 1s" {
		t.Fatalf("Status() = %q", v.Status())
	}
	if d, _ := s.Timeout(); d != 500*time.Millisecond {
		t.Fatalf("Timeout() = %v, want 500ms", d)
	}
	if s.Tick() {
		t.Fatal("Tick() requested a redraw without changes")
	}

	if _, err := pw.Write([]byte("x\n")); err != nil {
		t.Fatal(err)
	}
	pw.Close()
	runUntilIdle(t, s)
	if v.Status() != "" || v.Lines.Len() != 1 {
		t.Fatalf("Status() = %q lines = %d", v.Status(), v.Lines.Len())
	}
	if _, ok := s.Timeout(); ok {
		t.Fatal("Timeout() bounded while idle")
	}
}

func TestTimeoutZeroWhenOutputPending(t *testing.T) {
	t.Parallel()

	text := numbered(3)
	s := newTestScheduler(nil)
	v := New("main", &fakeBackend{open: feedText(&text)}, 0)
	s.Register(v)
	_ = s.Begin(v, 0)
	if d, ok := s.Timeout(); !ok || d != 0 {
		t.Fatalf("Timeout() = %v, %v; want 0", d, ok)
	}
}

func TestStopForcesFlush(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Stream(pr)
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("main", b, 0)
	s.Register(v)
	_ = s.Begin(v, 0)

	s.Stop(v)
	if v.Loading() || b.forced != 1 {
		t.Fatalf("loading = %v forced reads = %d", v.Loading(), b.forced)
	}
	if v.Status() != "loading stopped" {
		t.Fatalf("Status() = %q", v.Status())
	}
}

func TestStopAfterRefreshKeepsLines(t *testing.T) {
	t.Parallel()

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })
	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Stream(pr)
		return nil
	}}
	b.read = func(v *View, line []byte, forceStop bool) bool {
		if line == nil {
			if forceStop {
				v.Lines.Append(1, "(flushed)", false)
			}
			return true
		}
		v.Lines.Append(1, string(line), false)
		return true
	}
	s := newTestScheduler(nil)
	v := New("status", b, 0)
	s.Register(v)
	for _, l := range []string{"a", "b"} {
		v.Lines.Append(1, l, false)
	}
	v.loaded = true

	if err := s.Begin(v, Refresh); err != nil {
		t.Fatal(err)
	}
	s.Stop(v)
	if got := payloads(v); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("lines = %q, want the old ones untouched", got)
	}
	if b.forced != 0 {
		t.Fatalf("forced reads = %d, want 0", b.forced)
	}
	if v.Loading() || v.Status() != "loading stopped" {
		t.Fatalf("loading = %v status = %q", v.Loading(), v.Status())
	}
}

func TestFailedReloadKeepsContent(t *testing.T) {
	t.Parallel()

	text := numbered(5)
	fail := false
	b := &fakeBackend{open: func(v *View, _ Flags) error {
		if fail {
			return errors.New("input gone")
		}
		v.Feed(text)
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("pager", b, 0)
	v.Height = 10
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)
	v.MoveTo(3)

	fail = true
	for _, flags := range []Flags{Reload, Refresh, 0} {
		if err := s.Begin(v, flags); err == nil {
			t.Fatalf("Begin(%v) succeeded", flags)
		}
		if v.Lines.Len() != 5 || v.Pos.Lineno != 3 {
			t.Fatalf("Begin(%v) left %d lines at %d, want 5 at 3", flags, v.Lines.Len(), v.Pos.Lineno)
		}
	}
	if b.dones != 1 {
		t.Fatalf("dones = %d, want 1 while nothing was replaced", b.dones)
	}
	if !strings.Contains(v.Status(), "input gone") {
		t.Fatalf("Status() = %q", v.Status())
	}
}

func TestPreparedSkipsOpen(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	s := newTestScheduler(nil)
	v := New("pager", b, 0)
	s.Register(v)
	v.Stream(strings.NewReader("x\ny\n"))

	if err := s.Begin(v, Prepared); err != nil {
		t.Fatalf("Begin(Prepared) error = %v", err)
	}
	runUntilIdle(t, s)
	if b.opens != 0 {
		t.Fatalf("opens = %d, want 0", b.opens)
	}
	if got := payloads(v); !slices.Equal(got, []string{"x", "y"}) {
		t.Fatalf("lines = %q", got)
	}

	if err := s.Begin(v, Prepared); !errors.Is(err, ErrNoCommand) {
		t.Fatalf("second Begin(Prepared) error = %v, want ErrNoCommand", err)
	}
	if v.Lines.Len() != 2 {
		t.Fatalf("lines = %d, want 2", v.Lines.Len())
	}
}

func TestWithStderrMergesOutput(t *testing.T) {
	t.Parallel()
	requireCommand(t, "sh")

	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Run(procio.Command{Argv: []string{"sh", "-c", "echo out; echo err >&2"}})
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("blob", b, 0)
	s.Register(v)

	_ = s.Begin(v, 0)
	runUntilIdle(t, s)
	if got := payloads(v); !slices.Equal(got, []string{"out"}) {
		t.Fatalf("lines without stderr = %q", got)
	}

	_ = s.Begin(v, WithStderr)
	runUntilIdle(t, s)
	got := payloads(v)
	slices.Sort(got)
	if !slices.Equal(got, []string{"err", "out"}) {
		t.Fatalf("lines with stderr = %q", got)
	}

	// A refresh reruns the command as it was started.
	_ = s.Begin(v, Refresh)
	runUntilIdle(t, s)
	if b.opens != 2 || v.Lines.Len() != 2 {
		t.Fatalf("opens = %d lines = %d after refresh, want 2 and 2", b.opens, v.Lines.Len())
	}
}

func TestForwardStdinGoesToOneChild(t *testing.T) {
	t.Parallel()
	requireCommand(t, "cat")

	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Run(procio.Command{Argv: []string{"cat"}})
		return nil
	}}
	s := newTestScheduler(nil)
	s.SetStdin(strings.NewReader("r1\nr2\n"))
	v := New("main", b, 0)
	s.Register(v)

	_ = s.Begin(v, ForwardStdin)
	runUntilIdle(t, s)
	if got := payloads(v); !slices.Equal(got, []string{"r1", "r2"}) {
		t.Fatalf("lines = %q", got)
	}
	if v.src.rerunnable() {
		t.Fatal("source fed from stdin is rerunnable")
	}

	_ = s.Begin(v, ForwardStdin)
	runUntilIdle(t, s)
	if v.Lines.Len() != 0 {
		t.Fatalf("second load read %d lines, want stdin consumed", v.Lines.Len())
	}
}

func TestOnLoadRunsOncePerLoad(t *testing.T) {
	t.Parallel()

	text := numbered(3)
	b := &fakeBackend{open: func(v *View, flags Flags) error {
		if flags&Extra != 0 {
			v.Feed("extra\n")
			return nil
		}
		v.Feed(text)
		return nil
	}}
	s := newTestScheduler(nil)
	var loaded []string
	s.OnLoad = func(v *View) { loaded = append(loaded, v.Name) }
	v := New("blame", b, 0)
	s.Register(v)

	_ = s.Begin(v, 0)
	_ = s.Begin(v, Extra)
	runUntilIdle(t, s)
	if !slices.Equal(loaded, []string{"blame"}) {
		t.Fatalf("OnLoad calls = %q, want one", loaded)
	}

	_ = s.Begin(v, 0)
	s.Stop(v)
	runUntilIdle(t, s)
	if len(loaded) != 1 {
		t.Fatalf("OnLoad ran for an interrupted load (%d calls)", len(loaded))
	}
}

func TestPositionInvariant(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	b := &fakeBackend{}
	for range 2000 {
		v := New("main", b, 0)
		total := rng.IntN(50)
		for i := range total {
			v.Lines.Append(1, fmt.Sprint(i), false)
		}
		v.Height = 1 + rng.IntN(20)
		v.Pos = Position{Offset: rng.IntN(80) - 10, Lineno: rng.IntN(80) - 10}
		if rng.IntN(2) == 0 {
			prev := Position{Offset: rng.IntN(60), Lineno: rng.IntN(60)}
			v.prev = &prev
			v.restorePosition()
		} else {
			v.Clamp()
		}
		p := v.Pos
		if p.Offset < 0 || p.Offset > p.Lineno || p.Lineno >= max(1, total) || p.Lineno-p.Offset >= v.Height {
			t.Fatalf("position %+v invalid for %d lines, height %d", p, total, v.Height)
		}
	}
}

type stubProber struct {
	next watch.Trigger
}

func (p *stubProber) Triggers() watch.Trigger { return watch.All }

func (p *stubProber) Prime() {}

func (p *stubProber) Probe(watch.Event, time.Time) (watch.Trigger, error) {
	bits := p.next
	p.next = watch.None
	return bits, nil
}

func TestEventRefreshesDisplayedStaleViews(t *testing.T) {
	t.Parallel()

	prober := &stubProber{}
	s := newTestScheduler(watch.NewRegistry(watch.Auto, zerolog.Nop(), prober))
	text := numbered(2)
	mainBackend := &fakeBackend{open: feedText(&text)}
	treeBackend := &fakeBackend{open: feedText(&text)}
	main := New("main", mainBackend, watch.HEAD|watch.Refs)
	tree := New("tree", treeBackend, watch.HEAD)
	main.Displayed = true
	s.Register(main)
	s.Register(tree)
	_ = s.Begin(main, 0)
	_ = s.Begin(tree, 0)
	runUntilIdle(t, s)

	prober.next = watch.HEAD
	if !s.Event(watch.SwitchView) {
		t.Fatal("Event() refreshed nothing")
	}
	if mainBackend.opens != 2 || treeBackend.opens != 1 {
		t.Fatalf("opens main=%d tree=%d, want 2 and 1", mainBackend.opens, treeBackend.opens)
	}
	runUntilIdle(t, s)

	tree.Displayed = true
	if !s.RefreshIfDirty(tree) {
		t.Fatal("hidden view lost its stale mark")
	}
	runUntilIdle(t, s)
	if s.RefreshIfDirty(tree) {
		t.Fatal("stale mark was not consumed")
	}
}

func TestPeriodicProbeDrivenByTick(t *testing.T) {
	t.Parallel()

	now := time.Unix(1700000000, 0)
	prober := &stubProber{}
	s := newTestScheduler(watch.NewRegistry(watch.PeriodicMode, zerolog.Nop(), prober))
	s.now = func() time.Time { return now }
	s.SetPeriodic(10 * time.Second)

	text := numbered(2)
	b := &fakeBackend{open: feedText(&text)}
	v := New("main", b, watch.HEAD)
	v.Displayed = true
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)

	if d, ok := s.Timeout(); !ok || d != 10*time.Second {
		t.Fatalf("Timeout() = %v, %v; want 10s", d, ok)
	}
	prober.next = watch.HEAD
	now = now.Add(10 * time.Second)
	s.Tick()
	if b.opens != 2 {
		t.Fatalf("periodic probe did not refresh the view (opens = %d)", b.opens)
	}
}

func TestNavigateAndBack(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{open: func(v *View, _ Flags) error {
		v.Feed(numbered(30))
		return nil
	}}
	s := newTestScheduler(nil)
	v := New("tree", b, 0)
	v.Height = 10
	v.Arg = "HEAD:"
	s.Register(v)
	_ = s.Begin(v, 0)
	runUntilIdle(t, s)
	v.MoveTo(25)
	want := v.Pos

	if err := s.Navigate(v, "HEAD:docs"); err != nil {
		t.Fatal(err)
	}
	runUntilIdle(t, s)
	if v.Arg != "HEAD:docs" || v.Pos != (Position{}) {
		t.Fatalf("after navigate arg = %q pos = %+v", v.Arg, v.Pos)
	}

	ok, err := s.Back(v)
	if !ok || err != nil {
		t.Fatalf("Back() = %v, %v", ok, err)
	}
	runUntilIdle(t, s)
	if v.Arg != "HEAD:" || v.Pos != want {
		t.Fatalf("after back arg = %q pos = %+v, want %+v", v.Arg, v.Pos, want)
	}
	if ok, _ := s.Back(v); ok {
		t.Fatal("Back() on empty history returned true")
	}
}
