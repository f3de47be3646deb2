package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/thiagokokada/tigo/internal/procio"
	"github.com/thiagokokada/tigo/internal/watch"
)

// chunksPerTick bounds the output one view consumes per tick so input stays
// responsive while large outputs stream in.
const chunksPerTick = 32

// Scheduler multiplexes the channels of all registered views. It is driven
// by the UI loop: Tick services ready channels and Timeout tells the loop how
// long it may wait for input.
type Scheduler struct {
	ctx      context.Context
	views    []*View
	wake     chan struct{}
	registry *watch.Registry
	stdin    io.Reader
	now      func() time.Time
	log      zerolog.Logger

	periodic     time.Duration
	lastPeriodic time.Time

	// OnLoad is called when a view finished loading.
	OnLoad func(v *View)
}

func NewScheduler(ctx context.Context, registry *watch.Registry, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		wake:     make(chan struct{}, 1),
		registry: registry,
		now:      time.Now,
		log:      log,
	}
}

// SetPeriodic sets the interval of periodic probes; zero disables them.
func (s *Scheduler) SetPeriodic(d time.Duration) {
	s.periodic = d
	s.lastPeriodic = s.now()
}

// SetStdin sets the reader forwarded to children loaded with ForwardStdin.
func (s *Scheduler) SetStdin(r io.Reader) {
	s.stdin = r
}

// Wake receives a value whenever a channel has new output.
func (s *Scheduler) Wake() <-chan struct{} {
	return s.wake
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Register(v *View) {
	if slices.Contains(s.views, v) {
		return
	}
	s.views = append(s.views, v)
	if s.registry != nil {
		s.registry.Register(&v.Watch, v.Triggers)
	}
}

func (s *Scheduler) Views() []*View {
	return s.views
}

// Loading reports whether any view has an open channel.
func (s *Scheduler) Loading() bool {
	return slices.ContainsFunc(s.views, (*View).Loading)
}

// Begin starts loading v. The new source is opened before the old content
// is discarded, so a failing Open leaves v as it was.
func (s *Scheduler) Begin(v *View, flags Flags) error {
	if flags&Extra != 0 {
		return s.beginExtra(v, flags)
	}
	s.finalize(v)
	src := v.src
	if flags&Refresh == 0 || !src.rerunnable() {
		next, err := s.prepare(v, flags)
		if err != nil {
			return err
		}
		src = next
	}

	switch {
	case flags&Refresh != 0:
		s.savePosition(v)
		v.resetPending = true
	default:
		if flags&Reload != 0 {
			s.savePosition(v)
		} else {
			v.prev = nil
			v.Pos = Position{}
		}
		if v.restore != nil {
			v.prev, v.restore = v.restore, nil
		}
		v.Lines.Reset()
		v.resetPending = false
	}
	v.Backend.Done(v)
	v.Private = nil
	v.src = s.wire(src, flags)
	return s.start(v, v.src)
}

// prepare asks the backend for the next source of v unless one was set up
// beforehand with Prepared.
func (s *Scheduler) prepare(v *View, flags Flags) (source, error) {
	if flags&Prepared == 0 {
		v.next = nil
		if err := v.Backend.Open(v, flags); err != nil {
			return source{}, s.fail(v, err)
		}
	}
	src := v.next
	v.next = nil
	if src == nil {
		return source{}, s.fail(v, ErrNoCommand)
	}
	return *src, nil
}

// wire applies the channel flags to a command source. Stdin goes to one
// child only.
func (s *Scheduler) wire(src source, flags Flags) source {
	if src.text != nil || src.reader != nil {
		return src
	}
	if flags&WithStderr != 0 {
		src.cmd.WithStderr = true
	}
	if flags&ForwardStdin != 0 && s.stdin != nil {
		src.cmd.Stdin = s.stdin
		s.stdin = nil
	}
	return src
}

func (s *Scheduler) beginExtra(v *View, flags Flags) error {
	src, err := s.prepare(v, flags)
	if err != nil {
		return err
	}
	src = s.wire(src, flags)
	if v.ch != nil {
		v.queue = append(v.queue, src)
		return nil
	}
	return s.start(v, src)
}

func (s *Scheduler) savePosition(v *View) {
	if v.Lines.Len() > 0 {
		pos := v.Pos
		v.prev = &pos
	}
}

func (s *Scheduler) start(v *View, src source) error {
	s.finalize(v)
	switch {
	case src.text != nil:
		v.ch = procio.FromString(*src.text)
	case src.reader != nil:
		v.ch = procio.FromReader(src.reader, s.wake)
	default:
		ch, err := procio.Open(s.ctx, src.cmd, s.wake)
		if err != nil {
			return s.fail(v, err)
		}
		v.ch = ch
	}
	s.log.Debug().Str("view", v.Name).Stringer("source", src).Msg("load started")
	v.state = Loading
	v.started = s.now()
	v.err = nil
	v.status = ""
	v.waited = 0
	v.updated = true
	s.signal()
	return nil
}

// finalize kills the channel of v, if any, and waits for the child.
func (s *Scheduler) finalize(v *View) {
	if v.ch == nil {
		return
	}
	if err := v.ch.Kill(); err != nil {
		s.log.Debug().Err(err).Str("view", v.Name).Msg("load interrupted")
	}
	v.ch = nil
	v.queue = nil
	v.state = Idle
}

func (s *Scheduler) fail(v *View, err error) error {
	s.finalize(v)
	v.queue = nil
	v.err = fmt.Errorf("%s: %w", v.Name, err)
	v.state = Idle
	v.resetPending = false
	v.prev = nil
	v.restore = nil
	v.Clamp()
	v.updated = true
	s.log.Warn().Err(err).Str("view", v.Name).Msg("load failed")
	return v.err
}

// Stop interrupts the load of v, keeping what was read so far.
func (s *Scheduler) Stop(v *View) {
	if v.ch == nil {
		return
	}
	s.finalize(v)
	if v.resetPending {
		// Nothing arrived since the refresh began; the old lines stay as
		// they were.
		v.resetPending = false
	} else {
		v.Backend.Read(v, nil, true)
	}
	v.restorePosition()
	v.status = "loading stopped"
	v.updated = true
}

// StopAll interrupts every load.
func (s *Scheduler) StopAll() {
	for _, v := range s.views {
		s.Stop(v)
	}
}

// Tick services every view with output ready, in registration order, and
// runs periodic probes when due. It reports whether anything needs a redraw.
func (s *Scheduler) Tick() bool {
	now := s.now()
	redraw := false
	for _, v := range s.views {
		if v.ch != nil {
			s.service(v)
		}
		if v.ch != nil && v.Lines.Len() == 0 {
			if secs := int(now.Sub(v.started) / time.Second); secs > 0 && secs != v.waited {
				v.waited = secs
				v.status = fmt.Sprintf("loading %ds", secs)
				v.updated = true
			}
		}
		if v.updated {
			v.updated = false
			redraw = redraw || v.Displayed
		}
	}
	if s.periodic > 0 && s.registry != nil && s.registry.Mode() == watch.PeriodicMode &&
		now.Sub(s.lastPeriodic) >= s.periodic {
		s.lastPeriodic = now
		if s.Event(watch.Periodic) {
			redraw = true
		}
	}
	return redraw
}

func (s *Scheduler) service(v *View) {
	if !v.ch.Ready(false) {
		return
	}
	for range chunksPerTick {
		n, err := v.ch.Fill()
		for {
			line, ok := v.ch.Line('\n')
			if !ok {
				break
			}
			if !s.read(v, line) {
				s.fail(v, ErrParseFailure)
				return
			}
		}
		switch {
		case errors.Is(err, io.EOF):
			s.drain(v)
			return
		case err != nil:
			s.fail(v, err)
			return
		case n == 0 && !v.ch.Ready(false):
			return
		}
	}
}

func (s *Scheduler) read(v *View, line []byte) bool {
	if v.resetPending {
		v.resetPending = false
		v.Lines.Reset()
	}
	v.updated = true
	if line != nil {
		v.Clamp()
	}
	return v.Backend.Read(v, line, false)
}

// drain handles end of output: the final nil Read, then the next queued
// phase or the end of the load.
func (s *Scheduler) drain(v *View) {
	v.state = Draining
	if !s.read(v, nil) {
		s.fail(v, ErrParseFailure)
		return
	}
	err := v.ch.Close()
	v.ch = nil
	if err != nil {
		s.fail(v, err)
		return
	}
	if len(v.queue) > 0 {
		next := v.queue[0]
		v.queue = v.queue[1:]
		_ = s.start(v, next)
		return
	}
	v.state = Idle
	v.loaded = true
	v.status = ""
	v.restorePosition()
	v.updated = true
	s.log.Debug().Str("view", v.Name).Int("lines", v.Lines.Len()).
		Dur("elapsed", s.now().Sub(v.started)).Msg("load done")
	if s.OnLoad != nil {
		s.OnLoad(v)
	}
}

// Timeout returns how long the UI loop may wait for input before calling
// Tick again; ok is false when it may wait indefinitely.
func (s *Scheduler) Timeout() (d time.Duration, ok bool) {
	now := s.now()
	consider := func(c time.Duration) {
		if c < 0 {
			c = 0
		}
		if !ok || c < d {
			d, ok = c, true
		}
	}
	for _, v := range s.views {
		if v.ch == nil {
			continue
		}
		if v.ch.Pending() {
			return 0, true
		}
		if v.Lines.Len() == 0 {
			elapsed := now.Sub(v.started)
			consider(time.Second - elapsed%time.Second)
		}
	}
	if s.periodic > 0 && s.registry != nil && s.registry.Mode() == watch.PeriodicMode {
		consider(s.lastPeriodic.Add(s.periodic).Sub(now))
	}
	return d, ok
}

// Event probes the repository for ev and refreshes the displayed views that
// became stale. It reports whether a view was refreshed.
func (s *Scheduler) Event(ev watch.Event) bool {
	if s.registry == nil {
		return false
	}
	s.registry.Probe(ev)
	refreshed := false
	for _, v := range s.views {
		if v.Displayed && s.RefreshIfDirty(v) {
			refreshed = true
		}
	}
	return refreshed
}

// RefreshIfDirty refreshes v when its watch observed a change.
func (s *Scheduler) RefreshIfDirty(v *View) bool {
	if s.registry == nil || !v.loaded || !s.registry.IsDirty(&v.Watch) {
		return false
	}
	s.log.Debug().Str("view", v.Name).Msg("refreshing stale view")
	if err := s.Begin(v, Refresh); err != nil {
		s.log.Debug().Err(err).Str("view", v.Name).Msg("refresh failed")
	}
	return true
}

// Navigate saves the position of v on its history, then loads arg.
func (s *Scheduler) Navigate(v *View, arg string) error {
	v.History.Push(v.Pos, []byte(v.Arg))
	v.Arg = arg
	return s.Begin(v, 0)
}

// Back reloads what v showed before the last Navigate, at the position it
// had then. It returns false when the history is empty.
func (s *Scheduler) Back(v *View) (bool, error) {
	pos, blob, ok := v.History.Pop()
	if !ok {
		return false, nil
	}
	v.Arg = string(blob)
	v.RestoreTo(pos)
	return true, s.Begin(v, 0)
}
