// Package tui is the terminal front-end: a bubbletea program whose Update
// loop is the single thread driving the view scheduler.
package tui

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/procio"
	"github.com/thiagokokada/tigo/internal/view"
	"github.com/thiagokokada/tigo/internal/views"
	"github.com/thiagokokada/tigo/internal/watch"
)

const (
	// chromeLines are the title and status bars.
	chromeLines = 2
	tabWidth    = 4
	scrollStep  = 8
)

type tickMsg struct{ gen int }

type wakeMsg struct{}

type execMsg struct {
	message string
	err     error
}

// FilesystemChanged is sent when the repository changed on disk.
type FilesystemChanged struct{}

// Options configures a Model.
type Options struct {
	Env       *views.Env
	Scheduler *view.Scheduler
	// Initial is the view shown first, loaded with InitialArg.
	Initial    string
	InitialArg string
	Log        zerolog.Logger
}

type Model struct {
	ctx   context.Context
	env   *views.Env
	sched *view.Scheduler
	log   zerolog.Logger

	views map[string]*view.View
	stack []*view.View

	width, height int
	help          help.Model
	showHelp      bool
	message       string
	isError       bool
	tickGen       int

	initial, initialArg string
}

func New(ctx context.Context, opts Options) *Model {
	initial := opts.Initial
	if initial == "" {
		initial = views.Log
	}
	sched := opts.Scheduler
	sched.OnLoad = func(*view.View) { sched.Event(watch.Load) }
	return &Model{
		ctx:        ctx,
		env:        opts.Env,
		sched:      sched,
		log:        opts.Log,
		views:      make(map[string]*view.View),
		help:       help.New(),
		initial:    initial,
		initialArg: opts.InitialArg,
		width:      80,
		height:     24,
	}
}

func (m *Model) Init() tea.Cmd {
	m.open(m.initial, m.initialArg, true)
	return tea.Batch(m.waitWake(), m.schedule())
}

func (m *Model) waitWake() tea.Cmd {
	wake := m.sched.Wake()
	return func() tea.Msg {
		<-wake
		return wakeMsg{}
	}
}

// schedule arms the next tick for the scheduler's timeout. Ticks armed
// earlier become stale.
func (m *Model) schedule() tea.Cmd {
	m.tickGen++
	gen := m.tickGen
	d, ok := m.sched.Timeout()
	switch {
	case !ok:
		return nil
	case d <= 0:
		return func() tea.Msg { return tickMsg{gen: gen} }
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

func (m *Model) current() *view.View {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()

	case wakeMsg:
		m.sched.Tick()
		cmds = append(cmds, m.waitWake())

	case tickMsg:
		if msg.gen != m.tickGen {
			return m, nil
		}
		m.sched.Tick()

	case FilesystemChanged:
		m.sched.Event(watch.Filesystem)

	case execMsg:
		m.setMessage(msg.message, msg.err)
		m.sched.Event(watch.AfterCommand)

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			m.sched.StopAll()
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, m.schedule())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, keys.Quit) {
		return nil, true
	}
	m.message = ""
	if name, ok := viewKeys[msg.String()]; ok {
		m.open(name, "", false)
		return nil, false
	}
	v := m.current()
	if v == nil {
		return nil, false
	}
	switch {
	case key.Matches(msg, keys.Close):
		return nil, m.closeView()
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.resize()
	case key.Matches(msg, keys.Up):
		v.Scroll(-1)
	case key.Matches(msg, keys.Down):
		v.Scroll(1)
	case key.Matches(msg, keys.PageUp):
		v.Pos.Offset -= v.Height
		v.Scroll(-v.Height)
	case key.Matches(msg, keys.PageDown):
		v.Pos.Offset += v.Height
		v.Scroll(v.Height)
	case key.Matches(msg, keys.Top):
		v.MoveTo(0)
	case key.Matches(msg, keys.Bottom):
		v.MoveTo(v.Lines.Len() - 1)
	case key.Matches(msg, keys.Left):
		v.Pos.Col = max(v.Pos.Col-scrollStep, 0)
	case key.Matches(msg, keys.Right):
		v.Pos.Col += scrollStep
	case key.Matches(msg, keys.Back):
		m.back(v)
	case key.Matches(msg, keys.Refresh):
		m.report(m.sched.Begin(v, view.Reload|views.LoadFlags(v.Name, m.env, false)))
	case key.Matches(msg, keys.Stop):
		m.sched.Stop(v)
	default:
		for _, rk := range requestKeys {
			if key.Matches(msg, *rk.binding) {
				return m.apply(v, v.Backend.Request(v, rk.req, v.Current())), false
			}
		}
	}
	return nil, false
}

// apply carries out what a backend asked for.
func (m *Model) apply(v *view.View, act view.Action) tea.Cmd {
	if act.Message != "" && act.Exec == nil {
		m.setMessage(act.Message, nil)
	}
	switch {
	case act.Open != "":
		m.open(act.Open, act.Arg, true)
	case act.Push:
		m.report(m.sched.Navigate(v, act.Arg))
	case act.Back:
		m.back(v)
	case act.Exec != nil:
		return m.exec(*act.Exec, act.Message)
	}
	return nil
}

func (m *Model) exec(cmd procio.Command, message string) tea.Cmd {
	if cmd.Dir == "" && m.env.Repo != nil {
		cmd.Dir = m.env.Repo.RepoPath()
	}
	ctx := m.ctx
	m.log.Debug().Stringer("command", cmd).Msg("running")
	return func() tea.Msg {
		_, err := procio.Output(ctx, cmd)
		return execMsg{message: message, err: err}
	}
}

// open shows the named view. It is loaded again when arg names something
// else than what it shows, or when it never loaded.
func (m *Model) open(name, arg string, withArg bool) {
	v, ok := m.views[name]
	first := !ok
	if !ok {
		var err error
		v, err = views.New(name, m.env)
		if err != nil {
			m.setMessage("", err)
			return
		}
		m.views[name] = v
		m.sched.Register(v)
	}
	reload := !v.Loaded() && !v.Loading()
	if withArg && arg != v.Arg {
		// Another view picked a new object; the old trail no longer applies.
		v.History.Reset()
		v.Arg = arg
		reload = true
	}
	m.show(v)
	if reload {
		m.report(m.sched.Begin(v, views.LoadFlags(name, m.env, first)))
	} else {
		m.sched.Event(watch.SwitchView)
	}
}

// show puts v on top of the view stack.
func (m *Model) show(v *view.View) {
	if cur := m.current(); cur != nil {
		cur.Displayed = false
	}
	m.stack = slices.DeleteFunc(m.stack, func(x *view.View) bool { return x == v })
	m.stack = append(m.stack, v)
	v.Displayed = true
	v.Height = m.bodyHeight()
	v.Clamp()
}

func (m *Model) closeView() bool {
	if len(m.stack) <= 1 {
		return true
	}
	v := m.current()
	v.Displayed = false
	m.sched.Stop(v)
	m.stack = m.stack[:len(m.stack)-1]
	next := m.current()
	next.Displayed = true
	next.Height = m.bodyHeight()
	next.Clamp()
	m.sched.Event(watch.SwitchView)
	return false
}

func (m *Model) back(v *view.View) {
	ok, err := m.sched.Back(v)
	if err != nil {
		m.setMessage("", err)
		return
	}
	if !ok {
		m.setMessage("no history", nil)
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.setMessage("", err)
	}
}

func (m *Model) setMessage(text string, err error) {
	m.message, m.isError = text, false
	if err != nil {
		m.message, m.isError = err.Error(), true
	}
}

func (m *Model) bodyHeight() int {
	h := m.height - chromeLines
	if m.showHelp {
		h -= lipgloss.Height(m.help.View(keys)) - 1
	}
	return max(h, 1)
}

func (m *Model) resize() {
	for _, v := range m.stack {
		v.Height = m.bodyHeight()
		v.Clamp()
	}
}

func (m *Model) View() string {
	v := m.current()
	if v == nil {
		return m.message
	}
	th := m.env.Theme
	var b strings.Builder
	b.WriteString(th.Title.Width(m.width).Render(ansi.Truncate(v.Title(), m.width, "")))
	b.WriteByte('\n')

	for i := range m.bodyHeight() {
		slot := v.Pos.Offset + i
		if line := v.Lines.At(slot); line != nil {
			b.WriteString(m.renderLine(v, line, slot == v.Pos.Lineno))
		}
		b.WriteByte('\n')
	}

	switch {
	case m.showHelp:
		b.WriteString(m.help.View(keys))
	case m.isError:
		b.WriteString(th.Error.Render(ansi.Truncate(m.message, m.width, "")))
	default:
		status := m.message
		if status == "" {
			status = v.Status()
		}
		if status == "" {
			status = m.help.ShortHelpView(keys.ShortHelp())
		}
		if err := v.Err(); err != nil && m.message == "" {
			b.WriteString(th.Error.Render(ansi.Truncate(status, m.width, "")))
		} else {
			b.WriteString(th.Status.Width(m.width).Render(ansi.Truncate(status, m.width, "")))
		}
	}
	return b.String()
}

func (m *Model) renderLine(v *view.View, line *linestore.Line, cursor bool) string {
	text := strings.ReplaceAll(v.Backend.Render(v, line), "\t", strings.Repeat(" ", tabWidth))
	text = ansi.Cut(text, v.Pos.Col, v.Pos.Col+m.width)
	if cursor {
		return m.env.Theme.Cursor.Width(m.width).Render(ansi.Strip(text))
	}
	return text
}
