package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/thiagokokada/tigo/internal/view"
	"github.com/thiagokokada/tigo/internal/views"
)

type keyMap struct {
	Quit     key.Binding
	Close    key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	Back     key.Binding
	Next     key.Binding
	Prev     key.Binding
	Parent   key.Binding
	Toggle   key.Binding
	Refresh  key.Binding
	Stop     key.Binding
	Help     key.Binding
}

var keys = keyMap{
	Quit:     key.NewBinding(key.WithKeys("Q", "ctrl+c"), key.WithHelp("Q", "quit")),
	Close:    key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "close view")),
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f", " "), key.WithHelp("pgdn", "page down")),
	Top:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first line")),
	Bottom:   key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last line")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h", "scroll left")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l", "scroll right")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:     key.NewBinding(key.WithKeys("esc", "<", "backspace"), key.WithHelp("<", "back")),
	Next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
	Prev:     key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "previous")),
	Parent:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "parent")),
	Toggle:   key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "stage/unstage")),
	Refresh:  key.NewBinding(key.WithKeys("R", "ctrl+r"), key.WithHelp("R", "reload")),
	Stop:     key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "stop loading")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// viewKeys switch to a view by name.
var viewKeys = map[string]string{
	"m": views.Log,
	"d": views.Diff,
	"t": views.Tree,
	"f": views.Blob,
	"s": views.Status,
	"c": views.Stage,
	"r": views.Refs,
}

var requestKeys = []struct {
	binding *key.Binding
	req     view.Request
}{
	{&keys.Enter, view.ReqEnter},
	{&keys.Next, view.ReqNext},
	{&keys.Prev, view.ReqPrev},
	{&keys.Parent, view.ReqParent},
	{&keys.Toggle, view.ReqToggle},
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Enter, k.Back, k.Close, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Enter, k.Back, k.Next, k.Prev, k.Parent, k.Toggle},
		{k.Left, k.Right, k.Refresh, k.Stop, k.Close, k.Quit},
	}
}
