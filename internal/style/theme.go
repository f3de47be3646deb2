// Package style holds the terminal colors of tigo: line classes, the lane
// palette of the commit graph and the syntax highlighter of diffs and blobs.
package style

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	darkmode "github.com/thiagokokada/dark-mode-go"

	"github.com/thiagokokada/tigo/internal/graph"
)

type Preference int

const (
	PreferenceAuto Preference = iota
	PreferenceLight
	PreferenceDark
)

func (p Preference) String() string {
	switch p {
	case PreferenceLight:
		return "light"
	case PreferenceDark:
		return "dark"
	default:
		return "auto"
	}
}

// ParsePreference maps unknown values to PreferenceAuto.
func ParsePreference(raw string) Preference {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case PreferenceDark.String():
		return PreferenceDark
	case PreferenceLight.String():
		return PreferenceLight
	default:
		return PreferenceAuto
	}
}

type palette struct {
	name string
	dark bool

	text, dim     string
	add, del      string
	header, chunk string
	hash, date    string
	author, ref   string
	head, section string

	titleFg, titleBg   string
	statusFg, statusBg string
	cursorFg, cursorBg string
	errorFg            string

	lanes [graph.PaletteSize]string
}

var (
	lightPalette = palette{
		name:     "light",
		text:     "#24292f",
		dim:      "#6e7781",
		add:      "#116329",
		del:      "#a40e26",
		header:   "#0550ae",
		chunk:    "#8250df",
		hash:     "#953800",
		date:     "#0a3069",
		author:   "#116329",
		ref:      "#8250df",
		head:     "#cf222e",
		section:  "#0550ae",
		titleFg:  "#ffffff",
		titleBg:  "#0969da",
		statusFg: "#24292f",
		statusBg: "#eaeef2",
		cursorFg: "#24292f",
		cursorBg: "#ddf4ff",
		errorFg:  "#cf222e",
		lanes:    [graph.PaletteSize]string{"#0969da", "#cf222e", "#1a7f37", "#8250df", "#bf8700", "#1b7c83", "#bc4c00"},
	}
	darkPalette = palette{
		name:     "dark",
		dark:     true,
		text:     "#c9d1d9",
		dim:      "#8b949e",
		add:      "#7ee787",
		del:      "#ffa198",
		header:   "#79c0ff",
		chunk:    "#d2a8ff",
		hash:     "#ffa657",
		date:     "#a5d6ff",
		author:   "#7ee787",
		ref:      "#d2a8ff",
		head:     "#ff7b72",
		section:  "#79c0ff",
		titleFg:  "#0d1117",
		titleBg:  "#58a6ff",
		statusFg: "#c9d1d9",
		statusBg: "#21262d",
		cursorFg: "#f0f6fc",
		cursorBg: "#1f6feb",
		errorFg:  "#ff7b72",
		lanes:    [graph.PaletteSize]string{"#58a6ff", "#ff7b72", "#3fb950", "#d2a8ff", "#e3b341", "#39c5cf", "#ffa657"},
	}
	detectDarkMode = darkmode.IsDarkMode
)

func paletteFor(pref Preference, log zerolog.Logger) palette {
	switch pref {
	case PreferenceDark:
		return darkPalette
	case PreferenceLight:
		return lightPalette
	}
	if detectDarkMode != nil {
		dark, err := detectDarkMode()
		if err != nil {
			log.Debug().Err(err).Msg("detect dark mode")
		} else if dark {
			return darkPalette
		}
	}
	return lightPalette
}

// Theme is the set of styles views render with.
type Theme struct {
	Name string
	Dark bool

	Text, Dim     lipgloss.Style
	Add, Del      lipgloss.Style
	Header, Chunk lipgloss.Style
	Hash, Date    lipgloss.Style
	Author, Ref   lipgloss.Style
	Head, Section lipgloss.Style
	Title, Status lipgloss.Style
	Cursor, Error lipgloss.Style
	Lanes         [graph.PaletteSize]lipgloss.Style

	// Syntax is nil when highlighting is disabled.
	Syntax *Highlighter
}

// NewTheme resolves pref, detecting the desktop color scheme for
// PreferenceAuto.
func NewTheme(pref Preference, syntax bool, log zerolog.Logger) *Theme {
	p := paletteFor(pref, log)
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	t := &Theme{
		Name:    p.name,
		Dark:    p.dark,
		Text:    fg(p.text),
		Dim:     fg(p.dim),
		Add:     fg(p.add),
		Del:     fg(p.del),
		Header:  fg(p.header).Bold(true),
		Chunk:   fg(p.chunk),
		Hash:    fg(p.hash),
		Date:    fg(p.date),
		Author:  fg(p.author),
		Ref:     fg(p.ref).Bold(true),
		Head:    fg(p.head).Bold(true),
		Section: fg(p.section).Bold(true),
		Title: lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(p.titleFg)).
			Background(lipgloss.Color(p.titleBg)),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.statusFg)).
			Background(lipgloss.Color(p.statusBg)),
		Cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.cursorFg)).
			Background(lipgloss.Color(p.cursorBg)),
		Error: fg(p.errorFg).Bold(true),
	}
	for i, c := range p.lanes {
		t.Lanes[i] = fg(c)
	}
	if syntax {
		t.Syntax = NewHighlighter(p.dark)
	}
	return t
}

// Graph renders a commit graph row with its lane colors.
func (t *Theme) Graph(c graph.Canvas, g graph.Glyphs) string {
	var b strings.Builder
	for _, sym := range c {
		b.WriteString(t.Lanes[sym.Color%graph.PaletteSize].Render(g.Glyph(sym)))
	}
	return b.String()
}
