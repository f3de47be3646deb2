package style

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// Highlighter colors source lines with chroma.
type Highlighter struct {
	style   *chroma.Style
	lexers  map[string]chroma.Lexer
	palette map[string]lipgloss.Style
}

func NewHighlighter(dark bool) *Highlighter {
	return &Highlighter{
		style:   styleFor(dark),
		lexers:  make(map[string]chroma.Lexer),
		palette: make(map[string]lipgloss.Style),
	}
}

func styleFor(dark bool) *chroma.Style {
	name := "github"
	if dark {
		name = "github-dark"
	}
	if st := styles.Get(name); st != nil {
		return st
	}
	return styles.Fallback
}

// Lexer returns the lexer for a file name, or nil when chroma does not know
// the language.
func (h *Highlighter) Lexer(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	if lexer, ok := h.lexers[path]; ok {
		return lexer
	}
	var lexer chroma.Lexer
	if l := lexers.Match(path); l != nil {
		lexer = chroma.Coalesce(l)
	}
	h.lexers[path] = lexer
	return lexer
}

// Line highlights one line of the file at path. It returns code unchanged
// when the language is unknown or tokenizing fails.
func (h *Highlighter) Line(path, code string) string {
	lexer := h.Lexer(path)
	if lexer == nil || code == "" {
		return code
	}
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var b strings.Builder
	for _, token := range it.Tokens() {
		value := strings.ReplaceAll(token.Value, "\n", "")
		if value == "" {
			continue
		}
		if color := colorFromEntry(h.style.Get(token.Type)); color != "" {
			value = h.styleFor(color).Render(value)
		}
		b.WriteString(value)
	}
	return b.String()
}

func (h *Highlighter) styleFor(color string) lipgloss.Style {
	st, ok := h.palette[color]
	if !ok {
		st = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		h.palette[color] = st
	}
	return st
}

func colorFromEntry(entry chroma.StyleEntry) string {
	if !entry.Colour.IsSet() {
		return ""
	}
	return "#" + strings.TrimPrefix(strings.ToLower(entry.Colour.String()), "#")
}
