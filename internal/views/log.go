package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thiagokokada/tigo/internal/graph"
	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/view"
)

const logFieldSep = "\x1f"

// logFormat yields one line per commit: boundary mark, hash, parents,
// author, date, decorations and subject.
const logFormat = "--pretty=format:%m%x1f%H%x1f%P%x1f%an%x1f%ad%x1f%D%x1f%s"

type commit struct {
	ID       string
	Parents  []string
	Author   string
	Date     string
	Refs     []string
	Subject  string
	Boundary bool
	Graph    graph.Canvas
}

func parseLogLine(text string) (commit, error) {
	fields := strings.Split(text, logFieldSep)
	if len(fields) != 7 {
		return commit{}, fmt.Errorf("log line with %d fields", len(fields))
	}
	c := commit{
		ID:       fields[1],
		Parents:  strings.Fields(fields[2]),
		Author:   fields[3],
		Date:     fields[4],
		Subject:  fields[6],
		Boundary: fields[0] == "-",
	}
	if c.ID == "" {
		return commit{}, fmt.Errorf("log line without commit id")
	}
	if fields[5] != "" {
		c.Refs = strings.Split(fields[5], ", ")
	}
	return c, nil
}

type logView struct {
	env *Env
	// stdinArg is the argument of the load that read revisions from stdin.
	stdinArg *string
}

func (l *logView) Open(v *view.View, flags view.Flags) error {
	args := []string{"log", "--no-color", "--topo-order", "--boundary", "--date=short", logFormat}
	if l.env.Limit > 0 {
		args = append(args, "--max-count="+strconv.Itoa(l.env.Limit))
	}
	switch {
	case flags&view.ForwardStdin != 0 && l.env.StdinRevisions:
		arg := v.Arg
		l.stdinArg = &arg
		args = append(args, "--stdin")
	case l.stdinArg != nil && *l.stdinArg == v.Arg:
		return errInputConsumed
	}
	if v.Arg != "" {
		args = append(args, v.Arg)
	}
	v.Run(gitCommand(append(args, "--")...))
	return nil
}

func rendererOf(v *view.View) *graph.Renderer {
	r, ok := v.Private.(*graph.Renderer)
	if !ok {
		r = graph.New()
		v.Private = r
	}
	return r
}

func (l *logView) Read(v *view.View, line []byte, _ bool) bool {
	if line == nil {
		return true
	}
	text := lineText(line)
	if text == "" {
		return true
	}
	c, err := parseLogLine(text)
	if err != nil {
		l.env.Log.Debug().Err(err).Str("line", text).Msg("unparsable log line")
		return false
	}
	if l.env.Graph {
		parents := c.Parents
		if c.Boundary {
			parents = nil
		}
		c.Graph = rendererOf(v).AddCommit(c.ID, parents, c.Boundary)
	}
	typ := LineCommit
	if c.Boundary {
		typ = LineBoundary
	}
	v.Lines.Append(typ, &c, false)
	return true
}

func (l *logView) Select(*view.View, *linestore.Line) {}

func (l *logView) Done(*view.View) {}

func (l *logView) Render(_ *view.View, line *linestore.Line) string {
	c, ok := line.Payload.(*commit)
	if !ok {
		return ""
	}
	th := l.env.Theme
	var b strings.Builder
	b.WriteString(th.Hash.Render(shortID(c.ID)))
	b.WriteByte(' ')
	b.WriteString(th.Date.Render(c.Date))
	b.WriteByte(' ')
	b.WriteString(th.Author.Render(fmt.Sprintf("%-16.16s", c.Author)))
	if len(c.Graph) > 0 {
		b.WriteString(th.Graph(c.Graph, l.env.Glyphs))
	}
	b.WriteByte(' ')
	for _, ref := range c.Refs {
		if strings.HasPrefix(ref, "HEAD") {
			b.WriteString(th.Head.Render("[" + ref + "]"))
		} else {
			b.WriteString(th.Ref.Render("[" + ref + "]"))
		}
		b.WriteByte(' ')
	}
	subject := c.Subject
	if c.Boundary {
		subject = th.Dim.Render(subject)
	}
	b.WriteString(subject)
	return b.String()
}

func (l *logView) Request(v *view.View, req view.Request, line *linestore.Line) view.Action {
	if line == nil {
		return view.Action{}
	}
	c, ok := line.Payload.(*commit)
	if !ok {
		return view.Action{}
	}
	switch req {
	case view.ReqEnter:
		return view.Action{Open: Diff, Arg: c.ID}
	case view.ReqParent:
		if len(c.Parents) == 0 {
			return view.Action{Message: "commit has no parent"}
		}
		for i, other := range v.Lines.All() {
			if oc, ok := other.Payload.(*commit); ok && oc.ID == c.Parents[0] {
				v.MoveTo(i)
				return view.Action{}
			}
		}
		return view.Action{Message: "parent " + shortID(c.Parents[0]) + " is not loaded"}
	}
	return view.Action{}
}

func shortID(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
