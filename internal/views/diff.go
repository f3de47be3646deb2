package views

import (
	"strings"

	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/style"
	"github.com/thiagokokada/tigo/internal/view"
)

// diffLine is a line of unified diff output. Path is the file the line
// belongs to, used to pick a syntax highlighter.
type diffLine struct {
	Text string
	Path string
}

// diffParser classifies the lines of git show and git diff output.
type diffParser struct {
	path    string
	inFiles bool
	inHunk  bool
}

func (p *diffParser) classify(text string) linestore.Type {
	if path, ok := diffPathFromLine(text); ok {
		p.path = path
		p.inFiles = true
		p.inHunk = false
		return LineDiffHeader
	}
	if strings.HasPrefix(text, "commit ") {
		p.path = ""
		p.inFiles = false
		p.inHunk = false
		return LineCommit
	}
	if !p.inFiles {
		switch {
		case isHeaderField(text):
			return LineMeta
		case isStatLine(text):
			return LineStat
		}
		return LineDefault
	}
	if strings.HasPrefix(text, "@@") {
		p.inHunk = true
		return LineDiffChunk
	}
	if !p.inHunk {
		return LineMeta
	}
	switch {
	case strings.HasPrefix(text, "+"):
		return LineDiffAdd
	case strings.HasPrefix(text, "-"):
		return LineDiffDel
	}
	return LineDefault
}

var headerFields = []string{
	"Author:", "AuthorDate:", "Commit:", "CommitDate:", "Date:", "Merge:",
}

func isHeaderField(text string) bool {
	for _, field := range headerFields {
		if strings.HasPrefix(text, field) {
			return true
		}
	}
	return false
}

// isStatLine matches diffstat rows. Commit messages are indented by four
// spaces, stat rows by one.
func isStatLine(text string) bool {
	if !strings.HasPrefix(text, " ") || strings.HasPrefix(text, "    ") {
		return false
	}
	return strings.Contains(text, " | ") || strings.Contains(text, " changed")
}

func diffPathFromLine(line string) (string, bool) {
	const prefix = "diff --git "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	tokens := diffLineTokens(strings.TrimSpace(line[len(prefix):]))
	if len(tokens) < 2 {
		return "", true
	}
	return normalizeDiffPath(tokens[1]), true
}

// diffLineTokens splits the header operands, honoring git's quoting.
func diffLineTokens(s string) []string {
	var tokens []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return tokens
		}
		if s[0] != '"' {
			j := strings.IndexAny(s, " \t")
			if j < 0 {
				j = len(s)
			}
			tokens = append(tokens, s[:j])
			s = s[j:]
			continue
		}
		var buf strings.Builder
		escaped := false
		i := 1
		for ; i < len(s); i++ {
			ch := s[i]
			if escaped {
				buf.WriteByte(ch)
				escaped = false
				continue
			}
			if ch == '\\' {
				escaped = true
				continue
			}
			if ch == '"' {
				i++
				break
			}
			buf.WriteByte(ch)
		}
		tokens = append(tokens, buf.String())
		s = s[min(i, len(s)):]
	}
}

func normalizeDiffPath(token string) string {
	token = strings.TrimPrefix(token, "a/")
	return strings.TrimPrefix(token, "b/")
}

func renderDiffLine(th *style.Theme, typ linestore.Type, dl diffLine) string {
	text := dl.Text
	switch typ {
	case LineCommit:
		return th.Hash.Render(text)
	case LineMeta:
		return th.Dim.Render(text)
	case LineDiffHeader:
		return th.Header.Render(text)
	case LineDiffChunk:
		return th.Chunk.Render(text)
	}
	code, marker := text, ""
	if typ == LineDiffAdd || typ == LineDiffDel || strings.HasPrefix(text, " ") {
		marker, code = text[:1], text[1:]
	}
	if th.Syntax == nil || dl.Path == "" || marker == "" {
		switch typ {
		case LineDiffAdd:
			return th.Add.Render(text)
		case LineDiffDel:
			return th.Del.Render(text)
		}
		return text
	}
	switch typ {
	case LineDiffAdd:
		marker = th.Add.Render(marker)
	case LineDiffDel:
		marker = th.Del.Render(marker)
	}
	return marker + th.Syntax.Line(dl.Path, code)
}

type diffView struct {
	env *Env
}

func (d *diffView) Open(v *view.View, _ view.Flags) error {
	if v.Arg == "" {
		v.Arg = "HEAD"
	}
	v.Run(gitCommand("show", "--patch-with-stat", "--pretty=fuller", "--no-color",
		"--find-renames", v.Arg, "--"))
	return nil
}

func diffParserOf(v *view.View) *diffParser {
	p, ok := v.Private.(*diffParser)
	if !ok {
		p = &diffParser{}
		v.Private = p
	}
	return p
}

func readDiff(v *view.View, line []byte) {
	p := diffParserOf(v)
	text := lineText(line)
	typ := p.classify(text)
	path := ""
	if p.inFiles {
		path = p.path
	}
	v.Lines.Append(typ, diffLine{Text: text, Path: path}, false)
}

func (d *diffView) Read(v *view.View, line []byte, _ bool) bool {
	if line != nil {
		readDiff(v, line)
	}
	return true
}

func (d *diffView) Select(*view.View, *linestore.Line) {}

func (d *diffView) Done(*view.View) {}

func (d *diffView) Render(_ *view.View, line *linestore.Line) string {
	dl, _ := line.Payload.(diffLine)
	return renderDiffLine(d.env.Theme, line.Type(), dl)
}

func (d *diffView) Request(v *view.View, req view.Request, line *linestore.Line) view.Action {
	switch req {
	case view.ReqNext:
		return moveToNext(v, LineDiffHeader, linestore.Forward, "file")
	case view.ReqPrev:
		return moveToNext(v, LineDiffHeader, linestore.Backward, "file")
	case view.ReqParent:
		return view.Action{Push: true, Arg: v.Arg + "^"}
	case view.ReqEnter:
		if line == nil {
			break
		}
		dl, _ := line.Payload.(diffLine)
		if line.Type() == LineDiffHeader && dl.Path != "" {
			return view.Action{Open: Blob, Arg: v.Arg + ":" + dl.Path}
		}
	}
	return view.Action{}
}
