package views

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/view"
)

type treeEntry struct {
	Mode string
	Kind string
	Hash string
	Name string
	// Path is relative to the repository root.
	Path string
}

// parseTreeLine parses "<mode> SP <type> SP <object> TAB <file>".
func parseTreeLine(dir, text string) (treeEntry, error) {
	meta, name, ok := strings.Cut(text, "\t")
	fields := strings.Fields(meta)
	if !ok || len(fields) != 3 {
		return treeEntry{}, fmt.Errorf("malformed ls-tree line %q", text)
	}
	name = unquotePath(name)
	return treeEntry{
		Mode: fields[0],
		Kind: fields[1],
		Hash: fields[2],
		Name: name,
		Path: path.Join(dir, name),
	}, nil
}

type treeState struct {
	dir string
	// first is the slot of the first entry; dirs the number of directories
	// listed so far.
	first int
	dirs  int
}

type treeView struct {
	env *Env
}

func (t *treeView) Open(v *view.View, _ view.Flags) error {
	rev, dir := splitRevPath(v.Arg)
	v.Arg = rev + ":" + dir
	v.Run(gitCommand("ls-tree", v.Arg))
	return nil
}

// treeStateOf returns the load state, adding the parent directory entry on
// the first call of a load.
func treeStateOf(v *view.View) *treeState {
	if st, ok := v.Private.(*treeState); ok {
		return st
	}
	_, dir := splitRevPath(v.Arg)
	st := &treeState{dir: dir}
	if dir != "" {
		parent := path.Dir(dir)
		if parent == "." {
			parent = ""
		}
		v.Lines.Append(LineParentDir, treeEntry{Name: "..", Path: parent}, true)
		st.first = 1
	}
	v.Private = st
	return st
}

func (t *treeView) Read(v *view.View, line []byte, _ bool) bool {
	st := treeStateOf(v)
	if line == nil {
		return true
	}
	e, err := parseTreeLine(st.dir, lineText(line))
	if err != nil {
		t.env.Log.Debug().Err(err).Msg("unparsable tree line")
		return false
	}
	if e.Kind == "tree" {
		v.Lines.InsertAt(st.first+st.dirs, LineDir, e, false)
		st.dirs++
		return true
	}
	v.Lines.Append(LineFile, e, false)
	return true
}

func (t *treeView) Select(*view.View, *linestore.Line) {}

func (t *treeView) Done(*view.View) {}

func (t *treeView) Render(_ *view.View, line *linestore.Line) string {
	e, _ := line.Payload.(treeEntry)
	th := t.env.Theme
	switch line.Type() {
	case LineParentDir:
		return th.Dim.Render(e.Name)
	case LineDir:
		return th.Dim.Render(e.Mode+" "+shortID(e.Hash)) + " " + th.Section.Render(e.Name+"/")
	}
	return th.Dim.Render(e.Mode+" "+shortID(e.Hash)) + " " + e.Name
}

func (t *treeView) Request(v *view.View, req view.Request, line *linestore.Line) view.Action {
	rev, dir := splitRevPath(v.Arg)
	if req == view.ReqParent {
		if dir == "" {
			return view.Action{Message: "already at the top of the tree"}
		}
		return t.up(v, rev, dir)
	}
	if req != view.ReqEnter || line == nil {
		return view.Action{}
	}
	e, _ := line.Payload.(treeEntry)
	switch line.Type() {
	case LineParentDir:
		return t.up(v, rev, dir)
	case LineDir:
		return view.Action{Push: true, Arg: rev + ":" + e.Path}
	case LineFile:
		if e.Kind != "blob" {
			return view.Action{Message: e.Name + " is a " + e.Kind}
		}
		return view.Action{Open: Blob, Arg: rev + ":" + e.Path}
	}
	return view.Action{}
}

// up goes back when the parent directory is what the history holds, and
// pushes it otherwise.
func (t *treeView) up(v *view.View, rev, dir string) view.Action {
	parent := path.Dir(dir)
	if parent == "." {
		parent = ""
	}
	arg := rev + ":" + parent
	if top, ok := v.History.Top(); ok && string(top) == arg {
		return view.Action{Back: true}
	}
	return view.Action{Push: true, Arg: arg}
}

var errNoFile = errors.New("no file selected")

type blobLine struct {
	Text string
	Path string
}

type blobView struct {
	env *Env
}

func (b *blobView) Open(v *view.View, _ view.Flags) error {
	rev, file := splitRevPath(v.Arg)
	if file == "" {
		return errNoFile
	}
	v.Arg = rev + ":" + file
	v.Run(gitCommand("cat-file", "blob", v.Arg))
	return nil
}

func (b *blobView) Read(v *view.View, line []byte, _ bool) bool {
	if line != nil {
		_, file := splitRevPath(v.Arg)
		v.Lines.Append(LineDefault, blobLine{Text: lineText(line), Path: file}, false)
	}
	return true
}

func (b *blobView) Select(*view.View, *linestore.Line) {}

func (b *blobView) Done(*view.View) {}

func (b *blobView) Render(_ *view.View, line *linestore.Line) string {
	bl, _ := line.Payload.(blobLine)
	if th := b.env.Theme; th.Syntax != nil {
		return th.Syntax.Line(bl.Path, bl.Text)
	}
	return bl.Text
}

func (b *blobView) Request(*view.View, view.Request, *linestore.Line) view.Action {
	return view.Action{}
}
