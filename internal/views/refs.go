package views

import (
	"cmp"
	"fmt"
	"sort"
	"strings"

	"github.com/thiagokokada/tigo/internal/git/backend"
	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/view"
)

const refsFormat = "--format=%(objectname)%1f%(refname)%1f%(contents:subject)"

type refEntry struct {
	Ref     backend.Ref
	Subject string
	// Head marks the branch HEAD points to, or HEAD itself when detached.
	Head bool
}

func parseRefLine(text string) (refEntry, bool, error) {
	fields := strings.Split(text, logFieldSep)
	if len(fields) != 3 || fields[0] == "" {
		return refEntry{}, false, fmt.Errorf("malformed for-each-ref line %q", text)
	}
	ref := backend.Ref{Hash: fields[0]}
	name := fields[1]
	switch {
	case strings.HasPrefix(name, backend.RefKindBranch.Prefix()):
		ref.Kind = backend.RefKindBranch
	case strings.HasPrefix(name, backend.RefKindRemoteBranch.Prefix()):
		ref.Kind = backend.RefKindRemoteBranch
	case strings.HasPrefix(name, backend.RefKindTag.Prefix()):
		ref.Kind = backend.RefKindTag
	default:
		// refs/stash, notes and the like
		return refEntry{}, false, nil
	}
	ref.Name = strings.TrimPrefix(name, ref.Kind.Prefix())
	if strings.HasSuffix(ref.Name, "/HEAD") && ref.Kind == backend.RefKindRemoteBranch {
		return refEntry{}, false, nil
	}
	return refEntry{Ref: ref, Subject: fields[2]}, true, nil
}

// compareRefs orders the current branch first, then branches, remote
// branches and tags, each by name.
func compareRefs(a, b refEntry) int {
	if a.Head != b.Head {
		if a.Head {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.Ref.Kind, b.Ref.Kind); c != 0 {
		return c
	}
	return cmp.Compare(a.Ref.Name, b.Ref.Name)
}

type refsState struct {
	head string
}

type refsView struct {
	env *Env
}

func (r *refsView) Open(v *view.View, _ view.Flags) error {
	v.Run(gitCommand("for-each-ref", refsFormat, "refs/heads", "refs/remotes", "refs/tags"))
	return nil
}

func (r *refsView) stateOf(v *view.View) *refsState {
	if st, ok := v.Private.(*refsState); ok {
		return st
	}
	st := &refsState{}
	if r.env.Repo != nil {
		hash, name, ok, err := r.env.Repo.HeadState()
		if err != nil {
			r.env.Log.Debug().Err(err).Msg("refs view: head state")
		}
		if ok {
			st.head = name
			if name == "HEAD" {
				v.Lines.Append(LineRef, refEntry{Ref: backend.Ref{Hash: hash, Name: "HEAD"}, Head: true}, false)
			}
		}
	}
	v.Private = st
	return st
}

// Read keeps the lines sorted with compareRefs, whatever the order git
// prints them in.
func (r *refsView) Read(v *view.View, line []byte, _ bool) bool {
	st := r.stateOf(v)
	if line == nil || len(line) == 0 {
		return true
	}
	e, ok, err := parseRefLine(lineText(line))
	if err != nil {
		r.env.Log.Debug().Err(err).Msg("unparsable ref line")
		return false
	}
	if !ok {
		return true
	}
	e.Head = e.Ref.Kind == backend.RefKindBranch && e.Ref.Name == st.head
	n := v.Lines.Len()
	pos := sort.Search(n, func(i int) bool {
		other, _ := v.Lines.At(i).Payload.(refEntry)
		return compareRefs(e, other) < 0
	})
	v.Lines.InsertAt(pos, LineRef, e, false)
	return true
}

func (r *refsView) Select(*view.View, *linestore.Line) {}

func (r *refsView) Done(*view.View) {}

func (r *refsView) Render(_ *view.View, line *linestore.Line) string {
	e, _ := line.Payload.(refEntry)
	th := r.env.Theme
	name := e.Ref.Name
	switch e.Ref.Kind {
	case backend.RefKindRemoteBranch:
		name = "remotes/" + name
	case backend.RefKindTag:
		name = "tag: " + name
	}
	marker := "  "
	nameStyle := th.Ref
	if e.Head {
		marker = th.Head.Render("* ")
		nameStyle = th.Head
	}
	return marker + th.Hash.Render(shortID(e.Ref.Hash)) + " " +
		nameStyle.Render(fmt.Sprintf("%-24s", name)) + " " + e.Subject
}

func (r *refsView) Request(_ *view.View, req view.Request, line *linestore.Line) view.Action {
	if req != view.ReqEnter || line == nil {
		return view.Action{}
	}
	e, _ := line.Payload.(refEntry)
	if e.Ref.Name == "HEAD" && e.Head {
		return view.Action{Open: Log, Arg: "HEAD"}
	}
	return view.Action{Open: Log, Arg: e.Ref.FullName()}
}
