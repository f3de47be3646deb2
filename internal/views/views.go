// Package views implements the view backends of tigo: the commit log, commit
// diffs, trees and blobs, the status and stage views, refs and the pager.
package views

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/thiagokokada/tigo/internal/git/backend"
	"github.com/thiagokokada/tigo/internal/graph"
	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/procio"
	"github.com/thiagokokada/tigo/internal/style"
	"github.com/thiagokokada/tigo/internal/view"
	"github.com/thiagokokada/tigo/internal/watch"
)

// View names.
const (
	Log    = "log"
	Diff   = "diff"
	Tree   = "tree"
	Blob   = "blob"
	Status = "status"
	Stage  = "stage"
	Refs   = "refs"
	Pager  = "pager"
)

// Line classes shared by the backends.
const (
	LineDefault linestore.Type = iota
	LineCommit
	LineBoundary
	LineMeta
	LineStat
	LineDiffHeader
	LineDiffChunk
	LineDiffAdd
	LineDiffDel
	LineSection
	LineEmpty
	LineStatusEntry
	LineDir
	LineFile
	LineParentDir
	LineRef
)

var ErrUnknownView = errors.New("unknown view")

// Env is what the backends share: the repository, the change registry and the
// look of the rendered lines.
type Env struct {
	Repo     backend.Backend
	Registry *watch.Registry
	Theme    *style.Theme
	Glyphs   graph.Glyphs
	// Graph enables the commit graph column of the log view.
	Graph bool
	// Limit caps the number of commits of the log view; zero means no cap.
	Limit int
	// Stdin feeds the pager view.
	Stdin io.Reader
	// StdinRevisions makes the first load of the log view read its
	// revisions from the program's stdin.
	StdinRevisions bool
	Log            zerolog.Logger
}

type factory struct {
	triggers watch.Trigger
	backend  func(env *Env) view.Backend
	// flags are added to every load of the view.
	flags view.Flags
}

var factories = map[string]factory{
	Log:    {triggers: watch.HEAD | watch.Refs, backend: func(env *Env) view.Backend { return &logView{env: env} }},
	Diff:   {triggers: watch.None, backend: func(env *Env) view.Backend { return &diffView{env: env} }},
	Tree:   {triggers: watch.HEAD, backend: func(env *Env) view.Backend { return &treeView{env: env} }},
	Blob:   {triggers: watch.None, backend: func(env *Env) view.Backend { return &blobView{env: env} }, flags: view.WithStderr},
	Status: {triggers: watch.HEAD | watch.Index | watch.Stash, backend: func(env *Env) view.Backend { return &statusView{env: env} }},
	Stage:  {triggers: watch.Index, backend: func(env *Env) view.Backend { return &stageView{env: env} }},
	Refs:   {triggers: watch.Refs | watch.HEAD, backend: func(env *Env) view.Backend { return &refsView{env: env} }},
	Pager:  {triggers: watch.None, backend: func(env *Env) view.Backend { return &pagerView{env: env} }},
}

// Names lists the views New can build.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New builds the named view. Its commands run in the repository root.
func New(name string, env *Env) (*view.View, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownView, name)
	}
	v := view.New(name, f.backend(env), f.triggers)
	if env.Repo != nil {
		v.Dir = env.Repo.RepoPath()
	}
	if name == Pager && env.Stdin != nil {
		v.Stream(env.Stdin)
	}
	return v, nil
}

// LoadFlags returns the flags to load the named view with. The first load
// of a view built by New may consume what New prepared or the program's
// stdin.
func LoadFlags(name string, env *Env, first bool) view.Flags {
	flags := factories[name].flags
	switch {
	case !first:
	case name == Pager && env.Stdin != nil:
		flags |= view.Prepared
	case name == Log && env.StdinRevisions:
		flags |= view.ForwardStdin
	}
	return flags
}

func gitCommand(args ...string) procio.Command {
	return procio.Command{Argv: append([]string{"git"}, args...)}
}

// lineText copies a line read from a channel, dropping a trailing CR.
func lineText(line []byte) string {
	return strings.TrimSuffix(string(line), "\r")
}

// unquotePath undoes the C-style quoting git applies to unusual file names.
func unquotePath(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return s
}

// splitRevPath splits "rev:path" into its parts; a missing rev means HEAD.
func splitRevPath(arg string) (rev, path string) {
	rev, path, _ = strings.Cut(arg, ":")
	if rev == "" {
		rev = "HEAD"
	}
	return rev, strings.Trim(path, "/")
}

func moveToNext(v *view.View, typ linestore.Type, dir linestore.Direction, what string) view.Action {
	slot, ok := v.Lines.Find(typ, dir, v.Pos.Lineno+int(dir))
	if !ok {
		if dir == linestore.Forward {
			return view.Action{Message: "no next " + what}
		}
		return view.Action{Message: "no previous " + what}
	}
	v.MoveTo(slot)
	return view.Action{}
}
