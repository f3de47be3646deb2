package views

import (
	"strings"

	"github.com/thiagokokada/tigo/internal/git/backend"
	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/procio"
	"github.com/thiagokokada/tigo/internal/view"
	"github.com/thiagokokada/tigo/internal/watch"
)

// emptyTree is the id of the empty tree, diffed against when HEAD is unborn.
const emptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

type section uint8

const (
	sectionStaged section = iota
	sectionUnstaged
	sectionUntracked
)

var sectionTitles = [...]string{
	sectionStaged:    "Changes to be committed:",
	sectionUnstaged:  "Changes not staged for commit:",
	sectionUntracked: "Untracked files:",
}

type statusEntry struct {
	Section section
	Status  byte
	Path    string
}

// parseStatusLine parses a --name-status row, or a bare path for untracked
// files. Renames report the new name.
func parseStatusLine(sec section, text string) (statusEntry, bool) {
	if text == "" {
		return statusEntry{}, false
	}
	if sec == sectionUntracked {
		return statusEntry{Section: sec, Status: '?', Path: unquotePath(text)}, true
	}
	fields := strings.Split(text, "\t")
	if len(fields) < 2 || fields[0] == "" {
		return statusEntry{}, false
	}
	return statusEntry{Section: sec, Status: fields[0][0], Path: unquotePath(fields[len(fields)-1])}, true
}

type statusState struct {
	section section
	entries int
	seen    backend.LocalChanges
}

type statusView struct {
	env *Env
}

func (s *statusView) Open(v *view.View, _ view.Flags) error {
	base := emptyTree
	if s.env.Repo != nil {
		if hash, _, ok, err := s.env.Repo.HeadState(); err != nil {
			return err
		} else if ok {
			base = hash
		}
	}
	v.Run(gitCommand("diff-index", "--cached", "--name-status", "--find-renames", base, "--"))
	return nil
}

func statusPhase(sec section) procio.Command {
	if sec == sectionUnstaged {
		return gitCommand("diff-files", "--name-status", "--")
	}
	return gitCommand("ls-files", "--others", "--exclude-standard", "--")
}

func (s *statusView) stateOf(v *view.View) *statusState {
	if st, ok := v.Private.(*statusState); ok {
		return st
	}
	st := &statusState{}
	v.Private = st
	v.Lines.Append(LineSection, sectionTitles[sectionStaged], true)
	return st
}

// Read handles the three phases of a load. At the end of each phase it
// queues the next one; at the end of the last it publishes what it saw to
// the other views watching the index.
func (s *statusView) Read(v *view.View, line []byte, forceStop bool) bool {
	st := s.stateOf(v)
	if line != nil {
		e, ok := parseStatusLine(st.section, lineText(line))
		if !ok {
			return len(line) == 0
		}
		switch e.Section {
		case sectionStaged:
			st.seen.HasStaged = true
		case sectionUnstaged:
			st.seen.HasWorktree = true
		case sectionUntracked:
			st.seen.HasUntracked = true
		}
		v.Lines.Append(LineStatusEntry, e, false)
		st.entries++
		return true
	}

	if st.entries == 0 {
		v.Lines.Append(LineEmpty, "  (no files)", true)
	}
	if forceStop {
		return true
	}
	if st.section < sectionUntracked {
		st.section++
		st.entries = 0
		v.Lines.Append(LineEmpty, "", true)
		v.Lines.Append(LineSection, sectionTitles[st.section], true)
		v.Queue(statusPhase(st.section))
		return true
	}
	if s.env.Registry != nil {
		s.env.Registry.Apply(&v.Watch, watch.IndexBits(st.seen))
	}
	return true
}

func (s *statusView) Select(*view.View, *linestore.Line) {}

func (s *statusView) Done(*view.View) {}

func (s *statusView) Render(_ *view.View, line *linestore.Line) string {
	th := s.env.Theme
	switch line.Type() {
	case LineSection:
		text, _ := line.Payload.(string)
		return th.Section.Render(text)
	case LineEmpty:
		text, _ := line.Payload.(string)
		return th.Dim.Render(text)
	}
	e, _ := line.Payload.(statusEntry)
	status := string(e.Status)
	switch e.Section {
	case sectionStaged:
		status = th.Add.Render(status)
	case sectionUnstaged:
		status = th.Del.Render(status)
	default:
		status = th.Dim.Render(status)
	}
	return "  " + status + " " + e.Path
}

func (s *statusView) Request(v *view.View, req view.Request, line *linestore.Line) view.Action {
	switch req {
	case view.ReqNext:
		return moveToNext(v, LineStatusEntry, linestore.Forward, "file")
	case view.ReqPrev:
		return moveToNext(v, LineStatusEntry, linestore.Backward, "file")
	}
	if line == nil || line.Type() != LineStatusEntry {
		return view.Action{}
	}
	e, _ := line.Payload.(statusEntry)
	switch req {
	case view.ReqEnter:
		if e.Section == sectionUntracked {
			return view.Action{Message: e.Path + " is not tracked"}
		}
		return view.Action{Open: Stage, Arg: stageArg(e.Section == sectionStaged, e.Path)}
	case view.ReqToggle:
		return toggleStaged(e.Section == sectionStaged, e.Path)
	}
	return view.Action{}
}

// toggleStaged moves path in or out of the index.
func toggleStaged(staged bool, path string) view.Action {
	if staged {
		cmd := gitCommand("reset", "-q", "--", path)
		return view.Action{Exec: &cmd, Message: "unstaged " + path}
	}
	cmd := gitCommand("add", "--", path)
	return view.Action{Exec: &cmd, Message: "staged " + path}
}

const (
	stagedPrefix   = "staged:"
	worktreePrefix = "worktree:"
)

func stageArg(staged bool, path string) string {
	if staged {
		return stagedPrefix + path
	}
	return worktreePrefix + path
}

func parseStageArg(arg string) (staged bool, path string, ok bool) {
	if path, ok := strings.CutPrefix(arg, stagedPrefix); ok {
		return true, path, path != ""
	}
	if path, ok := strings.CutPrefix(arg, worktreePrefix); ok {
		return false, path, path != ""
	}
	return false, "", false
}

// stageView shows the staged or unstaged diff of one file. With the native
// backend the diff is computed in-process.
type stageView struct {
	env *Env
}

func (s *stageView) Open(v *view.View, _ view.Flags) error {
	staged, path, ok := parseStageArg(v.Arg)
	if !ok {
		return errNoFile
	}
	if s.env.Repo != nil && s.env.Repo.Kind() == backend.KindNative {
		text, err := s.env.Repo.WorktreeDiffText(staged, path)
		if err != nil {
			return err
		}
		v.Feed(text)
		return nil
	}
	args := []string{"diff", "--no-color"}
	if staged {
		args = append(args, "--cached")
	}
	v.Run(gitCommand(append(args, "--", path)...))
	return nil
}

func (s *stageView) Read(v *view.View, line []byte, _ bool) bool {
	if line != nil {
		readDiff(v, line)
	}
	return true
}

func (s *stageView) Select(*view.View, *linestore.Line) {}

func (s *stageView) Done(*view.View) {}

func (s *stageView) Render(_ *view.View, line *linestore.Line) string {
	dl, _ := line.Payload.(diffLine)
	return renderDiffLine(s.env.Theme, line.Type(), dl)
}

func (s *stageView) Request(v *view.View, req view.Request, _ *linestore.Line) view.Action {
	switch req {
	case view.ReqNext:
		return moveToNext(v, LineDiffChunk, linestore.Forward, "chunk")
	case view.ReqPrev:
		return moveToNext(v, LineDiffChunk, linestore.Backward, "chunk")
	case view.ReqToggle:
		staged, path, ok := parseStageArg(v.Arg)
		if !ok {
			return view.Action{}
		}
		return toggleStaged(staged, path)
	}
	return view.Action{}
}
