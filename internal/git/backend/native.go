package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitindex "github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/pmezard/go-difflib/difflib"
)

type native struct {
	repo   *gitlib.Repository
	path   string
	gitDir string
}

// OpenNative opens the repository with go-git.
func OpenNative(repoPath string) (Backend, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	n := &native{repo: repo, path: wt.Filesystem.Root()}
	n.gitDir = filepath.Join(n.path, ".git")
	if st, ok := repo.Storer.(*filesystem.Storage); ok {
		n.gitDir = st.Filesystem().Root()
	}
	return n, nil
}

func (n *native) Kind() Kind { return KindNative }

func (n *native) RepoPath() string { return n.path }

func (n *native) GitDir() string { return n.gitDir }

func (n *native) HeadState() (string, string, bool, error) {
	ref, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("resolve HEAD: %w", err)
	}
	name := "HEAD"
	if ref.Name().IsBranch() {
		name = ref.Name().Short()
	}
	return ref.Hash().String(), name, true, nil
}

func (n *native) ListRefs() ([]Ref, error) {
	iter, err := n.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var refs []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		name := ref.Name()
		hash := ref.Hash()
		var kind RefKind
		switch {
		case name.IsBranch():
			kind = RefKindBranch
		case name.IsRemote():
			kind = RefKindRemoteBranch
		case name.IsTag():
			kind = RefKindTag
			if peeled, ok := n.peelTag(hash); ok {
				hash = peeled
			}
		default:
			return nil
		}
		refs = append(refs, Ref{Hash: hash.String(), Kind: kind, Name: name.Short()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// peelTag follows annotated tags down to the commit they point at.
func (n *native) peelTag(hash plumbing.Hash) (plumbing.Hash, bool) {
	if _, err := n.repo.CommitObject(hash); err == nil {
		return hash, true
	}
	cur := hash
	for range 8 {
		tag, err := n.repo.TagObject(cur)
		if err != nil {
			return plumbing.ZeroHash, false
		}
		switch tag.TargetType {
		case plumbing.CommitObject:
			return tag.Target, true
		case plumbing.TagObject:
			cur = tag.Target
		default:
			return plumbing.ZeroHash, false
		}
	}
	return plumbing.ZeroHash, false
}

func (n *native) status() (gitlib.Status, error) {
	wt, err := n.repo.Worktree()
	if err != nil {
		return nil, err
	}
	return wt.Status()
}

func (n *native) LocalChangesStatus() (LocalChanges, error) {
	var res LocalChanges
	status, err := n.status()
	if err != nil {
		return res, fmt.Errorf("worktree status: %w", err)
	}
	for _, st := range status {
		switch {
		case st.Worktree == gitlib.Untracked:
			res.HasUntracked = true
		case st.Worktree != gitlib.Unmodified:
			res.HasWorktree = true
		}
		if st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked {
			res.HasStaged = true
		}
	}
	return res, nil
}

type localChange struct {
	path string
	from *object.File
	to   *object.File
}

// WorktreeDiffText renders a unified diff of the index against HEAD (staged)
// or of the working tree against the index, restricted to paths when given.
func (n *native) WorktreeDiffText(staged bool, paths ...string) (string, error) {
	status, err := n.status()
	if err != nil {
		return "", fmt.Errorf("worktree status: %w", err)
	}
	idx, err := n.repo.Storer.Index()
	if err != nil {
		return "", err
	}
	var headTree *object.Tree
	if staged {
		headTree, err = n.headTree()
		if err != nil {
			return "", err
		}
	}
	var changed []string
	for path, st := range status {
		if len(paths) > 0 && !slices.Contains(paths, path) {
			continue
		}
		if staged && st.Staging != gitlib.Unmodified && st.Staging != gitlib.Untracked ||
			!staged && st.Worktree != gitlib.Unmodified && st.Worktree != gitlib.Untracked {
			changed = append(changed, path)
		}
	}
	slices.Sort(changed)
	var diffs []localChange
	for _, path := range changed {
		var from, to *object.File
		if staged {
			from, err = fileFromTree(headTree, path)
			if err == nil {
				to, err = fileFromIndex(idx, n.repo, path)
			}
		} else {
			from, err = fileFromIndex(idx, n.repo, path)
			if err == nil {
				to, err = fileFromDisk(n.path, path)
			}
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		if from == nil && to == nil {
			continue
		}
		diffs = append(diffs, localChange{path: path, from: from, to: to})
	}
	return renderLocalDiff(diffs)
}

func (n *native) headTree() (*object.Tree, error) {
	ref, err := n.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	commit, err := n.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		return nil, nil
	}
	return f, err
}

func fileFromIndex(idx *gitindex.Index, repo *gitlib.Repository, path string) (*object.File, error) {
	entry, err := idx.Entry(path)
	if errors.Is(err, gitindex.ErrEntryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	blob, err := object.GetBlob(repo.Storer, entry.Hash)
	if err != nil {
		return nil, err
	}
	return object.NewFile(entry.Name, entry.Mode, blob), nil
}

func fileFromDisk(root, path string) (*object.File, error) {
	file, err := os.Open(filepath.Join(root, path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mem := &plumbing.MemoryObject{}
	mem.SetType(plumbing.BlobObject)
	if _, err := mem.Write(data); err != nil {
		return nil, err
	}
	blob, err := object.DecodeBlob(mem)
	if err != nil {
		return nil, err
	}
	mode := filemode.Regular
	if info, err := file.Stat(); err == nil {
		if m, err := filemode.NewFromOSFileMode(info.Mode()); err == nil {
			mode = m
		}
	}
	return object.NewFile(path, mode, blob), nil
}

func renderLocalDiff(diffs []localChange) (string, error) {
	var b strings.Builder
	for _, d := range diffs {
		fmt.Fprintf(&b, "diff --git a/%s b/%s\n", d.path, d.path)
		binary, err := isBinary(d.from, d.to)
		if err != nil {
			return "", err
		}
		if binary {
			b.WriteString("Binary files differ\n")
			continue
		}
		from, err := fileLines(d.from)
		if err != nil {
			return "", err
		}
		to, err := fileLines(d.to)
		if err != nil {
			return "", err
		}
		text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        from,
			B:        to,
			FromFile: diffName("a", d.path, d.from),
			ToFile:   diffName("b", d.path, d.to),
			Context:  3,
		})
		if err != nil {
			return "", err
		}
		b.WriteString(text)
		if text != "" && !strings.HasSuffix(text, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func diffName(side, path string, f *object.File) string {
	if f == nil {
		return "/dev/null"
	}
	return side + "/" + path
}

func isBinary(files ...*object.File) (bool, error) {
	for _, f := range files {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil || bin {
			return bin, err
		}
	}
	return false, nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(content), nil
}
