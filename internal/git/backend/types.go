package backend

import (
	"slices"
	"strings"
)

// LocalChanges summarizes `git status`: which areas hold changes.
type LocalChanges struct {
	HasWorktree  bool
	HasStaged    bool
	HasUntracked bool
}

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
)

func (k RefKind) Prefix() string {
	switch k {
	case RefKindRemoteBranch:
		return "refs/remotes/"
	case RefKindTag:
		return "refs/tags/"
	}
	return "refs/heads/"
}

type Ref struct {
	Hash string
	Kind RefKind
	Name string // short name: main, origin/main, v1
}

// FullName returns the ref name including its refs/ prefix.
func (r Ref) FullName() string {
	return r.Kind.Prefix() + r.Name
}

// RefsSignature returns a stable digest of refs, equal for two lists naming
// the same refs at the same commits regardless of order.
func RefsSignature(refs []Ref) string {
	lines := make([]string, 0, len(refs))
	for _, r := range refs {
		lines = append(lines, r.Hash+" "+r.FullName())
	}
	slices.Sort(lines)
	return strings.Join(lines, "\n")
}
