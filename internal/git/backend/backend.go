package backend

import (
	"fmt"
	"strings"
)

// Backend abstracts repository queries that are answered synchronously, such
// as the probes of the change detector. Views stream their content from git
// child processes and only fall back to the backend when it computes the
// output in-process.
//
// The default implementation shells out to the git executable; the native one
// uses go-git and never forks.
type Backend interface {
	Kind() Kind
	RepoPath() string
	GitDir() string

	HeadState() (hash string, headName string, ok bool, err error)
	ListRefs() ([]Ref, error)

	LocalChangesStatus() (LocalChanges, error)
	WorktreeDiffText(staged bool, paths ...string) (string, error)
}

type Kind uint8

const (
	KindCLI Kind = iota
	KindNative
)

func (k Kind) String() string {
	switch k {
	case KindCLI:
		return "cli"
	case KindNative:
		return "native"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ParseKind accepts the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cli", "git":
		return KindCLI, nil
	case "native", "go-git":
		return KindNative, nil
	}
	return 0, fmt.Errorf("unknown backend %q (want cli or native)", s)
}

// Open opens the repository containing repoPath with the requested backend.
func Open(kind Kind, repoPath string) (Backend, error) {
	switch kind {
	case KindNative:
		return OpenNative(repoPath)
	default:
		return OpenCLI(repoPath)
	}
}
