package backend

import (
	"cmp"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/thiagokokada/tigo/internal/procio"
)

// minGitVersion is the oldest git the CLI backend and the views are tested
// with: `rev-parse --absolute-git-dir`, `status --porcelain=v2` and
// `for-each-ref --format=%(objectname)` all predate it.
var minGitVersion = gitVersion{2, 20, 0}

// gitVersion is major, minor, patch.
type gitVersion [3]int

func MinGitVersion() string {
	return minGitVersion.String()
}

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

func (v gitVersion) compare(other gitVersion) int {
	for i := range v {
		if c := cmp.Compare(v[i], other[i]); c != 0 {
			return c
		}
	}
	return 0
}

// parseGitVersionOutput understands the usual vendor variants:
//
//	git version 2.44.0
//	git version 2.39.3 (Apple Git-146)
//	git version 2.39.3.windows.1
func parseGitVersionOutput(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	if _, rest, ok := strings.Cut(s, "git version"); ok {
		s = strings.TrimSpace(rest)
	}
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return gitVersion{}, false
	}
	s = s[start:]
	if end := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' }); end >= 0 {
		s = s[:end]
	}
	parts := strings.Split(strings.Trim(s, "."), ".")
	if len(parts) < 2 {
		return gitVersion{}, false
	}
	var v gitVersion
	for i := range min(len(parts), len(v)) {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			if i < 2 {
				return gitVersion{}, false
			}
			break
		}
		v[i] = n
	}
	return v, true
}

func validateGitVersion(v gitVersion) error {
	if v.compare(minGitVersion) < 0 {
		return fmt.Errorf("git %s is too old; tigo requires git >= %s", v, minGitVersion)
	}
	return nil
}

func validateGitVersionOutput(out string) error {
	v, ok := parseGitVersionOutput(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	return validateGitVersion(v)
}

var gitVersionInfo = sync.OnceValues(func() (string, error) {
	out, err := procio.Output(context.Background(), procio.Command{Argv: []string{"git", "--version"}})
	out = strings.TrimSpace(out)
	if err != nil {
		return out, fmt.Errorf("git --version: %w", err)
	}
	return out, nil
})

// GitVersion returns the output of `git --version`.
func GitVersion() (string, error) {
	return gitVersionInfo()
}

var ensureMinGitVersion = sync.OnceValue(func() error {
	out, err := gitVersionInfo()
	if err != nil {
		return err
	}
	return validateGitVersionOutput(out)
})

// EnsureGitVersion fails when the git executable is missing or older than
// MinGitVersion. The views run git even with the native backend.
func EnsureGitVersion() error {
	return ensureMinGitVersion()
}
