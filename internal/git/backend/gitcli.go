package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/thiagokokada/tigo/internal/procio"
)

type gitCLI struct {
	path   string
	gitDir string
}

func OpenCLI(repoPath string) (Backend, error) {
	if err := ensureMinGitVersion(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	tmp := &gitCLI{path: abs}
	out, err := tmp.runGitCommand([]string{"rev-parse", "--show-toplevel", "--absolute-git-dir"}, false)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || strings.TrimSpace(lines[0]) == "" {
		return nil, fmt.Errorf("open repository: unexpected git rev-parse output %q", out)
	}
	return &gitCLI{path: strings.TrimSpace(lines[0]), gitDir: strings.TrimSpace(lines[1])}, nil
}

func (g *gitCLI) Kind() Kind { return KindCLI }

func (g *gitCLI) RepoPath() string {
	if g == nil {
		return ""
	}
	return g.path
}

func (g *gitCLI) GitDir() string {
	if g == nil {
		return ""
	}
	return g.gitDir
}

// runGitCommand runs git in the repository and returns its stdout. With
// allowExit1, an exit status of 1 without stderr output counts as success
// (git diff and friends use it to signal "differences found").
func (g *gitCLI) runGitCommand(args []string, allowExit1 bool) (string, error) {
	if g == nil || g.path == "" {
		return "", fmt.Errorf("repository root not set")
	}
	out, err := procio.Output(context.Background(), procio.Command{
		Argv: append([]string{"git", "-C", g.path}, args...),
	})
	if err != nil {
		var exitErr *procio.ExitError
		if allowExit1 && errors.As(err, &exitErr) && exitErr.Code == 1 && exitErr.Stderr == "" {
			return out, nil
		}
		return "", err
	}
	return out, nil
}
