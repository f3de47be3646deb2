package backend

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

func (g *gitCLI) HeadState() (hash string, headName string, ok bool, err error) {
	out, err := g.runGitCommand([]string{"rev-parse", "-q", "--verify", "HEAD"}, true)
	if err != nil {
		return "", "", false, err
	}
	hash = strings.TrimSpace(out)
	if hash == "" {
		return "", "", false, nil
	}
	ref, err := g.runGitCommand([]string{"symbolic-ref", "-q", "--short", "HEAD"}, true)
	if err != nil {
		return "", "", false, err
	}
	headName = strings.TrimSpace(ref)
	if headName == "" {
		headName = "HEAD"
	}
	return hash, headName, true, nil
}

func (g *gitCLI) WorktreeDiffText(staged bool, paths ...string) (string, error) {
	args := []string{"diff", "--no-color"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, "--")
	args = append(args, paths...)
	return g.runGitCommand(args, true)
}

func (g *gitCLI) LocalChangesStatus() (LocalChanges, error) {
	var res LocalChanges
	out, err := g.runGitCommand([]string{"status", "--porcelain=v2", "--untracked-files=normal"}, false)
	if err != nil {
		return res, err
	}
	res, err = parseStatusPorcelainV2(strings.NewReader(out))
	if err != nil {
		return res, fmt.Errorf("parse git status: %w", err)
	}
	return res, nil
}

func parseStatusPorcelainV2(r io.Reader) (LocalChanges, error) {
	var res LocalChanges
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case '1', '2', 'u':
			if len(line) < 4 {
				continue
			}
			if line[2] != '.' {
				res.HasStaged = true
			}
			if line[3] != '.' && line[3] != '?' {
				res.HasWorktree = true
			}
		case '?':
			res.HasUntracked = true
		}
		if res.HasWorktree && res.HasStaged && res.HasUntracked {
			break
		}
	}
	return res, scanner.Err()
}

func (g *gitCLI) ListRefs() ([]Ref, error) {
	out, err := g.runGitCommand([]string{"--no-pager", "show-ref", "--dereference"}, true)
	if err != nil {
		return nil, err
	}
	return parseRefsFromShowRef(out)
}

func parseRefsFromShowRef(out string) ([]Ref, error) {
	type refEntry struct {
		hash string
		ref  string
	}

	peeledByTagRef := map[string]string{}
	var entries []refEntry

	for rawLine := range strings.SplitSeq(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		hash, refName, ok := strings.Cut(line, " ")
		if !ok || hash == "" || strings.TrimSpace(refName) == "" || strings.ContainsAny(refName, " \t") {
			return nil, fmt.Errorf("unexpected show-ref output line: %q", rawLine)
		}
		if base, peeled := strings.CutSuffix(refName, "^{}"); peeled {
			peeledByTagRef[base] = hash
			continue
		}
		entries = append(entries, refEntry{hash: hash, ref: refName})
	}

	var refs []Ref
	for _, entry := range entries {
		for _, kind := range []RefKind{RefKindBranch, RefKindRemoteBranch, RefKindTag} {
			short, ok := strings.CutPrefix(entry.ref, kind.Prefix())
			if !ok || short == "" {
				continue
			}
			hash := entry.hash
			if peeled := peeledByTagRef[entry.ref]; kind == RefKindTag && peeled != "" {
				hash = peeled
			}
			refs = append(refs, Ref{Hash: hash, Kind: kind, Name: short})
			break
		}
	}
	return refs, nil
}
