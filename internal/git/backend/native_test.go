package backend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initNativeRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	writeFile(t, dir, "a.txt", "one\ntwo\n")
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	if _, err := wt.Add("a.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	hash, err := wt.Commit("init", &gitlib.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return dir, hash.String()
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestNativeHeadAndRefs(t *testing.T) {
	t.Parallel()

	dir, hash := initNativeRepo(t)
	b, err := OpenNative(dir)
	if err != nil {
		t.Fatalf("OpenNative: %v", err)
	}
	if b.Kind() != KindNative {
		t.Fatalf("Kind() = %v", b.Kind())
	}
	if filepath.Base(b.GitDir()) != ".git" {
		t.Fatalf("GitDir() = %q", b.GitDir())
	}

	got, name, ok, err := b.HeadState()
	if err != nil || !ok {
		t.Fatalf("HeadState() = %v, %v", ok, err)
	}
	if got != hash || name != "master" {
		t.Fatalf("HeadState() = %s %s, want %s master", got, name, hash)
	}

	refs, err := b.ListRefs()
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	assertHasRef(t, refs, Ref{Hash: hash, Kind: RefKindBranch, Name: "master"})
}

func TestNativeLocalChangesAndDiff(t *testing.T) {
	t.Parallel()

	dir, _ := initNativeRepo(t)
	writeFile(t, dir, "a.txt", "one\nthree\n")
	writeFile(t, dir, "new.txt", "fresh\n")

	b, err := OpenNative(dir)
	if err != nil {
		t.Fatalf("OpenNative: %v", err)
	}
	changes, err := b.LocalChangesStatus()
	if err != nil {
		t.Fatalf("LocalChangesStatus: %v", err)
	}
	if want := (LocalChanges{HasWorktree: true, HasUntracked: true}); changes != want {
		t.Fatalf("LocalChangesStatus() = %+v, want %+v", changes, want)
	}

	text, err := b.WorktreeDiffText(false)
	if err != nil {
		t.Fatalf("WorktreeDiffText: %v", err)
	}
	for _, want := range []string{"diff --git a/a.txt b/a.txt", "--- a/a.txt", "+++ b/a.txt", "-two", "+three"} {
		if !strings.Contains(text, want) {
			t.Fatalf("diff missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "new.txt") {
		t.Fatalf("untracked file in worktree diff:\n%s", text)
	}

	staged, err := b.WorktreeDiffText(true)
	if err != nil {
		t.Fatalf("WorktreeDiffText(staged): %v", err)
	}
	if staged != "" {
		t.Fatalf("staged diff = %q, want empty", staged)
	}

	filtered, err := b.WorktreeDiffText(false, "other.txt")
	if err != nil {
		t.Fatalf("WorktreeDiffText(filtered): %v", err)
	}
	if filtered != "" {
		t.Fatalf("filtered diff = %q, want empty", filtered)
	}
}
