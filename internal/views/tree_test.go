package views

import (
	"slices"
	"testing"

	"github.com/thiagokokada/tigo/internal/view"
)

func TestParseTreeLine(t *testing.T) {
	t.Parallel()

	e, err := parseTreeLine("docs", "100644 blob 0123456789abcdef\tguide.md")
	if err != nil {
		t.Fatalf("parseTreeLine: %v", err)
	}
	if e.Kind != "blob" || e.Name != "guide.md" || e.Path != "docs/guide.md" || e.Mode != "100644" {
		t.Fatalf("entry = %+v", e)
	}
	e, err = parseTreeLine("", "040000 tree fedcba\t\"with space\"")
	if err != nil || e.Path != "with space" {
		t.Fatalf("quoted entry = %+v, %v", e, err)
	}
	if _, err := parseTreeLine("", "garbage"); err == nil {
		t.Fatal("parseTreeLine accepted garbage")
	}
}

func TestTreeListsDirectoriesFirst(t *testing.T) {
	t.Parallel()

	v := newTestView(t, Tree, testEnv())
	v.Arg = "main:src"
	feed(t, v,
		"100644 blob aaaaaaaaa\tREADME",
		"040000 tree bbbbbbbbb\tapi",
		"100644 blob ccccccccc\tmain.go",
		"040000 tree ddddddddd\tutil",
	)
	want := []string{
		"..",
		"040000 bbbbbbb api/",
		"040000 ddddddd util/",
		"100644 aaaaaaa README",
		"100644 ccccccc main.go",
	}
	if got := rendered(v); !slices.Equal(got, want) {
		t.Fatalf("tree =\n%q\nwant\n%q", got, want)
	}
	if v.Lines.At(0).Lineno != 0 || v.Lines.At(1).Lineno != 1 || v.Lines.At(4).Lineno != 4 {
		t.Fatal("parent entry must be unnumbered and entries numbered in order")
	}
}

func TestTreeRequests(t *testing.T) {
	t.Parallel()

	v := newTestView(t, Tree, testEnv())
	v.Arg = "main:src/pkg"
	feed(t, v,
		"040000 tree bbbbbbbbb\tapi",
		"100644 blob ccccccccc\tmain.go",
		"160000 commit eeeeeeeee\tvendor",
	)

	if act := v.Backend.Request(v, view.ReqEnter, v.Lines.At(1)); !act.Push || act.Arg != "main:src/pkg/api" {
		t.Fatalf("enter on dir = %+v", act)
	}
	if act := v.Backend.Request(v, view.ReqEnter, v.Lines.At(2)); act.Open != Blob || act.Arg != "main:src/pkg/main.go" {
		t.Fatalf("enter on file = %+v", act)
	}
	if act := v.Backend.Request(v, view.ReqEnter, v.Lines.At(3)); act.Message == "" || act.Open != "" {
		t.Fatalf("enter on submodule = %+v", act)
	}
	if act := v.Backend.Request(v, view.ReqEnter, v.Lines.At(0)); !act.Push || act.Arg != "main:src" {
		t.Fatalf("parent without history = %+v", act)
	}
	v.History.Push(view.Position{}, []byte("main:src"))
	if act := v.Backend.Request(v, view.ReqParent, nil); !act.Back {
		t.Fatalf("parent with matching history = %+v", act)
	}

	v.Arg = "main:"
	if act := v.Backend.Request(v, view.ReqParent, nil); act.Message == "" {
		t.Fatalf("parent of the root = %+v", act)
	}
}

func TestBlobNeedsPath(t *testing.T) {
	t.Parallel()

	v := newTestView(t, Blob, testEnv())
	v.Arg = "HEAD:"
	if err := v.Backend.Open(v, 0); err == nil {
		t.Fatal("Open without a path succeeded")
	}
}
