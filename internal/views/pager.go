package views

import (
	"errors"

	"github.com/thiagokokada/tigo/internal/linestore"
	"github.com/thiagokokada/tigo/internal/view"
)

var (
	errNoInput       = errors.New("no input to page")
	errInputConsumed = errors.New("input already read; nothing to reload")
)

// pagerView shows what was piped into the program, diff-aware. New hands
// the input to the view, so its first load is Prepared and any later one
// has nothing left to read.
type pagerView struct {
	env *Env
}

func (p *pagerView) Open(*view.View, view.Flags) error {
	if p.env.Stdin == nil {
		return errNoInput
	}
	return errInputConsumed
}

func (p *pagerView) Read(v *view.View, line []byte, _ bool) bool {
	if line != nil {
		readDiff(v, line)
	}
	return true
}

func (p *pagerView) Select(*view.View, *linestore.Line) {}

func (p *pagerView) Done(*view.View) {}

func (p *pagerView) Render(_ *view.View, line *linestore.Line) string {
	dl, _ := line.Payload.(diffLine)
	return renderDiffLine(p.env.Theme, line.Type(), dl)
}

func (p *pagerView) Request(v *view.View, req view.Request, _ *linestore.Line) view.Action {
	switch req {
	case view.ReqNext:
		return moveToNext(v, LineDiffHeader, linestore.Forward, "file")
	case view.ReqPrev:
		return moveToNext(v, LineDiffHeader, linestore.Backward, "file")
	}
	return view.Action{}
}
