package watch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/thiagokokada/tigo/internal/git/backend"
)

type stamp struct {
	mtime time.Time
	size  int64
}

// statStamp returns the zero stamp for a missing file; ok is false when the
// file could not be inspected.
func statStamp(path string) (stamp, bool) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return stamp{}, true
	}
	if err != nil {
		return stamp{}, false
	}
	return stamp{mtime: info.ModTime(), size: info.Size()}, true
}

// FileProber reports its trigger when any of its files changed on disk,
// including appearing or disappearing.
type FileProber struct {
	trigger Trigger
	paths   []string
	stamps  []stamp
	primed  bool
}

func NewFileProber(trigger Trigger, paths ...string) *FileProber {
	return &FileProber{trigger: trigger, paths: paths, stamps: make([]stamp, len(paths))}
}

// NewHeadProber watches HEAD and its reflog, which also moves when the
// checked out branch gets a new commit.
func NewHeadProber(gitDir string) *FileProber {
	return NewFileProber(HEAD, filepath.Join(gitDir, "HEAD"), filepath.Join(gitDir, "logs", "HEAD"))
}

func NewStashProber(gitDir string) *FileProber {
	return NewFileProber(Stash, filepath.Join(gitDir, "refs", "stash"), filepath.Join(gitDir, "logs", "refs", "stash"))
}

func (p *FileProber) Triggers() Trigger { return p.trigger }

func (p *FileProber) Prime() {
	p.scan()
	p.primed = true
}

func (p *FileProber) Probe(Event, time.Time) (Trigger, error) {
	changed := p.scan()
	if !p.primed {
		p.primed = true
		return None, nil
	}
	if changed {
		return p.trigger, nil
	}
	return None, nil
}

func (p *FileProber) scan() bool {
	changed := false
	for i, path := range p.paths {
		st, ok := statStamp(path)
		if !ok {
			continue
		}
		if st != p.stamps[i] {
			changed = true
		}
		p.stamps[i] = st
	}
	return changed
}

// IndexProber reports the staged/unstaged/untracked presence bits from a
// status query. The query forks git, so it is rate-limited, and on a view
// switch it only runs when the index file changed.
type IndexProber struct {
	query     func() (backend.LocalChanges, error)
	indexPath string
	interval  time.Duration
	last      time.Time
	index     stamp
}

func NewIndexProber(gitDir string, interval time.Duration, query func() (backend.LocalChanges, error)) *IndexProber {
	return &IndexProber{query: query, indexPath: filepath.Join(gitDir, "index"), interval: interval}
}

func (p *IndexProber) Triggers() Trigger { return Index }

func (p *IndexProber) Prime() {
	p.index, _ = statStamp(p.indexPath)
}

func (p *IndexProber) Probe(ev Event, now time.Time) (Trigger, error) {
	st, ok := statStamp(p.indexPath)
	moved := ok && st != p.index
	if ok {
		p.index = st
	}
	switch {
	case ev == AfterCommand:
	case ev == SwitchView:
		if !moved {
			return None, nil
		}
	case !moved && !p.last.IsZero() && now.Sub(p.last) < p.interval:
		return None, nil
	}
	p.last = now
	changes, err := p.query()
	if err != nil {
		return None, err
	}
	return IndexBits(changes), nil
}

// RefsProber reloads the ref list and compares it with the previous one. It
// is rate-limited and skipped on view switches.
type RefsProber struct {
	list     func() ([]backend.Ref, error)
	interval time.Duration
	last     time.Time
	sig      string
	primed   bool
}

func NewRefsProber(interval time.Duration, list func() ([]backend.Ref, error)) *RefsProber {
	return &RefsProber{list: list, interval: interval}
}

func (p *RefsProber) Triggers() Trigger { return Refs }

func (p *RefsProber) Prime() {
	if refs, err := p.list(); err == nil {
		p.sig = backend.RefsSignature(refs)
		p.primed = true
	}
}

func (p *RefsProber) Probe(ev Event, now time.Time) (Trigger, error) {
	if ev == SwitchView {
		return None, nil
	}
	if ev != AfterCommand && !p.last.IsZero() && now.Sub(p.last) < p.interval {
		return None, nil
	}
	p.last = now
	refs, err := p.list()
	if err != nil {
		return None, err
	}
	sig := backend.RefsSignature(refs)
	changed := p.primed && sig != p.sig
	p.sig, p.primed = sig, true
	if changed {
		return Refs, nil
	}
	return None, nil
}
