// Package watch decides when a view is stale with respect to the repository.
//
// Views subscribe to triggers (HEAD moved, refs changed, ...). Probes inspect
// the repository when an event happens and broadcast the triggers that
// changed; a view asks IsDirty before it is shown again.
package watch

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/tigo/internal/git/backend"
)

// Trigger is a set of repository change categories.
type Trigger uint32

const (
	HEAD Trigger = 1 << iota
	Refs
	Stash
	IndexStagedYes
	IndexStagedNo
	IndexUnstagedYes
	IndexUnstagedNo
	IndexUntrackedYes
	IndexUntrackedNo

	None Trigger = 0
)

const (
	IndexStaged    = IndexStagedYes | IndexStagedNo
	IndexUnstaged  = IndexUnstagedYes | IndexUnstagedNo
	IndexUntracked = IndexUntrackedYes | IndexUntrackedNo
	Index          = IndexStaged | IndexUnstaged | IndexUntracked
	All            = HEAD | Refs | Stash | Index
)

var indexFamilies = [...]Trigger{IndexStaged, IndexUnstaged, IndexUntracked}

var triggerNames = [...]string{
	"HEAD", "refs", "stash",
	"staged-yes", "staged-no",
	"unstaged-yes", "unstaged-no",
	"untracked-yes", "untracked-no",
}

func (t Trigger) String() string {
	if t == None {
		return "none"
	}
	var names []string
	for i, name := range triggerNames {
		if t&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if rest := t &^ All; rest != 0 {
		names = append(names, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(names, "|")
}

// IndexBits converts a status summary into one bit per index family.
func IndexBits(c backend.LocalChanges) Trigger {
	bits := IndexStagedNo | IndexUnstagedNo | IndexUntrackedNo
	if c.HasStaged {
		bits ^= IndexStagedNo | IndexStagedYes
	}
	if c.HasWorktree {
		bits ^= IndexUnstagedNo | IndexUnstagedYes
	}
	if c.HasUntracked {
		bits ^= IndexUntrackedNo | IndexUntrackedYes
	}
	return bits
}

// supersede replaces, in state, every index family that bits carries a value
// for. Non-index bits of bits are ignored.
func supersede(state, bits Trigger) Trigger {
	for _, family := range indexFamilies {
		if bits&family != 0 {
			state = state&^family | bits&family
		}
	}
	return state
}

// Event is what caused a probe.
type Event uint8

const (
	// SwitchView fires when a view is brought to the front.
	SwitchView Event = iota
	// AfterCommand fires after tigo ran a command that may modify the repository.
	AfterCommand
	// Periodic fires on the refresh interval.
	Periodic
	// Filesystem fires when the git directory changed on disk.
	Filesystem
	// Load fires when a view finished loading.
	Load
)

func (e Event) String() string {
	switch e {
	case SwitchView:
		return "switch-view"
	case AfterCommand:
		return "after-command"
	case Periodic:
		return "periodic"
	case Filesystem:
		return "filesystem"
	case Load:
		return "load"
	}
	return fmt.Sprintf("Event(%d)", e)
}

// Mode is the refresh policy; it gates which events are probed.
type Mode uint8

const (
	Manual Mode = iota
	PeriodicMode
	AfterCommandMode
	Auto
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case PeriodicMode:
		return "periodic"
	case AfterCommandMode:
		return "after-command"
	case Auto:
		return "auto"
	}
	return fmt.Sprintf("Mode(%d)", m)
}

func ParseMode(s string) (Mode, error) {
	for m := Manual; m <= Auto; m++ {
		if strings.EqualFold(strings.TrimSpace(s), m.String()) {
			return m, nil
		}
	}
	return Manual, fmt.Errorf("unknown refresh mode %q (want manual, periodic, after-command or auto)", s)
}

// Allows reports whether probes for ev are applied under m.
func (m Mode) Allows(ev Event) bool {
	switch m {
	case AfterCommandMode:
		return ev == AfterCommand
	case PeriodicMode:
		return ev != Filesystem
	case Auto:
		return ev != Periodic
	}
	return false
}
