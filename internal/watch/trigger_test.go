package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/tigo/internal/git/backend"
)

func TestIndexBits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   backend.LocalChanges
		want Trigger
	}{
		{in: backend.LocalChanges{}, want: IndexStagedNo | IndexUnstagedNo | IndexUntrackedNo},
		{in: backend.LocalChanges{HasStaged: true}, want: IndexStagedYes | IndexUnstagedNo | IndexUntrackedNo},
		{
			in:   backend.LocalChanges{HasStaged: true, HasWorktree: true, HasUntracked: true},
			want: IndexStagedYes | IndexUnstagedYes | IndexUntrackedYes,
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IndexBits(tt.in), "%+v", tt.in)
	}
}

func TestSupersedeReplacesWholeFamily(t *testing.T) {
	t.Parallel()

	state := IndexStagedYes | IndexUnstagedNo
	got := supersede(state, IndexStagedNo|HEAD)
	assert.Equal(t, IndexStagedNo|IndexUnstagedNo, got)
}

func TestTriggerString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", None.String())
	assert.Equal(t, "HEAD|refs", (HEAD | Refs).String())
	assert.Equal(t, "staged-yes|untracked-no", (IndexStagedYes | IndexUntrackedNo).String())
}

func TestModeAllows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode  Mode
		allow []Event
		deny  []Event
	}{
		{mode: Manual, deny: []Event{SwitchView, AfterCommand, Periodic, Filesystem, Load}},
		{mode: AfterCommandMode, allow: []Event{AfterCommand}, deny: []Event{SwitchView, Periodic, Filesystem, Load}},
		{mode: PeriodicMode, allow: []Event{Periodic, AfterCommand, SwitchView, Load}, deny: []Event{Filesystem}},
		{mode: Auto, allow: []Event{SwitchView, AfterCommand, Filesystem, Load}, deny: []Event{Periodic}},
	}
	for _, tt := range tests {
		for _, ev := range tt.allow {
			assert.True(t, tt.mode.Allows(ev), "%s should allow %s", tt.mode, ev)
		}
		for _, ev := range tt.deny {
			assert.False(t, tt.mode.Allows(ev), "%s should deny %s", tt.mode, ev)
		}
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for _, m := range []Mode{Manual, PeriodicMode, AfterCommandMode, Auto} {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("sometimes")
	assert.Error(t, err)
}
