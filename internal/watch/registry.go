package watch

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// Watch is the per-view record kept by a Registry.
type Watch struct {
	triggers Trigger
	// changed holds triggers observed but not yet consumed by IsDirty.
	changed Trigger
	// state holds the index bits the view last reflected.
	state Trigger
}

// Triggers returns the subscribed triggers.
func (w *Watch) Triggers() Trigger {
	return w.triggers
}

// Prober inspects one family of repository state.
type Prober interface {
	// Triggers returns the bits the prober may report.
	Triggers() Trigger
	// Prime records the current state as the baseline without reporting.
	Prime()
	// Probe returns the triggers that changed since the previous probe. An
	// error is treated as "no change".
	Probe(ev Event, now time.Time) (Trigger, error)
}

// Registry is the set of watches of one program, with the probers that feed
// them. It is not safe for concurrent use; the UI loop owns it.
type Registry struct {
	mode    Mode
	watches []*Watch
	probers []Prober
	now     func() time.Time
	log     zerolog.Logger
}

func NewRegistry(mode Mode, log zerolog.Logger, probers ...Prober) *Registry {
	return &Registry{mode: mode, probers: probers, now: time.Now, log: log}
}

func (r *Registry) Mode() Mode { return r.mode }

func (r *Registry) SetMode(m Mode) { r.mode = m }

// Register subscribes w to triggers, dropping anything it observed before.
func (r *Registry) Register(w *Watch, triggers Trigger) {
	*w = Watch{triggers: triggers}
	if !slices.Contains(r.watches, w) {
		r.watches = append(r.watches, w)
	}
}

func (r *Registry) interest() Trigger {
	var t Trigger
	for _, w := range r.watches {
		t |= w.triggers
	}
	return t
}

// Prime sets the baseline of every prober.
func (r *Registry) Prime() {
	for _, p := range r.probers {
		p.Prime()
	}
}

// Probe runs the probers relevant to the registered watches and applies what
// changed. Events the refresh mode does not allow are ignored.
func (r *Registry) Probe(ev Event) Trigger {
	if !r.mode.Allows(ev) {
		return None
	}
	interest := r.interest()
	if interest == None {
		return None
	}
	now := r.now()
	var changed Trigger
	for _, p := range r.probers {
		if p.Triggers()&interest == None {
			continue
		}
		bits, err := p.Probe(ev, now)
		if err != nil {
			r.log.Debug().Err(err).Stringer("event", ev).Msg("probe failed")
			continue
		}
		changed |= bits
	}
	if changed != None {
		r.log.Debug().Stringer("event", ev).Stringer("changed", changed).Msg("repository changed")
		r.Apply(nil, changed)
	}
	return changed
}

// Apply broadcasts changed to every watch interested in it. The source watch
// records the index bits as reflected instead, so it does not report changes
// it caused itself.
func (r *Registry) Apply(source *Watch, changed Trigger) {
	for _, w := range r.watches {
		if w == source {
			w.state = supersede(w.state, changed)
			continue
		}
		if bits := changed & w.triggers; bits != None {
			w.changed = supersede(w.changed, bits) | bits&^Index
		}
	}
}

// IsDirty reports whether w observed a change it has not reflected yet, and
// consumes the observation.
func (r *Registry) IsDirty(w *Watch) bool {
	index := w.changed & Index &^ w.state
	dirty := index != None || w.changed&^Index != None
	w.state = supersede(w.state, w.changed&Index)
	w.changed = None
	return dirty
}
