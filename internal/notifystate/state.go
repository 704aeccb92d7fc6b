package notifystate

import (
	"time"

	"hbstatus/internal/signals"
)

// CurrentVersion is the schema version written to new and migrated files.
const CurrentVersion = 1

// Entry records the last reported condition of one signal.
type Entry struct {
	// Status is true when the signal was last known good.
	Status bool `json:"status"`
	// LastNotified is when a degraded notification last fired. Always nil
	// while Status is true.
	LastNotified *time.Time `json:"lastNotified,omitempty"`
}

// Good returns an entry for a signal in its known-good condition.
func Good() Entry {
	return Entry{Status: true}
}

// Degraded returns an entry that was reported degraded at the given time.
func Degraded(at time.Time) Entry {
	at = at.UTC()
	return Entry{Status: false, LastNotified: &at}
}

func (e Entry) clone() Entry {
	if e.LastNotified == nil {
		return e
	}
	at := *e.LastNotified
	e.LastNotified = &at
	return e
}

func (e Entry) normalized() Entry {
	if e.Status {
		e.LastNotified = nil
	}
	if e.LastNotified != nil {
		at := e.LastNotified.UTC()
		e.LastNotified = &at
	}
	return e
}

// Equal reports whether both entries describe the same condition.
func (e Entry) Equal(other Entry) bool {
	if e.Status != other.Status {
		return false
	}
	switch {
	case e.LastNotified == nil && other.LastNotified == nil:
		return true
	case e.LastNotified == nil || other.LastNotified == nil:
		return false
	default:
		return e.LastNotified.Equal(*other.LastNotified)
	}
}

// State is the persisted notification memory across all signals.
type State struct {
	JSONVersion int   `json:"jsonVersion"`
	HBRunning   Entry `json:"hbRunning"`
	HBUtd       Entry `json:"hbUtd"`
	PluginsUtd  Entry `json:"pluginsUtd"`
	NodeUtd     Entry `json:"nodeUtd"`
}

// Initial returns the state used on first run: every signal known good.
func Initial() State {
	return State{
		JSONVersion: CurrentVersion,
		HBRunning:   Good(),
		HBUtd:       Good(),
		PluginsUtd:  Good(),
		NodeUtd:     Good(),
	}
}

// Entry returns the entry tracked for kind. Unknown kinds read as good.
func (s State) Entry(kind signals.Kind) Entry {
	if field := s.field(kind); field != nil {
		return field.clone()
	}
	return Good()
}

// WithEntry returns a copy of s with the entry for kind replaced.
func (s State) WithEntry(kind signals.Kind, entry Entry) State {
	next := s.Clone()
	if field := next.field(kind); field != nil {
		*field = entry.normalized()
	}
	return next
}

// Clone returns a deep copy that shares no timestamps with s.
func (s State) Clone() State {
	s.HBRunning = s.HBRunning.clone()
	s.HBUtd = s.HBUtd.clone()
	s.PluginsUtd = s.PluginsUtd.clone()
	s.NodeUtd = s.NodeUtd.clone()
	return s
}

// Equal reports whether both states would serialize to the same document.
func (s State) Equal(other State) bool {
	if s.JSONVersion != other.JSONVersion {
		return false
	}
	for _, kind := range signals.Kinds() {
		if !s.Entry(kind).Equal(other.Entry(kind)) {
			return false
		}
	}
	return true
}

func (s State) normalized() State {
	s.HBRunning = s.HBRunning.normalized()
	s.HBUtd = s.HBUtd.normalized()
	s.PluginsUtd = s.PluginsUtd.normalized()
	s.NodeUtd = s.NodeUtd.normalized()
	return s
}

func (s *State) field(kind signals.Kind) *Entry {
	switch kind {
	case signals.ServiceRunning:
		return &s.HBRunning
	case signals.ServiceUpToDate:
		return &s.HBUtd
	case signals.PluginsUpToDate:
		return &s.PluginsUtd
	case signals.RuntimeUpToDate:
		return &s.NodeUtd
	default:
		return nil
	}
}
