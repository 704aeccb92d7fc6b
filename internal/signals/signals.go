package signals

import "fmt"

// Ternary is a three-valued health reading. The zero value is Unknown.
type Ternary int8

const (
	Unknown Ternary = iota
	True
	False
)

// FromBool converts a definite answer into a Ternary.
func FromBool(value bool) Ternary {
	if value {
		return True
	}
	return False
}

// FromPtr converts an optional answer; nil maps to Unknown.
func FromPtr(value *bool) Ternary {
	if value == nil {
		return Unknown
	}
	return FromBool(*value)
}

// IsTrue reports whether the reading is affirmatively good.
func (t Ternary) IsTrue() bool {
	return t == True
}

func (t Ternary) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// Kind identifies one monitored indicator.
type Kind int

const (
	ServiceRunning Kind = iota
	ServiceUpToDate
	PluginsUpToDate
	RuntimeUpToDate
)

var allKinds = []Kind{ServiceRunning, ServiceUpToDate, PluginsUpToDate, RuntimeUpToDate}

// Kinds returns every kind in evaluation order.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Key returns the identifier used for the kind in the persisted state file.
func (k Kind) Key() string {
	switch k {
	case ServiceRunning:
		return "hbRunning"
	case ServiceUpToDate:
		return "hbUtd"
	case PluginsUpToDate:
		return "pluginsUtd"
	case RuntimeUpToDate:
		return "nodeUtd"
	default:
		return fmt.Sprintf("kind%d", int(k))
	}
}

// String returns a log-friendly name.
func (k Kind) String() string {
	switch k {
	case ServiceRunning:
		return "service_running"
	case ServiceUpToDate:
		return "service_up_to_date"
	case PluginsUpToDate:
		return "plugins_up_to_date"
	case RuntimeUpToDate:
		return "runtime_up_to_date"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k >= ServiceRunning && k <= RuntimeUpToDate
}

// ParseKind resolves either the state-file key or the log name of a kind.
func ParseKind(value string) (Kind, bool) {
	for _, kind := range allKinds {
		if value == kind.Key() || value == kind.String() {
			return kind, true
		}
	}
	return 0, false
}

// Set holds one reading per kind. The zero value reads Unknown everywhere.
type Set struct {
	values [4]Ternary
}

// NewSet builds a Set from readings in evaluation order.
func NewSet(running, serviceUTD, pluginsUTD, runtimeUTD Ternary) Set {
	return Set{values: [4]Ternary{running, serviceUTD, pluginsUTD, runtimeUTD}}
}

// Get returns the reading for kind; unknown kinds read Unknown.
func (s Set) Get(kind Kind) Ternary {
	if !kind.Valid() {
		return Unknown
	}
	return s.values[kind]
}

// With returns a copy of s with kind set to value.
func (s Set) With(kind Kind, value Ternary) Set {
	if kind.Valid() {
		s.values[kind] = value
	}
	return s
}
