package installer

// State is the phase a hook invocation has reached.
type State int

const (
	Idle State = iota
	Delegating
	Registering
	Committed
	RolledBack
	Failed
)

var stateNames = [...]string{
	Idle:        "idle",
	Delegating:  "delegating",
	Registering: "registering",
	Committed:   "committed",
	RolledBack:  "rolled-back",
	Failed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == Committed || s == RolledBack || s == Failed
}
