package plugin

// State is the lifecycle position of a plugin.
//
// Discovered → Loaded → Initialized → Enabled ⇄ Disabled, with Failed
// reachable from any non-terminal state and Unloaded terminal reachable from
// any state except Failed.
type State int

const (
	// StateDiscovered: descriptor known, entry reference not yet invoked.
	StateDiscovered State = iota
	// StateLoaded: entry reference returned a registration callback that
	// has not yet run.
	StateLoaded
	// StateInitialized: registration callback executed; contributions are
	// held pending dependency satisfaction, not attached to the tree.
	StateInitialized
	// StateEnabled: all declared dependencies enabled; commands attached.
	StateEnabled
	// StateDisabled: commands detached, plugin retained for fast re-enable.
	StateDisabled
	// StateFailed: terminal for this load attempt; carries an error reason.
	StateFailed
	// StateUnloaded: commands detached and plugin object released.
	StateUnloaded
)

func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateLoaded:
		return "loaded"
	case StateInitialized:
		return "initialized"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateFailed:
		return "failed"
	case StateUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateUnloaded
}
