package generator

// Phase enumerates the forward-only pipeline stages.
type Phase int

const (
	PhaseProtect Phase = iota
	PhaseSelfReliance
	PhaseClusterSync
	PhaseExchangePropagation
	PhaseBacktrackingFill
)

var phaseNames = map[Phase]string{
	PhaseProtect:             "protect",
	PhaseSelfReliance:        "self_reliance",
	PhaseClusterSync:         "cluster_sync",
	PhaseExchangePropagation: "exchange_propagation",
	PhaseBacktrackingFill:    "backtracking_fill",
}

func (p Phase) String() string {
	return phaseNames[p]
}

// Configuration selects enabled phases and bounds the backtracking search.
// One parameterized pipeline replaces per-variant generator copies.
type Configuration struct {
	Phases        []Phase
	MaxBacktracks int
	Seed          int64
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Phases: []Phase{
			PhaseProtect,
			PhaseSelfReliance,
			PhaseClusterSync,
			PhaseExchangePropagation,
			PhaseBacktrackingFill,
		},
		MaxBacktracks: 20000,
		Seed:          1,
	}
}
