package optimizer

import "time"

// Config bounds and tunes the violation-repair search.
type Config struct {
	MaxIterations      int
	TimeBudget         time.Duration
	InitialTemperature float64
	CoolingRate        float64
	// PlateauThreshold is the number of consecutive iterations without a
	// positive-score candidate before a random perturbation is applied.
	PlateauThreshold  int
	PerturbationSize  int
	CandidateLimit    int
	ValidationWorkers int
	// StrategyWorkers > 1 fans out independently-configured searches over
	// private schedule copies and merges the best result.
	StrategyWorkers int
	Seed            int64
}

func DefaultConfig() Config {
	return Config{
		MaxIterations:      500,
		TimeBudget:         0,
		InitialTemperature: 10.0,
		CoolingRate:        0.95,
		PlateauThreshold:   8,
		PerturbationSize:   3,
		CandidateLimit:     48,
		ValidationWorkers:  1,
		StrategyWorkers:    1,
		Seed:               1,
	}
}
