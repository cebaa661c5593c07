package optimizer

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/pkg/model"
)

// strategyResult is one worker's best schedule with its statistics.
type strategyResult struct {
	schedule *model.Schedule
	stats    *Statistics
}

// optimizeParallel fans out independently-configured searches, each running
// on a private copy of the schedule, and merges by picking the single
// best-scoring candidate. Workers share only the pattern store, which is
// internally synchronized.
func (o *Optimizer) optimizeParallel(ctx context.Context, schedule *model.Schedule, school *model.School) (*model.Schedule, *Statistics, error) {
	workers := o.cfg.StrategyWorkers
	results := make([]*strategyResult, workers)

	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			cfg := o.cfg
			cfg.StrategyWorkers = 1
			cfg.Seed = o.cfg.Seed + int64(index)
			// Later workers perturb harder so the pool explores both
			// conservative and aggressive repair paths.
			cfg.PerturbationSize = o.cfg.PerturbationSize + index
			search := New(o.engine, o.store, cfg, o.logger)

			best, stats, err := search.optimizeSerial(ctx, schedule.Clone(), school)
			if err != nil {
				return
			}
			results[index] = &strategyResult{schedule: best, stats: stats}
		}(worker)
	}
	wg.Wait()

	var winner *strategyResult
	merged := &Statistics{ViolationsByKind: make(map[string]int)}
	for _, result := range results {
		if result == nil {
			continue
		}
		merged.Iterations += result.stats.Iterations
		merged.SuccessfulSwaps += result.stats.SuccessfulSwaps
		merged.FailedAttempts += result.stats.FailedAttempts
		merged.Perturbations += result.stats.Perturbations
		merged.BudgetExceeded = merged.BudgetExceeded || result.stats.BudgetExceeded
		if winner == nil || result.stats.FinalViolations < winner.stats.FinalViolations {
			winner = result
		}
	}
	if winner == nil {
		stats := &Statistics{
			InitialViolations: len(o.engine.Validate(schedule, school)),
			ViolationsByKind:  make(map[string]int),
		}
		stats.FinalViolations = stats.InitialViolations
		return schedule.Clone(), stats, nil
	}

	merged.InitialViolations = winner.stats.InitialViolations
	merged.FinalViolations = winner.stats.FinalViolations
	for kind, count := range winner.stats.ViolationsByKind {
		merged.ViolationsByKind[kind] = count
	}

	o.logger.Info("strategy pool merged",
		zap.Int("workers", workers),
		zap.Int("final_violations", merged.FinalViolations),
	)
	return winner.schedule, merged, nil
}
