// Package timetable exposes the scheduling core: phased generation of a
// weekly assignment grid, violation-repair optimization, and constraint
// validation.
package timetable

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/internal/constraint"
	"github.com/schoolgrid/timetable/internal/generator"
	"github.com/schoolgrid/timetable/internal/optimizer"
	"github.com/schoolgrid/timetable/pkg/model"
)

// Options configures one generation or optimization run. MaxIterations and
// TimeBudget bound the optimizer loop; TimeBudget also time-boxes the
// generation phases.
type Options struct {
	Generator        generator.Configuration
	Optimizer        optimizer.Config
	MaxIterations    int
	TimeBudget       time.Duration
	PatternStorePath string
	Logger           *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Generator: generator.DefaultConfiguration(),
		Optimizer: optimizer.DefaultConfig(),
	}
}

// Report aggregates the partial-success statistics of a full run.
type Report struct {
	Generation   *generator.Statistics
	Optimization *optimizer.Statistics
	Violations   []constraint.Violation
}

// Generate fills the grid phase by phase and then repairs residual
// violations. A nil initial schedule starts from an empty grid; a non-nil
// one may carry pre-set locks, which are honored throughout.
func Generate(ctx context.Context, school *model.School, initial *model.Schedule, opts Options) (*model.Schedule, *Report, error) {
	schedule := model.NewSchedule()
	if initial != nil {
		schedule = initial.Clone()
	}

	ctx, cancel := boxed(ctx, opts.TimeBudget)
	defer cancel()

	engine := constraint.NewEngine(opts.Logger)
	pipeline := generator.NewPipeline(engine, opts.Generator, opts.Logger)
	generationStats, err := pipeline.Run(ctx, school, schedule)
	if err != nil {
		return nil, nil, err
	}

	optimized, optimizationStats, err := runOptimizer(ctx, engine, schedule, school, opts)
	if err != nil {
		return nil, nil, err
	}

	return optimized, &Report{
		Generation:   generationStats,
		Optimization: optimizationStats,
		Violations:   engine.Validate(optimized, school),
	}, nil
}

// Optimize repairs an existing schedule and returns the best-known result
// with its statistics.
func Optimize(ctx context.Context, schedule *model.Schedule, school *model.School, opts Options) (*model.Schedule, *optimizer.Statistics, error) {
	ctx, cancel := boxed(ctx, opts.TimeBudget)
	defer cancel()

	engine := constraint.NewEngine(opts.Logger)
	return runOptimizer(ctx, engine, schedule, school, opts)
}

// Validate returns every violation of the schedule, deduplicated and
// priority sorted.
func Validate(schedule *model.Schedule, school *model.School) []constraint.Violation {
	return constraint.NewEngine(nil).Validate(schedule, school)
}

// Check is the fast pre-commit test for a single placement.
func Check(schedule *model.Schedule, school *model.School, slot model.TimeSlot, assignment model.Assignment) bool {
	return constraint.NewEngine(nil).Check(schedule, school, slot, assignment)
}

func runOptimizer(ctx context.Context, engine *constraint.Engine, schedule *model.Schedule, school *model.School, opts Options) (*model.Schedule, *optimizer.Statistics, error) {
	cfg := opts.Optimizer
	if opts.MaxIterations > 0 {
		cfg.MaxIterations = opts.MaxIterations
	}
	if opts.TimeBudget > 0 {
		cfg.TimeBudget = opts.TimeBudget
	}

	store := optimizer.NewPatternStore()
	if opts.PatternStorePath != "" {
		_ = store.Load(opts.PatternStorePath)
	}

	repaired, stats, err := optimizer.New(engine, store, cfg, opts.Logger).Optimize(ctx, schedule, school)
	if err != nil {
		return nil, nil, err
	}

	if opts.PatternStorePath != "" {
		if saveErr := store.Save(opts.PatternStorePath); saveErr != nil && opts.Logger != nil {
			opts.Logger.Warn("pattern store save failed", zap.Error(saveErr))
		}
	}
	return repaired, stats, nil
}

func boxed(ctx context.Context, budget time.Duration) (context.Context, context.CancelFunc) {
	if budget > 0 {
		return context.WithTimeout(ctx, budget)
	}
	return context.WithCancel(ctx)
}
