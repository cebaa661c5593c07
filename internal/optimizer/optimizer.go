package optimizer

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/internal/constraint"
	"github.com/schoolgrid/timetable/pkg/model"
)

// Optimizer runs graph-guided local search that repairs residual violations
// after generation. The best-known schedule is tracked separately from the
// working copy and only replaced on strict improvement; termination always
// returns it, never a partially-broken working state.
type Optimizer struct {
	engine *constraint.Engine
	store  *PatternStore
	cfg    Config
	logger *zap.Logger
	rng    *rand.Rand
}

func New(engine *constraint.Engine, store *PatternStore, cfg Config, logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewPatternStore()
	}
	return &Optimizer{
		engine: engine,
		store:  store,
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Optimize repairs the schedule until it is violation-free or the iteration
// or time budget runs out. Budget expiry is a normal termination path.
func (o *Optimizer) Optimize(ctx context.Context, schedule *model.Schedule, school *model.School) (*model.Schedule, *Statistics, error) {
	if school == nil || len(school.Classes()) == 0 {
		return nil, nil, model.ErrNoClasses
	}
	if o.cfg.StrategyWorkers > 1 {
		return o.optimizeParallel(ctx, schedule, school)
	}
	return o.optimizeSerial(ctx, schedule, school)
}

func (o *Optimizer) optimizeSerial(ctx context.Context, schedule *model.Schedule, school *model.School) (*model.Schedule, *Statistics, error) {
	working := schedule.Clone()
	best := schedule.Clone()
	bestCount := len(o.engine.Validate(best, school))

	stats := &Statistics{
		InitialViolations: bestCount,
		ViolationsByKind:  make(map[string]int),
	}

	temperature := o.cfg.InitialTemperature
	noImprovement := 0
	start := time.Now()

	for iteration := 0; iteration < o.cfg.MaxIterations; iteration++ {
		if ctx.Err() != nil || (o.cfg.TimeBudget > 0 && time.Since(start) > o.cfg.TimeBudget) {
			stats.BudgetExceeded = true
			break
		}

		violations := o.engine.ValidateParallel(working, school, o.cfg.ValidationWorkers)
		stats.Iterations++
		if len(violations) == 0 {
			best = working.Clone()
			bestCount = 0
			break
		}

		graph := buildDependencyGraph(violations)
		targetIndex := o.selectViolation(violations)
		target := violations[targetIndex]
		o.logger.Debug("repairing violation",
			zap.String("kind", target.Kind.String()),
			zap.Int("related", graph.degree(targetIndex)),
		)

		candidate := o.bestCandidate(working, school, target, len(violations), stats)
		if candidate == nil || candidate.score <= 0 {
			noImprovement++
		} else {
			working = candidate.schedule
			stats.SuccessfulSwaps++
			if candidate.net > 0 {
				o.store.Record(target, candidate.chain, float64(candidate.net))
			}
			if candidate.violations < bestCount {
				best = working.Clone()
				bestCount = candidate.violations
				noImprovement = 0
				o.logger.Info("improved schedule",
					zap.Int("iteration", iteration),
					zap.Int("violations", bestCount),
				)
			}
		}

		if noImprovement >= o.cfg.PlateauThreshold {
			o.perturb(working, school, temperature)
			temperature *= o.cfg.CoolingRate
			noImprovement = 0
			stats.Perturbations++
		}
	}

	for _, violation := range o.engine.Validate(best, school) {
		stats.ViolationsByKind[violation.Kind.String()]++
	}
	stats.FinalViolations = len(o.engine.Validate(best, school))
	return best, stats, nil
}

// selectViolation picks the highest-priority violation, with priority
// boosted by the historical success of matching learned patterns.
func (o *Optimizer) selectViolation(violations []constraint.Violation) int {
	bestIndex := 0
	bestRank := rankOf(violations[0], o.store.Boost(violations[0]))
	for index := 1; index < len(violations); index++ {
		rank := rankOf(violations[index], o.store.Boost(violations[index]))
		if rank < bestRank {
			bestIndex = index
			bestRank = rank
		}
	}
	return bestIndex
}

// rankOf lowers (improves) a violation's effective rank as its pattern
// boost grows.
func rankOf(violation constraint.Violation, boost float64) float64 {
	return (float64(violation.Kind.Priority()) + 1) / boost
}

// bestCandidate applies every candidate chain to a private copy, scores the
// survivors, and returns the best one.
func (o *Optimizer) bestCandidate(working *model.Schedule, school *model.School, target constraint.Violation, violationsBefore int, stats *Statistics) *scoredCandidate {
	var best *scoredCandidate
	for _, chain := range o.candidatesFor(working, school, target) {
		attempt := working.Clone()
		if err := o.apply(attempt, school, chain); err != nil {
			stats.FailedAttempts++
			continue
		}

		after := len(o.engine.Validate(attempt, school))
		net := violationsBefore - after
		candidate := &scoredCandidate{
			schedule:   attempt,
			chain:      chain,
			violations: after,
			net:        net,
			score:      float64(net) + slotQuality(attempt, chain),
		}
		if best == nil || candidate.score > best.score {
			best = candidate
		}
	}
	return best
}

// perturb removes a bounded number of non-protected assignments and
// relocates them to empty slots, or failing that the first slot that will
// take them. The perturbation size shrinks as the temperature cools.
func (o *Optimizer) perturb(working *model.Schedule, school *model.School, temperature float64) {
	size := o.cfg.PerturbationSize
	if o.cfg.InitialTemperature > 0 {
		scaled := int(float64(size) * temperature / o.cfg.InitialTemperature)
		if scaled < 1 {
			scaled = 1
		}
		size = scaled
	}

	movable := []model.PlacedAssignment{}
	for _, placed := range working.All() {
		if placed.Assignment.Subject.IsProtected() || working.IsLocked(placed.Slot, placed.Assignment.Class) {
			continue
		}
		movable = append(movable, placed)
	}
	o.rng.Shuffle(len(movable), func(i, j int) { movable[i], movable[j] = movable[j], movable[i] })
	if len(movable) > size {
		movable = movable[:size]
	}

	for _, placed := range movable {
		if err := working.Remove(placed.Slot, placed.Assignment.Class); err != nil {
			continue
		}
		o.relocate(working, school, placed.Assignment)
	}
}

func (o *Optimizer) relocate(working *model.Schedule, school *model.School, assignment model.Assignment) {
	empty := working.EmptySlots(assignment.Class)
	o.rng.Shuffle(len(empty), func(i, j int) { empty[i], empty[j] = empty[j], empty[i] })
	for _, slot := range empty {
		if o.engine.Check(working, school, slot, assignment) {
			if err := working.Assign(slot, assignment); err == nil {
				return
			}
		}
	}
	// No compatible slot: take the first available one and let a later
	// iteration repair the fallout.
	for _, slot := range empty {
		if err := working.Assign(slot, assignment); err == nil {
			return
		}
	}
}
