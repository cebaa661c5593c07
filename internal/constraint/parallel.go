package constraint

import (
	"sync"

	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/pkg/model"
)

// ValidateParallel shards slot-scoped validation into contiguous slot-range
// batches evaluated concurrently, merges the partial results, and runs a
// reconciliation pass for whole-week constraints and cross-batch duplicates.
// It agrees with Validate on any schedule; workers <= 1 falls back to the
// serial path.
func (e *Engine) ValidateParallel(schedule *model.Schedule, school *model.School, workers int) []Violation {
	if workers <= 1 {
		return e.Validate(schedule, school)
	}

	slots := model.AllTimeSlots()
	if workers > len(slots) {
		workers = len(slots)
	}
	batchSize := (len(slots) + workers - 1) / workers

	partials := make([][]Violation, workers)
	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		start := worker * batchSize
		end := start + batchSize
		if end > len(slots) {
			end = len(slots)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(index int, batch []model.TimeSlot) {
			defer wg.Done()
			violations := []Violation{}
			for _, validator := range e.slotValidators {
				violations = append(violations, validator.Validate(schedule, school, batch)...)
			}
			partials[index] = violations
		}(worker, slots[start:end])
	}
	wg.Wait()

	// Reconciliation: concatenate batches, append whole-week results, and
	// deduplicate so violations reported from more than one batch (shared
	// teacher identities at batch boundaries) collapse to one record.
	merged := []Violation{}
	for _, partial := range partials {
		merged = append(merged, partial...)
	}
	for _, validator := range e.weekValidators {
		merged = append(merged, validator.Validate(schedule, school)...)
	}

	result := finalize(merged)
	e.logger.Debug("parallel validation complete",
		zap.Int("workers", workers),
		zap.Int("violations", len(result)),
	)
	return result
}
