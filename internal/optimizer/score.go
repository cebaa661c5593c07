package optimizer

import (
	"github.com/schoolgrid/timetable/pkg/model"
)

// Heuristic weights are small enough that net violation improvement always
// dominates slot-quality preferences.
const (
	earlyPeriodWeight    = 0.01
	continuityBonus      = 0.02
	teacherLoadPenalty   = 0.015
	comfortableDailyLoad = 4
)

// scoredCandidate is a fully-applied chain with its evaluation.
type scoredCandidate struct {
	schedule   *model.Schedule
	chain      swapChain
	violations int
	// net is violations fixed minus violations introduced.
	net   int
	score float64
}

// slotQuality rewards preferred day/period placement, balanced daily
// teacher load, and same-teacher continuity across adjacent periods at the
// chain's landing slots.
func slotQuality(schedule *model.Schedule, chain swapChain) float64 {
	quality := 0.0
	for _, step := range chain.moves {
		if step.kind == moveRemove {
			continue
		}
		landing := step.to
		if step.kind == moveMirror {
			landing = step.from
		}
		assignment, ok := schedule.Get(landing, step.class)
		if !ok {
			continue
		}

		quality += float64(model.MaxPeriod-landing.Period) * earlyPeriodWeight

		if assignment.HasTeacher() {
			load := teacherDayLoad(schedule, assignment.Teacher, landing.Day)
			if load > comfortableDailyLoad {
				quality -= float64(load-comfortableDailyLoad) * teacherLoadPenalty
			}
			if teacherAdjacent(schedule, assignment.Teacher, landing) {
				quality += continuityBonus
			}
		}
	}
	return quality
}

func teacherDayLoad(schedule *model.Schedule, teacher model.Teacher, day int) int {
	load := 0
	for _, placed := range schedule.All() {
		if placed.Slot.Day == day && placed.Assignment.Teacher == teacher {
			load++
		}
	}
	return load
}

func teacherAdjacent(schedule *model.Schedule, teacher model.Teacher, slot model.TimeSlot) bool {
	for _, period := range []int{slot.Period - 1, slot.Period + 1} {
		if period < model.MinPeriod || period > model.MaxPeriod {
			continue
		}
		neighbor := model.TimeSlot{Day: slot.Day, Period: period}
		if len(schedule.TeacherClassesAt(neighbor, teacher)) > 0 {
			return true
		}
	}
	return false
}
