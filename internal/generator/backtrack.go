package generator

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/pkg/model"
)

// unit is a single hour of one requirement, the granularity at which the
// depth-first search commits and undoes placements.
type unit struct {
	class   model.ClassRef
	subject model.Subject
}

// phaseBacktrackingFill places every remaining (class, subject) requirement
// by depth-first search with explicit undo. Requirements are ranked by
// remaining hours descending. When the backtrack budget runs out the search
// degrades to a greedy pass; whatever still cannot be placed is recorded in
// statistics rather than treated as an error.
func (p *Pipeline) phaseBacktrackingFill(ctx context.Context, school *model.School, schedule *model.Schedule, stats *Statistics) {
	requirements := p.collectRequirements(school, schedule, stats)
	units := []unit{}
	for _, requirement := range requirements {
		for hour := 0; hour < requirement.Hours; hour++ {
			units = append(units, unit{class: requirement.Class, subject: requirement.Subject})
		}
	}

	if p.place(ctx, school, schedule, units, 0, stats) {
		return
	}

	p.logger.Info("depth-first placement incomplete, falling back to greedy fill",
		zap.Int("backtracks", stats.Backtracks),
	)
	p.greedyFill(school, schedule, units, stats)
}

// collectRequirements gathers outstanding demands for regular classes.
// Cluster members are served by the synchronization phase and exchange
// classes mirror their parents, so neither enters the search.
func (p *Pipeline) collectRequirements(school *model.School, schedule *model.Schedule, stats *Statistics) []Requirement {
	requirements := []Requirement{}
	for _, class := range school.Classes() {
		if class.IsExchange() || class.IsClusterMember() {
			continue
		}
		for _, subject := range school.RequiredSubjects(class) {
			if subject.IsProtected() || subject.IsSelfReliance() {
				continue
			}
			remaining := school.StandardHours(class, subject) - schedule.CountSubject(class, subject)
			if remaining <= 0 {
				continue
			}
			if len(p.candidateTeachers(school, subject, class)) == 0 {
				stats.CapabilityGaps++
				stats.Unplaced = append(stats.Unplaced, Requirement{Class: class, Subject: subject, Hours: remaining})
				continue
			}
			requirements = append(requirements, Requirement{Class: class, Subject: subject, Hours: remaining})
		}
	}

	slices.SortFunc(requirements, func(a, b Requirement) int {
		if a.Hours != b.Hours {
			return b.Hours - a.Hours
		}
		if c := a.Class.Grade - b.Class.Grade; c != 0 {
			return c
		}
		if c := a.Class.Number - b.Class.Number; c != 0 {
			return c
		}
		if a.Subject < b.Subject {
			return -1
		} else if a.Subject > b.Subject {
			return 1
		}
		return 0
	})
	return requirements
}

// place commits one unit and recurses; each undone commit counts as a
// backtrack against the configured budget.
func (p *Pipeline) place(ctx context.Context, school *model.School, schedule *model.Schedule, units []unit, index int, stats *Statistics) bool {
	if index == len(units) {
		return true
	}
	if stats.Backtracks > p.cfg.MaxBacktracks || ctx.Err() != nil {
		return false
	}

	current := units[index]
	for _, slot := range p.candidateSlots(schedule, current.class) {
		for _, teacher := range p.candidateTeachers(school, current.subject, current.class) {
			candidate := model.Assignment{Class: current.class, Subject: current.subject, Teacher: teacher}
			if !p.engine.Check(schedule, school, slot, candidate) {
				continue
			}
			if err := schedule.Assign(slot, candidate); err != nil {
				// Structural rejection: skip this candidate, never abort.
				continue
			}
			if p.place(ctx, school, schedule, units, index+1, stats) {
				return true
			}
			if err := schedule.Remove(slot, current.class); err != nil {
				p.logger.Error("undo failed during backtracking", zap.Error(err))
				return false
			}
			stats.Backtracks++
			if stats.Backtracks > p.cfg.MaxBacktracks {
				return false
			}
		}
	}
	return false
}

// greedyFill places each unit independently, recording what will not fit.
// Units are shuffled so a failed search does not starve the same trailing
// requirements on every run with a different seed.
func (p *Pipeline) greedyFill(school *model.School, schedule *model.Schedule, units []unit, stats *Statistics) {
	shuffled := slices.Clone(units)
	p.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for _, current := range shuffled {
		if schedule.CountSubject(current.class, current.subject) >= school.StandardHours(current.class, current.subject) {
			continue
		}
		placed := false
		for _, slot := range p.candidateSlots(schedule, current.class) {
			for _, teacher := range p.candidateTeachers(school, current.subject, current.class) {
				candidate := model.Assignment{Class: current.class, Subject: current.subject, Teacher: teacher}
				if !p.engine.Check(schedule, school, slot, candidate) {
					continue
				}
				if err := schedule.Assign(slot, candidate); err != nil {
					continue
				}
				placed = true
				break
			}
			if placed {
				break
			}
		}
		if !placed {
			stats.Unplaced = append(stats.Unplaced, Requirement{Class: current.class, Subject: current.subject, Hours: 1})
		}
	}
}

// candidateSlots orders empty slots for a class: days with the lightest
// load first, then earlier periods, which spreads a class's week evenly.
func (p *Pipeline) candidateSlots(schedule *model.Schedule, class model.ClassRef) []model.TimeSlot {
	dayLoad := make(map[int]int)
	for _, placed := range schedule.All() {
		if placed.Assignment.Class == class {
			dayLoad[placed.Slot.Day]++
		}
	}

	slots := schedule.EmptySlots(class)
	slices.SortStableFunc(slots, func(a, b model.TimeSlot) int {
		if dayLoad[a.Day] != dayLoad[b.Day] {
			return dayLoad[a.Day] - dayLoad[b.Day]
		}
		if a.Day != b.Day {
			return a.Day - b.Day
		}
		return a.Period - b.Period
	})
	return slots
}

func (p *Pipeline) candidateTeachers(school *model.School, subject model.Subject, class model.ClassRef) []model.Teacher {
	if teacher, ok := school.AssignedTeacher(subject, class); ok {
		return []model.Teacher{teacher}
	}
	return school.SubjectTeachers(subject)
}
