package generator

import (
	"context"
	"math/rand"
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/internal/constraint"
	"github.com/schoolgrid/timetable/pkg/model"
)

// Pipeline fills the assignment grid phase by phase. Phases run in a fixed
// forward order and never re-enter an earlier phase; every commit is gated
// by the constraint engine's pre-commit check.
type Pipeline struct {
	engine *constraint.Engine
	cfg    Configuration
	logger *zap.Logger
	rng    *rand.Rand
}

func NewPipeline(engine *constraint.Engine, cfg Configuration, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		engine: engine,
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Run executes the enabled phases against the schedule. Context expiry is a
// normal termination path: the grid filled so far is kept and reported.
func (p *Pipeline) Run(ctx context.Context, school *model.School, schedule *model.Schedule) (*Statistics, error) {
	if school == nil || len(school.Classes()) == 0 {
		return nil, model.ErrNoClasses
	}

	stats := &Statistics{}
	for _, phase := range p.cfg.Phases {
		if ctx.Err() != nil {
			stats.BudgetExceeded = true
			p.logger.Info("generation budget exhausted at phase boundary", zap.Stringer("phase", phase))
			return stats, nil
		}

		before := schedule.Len()
		switch phase {
		case PhaseProtect:
			p.phaseProtect(school, schedule)
		case PhaseSelfReliance:
			p.phaseSelfReliance(school, schedule)
		case PhaseClusterSync:
			p.phaseClusterSync(school, schedule)
		case PhaseExchangePropagation:
			p.phaseExchangePropagation(school, schedule)
		case PhaseBacktrackingFill:
			p.phaseBacktrackingFill(ctx, school, schedule, stats)
		}
		p.logger.Info("phase complete",
			zap.Stringer("phase", phase),
			zap.Int("placed", schedule.Len()-before),
		)
	}

	stats.Placed = schedule.Len()
	return stats, nil
}

// phaseProtect locks every pre-existing protected-subject cell.
func (p *Pipeline) phaseProtect(school *model.School, schedule *model.Schedule) {
	for _, placed := range schedule.All() {
		if placed.Assignment.Subject.IsProtected() {
			schedule.Lock(placed.Slot, placed.Assignment.Class)
		}
	}
}

// phaseSelfReliance seeds self-reliance activities for exchange classes,
// opportunistically filling the parent with an eligible subject first when
// the parent cell is empty.
func (p *Pipeline) phaseSelfReliance(school *model.School, schedule *model.Schedule) {
	for exchange, parent := range model.ExchangePairs() {
		if !lo.Contains(school.Classes(), exchange) {
			continue
		}
		quota := school.StandardHours(exchange, model.SubjectSelfReliance)
		if quota <= 0 {
			continue
		}

		teacher, _ := school.AssignedTeacher(model.SubjectSelfReliance, exchange)
		placed := schedule.CountSubject(exchange, model.SubjectSelfReliance)
		for _, slot := range model.AllTimeSlots() {
			if placed >= quota {
				break
			}
			if _, occupied := schedule.Get(slot, exchange); occupied {
				continue
			}

			// The opportunistic seed only stays when the activity lands.
			seeded := false
			if _, parentOccupied := schedule.Get(slot, parent); !parentOccupied {
				seeded = p.seedParentSubject(school, schedule, slot, parent)
			}

			activity := model.Assignment{Class: exchange, Subject: model.SubjectSelfReliance, Teacher: teacher}
			if !p.engine.Check(schedule, school, slot, activity) {
				if seeded {
					_ = schedule.Remove(slot, parent)
				}
				continue
			}
			if err := schedule.Assign(slot, activity); err != nil {
				p.logger.Debug("self-reliance placement rejected", zap.Stringer("slot", slot), zap.Error(err))
				if seeded {
					_ = schedule.Remove(slot, parent)
				}
				continue
			}
			placed++
		}
	}
}

// seedParentSubject tries to place one eligible subject with an outstanding
// deficit into the parent cell, reporting whether a seed was committed.
func (p *Pipeline) seedParentSubject(school *model.School, schedule *model.Schedule, slot model.TimeSlot, parent model.ClassRef) bool {
	for _, subject := range []model.Subject{model.SubjectMath, model.SubjectEnglish} {
		remaining := school.StandardHours(parent, subject) - schedule.CountSubject(parent, subject)
		if remaining <= 0 {
			continue
		}
		teacher, ok := p.teacherFor(school, subject, parent)
		if !ok {
			continue
		}
		candidate := model.Assignment{Class: parent, Subject: subject, Teacher: teacher}
		if !p.engine.Check(schedule, school, slot, candidate) {
			continue
		}
		if err := schedule.Assign(slot, candidate); err == nil {
			return true
		}
	}
	return false
}

// phaseClusterSync fills empty cluster slots with one shared
// (subject, teacher), prioritizing the largest remaining weekly-hour
// deficit. Writes commit to all three members atomically or not at all.
func (p *Pipeline) phaseClusterSync(school *model.School, schedule *model.Schedule) {
	members := model.ClusterClasses()
	roster := school.Classes()
	enrolled := lo.EveryBy(members[:], func(member model.ClassRef) bool {
		return lo.Contains(roster, member)
	})
	if !enrolled {
		return
	}

	for _, slot := range model.AllTimeSlots() {
		if !p.clusterSlotOpen(schedule, slot, members) {
			continue
		}

		for _, subject := range p.clusterSubjectsByDeficit(school, schedule, members) {
			teacher, ok := p.teacherFor(school, subject, members[0])
			if !ok {
				continue
			}
			candidate := model.Assignment{Class: members[0], Subject: subject, Teacher: teacher}
			accepted := lo.EveryBy(members[:], func(member model.ClassRef) bool {
				return p.engine.Check(schedule, school, slot, model.Assignment{Class: member, Subject: subject, Teacher: teacher})
			})
			if !accepted {
				continue
			}
			if err := schedule.Assign(slot, candidate); err != nil {
				p.logger.Debug("cluster placement rejected", zap.Stringer("slot", slot), zap.Error(err))
				continue
			}
			break
		}
	}
}

func (p *Pipeline) clusterSlotOpen(schedule *model.Schedule, slot model.TimeSlot, members [3]model.ClassRef) bool {
	for _, member := range members {
		if schedule.IsLocked(slot, member) {
			return false
		}
		if _, occupied := schedule.Get(slot, member); occupied {
			return false
		}
	}
	return true
}

// clusterSubjectsByDeficit orders candidate subjects by total remaining
// deficit across the three members, largest first.
func (p *Pipeline) clusterSubjectsByDeficit(school *model.School, schedule *model.Schedule, members [3]model.ClassRef) []model.Subject {
	deficits := make(map[model.Subject]int)
	for _, member := range members {
		for _, subject := range school.RequiredSubjects(member) {
			if subject.IsProtected() || subject.IsSelfReliance() {
				continue
			}
			remaining := school.StandardHours(member, subject) - schedule.CountSubject(member, subject)
			if remaining > 0 {
				deficits[subject] += remaining
			}
		}
	}

	subjects := lo.Keys(deficits)
	slices.SortFunc(subjects, func(a, b model.Subject) int {
		if deficits[a] != deficits[b] {
			return deficits[b] - deficits[a]
		}
		if a < b {
			return -1
		} else if a > b {
			return 1
		}
		return 0
	})
	return subjects
}

// phaseExchangePropagation copies the parent's (subject, teacher) into the
// exchange class wherever the exchange cell is empty or diverged and is not
// running its own self-reliance activity. Mirrored protected content is
// locked like any other protected cell.
func (p *Pipeline) phaseExchangePropagation(school *model.School, schedule *model.Schedule) {
	for exchange, parent := range model.ExchangePairs() {
		if !lo.Contains(school.Classes(), exchange) {
			continue
		}
		for _, slot := range model.AllTimeSlots() {
			parentAssignment, parentOccupied := schedule.Get(slot, parent)
			if !parentOccupied {
				continue
			}

			exchangeAssignment, exchangeOccupied := schedule.Get(slot, exchange)
			if exchangeOccupied && exchangeAssignment.Subject.IsSelfReliance() {
				continue
			}
			if !exchangeOccupied || !exchangeAssignment.SameContent(parentAssignment) {
				mirror := model.Assignment{Class: exchange, Subject: parentAssignment.Subject, Teacher: parentAssignment.Teacher}
				if err := schedule.Assign(slot, mirror); err != nil {
					p.logger.Debug("exchange propagation rejected", zap.Stringer("slot", slot), zap.Error(err))
					continue
				}
			}
			if parentAssignment.Subject.IsProtected() && !schedule.IsLocked(slot, exchange) {
				schedule.Lock(slot, exchange)
			}
		}
	}
}

// teacherFor resolves the teacher for a (subject, class) requirement: the
// assigned teacher when configured, otherwise the first qualified one.
func (p *Pipeline) teacherFor(school *model.School, subject model.Subject, class model.ClassRef) (model.Teacher, bool) {
	if teacher, ok := school.AssignedTeacher(subject, class); ok {
		return teacher, true
	}
	qualified := school.SubjectTeachers(subject)
	if len(qualified) == 0 {
		return "", false
	}
	return qualified[0], true
}
