package constraint

import (
	"slices"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/pkg/model"
)

// Engine runs the full validator set and offers the fast pre-commit check
// used during placement. Check is conservative: it may reject assignments
// Validate would tolerate, but never accepts one Validate would flag for the
// constraints it covers.
type Engine struct {
	slotValidators []slotValidator
	weekValidators []weekValidator
	logger         *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		slotValidators: []slotValidator{
			teacherConflictValidator{},
			teacherAvailabilityValidator{},
			protectedSubjectValidator{},
			dailyDuplicateValidator{},
			sharedResourceValidator{},
			exchangeCoherenceValidator{},
			clusterCoherenceValidator{},
		},
		weekValidators: []weekValidator{
			standardHoursValidator{},
		},
		logger: logger,
	}
}

// Validate returns every detected violation, deduplicated by
// (kind, slot, class-set) and sorted by priority.
func (e *Engine) Validate(schedule *model.Schedule, school *model.School) []Violation {
	slots := model.AllTimeSlots()
	violations := []Violation{}
	for _, validator := range e.slotValidators {
		violations = append(violations, validator.Validate(schedule, school, slots)...)
	}
	for _, validator := range e.weekValidators {
		violations = append(violations, validator.Validate(schedule, school)...)
	}
	return finalize(violations)
}

// finalize deduplicates and orders a raw violation list.
func finalize(violations []Violation) []Violation {
	deduplicated := lo.UniqBy(violations, func(v Violation) string { return v.Key() })
	slices.SortStableFunc(deduplicated, func(a, b Violation) int {
		if a.Kind.Priority() != b.Kind.Priority() {
			return int(a.Kind.Priority()) - int(b.Kind.Priority())
		}
		if a.Slot.Day != b.Slot.Day {
			return a.Slot.Day - b.Slot.Day
		}
		if a.Slot.Period != b.Slot.Period {
			return a.Slot.Period - b.Slot.Period
		}
		return int(a.Kind) - int(b.Kind)
	})
	return deduplicated
}

// Check performs the O(1)-ish pre-commit test for placing assignment at slot.
func (e *Engine) Check(schedule *model.Schedule, school *model.School, slot model.TimeSlot, assignment model.Assignment) bool {
	if !slot.Valid() || !assignment.Class.Valid() {
		return false
	}
	if schedule.IsLocked(slot, assignment.Class) {
		return false
	}
	if existing, ok := schedule.Get(slot, assignment.Class); ok &&
		existing.Subject.IsProtected() && existing.Subject != assignment.Subject {
		return false
	}

	if assignment.Subject.IsSelfReliance() {
		if !assignment.Class.IsExchange() {
			return false
		}
		parent, _ := assignment.Class.Parent()
		parentAssignment, occupied := schedule.Get(slot, parent)
		if !occupied || !parentAssignment.Subject.EligibleSelfRelianceParent() {
			return false
		}
	}

	if assignment.HasTeacher() {
		if school.IsTeacherUnavailable(slot.Day, slot.Period, assignment.Teacher) {
			return false
		}
		if e.teacherBusyElsewhere(schedule, slot, assignment) {
			return false
		}
	}

	if !assignment.Subject.IsProtected() && !assignment.Subject.IsSelfReliance() {
		existing, replacingSame := schedule.Get(slot, assignment.Class)
		alreadyToday := schedule.DaySubjectCount(assignment.Class, slot.Day, assignment.Subject)
		if replacingSame && existing.Subject == assignment.Subject {
			alreadyToday--
		}
		if alreadyToday > 0 {
			return false
		}
	}

	if assignment.Subject.UsesSharedFacility() && e.facilityTaken(schedule, slot, assignment) {
		return false
	}

	return true
}

// teacherBusyElsewhere reports whether the assignment's teacher already
// teaches an unrelated class at the slot. Cluster co-members and a mirroring
// exchange/parent pair do not count as conflicts.
func (e *Engine) teacherBusyElsewhere(schedule *model.Schedule, slot model.TimeSlot, assignment model.Assignment) bool {
	for _, class := range schedule.TeacherClassesAt(slot, assignment.Teacher) {
		if class == assignment.Class {
			continue
		}
		if assignment.Class.IsClusterMember() && class.IsClusterMember() {
			continue
		}
		if e.mirroringPair(schedule, slot, assignment, class) {
			continue
		}
		return true
	}
	return false
}

func (e *Engine) mirroringPair(schedule *model.Schedule, slot model.TimeSlot, assignment model.Assignment, other model.ClassRef) bool {
	otherAssignment, occupied := schedule.Get(slot, other)
	if !occupied || !otherAssignment.SameContent(assignment) {
		return false
	}
	if parent, ok := assignment.Class.Parent(); ok && parent == other {
		return true
	}
	if parent, ok := other.Parent(); ok && parent == assignment.Class {
		return true
	}
	return false
}

// facilityTaken reports whether the shared facility is already occupied by a
// group the candidate cannot merge with.
func (e *Engine) facilityTaken(schedule *model.Schedule, slot model.TimeSlot, assignment model.Assignment) bool {
	candidateKey := occupantKey(schedule, slot, assignment)
	for _, placed := range schedule.All() {
		if placed.Slot != slot || !placed.Assignment.Subject.UsesSharedFacility() {
			continue
		}
		if placed.Assignment.Class == assignment.Class {
			continue
		}
		if occupantKey(schedule, slot, placed.Assignment) != candidateKey {
			return true
		}
	}
	return false
}
