package constraint

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/schoolgrid/timetable/pkg/model"
)

// slotValidator checks constraints scoped to individual slots, which makes
// it safe to shard across slot-range batches.
type slotValidator interface {
	Name() string
	Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation
}

// weekValidator checks whole-week constraints and always runs over the full
// grid, after any sharded slot validation.
type weekValidator interface {
	Name() string
	Validate(schedule *model.Schedule, school *model.School) []Violation
}

//** Teacher conflicts

type teacherConflictValidator struct{}

func (v teacherConflictValidator) Name() string { return "teacher_conflict" }

func (v teacherConflictValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	violations := []Violation{}
	for _, slot := range slots {
		byTeacher := assignmentsByTeacher(schedule, slot)
		for teacher, assignments := range byTeacher {
			groups := occupantGroups(schedule, slot, assignments)
			allowed := 1
			// Data-driven carve-out: a named teacher may carry one extra
			// overlap on listed days when the cluster is one of the parties.
			if school.AllowsOverlap(teacher, slot.Day) && hasClusterGroup(groups) {
				allowed = 2
			}
			if len(groups) > allowed {
				violations = append(violations, Violation{
					Kind:    TeacherConflict,
					Slot:    slot,
					Classes: flattenGroups(groups),
					Teacher: teacher,
					Message: fmt.Sprintf("teacher %v booked by %v concurrent groups", teacher, len(groups)),
				})
			}
		}
	}
	return violations
}

//** Teacher availability

type teacherAvailabilityValidator struct{}

func (v teacherAvailabilityValidator) Name() string { return "teacher_availability" }

func (v teacherAvailabilityValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	violations := []Violation{}
	for _, slot := range slots {
		for _, class := range school.Classes() {
			assignment, ok := schedule.Get(slot, class)
			if !ok || !assignment.HasTeacher() {
				continue
			}
			if school.IsTeacherUnavailable(slot.Day, slot.Period, assignment.Teacher) {
				violations = append(violations, Violation{
					Kind:    TeacherUnavailable,
					Slot:    slot,
					Classes: []model.ClassRef{class},
					Teacher: assignment.Teacher,
					Subject: assignment.Subject,
					Message: fmt.Sprintf("teacher %v unavailable", assignment.Teacher),
				})
			}
		}
	}
	return violations
}

//** Protected subjects

// protectedSubjectValidator flags protected subjects sitting in unlocked
// cells. The protect phase locks every protected cell up front, so an
// unlocked one means the cell was rewritten outside the protected flow.
type protectedSubjectValidator struct{}

func (v protectedSubjectValidator) Name() string { return "protected_subject" }

func (v protectedSubjectValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	violations := []Violation{}
	for _, slot := range slots {
		for _, class := range school.Classes() {
			assignment, ok := schedule.Get(slot, class)
			if ok && assignment.Subject.IsProtected() && !schedule.IsLocked(slot, class) {
				violations = append(violations, Violation{
					Kind:    ProtectedSubjectTampering,
					Slot:    slot,
					Classes: []model.ClassRef{class},
					Subject: assignment.Subject,
					Message: fmt.Sprintf("protected subject %v in unlocked cell", assignment.Subject),
				})
			}
		}
	}
	return violations
}

//** Daily duplicates

type dailyDuplicateValidator struct{}

func (v dailyDuplicateValidator) Name() string { return "daily_duplicate" }

func (v dailyDuplicateValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	violations := []Violation{}
	for _, slot := range slots {
		for _, class := range school.Classes() {
			assignment, ok := schedule.Get(slot, class)
			if !ok || assignment.Subject.IsProtected() || assignment.Subject.IsSelfReliance() {
				continue
			}
			// Report at the later occurrence so each duplicate pair yields
			// one violation regardless of batch boundaries.
			earlier := false
			for period := model.MinPeriod; period < slot.Period; period++ {
				if prior, exists := schedule.Get(model.TimeSlot{Day: slot.Day, Period: period}, class); exists && prior.Subject == assignment.Subject {
					earlier = true
					break
				}
			}
			if earlier {
				violations = append(violations, Violation{
					Kind:    DailyDuplicateSubject,
					Slot:    slot,
					Classes: []model.ClassRef{class},
					Subject: assignment.Subject,
					Message: fmt.Sprintf("%v repeated for %v on day %v", assignment.Subject, class, slot.Day),
				})
			}
		}
	}
	return violations
}

//** Shared facility

const sharedFacilityCapacity = 1

type sharedResourceValidator struct{}

func (v sharedResourceValidator) Name() string { return "shared_resource" }

func (v sharedResourceValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	violations := []Violation{}
	for _, slot := range slots {
		users := []model.Assignment{}
		for _, class := range school.Classes() {
			if assignment, ok := schedule.Get(slot, class); ok && assignment.Subject.UsesSharedFacility() {
				users = append(users, assignment)
			}
		}
		groups := occupantGroups(schedule, slot, users)
		if len(groups) > sharedFacilityCapacity {
			violations = append(violations, Violation{
				Kind:    SharedResourceOveruse,
				Slot:    slot,
				Classes: flattenGroups(groups),
				Subject: model.SubjectPhysEd,
				Message: fmt.Sprintf("shared facility used by %v groups", len(groups)),
			})
		}
	}
	return violations
}

//** Exchange coherence

type exchangeCoherenceValidator struct{}

func (v exchangeCoherenceValidator) Name() string { return "exchange_coherence" }

func (v exchangeCoherenceValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	violations := []Violation{}
	for _, slot := range slots {
		for exchange, parent := range model.ExchangePairs() {
			if !lo.Contains(school.Classes(), exchange) {
				continue
			}
			exchangeAssignment, exchangeOccupied := schedule.Get(slot, exchange)
			parentAssignment, parentOccupied := schedule.Get(slot, parent)

			switch {
			case !exchangeOccupied && !parentOccupied:
				continue
			case exchangeOccupied && exchangeAssignment.Subject.IsSelfReliance():
				if !parentOccupied || !parentAssignment.Subject.EligibleSelfRelianceParent() {
					violations = append(violations, Violation{
						Kind:    ExchangeIncoherence,
						Slot:    slot,
						Classes: []model.ClassRef{exchange, parent},
						Subject: model.SubjectSelfReliance,
						Message: fmt.Sprintf("self-reliance for %v without eligible parent subject", exchange),
					})
				}
			case exchangeOccupied && parentOccupied && exchangeAssignment.SameContent(parentAssignment):
				continue
			default:
				violations = append(violations, Violation{
					Kind:    ExchangeIncoherence,
					Slot:    slot,
					Classes: []model.ClassRef{exchange, parent},
					Message: fmt.Sprintf("%v diverges from parent %v", exchange, parent),
				})
			}
		}
	}
	return violations
}

//** Cluster coherence

type clusterCoherenceValidator struct{}

func (v clusterCoherenceValidator) Name() string { return "cluster_coherence" }

func (v clusterCoherenceValidator) Validate(schedule *model.Schedule, school *model.School, slots []model.TimeSlot) []Violation {
	members := model.ClusterClasses()
	violations := []Violation{}
	for _, slot := range slots {
		unlocked := lo.Filter(members[:], func(member model.ClassRef, _ int) bool {
			return !schedule.IsLocked(slot, member)
		})
		if len(unlocked) < 2 {
			continue
		}

		occupied := []model.Assignment{}
		empty := 0
		for _, member := range unlocked {
			if assignment, ok := schedule.Get(slot, member); ok {
				occupied = append(occupied, assignment)
			} else {
				empty++
			}
		}
		coherent := empty == len(unlocked) || (empty == 0 && lo.EveryBy(occupied, func(a model.Assignment) bool {
			return a.SameContent(occupied[0])
		}))
		if !coherent {
			violations = append(violations, Violation{
				Kind:    ClusterIncoherence,
				Slot:    slot,
				Classes: unlocked,
				Message: "cluster members diverge",
			})
		}
	}
	return violations
}

//** Standard hours (soft, whole-week)

// hoursTolerance is the permitted absolute deviation from the weekly target.
const hoursTolerance = 1

type standardHoursValidator struct{}

func (v standardHoursValidator) Name() string { return "standard_hours" }

func (v standardHoursValidator) Validate(schedule *model.Schedule, school *model.School) []Violation {
	violations := []Violation{}
	for _, class := range school.Classes() {
		for _, subject := range school.RequiredSubjects(class) {
			target := school.StandardHours(class, subject)
			actual := schedule.CountSubject(class, subject)
			deviation := actual - target
			if deviation < 0 {
				deviation = -deviation
			}
			if deviation > hoursTolerance {
				violations = append(violations, Violation{
					Kind:    StandardHoursDeviation,
					Classes: []model.ClassRef{class},
					Subject: subject,
					Message: fmt.Sprintf("%v has %v hours of %v, target %v", class, actual, subject, target),
				})
			}
		}
	}
	return violations
}

//** Occupant grouping helpers

func assignmentsByTeacher(schedule *model.Schedule, slot model.TimeSlot) map[model.Teacher][]model.Assignment {
	byTeacher := make(map[model.Teacher][]model.Assignment)
	for _, placed := range schedule.All() {
		if placed.Slot == slot && placed.Assignment.HasTeacher() {
			byTeacher[placed.Assignment.Teacher] = append(byTeacher[placed.Assignment.Teacher], placed.Assignment)
		}
	}
	return byTeacher
}

// occupantGroups merges assignments that legitimately share a teacher or a
// facility: the cluster trio counts once, and an exchange class mirroring
// its parent joins the parent's group.
func occupantGroups(schedule *model.Schedule, slot model.TimeSlot, assignments []model.Assignment) [][]model.ClassRef {
	grouped := make(map[string][]model.ClassRef)
	for _, assignment := range assignments {
		grouped[occupantKey(schedule, slot, assignment)] = append(grouped[occupantKey(schedule, slot, assignment)], assignment.Class)
	}
	return lo.Values(grouped)
}

func occupantKey(schedule *model.Schedule, slot model.TimeSlot, assignment model.Assignment) string {
	if assignment.Class.IsClusterMember() {
		return "cluster"
	}
	if parent, ok := assignment.Class.Parent(); ok {
		if parentAssignment, occupied := schedule.Get(slot, parent); occupied && parentAssignment.SameContent(assignment) {
			return "class|" + parent.String()
		}
	}
	return "class|" + assignment.Class.String()
}

func hasClusterGroup(groups [][]model.ClassRef) bool {
	return lo.SomeBy(groups, func(group []model.ClassRef) bool {
		return lo.SomeBy(group, func(class model.ClassRef) bool { return class.IsClusterMember() })
	})
}

func flattenGroups(groups [][]model.ClassRef) []model.ClassRef {
	return lo.Flatten(groups)
}
