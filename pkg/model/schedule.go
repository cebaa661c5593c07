package model

import (
	"slices"

	"github.com/samber/lo"
)

type cellKey struct {
	slot  TimeSlot
	class ClassRef
}

// Schedule is the mutable assignment grid: at most one assignment per
// (slot, class) plus a lock set. Cluster members are written as a unit
// whenever no member of the cluster is individually locked.
type Schedule struct {
	cells map[cellKey]Assignment
	locks map[cellKey]struct{}
}

func NewSchedule() *Schedule {
	return &Schedule{
		cells: make(map[cellKey]Assignment),
		locks: make(map[cellKey]struct{}),
	}
}

// Assign places an assignment at the given slot. Writing to a locked cell or
// replacing a protected subject with a different subject fails with a
// StructuralError. Assigning to a cluster member with no locked members
// writes the same (subject, teacher) to all three members.
func (s *Schedule) Assign(slot TimeSlot, assignment Assignment) error {
	if err := s.guard(slot, assignment.Class, assignment.Subject); err != nil {
		return err
	}

	if assignment.Class.IsClusterMember() && !s.clusterPartiallyLocked(slot) {
		for _, member := range ClusterClasses() {
			if err := s.guard(slot, member, assignment.Subject); err != nil {
				return err
			}
		}
		for _, member := range ClusterClasses() {
			s.cells[cellKey{slot: slot, class: member}] = Assignment{
				Class:   member,
				Subject: assignment.Subject,
				Teacher: assignment.Teacher,
			}
		}
		return nil
	}

	s.cells[cellKey{slot: slot, class: assignment.Class}] = assignment
	return nil
}

// Remove clears the cell at (slot, class). Locked and protected cells reject
// the removal with a StructuralError. Removing from an unlocked cluster
// clears all three members.
func (s *Schedule) Remove(slot TimeSlot, class ClassRef) error {
	key := cellKey{slot: slot, class: class}
	if s.IsLocked(slot, class) {
		return &StructuralError{Slot: slot, Class: class, Reason: "cell is locked"}
	}
	if existing, ok := s.cells[key]; ok && existing.Subject.IsProtected() {
		return &StructuralError{Slot: slot, Class: class, Reason: "protected subject cannot be removed"}
	}

	if class.IsClusterMember() && !s.clusterPartiallyLocked(slot) {
		for _, member := range ClusterClasses() {
			delete(s.cells, cellKey{slot: slot, class: member})
		}
		return nil
	}

	delete(s.cells, key)
	return nil
}

// Get returns the assignment at (slot, class), if any.
func (s *Schedule) Get(slot TimeSlot, class ClassRef) (Assignment, bool) {
	assignment, ok := s.cells[cellKey{slot: slot, class: class}]
	return assignment, ok
}

// Lock makes the cell immutable until explicitly unlocked.
func (s *Schedule) Lock(slot TimeSlot, class ClassRef) {
	s.locks[cellKey{slot: slot, class: class}] = struct{}{}
}

func (s *Schedule) Unlock(slot TimeSlot, class ClassRef) {
	delete(s.locks, cellKey{slot: slot, class: class})
}

func (s *Schedule) IsLocked(slot TimeSlot, class ClassRef) bool {
	_, ok := s.locks[cellKey{slot: slot, class: class}]
	return ok
}

// ClusterAssignments returns the assignments currently held by the three
// cluster members at the given slot.
func (s *Schedule) ClusterAssignments(slot TimeSlot) []Assignment {
	assignments := make([]Assignment, 0, 3)
	for _, member := range ClusterClasses() {
		if assignment, ok := s.Get(slot, member); ok {
			assignments = append(assignments, assignment)
		}
	}
	return assignments
}

// All returns every placed assignment in deterministic grid order.
func (s *Schedule) All() []PlacedAssignment {
	placed := lo.MapToSlice(s.cells, func(key cellKey, assignment Assignment) PlacedAssignment {
		return PlacedAssignment{Slot: key.slot, Assignment: assignment}
	})
	slices.SortFunc(placed, func(a, b PlacedAssignment) int {
		if c := compareSlots(a.Slot, b.Slot); c != 0 {
			return c
		}
		return compareClasses(a.Assignment.Class, b.Assignment.Class)
	})
	return placed
}

func (s *Schedule) Len() int {
	return len(s.cells)
}

// Clone returns a deep copy sharing no state with the receiver.
func (s *Schedule) Clone() *Schedule {
	clone := NewSchedule()
	for key, assignment := range s.cells {
		clone.cells[key] = assignment
	}
	for key := range s.locks {
		clone.locks[key] = struct{}{}
	}
	return clone
}

// CountSubject counts weekly occurrences of a subject for a class.
func (s *Schedule) CountSubject(class ClassRef, subject Subject) int {
	count := 0
	for key, assignment := range s.cells {
		if key.class == class && assignment.Subject == subject {
			count++
		}
	}
	return count
}

// DaySubjectCount counts occurrences of a subject for a class on one day.
func (s *Schedule) DaySubjectCount(class ClassRef, day int, subject Subject) int {
	count := 0
	for key, assignment := range s.cells {
		if key.class == class && key.slot.Day == day && assignment.Subject == subject {
			count++
		}
	}
	return count
}

// TeacherClassesAt returns the classes a teacher is assigned to at a slot.
func (s *Schedule) TeacherClassesAt(slot TimeSlot, teacher Teacher) []ClassRef {
	classes := []ClassRef{}
	for key, assignment := range s.cells {
		if key.slot == slot && assignment.Teacher == teacher && teacher != "" {
			classes = append(classes, key.class)
		}
	}
	slices.SortFunc(classes, compareClasses)
	return classes
}

// EmptySlots returns the slots where a class has no assignment.
func (s *Schedule) EmptySlots(class ClassRef) []TimeSlot {
	return lo.Filter(AllTimeSlots(), func(slot TimeSlot, _ int) bool {
		_, occupied := s.Get(slot, class)
		return !occupied
	})
}

func (s *Schedule) guard(slot TimeSlot, class ClassRef, subject Subject) error {
	if s.IsLocked(slot, class) {
		return &StructuralError{Slot: slot, Class: class, Reason: "cell is locked"}
	}
	if existing, ok := s.cells[cellKey{slot: slot, class: class}]; ok &&
		existing.Subject.IsProtected() && existing.Subject != subject {
		return &StructuralError{Slot: slot, Class: class, Reason: "protected subject cannot be replaced"}
	}
	return nil
}

// clusterPartiallyLocked reports whether any cluster member is individually
// locked at the slot, in which case unit-wide writes are suspended and only
// per-member writes apply.
func (s *Schedule) clusterPartiallyLocked(slot TimeSlot) bool {
	for _, member := range ClusterClasses() {
		if s.IsLocked(slot, member) {
			return true
		}
	}
	return false
}

func compareSlots(a, b TimeSlot) int {
	if a.Day != b.Day {
		return a.Day - b.Day
	}
	return a.Period - b.Period
}

func compareClasses(a, b ClassRef) int {
	if a.Grade != b.Grade {
		return a.Grade - b.Grade
	}
	return a.Number - b.Number
}
