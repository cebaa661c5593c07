package model

import (
	"errors"
	"slices"

	"github.com/samber/lo"
)

// ErrNoClasses rejects a capability configuration without any classes.
var ErrNoClasses = errors.New("school has no classes")

type subjectClassKey struct {
	subject Subject
	class   ClassRef
}

type classSubjectKey struct {
	class   ClassRef
	subject Subject
}

type unavailabilityKey struct {
	teacher Teacher
	slot    TimeSlot
}

// TeacherAssignment binds a subject taught in a class to its teacher.
type TeacherAssignment struct {
	Subject Subject
	Class   ClassRef
	Teacher Teacher
}

// HoursOverride replaces the default weekly-hour target of one subject for
// one class.
type HoursOverride struct {
	Class   ClassRef
	Subject Subject
	Hours   int
}

// Unavailability marks a teacher as unavailable at one slot.
type Unavailability struct {
	Teacher Teacher
	Slot    TimeSlot
}

// OverlapException is a data-driven carve-out allowing a named teacher an
// extra concurrent cluster-class overlap on a given day. Kept as
// configuration, never generalized into constraint logic.
type OverlapException struct {
	Teacher Teacher
	Day     int
}

// SchoolConfig is the raw material a loader hands to NewSchool.
type SchoolConfig struct {
	Classes            []ClassRef
	Teachers           []Teacher
	SubjectTeachers    map[Subject][]Teacher
	TeacherAssignments []TeacherAssignment
	HoursOverrides     []HoursOverride
	Unavailabilities   []Unavailability
	OverlapExceptions  []OverlapException
}

// School is the read-only capability model consulted during generation and
// optimization. No method mutates state.
type School struct {
	classes           []ClassRef
	teachers          []Teacher
	subjectTeachers   map[Subject][]Teacher
	assignedTeachers  map[subjectClassKey]Teacher
	standardHours     map[classSubjectKey]int
	unavailable       map[unavailabilityKey]struct{}
	overlapExceptions map[OverlapException]struct{}
}

func NewSchool(cfg SchoolConfig) (*School, error) {
	if len(cfg.Classes) == 0 {
		return nil, ErrNoClasses
	}

	school := &School{
		classes:           slices.Clone(cfg.Classes),
		teachers:          slices.Clone(cfg.Teachers),
		subjectTeachers:   make(map[Subject][]Teacher),
		assignedTeachers:  make(map[subjectClassKey]Teacher),
		standardHours:     make(map[classSubjectKey]int),
		unavailable:       make(map[unavailabilityKey]struct{}),
		overlapExceptions: make(map[OverlapException]struct{}),
	}

	for subject, teachers := range cfg.SubjectTeachers {
		school.subjectTeachers[subject] = slices.Clone(teachers)
	}
	for _, assignment := range cfg.TeacherAssignments {
		school.assignedTeachers[subjectClassKey{subject: assignment.Subject, class: assignment.Class}] = assignment.Teacher
	}
	for _, override := range cfg.HoursOverrides {
		school.standardHours[classSubjectKey{class: override.Class, subject: override.Subject}] = override.Hours
	}
	for _, unavailability := range cfg.Unavailabilities {
		school.unavailable[unavailabilityKey{teacher: unavailability.Teacher, slot: unavailability.Slot}] = struct{}{}
	}
	for _, exception := range cfg.OverlapExceptions {
		school.overlapExceptions[exception] = struct{}{}
	}

	return school, nil
}

// AssignedTeacher returns the teacher assigned to teach a subject in a class.
func (s *School) AssignedTeacher(subject Subject, class ClassRef) (Teacher, bool) {
	teacher, ok := s.assignedTeachers[subjectClassKey{subject: subject, class: class}]
	return teacher, ok
}

// SubjectTeachers returns every teacher qualified for a subject.
func (s *School) SubjectTeachers(subject Subject) []Teacher {
	return slices.Clone(s.subjectTeachers[subject])
}

// IsTeacherUnavailable reports whether a teacher cannot teach at (day, period).
func (s *School) IsTeacherUnavailable(day, period int, teacher Teacher) bool {
	_, ok := s.unavailable[unavailabilityKey{teacher: teacher, slot: TimeSlot{Day: day, Period: period}}]
	return ok
}

// RequiredSubjects returns the subjects with a weekly-hour target above zero
// for a class, in deterministic order.
func (s *School) RequiredSubjects(class ClassRef) []Subject {
	subjects := lo.Uniq(lo.FilterMap(lo.Keys(s.standardHours), func(key classSubjectKey, _ int) (Subject, bool) {
		return key.subject, key.class == class && s.standardHours[key] > 0
	}))
	slices.Sort(subjects)
	return subjects
}

// Classes returns the class roster.
func (s *School) Classes() []ClassRef {
	return slices.Clone(s.classes)
}

// Teachers returns the teacher roster.
func (s *School) Teachers() []Teacher {
	return slices.Clone(s.teachers)
}

// StandardHours returns the weekly-hour target of a subject for a class.
// Zero means the subject is not part of the class's curriculum.
func (s *School) StandardHours(class ClassRef, subject Subject) int {
	return s.standardHours[classSubjectKey{class: class, subject: subject}]
}

// AllowsOverlap reports whether a named-teacher overlap carve-out applies on
// the given day.
func (s *School) AllowsOverlap(teacher Teacher, day int) bool {
	_, ok := s.overlapExceptions[OverlapException{Teacher: teacher, Day: day}]
	return ok
}
