package constraint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/schoolgrid/timetable/pkg/model"
)

// ViolationKind is the closed set of detectable constraint breaches.
type ViolationKind int

const (
	TeacherConflict ViolationKind = iota
	TeacherUnavailable
	ProtectedSubjectTampering
	DailyDuplicateSubject
	SharedResourceOveruse
	ExchangeIncoherence
	ClusterIncoherence
	StandardHoursDeviation
)

var kindNames = map[ViolationKind]string{
	TeacherConflict:           "teacher_conflict",
	TeacherUnavailable:        "teacher_unavailable",
	ProtectedSubjectTampering: "protected_subject_tampering",
	DailyDuplicateSubject:     "daily_duplicate_subject",
	SharedResourceOveruse:     "shared_resource_overuse",
	ExchangeIncoherence:       "exchange_incoherence",
	ClusterIncoherence:        "cluster_incoherence",
	StandardHoursDeviation:    "standard_hours_deviation",
}

func (k ViolationKind) String() string {
	return kindNames[k]
}

// Priority ranks violations for repair ordering. Lower values repair first.
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Priority maps each kind to its rank. Grid-invariant breaches are critical;
// the weekly-hours deviation is the only soft kind.
func (k ViolationKind) Priority() Priority {
	switch k {
	case ProtectedSubjectTampering, ClusterIncoherence:
		return PriorityCritical
	case TeacherConflict, TeacherUnavailable, ExchangeIncoherence:
		return PriorityHigh
	case DailyDuplicateSubject, SharedResourceOveruse:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsHard reports whether the violation kind breaks a hard constraint.
func (k ViolationKind) IsHard() bool {
	return k != StandardHoursDeviation
}

// Violation is a typed record of one constraint breach.
type Violation struct {
	Kind    ViolationKind
	Slot    model.TimeSlot
	Classes []model.ClassRef
	Teacher model.Teacher
	Subject model.Subject
	Message string
}

// Key identifies a violation for deduplication by
// (kind, slot, class-set, subject). The subject keeps week-scoped kinds
// apart: hours deviations share the zero slot, so two subjects short for the
// same class are distinct violations, not duplicates.
func (v Violation) Key() string {
	classes := lo.Map(v.Classes, func(class model.ClassRef, _ int) string { return class.String() })
	slices.Sort(classes)
	return fmt.Sprintf("%v|%v|%v|%v", v.Kind, v.Slot, strings.Join(classes, ","), v.Subject)
}

func (v Violation) String() string {
	return fmt.Sprintf("[%v] %v at %v: %v", v.Kind.Priority(), v.Kind, v.Slot, v.Message)
}
