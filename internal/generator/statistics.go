package generator

import "github.com/schoolgrid/timetable/pkg/model"

// Requirement is an outstanding (class, subject) weekly-hour demand.
type Requirement struct {
	Class   model.ClassRef
	Subject model.Subject
	Hours   int
}

// Statistics reports partial-success details of a pipeline run. Unplaced
// requirements and capability gaps are recorded here, never surfaced as
// errors.
type Statistics struct {
	Placed         int
	Unplaced       []Requirement
	Backtracks     int
	CapabilityGaps int
	BudgetExceeded bool
}
