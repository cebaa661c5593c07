package generator

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"github.com/schoolgrid/timetable/internal/constraint"
	"github.com/schoolgrid/timetable/pkg/model"
)

func newPipelineSchool(t *testing.T, cfg model.SchoolConfig) *model.School {
	t.Helper()
	school, err := model.NewSchool(cfg)
	assert.NoError(t, err)
	return school
}

func newTestPipeline(phases []Phase) *Pipeline {
	cfg := DefaultConfiguration()
	if phases != nil {
		cfg.Phases = phases
	}
	return NewPipeline(constraint.NewEngine(nil), cfg, nil)
}

func TestRunRejectsEmptySchool(t *testing.T) {
	pipeline := newTestPipeline(nil)

	_, err := pipeline.Run(context.Background(), nil, model.NewSchedule())
	assert.ErrorIs(t, err, model.ErrNoClasses)
}

func TestRunHonorsExpiredBudget(t *testing.T) {
	// Arrange
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes: []model.ClassRef{{Grade: 1, Number: 1}},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	stats, err := newTestPipeline(nil).Run(ctx, school, model.NewSchedule())

	// Assert: budget expiry is a normal termination, not an error
	assert.NoError(t, err)
	assert.True(t, stats.BudgetExceeded)
	assert.Equal(t, 0, stats.Placed)
}

func TestProtectPhaseLocksProtectedCells(t *testing.T) {
	// Arrange
	class := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{Classes: []model.ClassRef{class}})
	schedule := model.NewSchedule()
	slot := model.TimeSlot{Day: 1, Period: 6}
	assert.NoError(t, schedule.Assign(slot, model.Assignment{Class: class, Subject: model.SubjectSchoolEvent}))

	// Act
	_, err := newTestPipeline([]Phase{PhaseProtect}).Run(context.Background(), school, schedule)

	// Assert
	assert.NoError(t, err)
	assert.True(t, schedule.IsLocked(slot, class))
	assert.True(t, model.IsStructural(schedule.Assign(slot, model.Assignment{Class: class, Subject: model.SubjectMath})))
}

func TestSelfReliancePhaseMeetsQuota(t *testing.T) {
	// Arrange
	exchange := model.ClassRef{Grade: 1, Number: 6}
	parent := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes:  []model.ClassRef{parent, exchange},
		Teachers: []model.Teacher{"tanaka", "suzuki", "sato"},
		SubjectTeachers: map[model.Subject][]model.Teacher{
			model.SubjectMath:         {"tanaka"},
			model.SubjectEnglish:      {"suzuki"},
			model.SubjectSelfReliance: {"sato"},
		},
		HoursOverrides: []model.HoursOverride{
			{Class: exchange, Subject: model.SubjectSelfReliance, Hours: 2},
			{Class: parent, Subject: model.SubjectMath, Hours: 3},
			{Class: parent, Subject: model.SubjectEnglish, Hours: 4},
		},
	})
	schedule := model.NewSchedule()

	// Act
	_, err := newTestPipeline([]Phase{PhaseSelfReliance}).Run(context.Background(), school, schedule)

	// Assert: quota met, and each activity sits over an eligible parent subject
	assert.NoError(t, err)
	assert.Equal(t, 2, schedule.CountSubject(exchange, model.SubjectSelfReliance))
	for _, placed := range schedule.All() {
		if placed.Assignment.Subject != model.SubjectSelfReliance {
			continue
		}
		parentAssignment, occupied := schedule.Get(placed.Slot, parent)
		assert.True(t, occupied)
		assert.True(t, parentAssignment.Subject.EligibleSelfRelianceParent())
	}
}

func TestSelfRelianceLandsOnlyOnEligibleParentSlots(t *testing.T) {
	// Arrange: the parent week is fully pre-placed and eligible in exactly
	// two slots
	exchange := model.ClassRef{Grade: 1, Number: 6}
	parent := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes:  []model.ClassRef{parent, exchange},
		Teachers: []model.Teacher{"sato"},
		SubjectTeachers: map[model.Subject][]model.Teacher{
			model.SubjectSelfReliance: {"sato"},
		},
		HoursOverrides: []model.HoursOverride{
			{Class: exchange, Subject: model.SubjectSelfReliance, Hours: 2},
		},
	})
	eligible := []model.TimeSlot{{Day: 2, Period: 3}, {Day: 4, Period: 5}}
	schedule := model.NewSchedule()
	for _, slot := range model.AllTimeSlots() {
		subject := model.SubjectScience
		if lo.Contains(eligible, slot) {
			subject = model.SubjectMath
		}
		assert.NoError(t, schedule.Assign(slot, model.Assignment{Class: parent, Subject: subject}))
	}

	// Act
	_, err := newTestPipeline([]Phase{PhaseSelfReliance}).Run(context.Background(), school, schedule)

	// Assert: the activity fills exactly the eligible slots
	assert.NoError(t, err)
	assert.Equal(t, 2, schedule.CountSubject(exchange, model.SubjectSelfReliance))
	for _, slot := range eligible {
		assignment, ok := schedule.Get(slot, exchange)
		assert.True(t, ok)
		assert.Equal(t, model.SubjectSelfReliance, assignment.Subject)
	}
}

func TestSelfRelianceSeedUndoneWhenActivityRejected(t *testing.T) {
	// Arrange: the activity teacher is unavailable in the first slot, so the
	// opportunistic parent seed there must not survive
	exchange := model.ClassRef{Grade: 1, Number: 6}
	parent := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes:  []model.ClassRef{parent, exchange},
		Teachers: []model.Teacher{"tanaka", "sato"},
		SubjectTeachers: map[model.Subject][]model.Teacher{
			model.SubjectMath:         {"tanaka"},
			model.SubjectSelfReliance: {"sato"},
		},
		HoursOverrides: []model.HoursOverride{
			{Class: exchange, Subject: model.SubjectSelfReliance, Hours: 1},
			{Class: parent, Subject: model.SubjectMath, Hours: 3},
		},
		Unavailabilities: []model.Unavailability{
			{Teacher: "sato", Slot: model.TimeSlot{Day: 1, Period: 1}},
		},
	})
	schedule := model.NewSchedule()

	// Act
	_, err := newTestPipeline([]Phase{PhaseSelfReliance}).Run(context.Background(), school, schedule)

	// Assert
	assert.NoError(t, err)
	_, occupied := schedule.Get(model.TimeSlot{Day: 1, Period: 1}, parent)
	assert.False(t, occupied)
	assert.Equal(t, 1, schedule.CountSubject(exchange, model.SubjectSelfReliance))

	// Every surviving parent seed sits under a placed activity
	for _, placed := range schedule.All() {
		if placed.Assignment.Class != parent {
			continue
		}
		activity, ok := schedule.Get(placed.Slot, exchange)
		assert.True(t, ok)
		assert.Equal(t, model.SubjectSelfReliance, activity.Subject)
	}
}

func TestClusterSyncPhaseKeepsMembersCoherent(t *testing.T) {
	// Arrange
	members := model.ClusterClasses()
	cfg := model.SchoolConfig{
		Classes:  members[:],
		Teachers: []model.Teacher{"yamada"},
		SubjectTeachers: map[model.Subject][]model.Teacher{
			model.SubjectMusic: {"yamada"},
			model.SubjectArt:   {"yamada"},
		},
	}
	for _, member := range members {
		cfg.HoursOverrides = append(cfg.HoursOverrides,
			model.HoursOverride{Class: member, Subject: model.SubjectMusic, Hours: 1},
			model.HoursOverride{Class: member, Subject: model.SubjectArt, Hours: 1},
		)
	}
	school := newPipelineSchool(t, cfg)
	schedule := model.NewSchedule()

	// Act
	_, err := newTestPipeline([]Phase{PhaseClusterSync}).Run(context.Background(), school, schedule)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, schedule.CountSubject(members[0], model.SubjectMusic))
	assert.Equal(t, 1, schedule.CountSubject(members[0], model.SubjectArt))
	for _, slot := range model.AllTimeSlots() {
		assignments := schedule.ClusterAssignments(slot)
		if len(assignments) == 0 {
			continue
		}
		assert.Len(t, assignments, 3)
		assert.True(t, assignments[1].SameContent(assignments[0]))
		assert.True(t, assignments[2].SameContent(assignments[0]))
	}
}

func TestExchangePropagationMirrorsParent(t *testing.T) {
	// Arrange
	exchange := model.ClassRef{Grade: 1, Number: 6}
	parent := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes:  []model.ClassRef{parent, exchange},
		Teachers: []model.Teacher{"tanaka"},
	})
	schedule := model.NewSchedule()
	mirrored := model.TimeSlot{Day: 1, Period: 1}
	skipped := model.TimeSlot{Day: 1, Period: 2}
	assert.NoError(t, schedule.Assign(mirrored, model.Assignment{Class: parent, Subject: model.SubjectMath, Teacher: "tanaka"}))
	assert.NoError(t, schedule.Assign(skipped, model.Assignment{Class: parent, Subject: model.SubjectMoral}))
	assert.NoError(t, schedule.Assign(skipped, model.Assignment{Class: exchange, Subject: model.SubjectSelfReliance}))

	// Act
	_, err := newTestPipeline([]Phase{PhaseExchangePropagation}).Run(context.Background(), school, schedule)

	// Assert: regular content mirrored, self-reliance left alone
	assert.NoError(t, err)
	assignment, ok := schedule.Get(mirrored, exchange)
	assert.True(t, ok)
	assert.Equal(t, model.SubjectMath, assignment.Subject)
	assert.Equal(t, model.Teacher("tanaka"), assignment.Teacher)

	untouched, _ := schedule.Get(skipped, exchange)
	assert.Equal(t, model.SubjectSelfReliance, untouched.Subject)
}

func TestExchangePropagationMirrorsProtectedParentAndLocks(t *testing.T) {
	// Arrange: a protected parent cell with an empty exchange cell
	exchange := model.ClassRef{Grade: 1, Number: 6}
	parent := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes: []model.ClassRef{parent, exchange},
	})
	schedule := model.NewSchedule()
	slot := model.TimeSlot{Day: 1, Period: 6}
	assert.NoError(t, schedule.Assign(slot, model.Assignment{Class: parent, Subject: model.SubjectAssembly}))

	// Act
	_, err := newTestPipeline([]Phase{PhaseProtect, PhaseExchangePropagation}).Run(context.Background(), school, schedule)

	// Assert: the protected content is mirrored, locked, and clean
	assert.NoError(t, err)
	assignment, ok := schedule.Get(slot, exchange)
	assert.True(t, ok)
	assert.Equal(t, model.SubjectAssembly, assignment.Subject)
	assert.True(t, schedule.IsLocked(slot, exchange))
	assert.Empty(t, constraint.NewEngine(nil).Validate(schedule, school))
}

func TestBacktrackingFillMeetsRequirements(t *testing.T) {
	// Arrange
	first := model.ClassRef{Grade: 1, Number: 1}
	second := model.ClassRef{Grade: 1, Number: 2}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes:  []model.ClassRef{first, second},
		Teachers: []model.Teacher{"tanaka", "suzuki"},
		SubjectTeachers: map[model.Subject][]model.Teacher{
			model.SubjectMath:    {"tanaka"},
			model.SubjectEnglish: {"suzuki"},
		},
		HoursOverrides: []model.HoursOverride{
			{Class: first, Subject: model.SubjectMath, Hours: 3},
			{Class: first, Subject: model.SubjectEnglish, Hours: 4},
			{Class: second, Subject: model.SubjectMath, Hours: 3},
			{Class: second, Subject: model.SubjectEnglish, Hours: 4},
		},
	})
	schedule := model.NewSchedule()
	engine := constraint.NewEngine(nil)

	// Act
	stats, err := NewPipeline(engine, DefaultConfiguration(), nil).Run(context.Background(), school, schedule)

	// Assert
	assert.NoError(t, err)
	assert.Empty(t, stats.Unplaced)
	assert.Equal(t, 3, schedule.CountSubject(first, model.SubjectMath))
	assert.Equal(t, 4, schedule.CountSubject(first, model.SubjectEnglish))
	assert.Equal(t, 3, schedule.CountSubject(second, model.SubjectMath))
	assert.Equal(t, 4, schedule.CountSubject(second, model.SubjectEnglish))
	assert.Empty(t, engine.Validate(schedule, school))
}

func TestCapabilityGapRecordedNotFatal(t *testing.T) {
	// Arrange: science is required but nobody teaches it
	class := model.ClassRef{Grade: 1, Number: 1}
	school := newPipelineSchool(t, model.SchoolConfig{
		Classes:  []model.ClassRef{class},
		Teachers: []model.Teacher{"tanaka"},
		SubjectTeachers: map[model.Subject][]model.Teacher{
			model.SubjectMath: {"tanaka"},
		},
		HoursOverrides: []model.HoursOverride{
			{Class: class, Subject: model.SubjectMath, Hours: 2},
			{Class: class, Subject: model.SubjectScience, Hours: 3},
		},
	})
	schedule := model.NewSchedule()

	// Act
	stats, err := newTestPipeline(nil).Run(context.Background(), school, schedule)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.CapabilityGaps)
	assert.Contains(t, stats.Unplaced, Requirement{Class: class, Subject: model.SubjectScience, Hours: 3})
	assert.Equal(t, 2, schedule.CountSubject(class, model.SubjectMath))
}

func TestCandidateSlotsPreferLightDays(t *testing.T) {
	// Arrange
	class := model.ClassRef{Grade: 1, Number: 1}
	schedule := model.NewSchedule()
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 1, Period: 1}, model.Assignment{Class: class, Subject: model.SubjectMath}))
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 1, Period: 2}, model.Assignment{Class: class, Subject: model.SubjectArt}))
	pipeline := newTestPipeline(nil)

	// Act
	slots := pipeline.candidateSlots(schedule, class)

	// Assert: day 2 slots come before the loaded day 1
	assert.Equal(t, model.TimeSlot{Day: 2, Period: 1}, slots[0])
	assert.Equal(t, 2, slots[0].Day)
}
