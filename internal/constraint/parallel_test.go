package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/schoolgrid/timetable/pkg/model"
)

func TestParallelValidationAgreesWithSerial(t *testing.T) {
	// Arrange: a grid carrying several violation kinds across the week
	class := model.ClassRef{Grade: 1, Number: 1}
	school := newTestSchool(t, []model.HoursOverride{{Class: class, Subject: model.SubjectJapanese, Hours: 4}})
	schedule := model.NewSchedule()
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 1, Period: 1}, model.Assignment{Class: class, Subject: model.SubjectMath, Teacher: "tanaka"}))
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 1, Period: 1}, model.Assignment{Class: model.ClassRef{Grade: 1, Number: 2}, Subject: model.SubjectScience, Teacher: "tanaka"}))
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 2, Period: 1}, model.Assignment{Class: class, Subject: model.SubjectArt, Teacher: "yamada"}))
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 2, Period: 4}, model.Assignment{Class: class, Subject: model.SubjectArt, Teacher: "yamada"}))
	assert.NoError(t, schedule.Assign(model.TimeSlot{Day: 4, Period: 6}, model.Assignment{Class: model.ClassRef{Grade: 1, Number: 3}, Subject: model.SubjectAssembly}))

	engine := NewEngine(nil)
	serial := engine.Validate(schedule, school)
	assert.NotEmpty(t, serial)

	serialKeys := []string{}
	for _, violation := range serial {
		serialKeys = append(serialKeys, violation.Key())
	}

	// Act / Assert: every worker count reports the identical violation set
	for _, workers := range []int{1, 2, 3, 8, 64} {
		parallel := engine.ValidateParallel(schedule, school, workers)
		keys := []string{}
		for _, violation := range parallel {
			keys = append(keys, violation.Key())
		}
		assert.ElementsMatch(t, serialKeys, keys, "workers=%v", workers)
	}
}
