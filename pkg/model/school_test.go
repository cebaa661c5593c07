package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSchoolRequiresClasses(t *testing.T) {
	_, err := NewSchool(SchoolConfig{})
	assert.ErrorIs(t, err, ErrNoClasses)
}

func TestSchoolCapabilityLookups(t *testing.T) {
	// Arrange
	class := ClassRef{Grade: 1, Number: 1}
	school, err := NewSchool(SchoolConfig{
		Classes:  []ClassRef{class},
		Teachers: []Teacher{"tanaka", "suzuki"},
		SubjectTeachers: map[Subject][]Teacher{
			SubjectMath:    {"tanaka"},
			SubjectEnglish: {"suzuki"},
		},
		TeacherAssignments: []TeacherAssignment{
			{Subject: SubjectMath, Class: class, Teacher: "tanaka"},
		},
		HoursOverrides: []HoursOverride{
			{Class: class, Subject: SubjectMath, Hours: 3},
			{Class: class, Subject: SubjectEnglish, Hours: 4},
			{Class: class, Subject: SubjectArt, Hours: 0},
		},
		Unavailabilities: []Unavailability{
			{Teacher: "tanaka", Slot: TimeSlot{Day: 1, Period: 1}},
		},
		OverlapExceptions: []OverlapException{
			{Teacher: "suzuki", Day: 3},
		},
	})
	assert.NoError(t, err)

	// Assert
	teacher, ok := school.AssignedTeacher(SubjectMath, class)
	assert.True(t, ok)
	assert.Equal(t, Teacher("tanaka"), teacher)
	_, ok = school.AssignedTeacher(SubjectEnglish, class)
	assert.False(t, ok)

	assert.Equal(t, []Teacher{"suzuki"}, school.SubjectTeachers(SubjectEnglish))
	assert.Equal(t, 3, school.StandardHours(class, SubjectMath))
	assert.Equal(t, 0, school.StandardHours(class, SubjectScience))

	// Zero-hour overrides are excluded from the requirement list
	assert.Equal(t, []Subject{SubjectEnglish, SubjectMath}, school.RequiredSubjects(class))

	assert.True(t, school.IsTeacherUnavailable(1, 1, "tanaka"))
	assert.False(t, school.IsTeacherUnavailable(1, 2, "tanaka"))

	assert.True(t, school.AllowsOverlap("suzuki", 3))
	assert.False(t, school.AllowsOverlap("suzuki", 4))
	assert.False(t, school.AllowsOverlap("tanaka", 3))
}

func TestExchangeParentPairing(t *testing.T) {
	parent, ok := ClassRef{Grade: 2, Number: 6}.Parent()
	assert.True(t, ok)
	assert.Equal(t, ClassRef{Grade: 2, Number: 3}, parent)

	_, ok = ClassRef{Grade: 2, Number: 1}.Parent()
	assert.False(t, ok)

	assert.True(t, ClassRef{Grade: 1, Number: 5}.IsClusterMember())
	assert.True(t, ClassRef{Grade: 3, Number: 7}.IsExchange())
	assert.True(t, ClassRef{Grade: 1, Number: 4}.IsRegular())
	assert.False(t, ClassRef{Grade: 4, Number: 1}.Valid())
	assert.False(t, ClassRef{Grade: 1, Number: 8}.Valid())
}
