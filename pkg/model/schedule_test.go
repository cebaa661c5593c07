package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignReplacesWithinCell(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	slot := TimeSlot{Day: 1, Period: 1}
	class := ClassRef{Grade: 1, Number: 1}

	// Act
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectMath, Teacher: "tanaka"}))
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectEnglish, Teacher: "suzuki"}))

	// Assert
	assignment, ok := schedule.Get(slot, class)
	assert.True(t, ok)
	assert.Equal(t, SubjectEnglish, assignment.Subject)
	assert.Equal(t, 1, schedule.Len())
}

func TestLockedCellRejectsWritesAndRemovals(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	slot := TimeSlot{Day: 2, Period: 3}
	class := ClassRef{Grade: 2, Number: 1}
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectMath}))
	schedule.Lock(slot, class)

	// Act
	assignErr := schedule.Assign(slot, Assignment{Class: class, Subject: SubjectEnglish})
	removeErr := schedule.Remove(slot, class)

	// Assert
	assert.True(t, IsStructural(assignErr))
	assert.True(t, IsStructural(removeErr))
	assignment, _ := schedule.Get(slot, class)
	assert.Equal(t, SubjectMath, assignment.Subject)

	// Unlocking restores mutability
	schedule.Unlock(slot, class)
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectEnglish}))
}

func TestProtectedSubjectCannotBeReplacedOrRemoved(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	slot := TimeSlot{Day: 1, Period: 6}
	class := ClassRef{Grade: 3, Number: 2}
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectAssembly}))

	// Act
	replaceErr := schedule.Assign(slot, Assignment{Class: class, Subject: SubjectMath})
	removeErr := schedule.Remove(slot, class)

	// Assert
	assert.True(t, IsStructural(replaceErr))
	assert.True(t, IsStructural(removeErr))

	// Rewriting with the same protected subject is allowed
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectAssembly, Teacher: "sato"}))
}

func TestClusterUnitWriteAndRemove(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	slot := TimeSlot{Day: 3, Period: 2}
	member := ClassRef{Grade: 2, Number: 5}

	// Act
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: member, Subject: SubjectMusic, Teacher: "yamada"}))

	// Assert
	assignments := schedule.ClusterAssignments(slot)
	assert.Len(t, assignments, 3)
	for _, assignment := range assignments {
		assert.Equal(t, SubjectMusic, assignment.Subject)
		assert.Equal(t, Teacher("yamada"), assignment.Teacher)
	}

	// Removing from one unlocked member clears the whole unit
	assert.NoError(t, schedule.Remove(slot, ClassRef{Grade: 1, Number: 5}))
	assert.Empty(t, schedule.ClusterAssignments(slot))
}

func TestClusterPartialLockSuspendsUnitWrite(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	slot := TimeSlot{Day: 4, Period: 1}
	schedule.Lock(slot, ClassRef{Grade: 3, Number: 5})

	// Act
	err := schedule.Assign(slot, Assignment{Class: ClassRef{Grade: 1, Number: 5}, Subject: SubjectArt})

	// Assert
	assert.NoError(t, err)
	_, firstOccupied := schedule.Get(slot, ClassRef{Grade: 1, Number: 5})
	_, secondOccupied := schedule.Get(slot, ClassRef{Grade: 2, Number: 5})
	assert.True(t, firstOccupied)
	assert.False(t, secondOccupied)
}

func TestCloneSharesNoState(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	slot := TimeSlot{Day: 1, Period: 1}
	class := ClassRef{Grade: 1, Number: 2}
	assert.NoError(t, schedule.Assign(slot, Assignment{Class: class, Subject: SubjectMath}))
	schedule.Lock(slot, class)

	// Act
	clone := schedule.Clone()
	clone.Unlock(slot, class)
	assert.NoError(t, clone.Assign(slot, Assignment{Class: class, Subject: SubjectEnglish}))

	// Assert
	original, _ := schedule.Get(slot, class)
	assert.Equal(t, SubjectMath, original.Subject)
	assert.True(t, schedule.IsLocked(slot, class))
}

func TestAllReturnsDeterministicOrder(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	assert.NoError(t, schedule.Assign(TimeSlot{Day: 5, Period: 6}, Assignment{Class: ClassRef{Grade: 3, Number: 4}, Subject: SubjectArt}))
	assert.NoError(t, schedule.Assign(TimeSlot{Day: 1, Period: 1}, Assignment{Class: ClassRef{Grade: 1, Number: 1}, Subject: SubjectMath}))
	assert.NoError(t, schedule.Assign(TimeSlot{Day: 1, Period: 1}, Assignment{Class: ClassRef{Grade: 1, Number: 2}, Subject: SubjectEnglish}))

	// Act
	placed := schedule.All()

	// Assert
	assert.Len(t, placed, 3)
	assert.Equal(t, TimeSlot{Day: 1, Period: 1}, placed[0].Slot)
	assert.Equal(t, ClassRef{Grade: 1, Number: 1}, placed[0].Assignment.Class)
	assert.Equal(t, ClassRef{Grade: 1, Number: 2}, placed[1].Assignment.Class)
	assert.Equal(t, TimeSlot{Day: 5, Period: 6}, placed[2].Slot)
}

func TestCountingHelpers(t *testing.T) {
	// Arrange
	schedule := NewSchedule()
	class := ClassRef{Grade: 1, Number: 3}
	assert.NoError(t, schedule.Assign(TimeSlot{Day: 1, Period: 1}, Assignment{Class: class, Subject: SubjectMath, Teacher: "tanaka"}))
	assert.NoError(t, schedule.Assign(TimeSlot{Day: 1, Period: 3}, Assignment{Class: class, Subject: SubjectMath, Teacher: "tanaka"}))
	assert.NoError(t, schedule.Assign(TimeSlot{Day: 2, Period: 1}, Assignment{Class: class, Subject: SubjectMath, Teacher: "tanaka"}))

	// Assert
	assert.Equal(t, 3, schedule.CountSubject(class, SubjectMath))
	assert.Equal(t, 2, schedule.DaySubjectCount(class, 1, SubjectMath))
	assert.Equal(t, []ClassRef{class}, schedule.TeacherClassesAt(TimeSlot{Day: 1, Period: 1}, "tanaka"))
	assert.Len(t, schedule.EmptySlots(class), len(AllTimeSlots())-3)
}
