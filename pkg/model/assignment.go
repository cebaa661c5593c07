package model

import "fmt"

// Teacher identifies a teacher by name. The empty value means no teacher,
// which is permitted for some protected subjects.
type Teacher string

// Assignment binds a class to a subject and an optional teacher.
type Assignment struct {
	Class   ClassRef
	Subject Subject
	Teacher Teacher
}

func (a Assignment) HasTeacher() bool {
	return a.Teacher != ""
}

// SameContent reports whether two assignments carry the same subject and
// teacher, ignoring the class they are bound to.
func (a Assignment) SameContent(other Assignment) bool {
	return a.Subject == other.Subject && a.Teacher == other.Teacher
}

func (a Assignment) String() string {
	if a.HasTeacher() {
		return fmt.Sprintf("%v:%v(%v)", a.Class, a.Subject, a.Teacher)
	}
	return fmt.Sprintf("%v:%v", a.Class, a.Subject)
}

// PlacedAssignment is an assignment together with its grid coordinate.
type PlacedAssignment struct {
	Slot       TimeSlot
	Assignment Assignment
}
