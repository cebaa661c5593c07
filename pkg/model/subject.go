package model

// Subject is one entry of the enumerated subject catalog.
type Subject string

const (
	SubjectJapanese      Subject = "japanese"
	SubjectMath          Subject = "math"
	SubjectEnglish       Subject = "english"
	SubjectScience       Subject = "science"
	SubjectSocialStudies Subject = "social_studies"
	SubjectMusic         Subject = "music"
	SubjectArt           Subject = "art"
	SubjectPhysEd        Subject = "phys_ed"
	SubjectIndustrial    Subject = "industrial_arts"
	SubjectHomeEc        Subject = "home_economics"

	// Protected subjects: immutable once placed except for a same-subject
	// teacher re-assignment. They enter the grid through the initial
	// schedule, never through generation.
	SubjectMoral         Subject = "moral_education"
	SubjectIntegrated    Subject = "integrated_studies"
	SubjectClassActivity Subject = "class_activity"
	SubjectAssembly      Subject = "assembly"
	SubjectSchoolEvent   Subject = "school_event"
	SubjectExam          Subject = "exam"
	SubjectNoClass       Subject = "no_class"

	// SubjectSelfReliance is legal only for exchange classes, and only while
	// the parent class holds an eligible subject.
	SubjectSelfReliance Subject = "self_reliance"
)

var protectedSubjects = map[Subject]struct{}{
	SubjectMoral:         {},
	SubjectIntegrated:    {},
	SubjectClassActivity: {},
	SubjectAssembly:      {},
	SubjectSchoolEvent:   {},
	SubjectExam:          {},
	SubjectNoClass:       {},
}

// selfRelianceParents are the subjects a parent class may hold while its
// exchange class runs the self-reliance activity.
var selfRelianceParents = map[Subject]struct{}{
	SubjectMath:    {},
	SubjectEnglish: {},
}

func (s Subject) IsProtected() bool {
	_, ok := protectedSubjects[s]
	return ok
}

func (s Subject) IsSelfReliance() bool {
	return s == SubjectSelfReliance
}

// EligibleSelfRelianceParent reports whether a parent class holding this
// subject permits the exchange class to run its self-reliance activity.
func (s Subject) EligibleSelfRelianceParent() bool {
	_, ok := selfRelianceParents[s]
	return ok
}

// UsesSharedFacility reports whether the subject occupies the capacity-1
// shared facility (the gym).
func (s Subject) UsesSharedFacility() bool {
	return s == SubjectPhysEd
}

// DefaultStandardHours is the built-in weekly-hour target table applied to
// classes without an explicit override.
func DefaultStandardHours() map[Subject]int {
	return map[Subject]int{
		SubjectJapanese:      4,
		SubjectMath:          3,
		SubjectEnglish:       4,
		SubjectScience:       3,
		SubjectSocialStudies: 3,
		SubjectMusic:         1,
		SubjectArt:           1,
		SubjectPhysEd:        3,
		SubjectIndustrial:    1,
		SubjectHomeEc:        1,
		SubjectMoral:         1,
		SubjectIntegrated:    2,
		SubjectClassActivity: 1,
	}
}
