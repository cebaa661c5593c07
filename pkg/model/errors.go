package model

import (
	"errors"
	"fmt"
)

// StructuralError rejects an attempted mutation of a locked or protected
// cell. Callers are expected to catch it and move on to the next candidate.
type StructuralError struct {
	Slot   TimeSlot
	Class  ClassRef
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at %v %v: %v", e.Slot, e.Class, e.Reason)
}

// IsStructural reports whether err is a StructuralError.
func IsStructural(err error) bool {
	var structural *StructuralError
	return errors.As(err, &structural)
}
