package optimizer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/schoolgrid/timetable/pkg/model"
)

type moveKind int

const (
	// moveRelocate moves a class's assignment to an empty slot.
	moveRelocate moveKind = iota
	// moveSwap exchanges a class's assignments between two slots.
	moveSwap
	// moveMirror copies the parent class's content into an exchange cell.
	moveMirror
	// movePlace puts a fresh assignment into an empty slot.
	movePlace
	// moveRemove clears a cell.
	moveRemove
)

var moveKindNames = map[moveKind]string{
	moveRelocate: "relocate",
	moveSwap:     "swap",
	moveMirror:   "mirror",
	movePlace:    "place",
	moveRemove:   "remove",
}

func (k moveKind) String() string { return moveKindNames[k] }

// move is a single coordinated step of a swap chain.
type move struct {
	kind  moveKind
	class model.ClassRef
	from  model.TimeSlot
	to    model.TimeSlot
	// assignment is the payload for movePlace.
	assignment model.Assignment
}

// swapChain is an ordered sequence of moves repairing one violation.
type swapChain struct {
	moves []move
}

// apply executes the chain against the schedule, gating every write with the
// engine's pre-commit check. The caller passes a private copy; any error
// leaves that copy abandoned, so the chain is atomic from the canonical
// schedule's point of view. A write the check accepted but the grid rejected
// indicates check/validate drift and is logged at the highest severity.
func (o *Optimizer) apply(schedule *model.Schedule, school *model.School, chain swapChain) error {
	for _, step := range chain.moves {
		var err error
		switch step.kind {
		case moveRelocate:
			err = o.applyRelocate(schedule, school, step)
		case moveSwap:
			err = o.applySwap(schedule, school, step)
		case moveMirror:
			err = o.applyMirror(schedule, school, step)
		case movePlace:
			err = o.applyPlace(schedule, school, step)
		case moveRemove:
			err = schedule.Remove(step.from, step.class)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Optimizer) applyRelocate(schedule *model.Schedule, school *model.School, step move) error {
	assignment, ok := schedule.Get(step.from, step.class)
	if !ok {
		return fmt.Errorf("relocate source %v %v is empty", step.from, step.class)
	}
	if err := schedule.Remove(step.from, step.class); err != nil {
		return err
	}
	if !o.engine.Check(schedule, school, step.to, assignment) {
		return fmt.Errorf("relocate target %v rejected", step.to)
	}
	if err := schedule.Assign(step.to, assignment); err != nil {
		o.logger.Error("check accepted a write the grid rejected",
			zap.Stringer("slot", step.to),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (o *Optimizer) applySwap(schedule *model.Schedule, school *model.School, step move) error {
	first, okFirst := schedule.Get(step.from, step.class)
	second, okSecond := schedule.Get(step.to, step.class)
	if !okFirst || !okSecond {
		return fmt.Errorf("swap requires both %v and %v occupied for %v", step.from, step.to, step.class)
	}
	if err := schedule.Remove(step.from, step.class); err != nil {
		return err
	}
	if err := schedule.Remove(step.to, step.class); err != nil {
		return err
	}
	if !o.engine.Check(schedule, school, step.to, first) || !o.engine.Check(schedule, school, step.from, second) {
		return fmt.Errorf("swap between %v and %v rejected", step.from, step.to)
	}
	if err := schedule.Assign(step.to, first); err != nil {
		return err
	}
	if err := schedule.Assign(step.from, second); err != nil {
		return err
	}
	return nil
}

func (o *Optimizer) applyMirror(schedule *model.Schedule, school *model.School, step move) error {
	parent, ok := step.class.Parent()
	if !ok {
		return fmt.Errorf("%v is not an exchange class", step.class)
	}
	parentAssignment, occupied := schedule.Get(step.from, parent)
	if !occupied {
		return fmt.Errorf("mirror source %v %v is empty", step.from, parent)
	}
	if existing, exchangeOccupied := schedule.Get(step.from, step.class); exchangeOccupied {
		if existing.SameContent(parentAssignment) {
			if existing.Subject.IsProtected() && !schedule.IsLocked(step.from, step.class) {
				schedule.Lock(step.from, step.class)
			}
			return nil
		}
		if err := schedule.Remove(step.from, step.class); err != nil {
			return err
		}
	}
	mirror := model.Assignment{Class: step.class, Subject: parentAssignment.Subject, Teacher: parentAssignment.Teacher}
	if err := schedule.Assign(step.from, mirror); err != nil {
		return err
	}
	// Mirrored protected content is locked like any other protected cell.
	if mirror.Subject.IsProtected() {
		schedule.Lock(step.from, step.class)
	}
	return nil
}

func (o *Optimizer) applyPlace(schedule *model.Schedule, school *model.School, step move) error {
	if !o.engine.Check(schedule, school, step.to, step.assignment) {
		return fmt.Errorf("place target %v rejected", step.to)
	}
	return schedule.Assign(step.to, step.assignment)
}
