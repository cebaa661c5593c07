package optimizer

import (
	"github.com/samber/lo"

	"github.com/schoolgrid/timetable/internal/constraint"
	"github.com/schoolgrid/timetable/pkg/model"
)

// candidatesFor dispatches to the kind-specific fixer and returns bounded
// swap-chain candidates for one violation. Candidates may still fail when
// applied; the caller scores survivors and picks the best.
func (o *Optimizer) candidatesFor(schedule *model.Schedule, school *model.School, violation constraint.Violation) []swapChain {
	var chains []swapChain
	switch violation.Kind {
	case constraint.ExchangeIncoherence:
		chains = o.exchangeCandidates(schedule, violation)
	case constraint.StandardHoursDeviation:
		chains = o.hoursCandidates(schedule, school, violation)
	case constraint.ClusterIncoherence:
		chains = o.movableCellCandidates(schedule, violation)
	default:
		chains = o.movableCellCandidates(schedule, violation)
	}

	if len(chains) > o.cfg.CandidateLimit {
		o.rng.Shuffle(len(chains), func(i, j int) { chains[i], chains[j] = chains[j], chains[i] })
		chains = chains[:o.cfg.CandidateLimit]
	}
	return chains
}

// movableCellCandidates relocates an offending assignment to a compatible
// empty slot or swaps it with another assignment of the same class.
func (o *Optimizer) movableCellCandidates(schedule *model.Schedule, violation constraint.Violation) []swapChain {
	chains := []swapChain{}
	for _, class := range violation.Classes {
		assignment, ok := schedule.Get(violation.Slot, class)
		if !ok || assignment.Subject.IsProtected() || schedule.IsLocked(violation.Slot, class) {
			continue
		}

		for _, target := range schedule.EmptySlots(class) {
			chains = append(chains, swapChain{moves: []move{{
				kind:  moveRelocate,
				class: class,
				from:  violation.Slot,
				to:    target,
			}}})
		}

		for _, placed := range schedule.All() {
			if placed.Assignment.Class != class || placed.Slot == violation.Slot {
				continue
			}
			if placed.Assignment.Subject.IsProtected() || schedule.IsLocked(placed.Slot, class) {
				continue
			}
			chains = append(chains, swapChain{moves: []move{{
				kind:  moveSwap,
				class: class,
				from:  violation.Slot,
				to:    placed.Slot,
			}}})
		}
	}
	return chains
}

// exchangeCandidates repairs a diverged exchange cell either by moving the
// exchange class's own assignment away or by mirroring the parent into it.
func (o *Optimizer) exchangeCandidates(schedule *model.Schedule, violation constraint.Violation) []swapChain {
	exchange, found := lo.Find(violation.Classes, func(class model.ClassRef) bool { return class.IsExchange() })
	if !found {
		return nil
	}

	chains := []swapChain{}
	if _, occupied := schedule.Get(violation.Slot, exchange); occupied && !schedule.IsLocked(violation.Slot, exchange) {
		singleton := constraint.Violation{Kind: violation.Kind, Slot: violation.Slot, Classes: []model.ClassRef{exchange}}
		chains = append(chains, o.movableCellCandidates(schedule, singleton)...)
	}
	if parent, ok := exchange.Parent(); ok {
		if _, occupied := schedule.Get(violation.Slot, parent); occupied {
			chains = append(chains, swapChain{moves: []move{{
				kind:  moveMirror,
				class: exchange,
				from:  violation.Slot,
			}}})
		}
	}
	return chains
}

// hoursCandidates tops up a deficit from empty slots or drops one surplus
// occurrence.
func (o *Optimizer) hoursCandidates(schedule *model.Schedule, school *model.School, violation constraint.Violation) []swapChain {
	if len(violation.Classes) == 0 {
		return nil
	}
	class := violation.Classes[0]
	target := school.StandardHours(class, violation.Subject)
	actual := schedule.CountSubject(class, violation.Subject)

	chains := []swapChain{}
	if actual < target {
		teacher, _ := school.AssignedTeacher(violation.Subject, class)
		if teacher == "" {
			if qualified := school.SubjectTeachers(violation.Subject); len(qualified) > 0 {
				teacher = qualified[0]
			}
		}
		for _, slot := range schedule.EmptySlots(class) {
			chains = append(chains, swapChain{moves: []move{{
				kind:       movePlace,
				class:      class,
				to:         slot,
				assignment: model.Assignment{Class: class, Subject: violation.Subject, Teacher: teacher},
			}}})
		}
		return chains
	}

	for _, placed := range schedule.All() {
		if placed.Assignment.Class != class || placed.Assignment.Subject != violation.Subject {
			continue
		}
		if schedule.IsLocked(placed.Slot, class) {
			continue
		}
		chains = append(chains, swapChain{moves: []move{{
			kind:  moveRemove,
			class: class,
			from:  placed.Slot,
		}}})
	}
	return chains
}
