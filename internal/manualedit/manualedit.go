// Package manualedit implements the move/swap operations a host applies
// on behalf of a human editing a generated schedule. Every operation is
// evaluated against the same detector the solver and optimizer use, so
// an unforced manual edit never introduces a conflict the automatic
// passes would have rejected. A forced move or swap commits despite
// critical violations when the rule snapshot's AllowOverride is set.
package manualedit

import (
	"github.com/eduscheduler/engine/internal/detector"
	"github.com/eduscheduler/engine/internal/domain"
	engerrors "github.com/eduscheduler/engine/pkg/errors"
)

// MoveResult reports the outcome of a single-session move.
type MoveResult struct {
	Set        *domain.AssignmentSet
	Violations domain.Violations
}

// SwapResult reports the outcome of a two-session swap.
type SwapResult struct {
	Set        *domain.AssignmentSet
	Violations domain.Violations
}

// CheckConflicts evaluates candidate against the current set without
// mutating anything. The caller decides whether to proceed based on
// the returned violations.
func CheckConflicts(session domain.Session, slot domain.RoomSlot, detCtx detector.Context) domain.Violations {
	candidate := toCandidate(session, slot)
	return detector.Check(candidate, detCtx)
}

// AvailableSlot annotates one domain candidate with the violations it
// would produce and whether it can be moved to with zero criticals.
type AvailableSlot struct {
	Slot       domain.RoomSlot
	Violations domain.Violations
	CanMove    bool
}

// AvailableSlots evaluates every domain entry of session against the
// current set and returns one annotated entry per candidate, in domain
// order. Nothing is filtered out: a candidate with critical violations
// is still returned, with CanMove false, so a caller can render the full
// day x period x room grid.
func AvailableSlots(session domain.Session, detCtx detector.Context) []AvailableSlot {
	out := make([]AvailableSlot, 0, len(session.Domain))
	for _, slot := range session.Domain {
		violations := CheckConflicts(session, slot, detCtx)
		out = append(out, AvailableSlot{
			Slot:       slot,
			Violations: violations,
			CanMove:    violations.CriticalCount() == 0,
		})
	}
	return out
}

// MoveCourse relocates a single non-fixed session to a new slot. It
// rejects the move outright if the session is fixed, if
// the target slot is outside the session's domain, or if placing it
// there introduces a critical conflict against every other currently
// placed session and forceMove is false. On rejection the returned Set
// is the original, unmodified set and the violations explain why.
// forceMove only takes effect when the rule snapshot's conflictResolution
// allows it (AllowOverride); otherwise a critical conflict is rejected
// regardless of the caller's request.
func MoveCourse(set *domain.AssignmentSet, session domain.Session, target domain.RoomSlot, forceMove bool, detCtx detector.Context) (*MoveResult, error) {
	if session.IsFixed {
		return nil, engerrors.Clone(engerrors.ErrConflictRejection, "cannot move a fixed-time session")
	}
	if !session.InDomain(target) {
		return nil, engerrors.Clone(engerrors.ErrInfeasibleInput, "target slot is outside the session's domain")
	}

	trial := set.Clone()
	trial.Remove(session.ID)
	trialCtx := detCtx
	trialCtx.Set = trial

	candidate := toCandidate(session, target)
	violations := detector.Check(candidate, trialCtx)
	if violations.CriticalCount() > 0 && !canOverride(forceMove, detCtx) {
		return &MoveResult{Set: set, Violations: violations}, engerrors.Clone(engerrors.ErrConflictRejection, "move introduces a critical conflict")
	}

	trial.Put(candidate)
	return &MoveResult{Set: trial, Violations: violations}, nil
}

// canOverride reports whether a force flag takes effect: the caller must
// both request it and the rule snapshot must permit overrides.
func canOverride(forced bool, detCtx detector.Context) bool {
	return forced && detCtx.Snapshot.Conflict.AllowOverride
}

// SwapCourses exchanges the slots of two non-fixed sessions atomically:
// either both moves apply or neither does. Each side is checked
// against the set with both sessions excluded, so neither session's
// own prior placement counts as a conflict against the other. When
// swapRooms is false each session keeps its own room and only the time
// slots trade; when true the full (time, room) pair trades. forceSwap
// is subject to the same AllowOverride gate as MoveCourse's forceMove.
func SwapCourses(set *domain.AssignmentSet, a, b domain.Session, swapRooms, forceSwap bool, detCtx detector.Context) (*SwapResult, error) {
	if a.IsFixed || b.IsFixed {
		return nil, engerrors.Clone(engerrors.ErrConflictRejection, "cannot swap a fixed-time session")
	}
	assignA, okA := set.Get(a.ID)
	assignB, okB := set.Get(b.ID)
	if !okA || !okB {
		return nil, engerrors.Clone(engerrors.ErrInfeasibleInput, "both sessions must already be placed to swap")
	}

	targetA, targetB := assignB.Slot, assignA.Slot
	if !swapRooms {
		targetA = domain.RoomSlot{Time: assignB.Slot.Time, Room: assignA.Slot.Room}
		targetB = domain.RoomSlot{Time: assignA.Slot.Time, Room: assignB.Slot.Room}
	}
	if !a.InDomain(targetA) || !b.InDomain(targetB) {
		return nil, engerrors.Clone(engerrors.ErrInfeasibleInput, "swap target is outside a session's domain")
	}

	trial := set.Clone()
	trial.Remove(a.ID)
	trial.Remove(b.ID)
	trialCtx := detCtx
	trialCtx.Set = trial

	candidateA := toCandidate(a, targetA)
	candidateB := toCandidate(b, targetB)

	violationsA := detector.Check(candidateA, trialCtx)
	trial.Put(candidateA)
	violationsB := detector.Check(candidateB, trialCtx)

	all := append(domain.Violations{}, violationsA...)
	all = append(all, violationsB...)
	if all.CriticalCount() > 0 && !canOverride(forceSwap, detCtx) {
		return &SwapResult{Set: set, Violations: all}, engerrors.Clone(engerrors.ErrConflictRejection, "swap introduces a critical conflict")
	}

	trial.Put(candidateB)
	return &SwapResult{Set: trial, Violations: all}, nil
}

func toCandidate(session domain.Session, slot domain.RoomSlot) domain.Assignment {
	return domain.Assignment{
		SessionID:      session.ID,
		ClassID:        session.ClassID,
		CourseID:       session.CourseID,
		TeacherID:      session.TeacherID,
		Slot:           slot,
		ContinuousSpan: session.ContinuousHours,
	}
}
