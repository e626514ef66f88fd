package solver

import (
	"context"
	"time"

	"github.com/eduscheduler/engine/internal/detector"
	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/variables"
	engerrors "github.com/eduscheduler/engine/pkg/errors"
)

// ProgressFunc reports placed/total progress during the solving phase.
// The engine adapts this into its ProgressSink callback.
type ProgressFunc func(placed, total int)

// Solve runs the greedy constructive algorithm: pre-place fixed-time
// sessions, then place the remainder in deterministic order,
// backjumping on dead ends. detCtx.Set must be an empty, solver-owned
// AssignmentSet; Solve mutates it in place and also returns it via
// Result.Set.
func Solve(ctx context.Context, sessions []domain.Session, detCtx detector.Context, cfg Config, onProgress ProgressFunc) (*Result, error) {
	start := time.Now()
	cfg = cfg.withDefaults()
	deadline := time.Time{}
	if cfg.TimeLimitSeconds > 0 {
		deadline = time.Now().Add(time.Duration(cfg.TimeLimitSeconds) * time.Second)
	}

	set := detCtx.Set
	if set == nil {
		set = domain.NewAssignmentSet()
		detCtx.Set = set
	}

	ordered := variables.Order(sessions)

	fixed, movable := splitFixed(ordered)
	if err := placeFixed(fixed, detCtx, set); err != nil {
		return nil, err
	}

	toPlace := append([]domain.Session(nil), movable...)
	history := make([]domain.SessionID, 0, len(toPlace))
	backjumps := make(map[domain.SessionID]int)
	var unplaced []domain.SessionID
	backjumpTotal := 0
	iterations := 0

	total := len(fixed) + len(movable)
	placedCount := len(fixed)
	report := func() {
		if onProgress != nil {
			onProgress(placedCount, total)
		}
	}
	report()

	i := 0
	for i < len(toPlace) {
		iterations++
		if iterations > cfg.MaxIterations {
			break
		}
		if ctx.Err() != nil {
			return &Result{Set: set, Unplaced: append(unplaced, remainingIDs(toPlace[i:])...), Cancelled: true}, nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return finalizeTimedOut(set, detCtx, append(unplaced, remainingIDs(toPlace[i:])...), backjumpTotal, iterations, start), nil
		}

		session := toPlace[i]
		best, feasible, allAttempts := bestCandidate(session, detCtx, cfg)
		if feasible {
			assignment := toAssignment(session, best)
			set.Put(assignment)
			history = append(history, session.ID)
			placedCount++
			i++
			report()
			continue
		}

		target, ok := backjumpTarget(session, history, allAttempts, detCtx.Snapshot.Conflict.PriorityOrder)
		if ok && backjumps[session.ID] < cfg.MaxBackjumpsPerSession {
			backjumps[session.ID]++
			backjumpTotal++
			set.Remove(target)
			history = removeID(history, target)
			targetSession, _ := detCtx.Arena.Get(target)
			placedCount--
			toPlace = insertBefore(toPlace, i, targetSession)
			continue
		}

		unplaced = append(unplaced, session.ID)
		i++
	}

	diagnostics := detector.ScoreSet(set, detCtx)
	teacherLoad, classDist, roomUtil := aggregateLoad(set)
	stats := Statistics{
		TotalScheduled:       set.Len(),
		Unplaced:             len(unplaced),
		CriticalConflicts:    diagnostics.CriticalCount(),
		SoftScore:            diagnostics.SoftScore(),
		BackjumpCount:        backjumpTotal,
		IterationsUsed:       iterations,
		DurationMs:           time.Since(start).Milliseconds(),
		PerTeacherLoad:       teacherLoad,
		PerClassDistribution: classDist,
		PerRoomUtilization:   roomUtil,
	}
	return &Result{Set: set, Unplaced: unplaced, Diagnostics: diagnostics, Stats: stats}, nil
}

func splitFixed(sessions []domain.Session) (fixed, movable []domain.Session) {
	for _, s := range sessions {
		if s.IsFixed {
			fixed = append(fixed, s)
		} else {
			movable = append(movable, s)
		}
	}
	return fixed, movable
}

// placeFixed pre-places every fixed-time session. Any critical conflict
// among them is a fatal "infeasible rules" error unless the rule
// snapshot's fixed-time conflict strategy is "warning", which demotes
// it to a diagnostic instead.
func placeFixed(fixed []domain.Session, detCtx detector.Context, set *domain.AssignmentSet) error {
	for _, s := range fixed {
		candidate := domain.Assignment{
			SessionID: s.ID,
			ClassID:   s.ClassID,
			CourseID:  s.CourseID,
			TeacherID: s.TeacherID,
			Slot:      s.FixedSlot,
			IsFixed:   true,
		}
		violations := detector.Check(candidate, detCtx)
		if violations.CriticalCount() > 0 && detCtx.Snapshot.FixedTimeConfig.ConflictStrategy != domain.ConflictWarning {
			return engerrors.Clone(engerrors.ErrConfig, "fixed-time sessions have mutually unresolvable conflicts")
		}
		set.Put(candidate)
	}
	return nil
}

type attempt struct {
	candidate  domain.RoomSlot
	violations domain.Violations
	score      float64
}

// bestCandidate iterates the session's domain in preference order and
// returns the first candidate with zero critical violations that
// minimizes the lookahead score.
func bestCandidate(session domain.Session, detCtx detector.Context, cfg Config) (domain.RoomSlot, bool, []attempt) {
	ordered := preferenceOrder(session, detCtx)
	var attempts []attempt
	var best *attempt
	for _, candidate := range ordered {
		a := domain.Assignment{
			SessionID:      session.ID,
			ClassID:        session.ClassID,
			CourseID:       session.CourseID,
			TeacherID:      session.TeacherID,
			Slot:           candidate,
			ContinuousSpan: session.ContinuousHours,
		}
		violations := detector.Check(a, detCtx)
		att := attempt{candidate: candidate, violations: violations}
		attempts = append(attempts, att)
		if violations.CriticalCount() > 0 {
			continue
		}
		att.score = violations.SoftScore() + cfg.LookaheadAlpha*float64(lockedOutCount(session, candidate, detCtx))
		if best == nil || att.score < best.score {
			chosen := att
			best = &chosen
		}
	}
	if best == nil {
		return domain.RoomSlot{}, false, attempts
	}
	return best.candidate, true, attempts
}

// preferenceOrder ranks a session's domain by preferredSlots first, then
// natural domain order (already time/room sorted by the builder).
func preferenceOrder(session domain.Session, detCtx detector.Context) []domain.RoomSlot {
	if len(session.PreferredSlots) == 0 {
		return session.Domain
	}
	preferred := make(map[domain.TimeSlot]bool, len(session.PreferredSlots))
	for _, s := range session.PreferredSlots {
		preferred[s] = true
	}
	var first, rest []domain.RoomSlot
	for _, d := range session.Domain {
		if preferred[d.Time] {
			first = append(first, d)
		} else {
			rest = append(rest, d)
		}
	}
	return append(first, rest...)
}

// lockedOutCount approximates how many other still-unplaced sessions
// would lose their entire domain if candidate were locked in: any other
// session sharing the same teacher, class, or candidate room at an
// overlapping time whose domain consists solely of conflicting entries.
func lockedOutCount(session domain.Session, candidate domain.RoomSlot, detCtx detector.Context) int {
	count := 0
	for _, other := range detCtx.Arena.All() {
		if other.ID == session.ID || other.IsFixed {
			continue
		}
		if _, placed := detCtx.Set.Get(other.ID); placed {
			continue
		}
		allConflict := true
		for _, d := range other.Domain {
			if !conflicts(session, candidate, other, d) {
				allConflict = false
				break
			}
		}
		if allConflict && len(other.Domain) > 0 {
			count++
		}
	}
	return count
}

func conflicts(session domain.Session, candidate domain.RoomSlot, other domain.Session, otherSlot domain.RoomSlot) bool {
	span := session.ContinuousHours
	if span < 1 {
		span = 1
	}
	otherSpan := other.ContinuousHours
	if otherSpan < 1 {
		otherSpan = 1
	}
	for _, p := range candidate.Time.Span(span) {
		for _, q := range otherSlot.Time.Span(otherSpan) {
			if p != q {
				continue
			}
			if session.TeacherID == other.TeacherID || session.ClassID == other.ClassID || candidate.Room == otherSlot.Room {
				return true
			}
		}
	}
	return false
}

// backjumpTarget picks the session to undo among every non-fixed
// session implicated by the candidate's critical violations. Among
// implicated sessions, priorityOrder breaks ties toward the dimension
// (teacher/room/time) the host cares about resolving first; it never
// changes whether a violation is hard, only which implicated session
// is rolled back first. With no priorityOrder the choice is purely the
// most-recently placed session.
func backjumpTarget(session domain.Session, history []domain.SessionID, attempts []attempt, priorityOrder []domain.PriorityDimension) (domain.SessionID, bool) {
	implicated := make(map[domain.SessionID]map[domain.ConstraintKind]bool)
	criticalAttempts := 0
	for _, a := range attempts {
		if a.violations.CriticalCount() == 0 {
			continue
		}
		criticalAttempts++
		for _, v := range a.violations {
			if !v.IsHard() {
				continue
			}
			for _, id := range v.InvolvedSessionIDs {
				if id == session.ID {
					continue
				}
				if implicated[id] == nil {
					implicated[id] = make(map[domain.ConstraintKind]bool)
				}
				implicated[id][v.Kind] = true
			}
		}
	}
	if criticalAttempts == 0 {
		return "", false
	}

	bestRank := len(priorityOrder) + 1
	for _, kinds := range implicated {
		if r := dimensionRank(kinds, priorityOrder); r < bestRank {
			bestRank = r
		}
	}

	for i := len(history) - 1; i >= 0; i-- {
		id := history[i]
		kinds, ok := implicated[id]
		if !ok {
			continue
		}
		if dimensionRank(kinds, priorityOrder) == bestRank {
			return id, true
		}
	}
	return "", false
}

// kindDimension maps a double-booking/unavailability constraint kind to
// the priority dimension it belongs to.
var kindDimension = map[domain.ConstraintKind]domain.PriorityDimension{
	domain.KindTeacherDoubleBooked: domain.PriorityTeacher,
	domain.KindTeacherUnavailable:  domain.PriorityTeacher,
	domain.KindRoomDoubleBooked:    domain.PriorityRoom,
	domain.KindRoomUnavailable:     domain.PriorityRoom,
	domain.KindClassDoubleBooked:   domain.PriorityTime,
	domain.KindForbiddenSlot:       domain.PriorityTime,
	domain.KindFixedTimeConflict:   domain.PriorityTime,
}

// dimensionRank returns the best (lowest) index in priorityOrder any of
// kinds maps to, or len(priorityOrder)+1 if none of them appear in it.
func dimensionRank(kinds map[domain.ConstraintKind]bool, priorityOrder []domain.PriorityDimension) int {
	best := len(priorityOrder) + 1
	for kind := range kinds {
		dim, ok := kindDimension[kind]
		if !ok {
			continue
		}
		for i, d := range priorityOrder {
			if d == dim && i < best {
				best = i
			}
		}
	}
	return best
}

func toAssignment(session domain.Session, slot domain.RoomSlot) domain.Assignment {
	return domain.Assignment{
		SessionID:      session.ID,
		ClassID:        session.ClassID,
		CourseID:       session.CourseID,
		TeacherID:      session.TeacherID,
		Slot:           slot,
		ContinuousSpan: session.ContinuousHours,
	}
}

func finalizeTimedOut(set *domain.AssignmentSet, detCtx detector.Context, unplaced []domain.SessionID, backjumps, iterations int, start time.Time) *Result {
	diagnostics := detector.ScoreSet(set, detCtx)
	teacherLoad, classDist, roomUtil := aggregateLoad(set)
	return &Result{
		Set:         set,
		Unplaced:    unplaced,
		Diagnostics: diagnostics,
		TimedOut:    true,
		Stats: Statistics{
			TotalScheduled:       set.Len(),
			Unplaced:             len(unplaced),
			CriticalConflicts:    diagnostics.CriticalCount(),
			SoftScore:            diagnostics.SoftScore(),
			BackjumpCount:        backjumps,
			IterationsUsed:       iterations,
			DurationMs:           time.Since(start).Milliseconds(),
			PerTeacherLoad:       teacherLoad,
			PerClassDistribution: classDist,
			PerRoomUtilization:   roomUtil,
		},
	}
}

func remainingIDs(sessions []domain.Session) []domain.SessionID {
	ids := make([]domain.SessionID, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids
}

func removeID(ids []domain.SessionID, target domain.SessionID) []domain.SessionID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func insertBefore(sessions []domain.Session, idx int, s domain.Session) []domain.Session {
	out := make([]domain.Session, 0, len(sessions)+1)
	out = append(out, sessions[:idx]...)
	out = append(out, s)
	out = append(out, sessions[idx:]...)
	return out
}
