package detector

import (
	"fmt"

	"github.com/eduscheduler/engine/internal/domain"
)

// hardCheck is one entry of the list of hard checks: a function that
// evaluates one or more constraint kinds and sets the severity and
// weight of each violation it reports.
type hardCheck func(candidate domain.Assignment, ctx Context) []domain.Violation

var hardChecks = []hardCheck{
	checkTeacherDoubleBooking,
	checkClassDoubleBooking,
	checkRoomDoubleBooking,
	checkForbiddenAndUnavailable,
	checkRoomType,
	checkSubjectAndGrade,
	checkCapacity,
	checkContinuousSpanOverflow,
	checkFixedTimeConflict,
}

func checkTeacherDoubleBooking(candidate domain.Assignment, ctx Context) []domain.Violation {
	var out []domain.Violation
	for _, other := range ctx.Set.Other(candidate.SessionID) {
		if other.TeacherID != candidate.TeacherID {
			continue
		}
		if !candidate.Overlaps(other) {
			continue
		}
		severity, keep := conflictSeverity(domain.KindTeacherDoubleBooked, ctx)
		if !keep {
			continue
		}
		out = append(out, domain.Violation{
			Kind:               domain.KindTeacherDoubleBooked,
			Severity:           severity,
			InvolvedSessionIDs: []domain.SessionID{candidate.SessionID, other.SessionID},
			InvolvedSlot:       &candidate.Slot.Time,
			Message:            fmt.Sprintf("teacher %q is already booked at %s", candidate.TeacherID, candidate.Slot.Time),
			Suggestions:        []string{"choose a different time slot", "assign a different teacher"},
			Weight:             downgradeWeight(severity),
		})
	}
	return out
}

func checkClassDoubleBooking(candidate domain.Assignment, ctx Context) []domain.Violation {
	var out []domain.Violation
	for _, other := range ctx.Set.Other(candidate.SessionID) {
		if other.ClassID != candidate.ClassID {
			continue
		}
		if !candidate.Overlaps(other) {
			continue
		}
		severity, keep := conflictSeverity(domain.KindClassDoubleBooked, ctx)
		if !keep {
			continue
		}
		out = append(out, domain.Violation{
			Kind:               domain.KindClassDoubleBooked,
			Severity:           severity,
			InvolvedSessionIDs: []domain.SessionID{candidate.SessionID, other.SessionID},
			InvolvedSlot:       &candidate.Slot.Time,
			Message:            fmt.Sprintf("class %q already has a session at %s", candidate.ClassID, candidate.Slot.Time),
			Suggestions:        []string{"choose a different time slot"},
			Weight:             downgradeWeight(severity),
		})
	}
	return out
}

func checkRoomDoubleBooking(candidate domain.Assignment, ctx Context) []domain.Violation {
	var out []domain.Violation
	candidateCourse, _ := ctx.course(candidate.CourseID)
	for _, other := range ctx.Set.Other(candidate.SessionID) {
		if other.Slot.Room != candidate.Slot.Room {
			continue
		}
		if !candidate.Overlaps(other) {
			continue
		}
		if ctx.Snapshot.Room.AllowRoomSharing {
			otherCourse, _ := ctx.course(other.CourseID)
			if candidateCourse.Shareable && otherCourse.Shareable {
				continue
			}
		}
		severity, keep := conflictSeverity(domain.KindRoomDoubleBooked, ctx)
		if !keep {
			continue
		}
		out = append(out, domain.Violation{
			Kind:               domain.KindRoomDoubleBooked,
			Severity:           severity,
			InvolvedSessionIDs: []domain.SessionID{candidate.SessionID, other.SessionID},
			InvolvedSlot:       &candidate.Slot.Time,
			Message:            fmt.Sprintf("room %q is already in use at %s", candidate.Slot.Room, candidate.Slot.Time),
			Suggestions:        []string{"choose a different room", "mark both courses shareable"},
			Weight:             downgradeWeight(severity),
		})
	}
	return out
}

func checkForbiddenAndUnavailable(candidate domain.Assignment, ctx Context) []domain.Violation {
	var out []domain.Violation
	teacher, _ := ctx.teacher(candidate.TeacherID)
	room, _ := ctx.room(candidate.Slot.Room)
	teacherUnavailable := toSet(teacher.UnavailableSlots)
	roomUnavailable := toSet(room.UnavailableSlots)

	for _, slot := range candidate.Periods() {
		if ctx.Snapshot.IsForbidden(slot) {
			if v, ok := conflictViolation(domain.KindForbiddenSlot, candidate, &slot,
				fmt.Sprintf("%s is globally forbidden", slot), ctx); ok {
				out = append(out, v)
			}
		}
		if teacherUnavailable[slot] {
			if v, ok := conflictViolation(domain.KindTeacherUnavailable, candidate, &slot,
				fmt.Sprintf("teacher %q is unavailable at %s", candidate.TeacherID, slot), ctx); ok {
				out = append(out, v)
			}
		}
		if roomUnavailable[slot] {
			if v, ok := conflictViolation(domain.KindRoomUnavailable, candidate, &slot,
				fmt.Sprintf("room %q is unavailable at %s", candidate.Slot.Room, slot), ctx); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

func checkRoomType(candidate domain.Assignment, ctx Context) []domain.Violation {
	course, ok := ctx.course(candidate.CourseID)
	if !ok {
		return nil
	}
	room, ok := ctx.room(candidate.Slot.Room)
	if !ok || !room.HasType(course.RequiredRoomTypes) {
		return []domain.Violation{violation(domain.KindRoomTypeMismatch, candidate, nil,
			fmt.Sprintf("room %q does not satisfy required type for course %q", candidate.Slot.Room, candidate.CourseID))}
	}
	return nil
}

func checkSubjectAndGrade(candidate domain.Assignment, ctx Context) []domain.Violation {
	var out []domain.Violation
	teacher, ok := ctx.teacher(candidate.TeacherID)
	course, cok := ctx.course(candidate.CourseID)
	if ok && cok && course.Subject != "" && !hasString(teacher.Subjects, course.Subject) {
		out = append(out, violation(domain.KindSubjectMismatch, candidate, nil,
			fmt.Sprintf("teacher %q does not teach subject %q", candidate.TeacherID, course.Subject)))
	}
	if !ctx.Snapshot.Teacher.AllowCrossGradeTeaching && cok && len(course.RequiredGrades) > 0 {
		class, cl := ctx.class(candidate.ClassID)
		if cl && !hasInt(course.RequiredGrades, class.Grade) {
			out = append(out, violation(domain.KindSubjectMismatch, candidate, nil,
				fmt.Sprintf("class %q grade %d not permitted for course %q", candidate.ClassID, class.Grade, candidate.CourseID)))
		}
	}
	return out
}

func checkCapacity(candidate domain.Assignment, ctx Context) []domain.Violation {
	if !ctx.Snapshot.Room.RespectCapacityLimits {
		return nil
	}
	class, ok := ctx.class(candidate.ClassID)
	room, rok := ctx.room(candidate.Slot.Room)
	if !ok || !rok {
		return nil
	}
	if room.Capacity < class.StudentCount {
		return []domain.Violation{violation(domain.KindCapacityExceeded, candidate, nil,
			fmt.Sprintf("room %q capacity %d is below class size %d", room.ID, room.Capacity, class.StudentCount))}
	}
	return nil
}

func checkContinuousSpanOverflow(candidate domain.Assignment, ctx Context) []domain.Violation {
	n := candidate.ContinuousSpan
	if n < 1 {
		n = 1
	}
	if candidate.Slot.Time.Period+n-1 > ctx.Snapshot.DailyPeriods {
		return []domain.Violation{violation(domain.KindContinuousSpanOverflow, candidate, nil,
			fmt.Sprintf("continuous span of %d hours starting at period %d overflows the day", n, candidate.Slot.Time.Period))}
	}
	for _, slot := range candidate.Periods() {
		if ctx.Snapshot.IsForbidden(slot) {
			return []domain.Violation{violation(domain.KindContinuousSpanOverflow, candidate, &slot,
				fmt.Sprintf("continuous span collides with forbidden slot %s", slot))}
		}
	}
	return nil
}

func checkFixedTimeConflict(candidate domain.Assignment, ctx Context) []domain.Violation {
	if ctx.Snapshot.FixedTimeConfig.ConflictStrategy != domain.ConflictStrict {
		return nil
	}
	session, ok := ctx.session(candidate.SessionID)
	if !ok || session.IsFixed {
		return nil
	}
	for _, ft := range ctx.Snapshot.FixedTime {
		if ft.Course.ClassID != "" && ft.Course.ClassID != candidate.ClassID {
			continue
		}
		for _, slot := range candidate.Periods() {
			if slot != ft.Slot {
				continue
			}
			if v, ok := conflictViolation(domain.KindFixedTimeConflict, candidate, &slot,
				fmt.Sprintf("slot %s is reserved by fixed-time course %q", slot, ft.Course.Type), ctx); ok {
				return []domain.Violation{v}
			}
			return nil
		}
	}
	return nil
}

// conflictSeverity resolves kind's effective severity against the rule
// snapshot's per-kind conflict resolution strategy. The "ignore" strategy
// suppresses the violation outright (keep=false); "warn" downgrades it to
// a soft violation; anything else (including the zero value) is strict.
func conflictSeverity(kind domain.ConstraintKind, ctx Context) (severity domain.Severity, keep bool) {
	var strategy domain.KindStrategy
	switch kind {
	case domain.KindTeacherDoubleBooked, domain.KindTeacherUnavailable:
		strategy = ctx.Snapshot.Conflict.TeacherStrategy
	case domain.KindRoomDoubleBooked, domain.KindRoomUnavailable:
		strategy = ctx.Snapshot.Conflict.RoomStrategy
	case domain.KindClassDoubleBooked, domain.KindForbiddenSlot, domain.KindFixedTimeConflict:
		strategy = ctx.Snapshot.Conflict.TimeStrategy
	default:
		return domain.SeverityCritical, true
	}
	switch strategy {
	case domain.KindStrategyWarn:
		return domain.SeverityWarning, true
	case domain.KindStrategyIgnore:
		return "", false
	default:
		return domain.SeverityCritical, true
	}
}

// downgradeWeight gives a demoted-to-warning violation a soft score large
// enough that the optimizer still prioritizes fixing it over ordinary
// soft penalties, without it counting against CriticalCount.
func downgradeWeight(severity domain.Severity) float64 {
	if severity == domain.SeverityCritical {
		return 0
	}
	return 10
}

// conflictViolation builds a single-session violation for one of the
// double-booking/unavailability kinds, applying conflictSeverity. ok is
// false when the snapshot's strategy for kind is "ignore".
func conflictViolation(kind domain.ConstraintKind, candidate domain.Assignment, slot *domain.TimeSlot, message string, ctx Context) (v domain.Violation, ok bool) {
	severity, keep := conflictSeverity(kind, ctx)
	if !keep {
		return domain.Violation{}, false
	}
	return domain.Violation{
		Kind:               kind,
		Severity:           severity,
		InvolvedSessionIDs: []domain.SessionID{candidate.SessionID},
		InvolvedSlot:       slot,
		Message:            message,
		Weight:             downgradeWeight(severity),
	}, true
}

func violation(kind domain.ConstraintKind, candidate domain.Assignment, slot *domain.TimeSlot, message string) domain.Violation {
	return domain.Violation{
		Kind:               kind,
		Severity:           domain.SeverityCritical,
		InvolvedSessionIDs: []domain.SessionID{candidate.SessionID},
		InvolvedSlot:       slot,
		Message:            message,
	}
}

func toSet(slots []domain.TimeSlot) map[domain.TimeSlot]bool {
	set := make(map[domain.TimeSlot]bool, len(slots))
	for _, s := range slots {
		set[s] = true
	}
	return set
}

func hasString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func hasInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
