package detector

import (
	"fmt"
	"sort"

	"github.com/eduscheduler/engine/internal/domain"
)

// softCheck is one entry of the soft half of the constraint table.
type softCheck func(candidate domain.Assignment, ctx Context) []domain.Violation

var softChecks = []softCheck{
	checkTeacherDailyHours,
	checkTeacherContinuousHours,
	checkTeacherRest,
	checkFridayAfternoon,
	checkFirstLastPeriod,
	checkLabWindow,
	checkCoreSubjectRules,
}

func teacherAssignmentsOnDay(candidate domain.Assignment, ctx Context, day int) []domain.Assignment {
	var out []domain.Assignment
	for _, other := range ctx.Set.Other(candidate.SessionID) {
		if other.TeacherID == candidate.TeacherID && other.Slot.Time.DayOfWeek == day {
			out = append(out, other)
		}
	}
	if candidate.Slot.Time.DayOfWeek == day {
		out = append(out, candidate)
	}
	return out
}

func checkTeacherDailyHours(candidate domain.Assignment, ctx Context) []domain.Violation {
	if ctx.Snapshot.Teacher.MaxDailyHours <= 0 {
		return nil
	}
	day := candidate.Slot.Time.DayOfWeek
	total := 0
	for _, a := range teacherAssignmentsOnDay(candidate, ctx, day) {
		span := a.ContinuousSpan
		if span < 1 {
			span = 1
		}
		total += span
	}
	if total > ctx.Snapshot.Teacher.MaxDailyHours {
		return []domain.Violation{softViolation(domain.KindTeacherDailyHours, candidate, 1,
			fmt.Sprintf("teacher %q has %d hours on day %d, exceeding maxDailyHours %d", candidate.TeacherID, total, day, ctx.Snapshot.Teacher.MaxDailyHours))}
	}
	return nil
}

func checkTeacherContinuousHours(candidate domain.Assignment, ctx Context) []domain.Violation {
	max := ctx.Snapshot.Teacher.MaxContinuousHours
	if max <= 0 {
		return nil
	}
	same := teacherAssignmentsOnDay(candidate, ctx, candidate.Slot.Time.DayOfWeek)
	sort.Slice(same, func(i, j int) bool { return same[i].Slot.Time.Period < same[j].Slot.Time.Period })

	run := 0
	prevEnd := -1
	var violations []domain.Violation
	for _, a := range same {
		span := a.ContinuousSpan
		if span < 1 {
			span = 1
		}
		start := a.Slot.Time.Period
		if prevEnd == start-1 {
			run += span
		} else {
			run = span
		}
		prevEnd = start + span - 1
		if run > max {
			violations = append(violations, softViolation(domain.KindTeacherContinuousHours, candidate, 1,
				fmt.Sprintf("teacher %q has a %d-hour continuous run, exceeding maxContinuousHours %d", candidate.TeacherID, run, max)))
		}
	}
	return violations
}

func checkTeacherRest(candidate domain.Assignment, ctx Context) []domain.Violation {
	minRest := ctx.Snapshot.Teacher.MinRestBetweenCourses
	if minRest <= 0 {
		return nil
	}
	day := candidate.Slot.Time.DayOfWeek
	for _, a := range ctx.Set.Other(candidate.SessionID) {
		if a.TeacherID != candidate.TeacherID || a.Slot.Time.DayOfWeek != day {
			continue
		}
		gap := periodGap(candidate, a)
		if gap >= 0 && gap < minRest {
			return []domain.Violation{softViolation(domain.KindTeacherRestViolation, candidate, 1,
				fmt.Sprintf("teacher %q has only %d periods of rest between courses on day %d", candidate.TeacherID, gap, day))}
		}
	}
	return nil
}

func periodGap(a, b domain.Assignment) int {
	aSpan := a.ContinuousSpan
	if aSpan < 1 {
		aSpan = 1
	}
	bSpan := b.ContinuousSpan
	if bSpan < 1 {
		bSpan = 1
	}
	aEnd := a.Slot.Time.Period + aSpan - 1
	bEnd := b.Slot.Time.Period + bSpan - 1
	if a.Slot.Time.Period > bEnd {
		return a.Slot.Time.Period - bEnd - 1
	}
	if b.Slot.Time.Period > aEnd {
		return b.Slot.Time.Period - aEnd - 1
	}
	return -1 // overlapping, handled by hard checks
}

func checkFridayAfternoon(candidate domain.Assignment, ctx Context) []domain.Violation {
	if !ctx.Snapshot.Teacher.AvoidFridayAfternoon {
		return nil
	}
	if candidate.Slot.Time.DayOfWeek != 5 || !ctx.Snapshot.IsAfternoon(candidate.Slot.Time.Period) {
		return nil
	}
	return []domain.Violation{softViolation(domain.KindFridayAfternoon, candidate, 1,
		fmt.Sprintf("session placed on Friday afternoon at %s", candidate.Slot.Time))}
}

func checkFirstLastPeriod(candidate domain.Assignment, ctx Context) []domain.Violation {
	if !ctx.Snapshot.Course.AvoidFirstLastPeriod {
		return nil
	}
	if candidate.Slot.Time.Period == 1 || candidate.Slot.Time.Period == ctx.Snapshot.DailyPeriods {
		return []domain.Violation{softViolation(domain.KindFirstLastPeriod, candidate, 1,
			fmt.Sprintf("session placed at the first/last period of the day (%s)", candidate.Slot.Time))}
	}
	return nil
}

func checkLabWindow(candidate domain.Assignment, ctx Context) []domain.Violation {
	course, ok := ctx.course(candidate.CourseID)
	if !ok || !course.IsLabCourse {
		return nil
	}
	switch ctx.Snapshot.Course.LabCoursePreference {
	case domain.LabMorning:
		if !ctx.Snapshot.IsMorning(candidate.Slot.Time.Period) {
			return []domain.Violation{softViolation(domain.KindLabWindowViolation, candidate, 1,
				"lab course scheduled outside the preferred morning window")}
		}
	case domain.LabAfternoon:
		if !ctx.Snapshot.IsAfternoon(candidate.Slot.Time.Period) {
			return []domain.Violation{softViolation(domain.KindLabWindowViolation, candidate, 1,
				"lab course scheduled outside the preferred afternoon window")}
		}
	}
	return nil
}

func checkCoreSubjectRules(candidate domain.Assignment, ctx Context) []domain.Violation {
	session, ok := ctx.session(candidate.SessionID)
	if !ok || !session.IsCoreSubject {
		return nil
	}
	strategy := ctx.Snapshot.CoreStrategy
	weight := coreWeight(strategy.BalanceWeight)
	var out []domain.Violation

	sameSubjectSameDay := 0
	daysUsed := map[int]bool{candidate.Slot.Time.DayOfWeek: true}
	for _, a := range ctx.Set.Other(candidate.SessionID) {
		s, ok := ctx.session(a.SessionID)
		if !ok || s.Subject != session.Subject || a.ClassID != candidate.ClassID {
			continue
		}
		daysUsed[a.Slot.Time.DayOfWeek] = true
		if a.Slot.Time.DayOfWeek == candidate.Slot.Time.DayOfWeek {
			sameSubjectSameDay++
		}
	}
	sameSubjectSameDay++ // count candidate itself

	if strategy.MaxDailyOccurrences > 0 && sameSubjectSameDay > strategy.MaxDailyOccurrences {
		out = append(out, softViolation(domain.KindCoreDailyOccurrences, candidate, weight,
			fmt.Sprintf("subject %q occurs %d times on day %d, exceeding maxDailyOccurrences %d", session.Subject, sameSubjectSameDay, candidate.Slot.Time.DayOfWeek, strategy.MaxDailyOccurrences)))
	}

	if strategy.MinDaysPerWeek > 0 && len(daysUsed) < strategy.MinDaysPerWeek {
		out = append(out, softViolation(domain.KindCoreDaysCoverage, candidate, weight,
			fmt.Sprintf("subject %q covers only %d of the required %d days so far", session.Subject, len(daysUsed), strategy.MinDaysPerWeek)))
	}

	if strategy.MaxConcentration > 0 {
		if run := longestConsecutiveRun(daysUsed); run > strategy.MaxConcentration {
			out = append(out, softViolation(domain.KindCoreConcentration, candidate, weight,
				fmt.Sprintf("subject %q runs %d consecutive days, exceeding maxConcentration %d", session.Subject, run, strategy.MaxConcentration)))
		}
	}

	for _, slot := range strategy.AvoidTimeSlots {
		if slot == candidate.Slot.Time {
			out = append(out, softViolation(domain.KindCoreAvoidSlot, candidate, weight,
				fmt.Sprintf("core subject %q placed in an avoided slot %s", session.Subject, slot)))
		}
	}

	if strategy.EnforceEvenDistribution && len(strategy.PreferredTimeSlots) > 0 {
		if !inSlots(strategy.PreferredTimeSlots, candidate.Slot.Time) {
			out = append(out, softViolation(domain.KindCorePreferredSlotMissed, candidate, weight,
				fmt.Sprintf("core subject %q placed outside its preferred slots", session.Subject)))
		}
	}

	return out
}

func longestConsecutiveRun(days map[int]bool) int {
	best, run := 0, 0
	for d := 1; d <= 7; d++ {
		if days[d] {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func inSlots(slots []domain.TimeSlot, slot domain.TimeSlot) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

func coreWeight(balanceWeight int) float64 {
	if balanceWeight <= 0 {
		return 1
	}
	return float64(balanceWeight) / 100
}

func softViolation(kind domain.ConstraintKind, candidate domain.Assignment, weight float64, message string) domain.Violation {
	return domain.Violation{
		Kind:               kind,
		Severity:           domain.SeverityWarning,
		InvolvedSessionIDs: []domain.SessionID{candidate.SessionID},
		InvolvedSlot:       &candidate.Slot.Time,
		Message:            message,
		Weight:             weight,
	}
}
