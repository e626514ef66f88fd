// Package rules compiles a host-supplied raw rule document into an
// immutable, indexed Snapshot used by every other component for the
// lifetime of one task.
package rules

import (
	"fmt"
	"sort"

	"github.com/eduscheduler/engine/internal/domain"
	engerrors "github.com/eduscheduler/engine/pkg/errors"
)

// ResolvedFixedTime is a FixedTimeCourse with its week matcher
// pre-resolved, so the solver and detector never re-parse WeekType.
type ResolvedFixedTime struct {
	Course domain.FixedTimeCourse
	Slot   domain.TimeSlot
}

// Matches reports whether this fixed-time entry is active for the given
// week parity. A nil parity means "no parity requested" and always
// matches.
func (r ResolvedFixedTime) Matches(parity *domain.WeekType) bool {
	if r.Course.WeekType == "" || r.Course.WeekType == domain.WeekAll {
		return true
	}
	if parity == nil {
		// No parity supplied by the host: treat odd/even fixed entries
		// as always-on rather than invent a multi-week model.
		return true
	}
	return r.Course.WeekType == *parity
}

// Snapshot is the immutable, indexed compilation of one RawRules
// document. Safe for concurrent read access across every detector call
// and the solver within one task.
type Snapshot struct {
	AcademicYear string
	Semester     string

	DailyPeriods int
	workingDays  map[int]bool
	WorkingDays  []int // sorted, for deterministic iteration

	forbidden map[domain.TimeSlot]bool

	PeriodDuration     int
	BreakDuration      int
	LunchBreakStart    int
	LunchBreakDuration int
	MorningPeriods     map[int]bool
	AfternoonPeriods   map[int]bool

	Teacher domain.TeacherConstraints
	Room    domain.RoomConstraints
	Course  domain.CourseArrangement

	CoreSubjects map[string]bool
	CoreStrategy domain.CoreSubjectStrategy

	FixedTime       []ResolvedFixedTime
	FixedTimeConfig domain.FixedTimeCoursesRule

	Conflict domain.ConflictResolution
}

// IsWorkingDay reports whether day is a scheduled working day.
func (s *Snapshot) IsWorkingDay(day int) bool { return s.workingDays[day] }

// IsForbidden reports whether slot is globally forbidden.
func (s *Snapshot) IsForbidden(slot domain.TimeSlot) bool { return s.forbidden[slot] }

// IsCoreSubject reports whether subject is tracked by the core-subject
// distribution strategy.
func (s *Snapshot) IsCoreSubject(subject string) bool {
	return s.CoreStrategy.Enabled && s.CoreSubjects[subject]
}

// IsMorning/IsAfternoon classify a period for lab-course-preference and
// avoid-first-last-period checks.
func (s *Snapshot) IsMorning(period int) bool   { return s.MorningPeriods[period] }
func (s *Snapshot) IsAfternoon(period int) bool { return s.AfternoonPeriods[period] }

// Build validates and compiles a raw rule document. Malformed input
// (empty working days, inverted lunch break, negative durations)
// returns a *errors.Error cloned from ErrConfig (same code and status).
func Build(raw domain.RawRules) (*Snapshot, error) {
	tr := raw.TimeRules
	if tr.DailyPeriods < 4 || tr.DailyPeriods > 12 {
		return nil, configErr(fmt.Sprintf("dailyPeriods must be in 4..12, got %d", tr.DailyPeriods))
	}
	if len(tr.WorkingDays) == 0 {
		return nil, configErr("workingDays must not be empty")
	}
	workingDays := make(map[int]bool, len(tr.WorkingDays))
	sortedDays := make([]int, 0, len(tr.WorkingDays))
	for _, d := range tr.WorkingDays {
		if d < 1 || d > 7 {
			return nil, configErr(fmt.Sprintf("workingDays entry %d out of range 1..7", d))
		}
		if !workingDays[d] {
			workingDays[d] = true
			sortedDays = append(sortedDays, d)
		}
	}
	sort.Ints(sortedDays)

	if tr.PeriodDuration < 0 || tr.BreakDuration < 0 || tr.LunchBreakDuration < 0 {
		return nil, configErr("durations must not be negative")
	}
	if tr.LunchBreakStart < 0 {
		return nil, configErr("lunchBreakStart must not be negative")
	}
	if tr.LunchBreakDuration > 0 && tr.LunchBreakStart > tr.DailyPeriods {
		return nil, configErr("lunchBreakStart is after the last period (inverted lunch break)")
	}

	forbidden := make(map[domain.TimeSlot]bool, len(tr.ForbiddenSlots))
	for _, slot := range tr.ForbiddenSlots {
		forbidden[slot] = true
	}

	morning := toSet(tr.MorningPeriods)
	afternoon := toSet(tr.AfternoonPeriods)

	coreSubjects := make(map[string]bool, len(raw.CoreSubjectStrategy.CoreSubjects))
	for _, subj := range raw.CoreSubjectStrategy.CoreSubjects {
		coreSubjects[subj] = true
	}

	resolved, err := resolveFixedTime(raw.FixedTimeCourses)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		AcademicYear:       raw.AcademicYear,
		Semester:           raw.Semester,
		DailyPeriods:       tr.DailyPeriods,
		workingDays:        workingDays,
		WorkingDays:        sortedDays,
		forbidden:          forbidden,
		PeriodDuration:     tr.PeriodDuration,
		BreakDuration:      tr.BreakDuration,
		LunchBreakStart:    tr.LunchBreakStart,
		LunchBreakDuration: tr.LunchBreakDuration,
		MorningPeriods:     morning,
		AfternoonPeriods:   afternoon,
		Teacher:            raw.TeacherConstraints,
		Room:               raw.RoomConstraints,
		Course:             raw.CourseArrangement,
		CoreSubjects:       coreSubjects,
		CoreStrategy:       raw.CoreSubjectStrategy,
		FixedTime:          resolved,
		FixedTimeConfig:    raw.FixedTimeCourses,
		Conflict:           raw.ConflictResolution,
	}
	return snap, nil
}

func resolveFixedTime(cfg domain.FixedTimeCoursesRule) ([]ResolvedFixedTime, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	out := make([]ResolvedFixedTime, 0, len(cfg.Courses))
	seen := make(map[domain.TimeSlot][]domain.FixedTimeCourse)
	for _, c := range cfg.Courses {
		if c.DayOfWeek < 1 || c.DayOfWeek > 7 || c.Period < 1 {
			return nil, configErr(fmt.Sprintf("fixed-time course %q has an invalid slot", c.Type))
		}
		slot := domain.TimeSlot{DayOfWeek: c.DayOfWeek, Period: c.Period}
		out = append(out, ResolvedFixedTime{Course: c, Slot: slot})
		if c.ClassID != "" {
			seen[slot] = append(seen[slot], c)
		}
	}
	if cfg.ConflictStrategy == domain.ConflictStrict {
		for slot, courses := range seen {
			byClass := make(map[domain.ClassID]int)
			for _, c := range courses {
				byClass[c.ClassID]++
			}
			for classID, count := range byClass {
				if count > 1 {
					return nil, configErr(fmt.Sprintf("fixed-time courses for class %q mutually conflict at %s under strict", classID, slot))
				}
			}
		}
	}
	return out, nil
}

func toSet(values []int) map[int]bool {
	set := make(map[int]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func configErr(message string) error {
	return engerrors.Clone(engerrors.ErrConfig, message)
}
