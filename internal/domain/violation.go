package domain

// Severity classifies a Violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// ConstraintKind is a closed enum of constraint kinds the detector
// recognises. There is no per-kind table: each detector check function
// sets the kind, severity and weight of the violations it reports.
type ConstraintKind string

const (
	KindTeacherDoubleBooked     ConstraintKind = "teacher_double_booked"
	KindClassDoubleBooked       ConstraintKind = "class_double_booked"
	KindRoomDoubleBooked        ConstraintKind = "room_double_booked"
	KindForbiddenSlot           ConstraintKind = "forbidden_slot"
	KindTeacherUnavailable      ConstraintKind = "teacher_unavailable"
	KindRoomUnavailable         ConstraintKind = "room_unavailable"
	KindRoomTypeMismatch        ConstraintKind = "room_type_mismatch"
	KindSubjectMismatch         ConstraintKind = "subject_mismatch"
	KindCapacityExceeded        ConstraintKind = "capacity_exceeded"
	KindContinuousSpanOverflow  ConstraintKind = "continuous_span_overflow"
	KindFixedTimeConflict       ConstraintKind = "fixed_time_conflict"
	KindTeacherDailyHours       ConstraintKind = "teacher_daily_hours"
	KindTeacherContinuousHours  ConstraintKind = "teacher_continuous_hours"
	KindTeacherRestViolation    ConstraintKind = "teacher_rest_violation"
	KindFridayAfternoon         ConstraintKind = "friday_afternoon"
	KindFirstLastPeriod         ConstraintKind = "first_last_period"
	KindLabWindowViolation      ConstraintKind = "lab_window_violation"
	KindCoreDailyOccurrences    ConstraintKind = "core_daily_occurrences"
	KindCoreDaysCoverage        ConstraintKind = "core_days_coverage"
	KindCoreConcentration       ConstraintKind = "core_concentration"
	KindCoreAvoidSlot           ConstraintKind = "core_avoid_slot"
	KindCorePreferredSlotMissed ConstraintKind = "core_preferred_slot_missed"
	KindDistributionImbalance  ConstraintKind = "distribution_imbalance"
)

// Violation reports one detected hard conflict or soft penalty.
type Violation struct {
	Kind              ConstraintKind
	Severity          Severity
	InvolvedSessionIDs []SessionID
	InvolvedSlot      *TimeSlot
	Message           string
	Suggestions       []string
	Weight            float64
}

// IsHard reports whether v fails a placement outright.
func (v Violation) IsHard() bool { return v.Severity == SeverityCritical }

// Violations is a list with convenience aggregation helpers used by the
// detector's whole-schedule scoring path.
type Violations []Violation

// CriticalCount returns how many violations are hard conflicts.
func (vs Violations) CriticalCount() int {
	n := 0
	for _, v := range vs {
		if v.IsHard() {
			n++
		}
	}
	return n
}

// SoftScore sums the weight of every non-critical violation. Lower is
// better; the optimizer minimizes this value.
func (vs Violations) SoftScore() float64 {
	var total float64
	for _, v := range vs {
		if !v.IsHard() {
			total += v.Weight
		}
	}
	return total
}
