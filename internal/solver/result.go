package solver

import "github.com/eduscheduler/engine/internal/domain"

// Result is the solver's output: the final AssignmentSet plus run
// statistics.
type Result struct {
	Set         *domain.AssignmentSet
	Unplaced    []domain.SessionID
	Diagnostics domain.Violations
	Stats       Statistics

	// TimedOut is true when the time budget expired before every
	// session reached a terminal state.
	TimedOut bool
	// Cancelled is true when the caller's context was cancelled.
	Cancelled bool
}

// Statistics summarises one solver run.
type Statistics struct {
	TotalScheduled int
	Unplaced       int
	CriticalConflicts int
	SoftScore      float64
	BackjumpCount  int
	IterationsUsed int
	DurationMs     int64

	// PerTeacherLoad, PerClassDistribution and PerRoomUtilization count
	// placed periods (not just sessions) by entity, mirroring the
	// teacher's own per-entity load/gap aggregation.
	PerTeacherLoad       map[domain.TeacherID]int
	PerClassDistribution map[domain.ClassID]int
	PerRoomUtilization   map[domain.RoomID]int
}

// Aggregate tallies placed periods per teacher, class and room. Exposed
// so a caller re-scoring a set after a manual edit can refresh
// Statistics without re-running the solver.
func Aggregate(set *domain.AssignmentSet) (map[domain.TeacherID]int, map[domain.ClassID]int, map[domain.RoomID]int) {
	return aggregateLoad(set)
}

// aggregateLoad tallies placed periods per teacher, class and room.
func aggregateLoad(set *domain.AssignmentSet) (map[domain.TeacherID]int, map[domain.ClassID]int, map[domain.RoomID]int) {
	teacherLoad := make(map[domain.TeacherID]int)
	classDist := make(map[domain.ClassID]int)
	roomUtil := make(map[domain.RoomID]int)
	for _, a := range set.All() {
		n := len(a.Periods())
		teacherLoad[a.TeacherID] += n
		classDist[a.ClassID] += n
		roomUtil[a.Slot.Room] += n
	}
	return teacherLoad, classDist, roomUtil
}
