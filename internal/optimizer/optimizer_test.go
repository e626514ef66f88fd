package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduscheduler/engine/internal/detector"
	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/rules"
)

func snapWithFridayAvoidance(t *testing.T) *rules.Snapshot {
	t.Helper()
	snap, err := rules.Build(domain.RawRules{
		AcademicYear: "2026",
		Semester:     "1",
		TimeRules: domain.TimeRules{
			DailyPeriods:     6,
			WorkingDays:      []int{1, 2, 3, 4, 5},
			AfternoonPeriods: []int{4, 5, 6},
		},
		TeacherConstraints: domain.TeacherConstraints{AvoidFridayAfternoon: true},
	})
	require.NoError(t, err)
	return snap
}

func TestTopWorstRanksBySoftScoreDescending(t *testing.T) {
	snap := snapWithFridayAvoidance(t)
	set := domain.NewAssignmentSet()
	fridayBad := domain.Assignment{SessionID: "bad", TeacherID: "t1", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 5, Period: 5}, Room: "r1"}}
	weekdayGood := domain.Assignment{SessionID: "good", TeacherID: "t2", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r2"}}
	set.Put(fridayBad)
	set.Put(weekdayGood)

	arena := domain.NewArena([]domain.Session{{ID: "bad"}, {ID: "good"}})
	detCtx := detector.Context{Set: set, Arena: arena, Snapshot: snap}

	worst := topWorst(set, detCtx, 5)
	require.Len(t, worst, 1)
	assert.Equal(t, domain.SessionID("bad"), worst[0].SessionID)
}

func TestTopWorstTruncatesToK(t *testing.T) {
	snap := snapWithFridayAvoidance(t)
	set := domain.NewAssignmentSet()
	var sessions []domain.Session
	ids := []domain.SessionID{"a", "b", "c"}
	for _, id := range ids {
		set.Put(domain.Assignment{SessionID: id, TeacherID: domain.TeacherID(id), Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 5, Period: 5}, Room: "r1"}})
		sessions = append(sessions, domain.Session{ID: id})
	}
	arena := domain.NewArena(sessions)
	detCtx := detector.Context{Set: set, Arena: arena, Snapshot: snap}

	worst := topWorst(set, detCtx, 2)
	assert.Len(t, worst, 2)
}

func TestOptimizeMovesAwayFromFridayAfternoon(t *testing.T) {
	snap := snapWithFridayAvoidance(t)
	set := domain.NewAssignmentSet()
	session := domain.Session{
		ID: "s1", TeacherID: "t1",
		Domain: []domain.RoomSlot{
			{Time: domain.TimeSlot{DayOfWeek: 5, Period: 5}, Room: "r1"},
			{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r1"},
		},
	}
	set.Put(domain.Assignment{SessionID: "s1", TeacherID: "t1", Slot: session.Domain[0]})
	arena := domain.NewArena([]domain.Session{session})
	detCtx := detector.Context{Set: set, Arena: arena, Snapshot: snap}

	result := Optimize(context.Background(), set, detCtx, Config{}, nil)
	assert.True(t, result.Improved)
	assert.Less(t, result.SoftScoreAfter, result.SoftScoreBefore)

	got, ok := result.Set.Get("s1")
	require.True(t, ok)
	assert.NotEqual(t, domain.TimeSlot{DayOfWeek: 5, Period: 5}, got.Slot.Time)
}

func TestOptimizeNeverTouchesFixedSessions(t *testing.T) {
	snap := snapWithFridayAvoidance(t)
	set := domain.NewAssignmentSet()
	fixedSlot := domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 5, Period: 5}, Room: "r1"}
	session := domain.Session{ID: "s1", TeacherID: "t1", IsFixed: true, FixedSlot: fixedSlot}
	set.Put(domain.Assignment{SessionID: "s1", TeacherID: "t1", Slot: fixedSlot, IsFixed: true})
	arena := domain.NewArena([]domain.Session{session})
	detCtx := detector.Context{Set: set, Arena: arena, Snapshot: snap}

	result := Optimize(context.Background(), set, detCtx, Config{}, nil)
	got, ok := result.Set.Get("s1")
	require.True(t, ok)
	assert.Equal(t, fixedSlot, got.Slot)
}

func TestFeasibleRejectsCriticalConflict(t *testing.T) {
	snap := snapWithFridayAvoidance(t)
	set := domain.NewAssignmentSet()
	set.Put(domain.Assignment{SessionID: "other", TeacherID: "t1", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r1"}})
	detCtx := detector.Context{Set: set, Arena: domain.NewArena(nil), Snapshot: snap}

	trial := domain.Assignment{SessionID: "s1", TeacherID: "t1", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r2"}}
	assert.False(t, feasible(set, detCtx, trial, "s1"))
}

func TestFeasibleAcceptsCleanSlot(t *testing.T) {
	snap := snapWithFridayAvoidance(t)
	set := domain.NewAssignmentSet()
	detCtx := detector.Context{Set: set, Arena: domain.NewArena(nil), Snapshot: snap}

	trial := domain.Assignment{SessionID: "s1", TeacherID: "t1", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r2"}}
	assert.True(t, feasible(set, detCtx, trial, "s1"))
}
