package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduscheduler/engine/internal/domain"
)

func TestCheckCombinesHardAndSoft(t *testing.T) {
	raw := basicRaw()
	raw.TeacherConstraints.MaxDailyHours = 1
	snap := snapFor(t, raw)

	set := domain.NewAssignmentSet()
	set.Put(domain.Assignment{SessionID: "s1", TeacherID: "t1", ClassID: "c1", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r1"}})

	candidate := domain.Assignment{SessionID: "s2", TeacherID: "t1", ClassID: "c2", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r1"}}
	ctx := Context{Set: set, Arena: domain.NewArena(nil), Snapshot: snap}

	violations := Check(candidate, ctx)
	assert.True(t, violations.CriticalCount() >= 1)
	assert.True(t, violations.SoftScore() > 0)
}

func TestScoreSetDistributionBalance(t *testing.T) {
	raw := basicRaw()
	raw.CourseArrangement.DistributionPolicy = domain.DistributionBalanced
	snap := snapFor(t, raw)

	set := domain.NewAssignmentSet()
	for period := 1; period <= 5; period++ {
		set.Put(domain.Assignment{
			SessionID: domain.SessionID("s" + string(rune('0'+period))),
			ClassID:   "c1",
			Slot:      domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: period}, Room: "r1"},
		})
	}
	ctx := Context{Set: set, Arena: domain.NewArena(nil), Snapshot: snap}

	violations := checkDistributionBalance(set, ctx)
	require.Len(t, violations, 1)
	assert.Equal(t, domain.KindDistributionImbalance, violations[0].Kind)
}

func TestScoreSetDistributionBalanceIgnoredWhenNotBalancedPolicy(t *testing.T) {
	raw := basicRaw()
	raw.CourseArrangement.DistributionPolicy = domain.DistributionFlexible
	snap := snapFor(t, raw)

	set := domain.NewAssignmentSet()
	set.Put(domain.Assignment{SessionID: "s1", ClassID: "c1", Slot: domain.RoomSlot{Time: domain.TimeSlot{DayOfWeek: 1, Period: 1}}})
	ctx := Context{Set: set, Arena: domain.NewArena(nil), Snapshot: snap}

	assert.Empty(t, checkDistributionBalance(set, ctx))
}

func TestScoreSetEmpty(t *testing.T) {
	snap := snapFor(t, basicRaw())
	set := domain.NewAssignmentSet()
	ctx := Context{Set: set, Arena: domain.NewArena(nil), Snapshot: snap}
	assert.Empty(t, ScoreSet(set, ctx))
}
