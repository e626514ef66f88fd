package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionSpanDefaultsToOne(t *testing.T) {
	s := Session{ContinuousHours: 0}
	start := TimeSlot{DayOfWeek: 1, Period: 1}
	assert.Equal(t, []TimeSlot{start}, s.Span(start))
}

func TestSessionSpanContinuous(t *testing.T) {
	s := Session{ContinuousHours: 2}
	start := TimeSlot{DayOfWeek: 1, Period: 3}
	assert.Equal(t, []TimeSlot{
		{DayOfWeek: 1, Period: 3},
		{DayOfWeek: 1, Period: 4},
	}, s.Span(start))
}

func TestSessionInDomainFixed(t *testing.T) {
	fixed := RoomSlot{Time: TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r1"}
	s := Session{IsFixed: true, FixedSlot: fixed}

	assert.True(t, s.InDomain(fixed))
	assert.False(t, s.InDomain(RoomSlot{Time: TimeSlot{DayOfWeek: 2, Period: 1}, Room: "r1"}))
}

func TestSessionInDomainFromDomainList(t *testing.T) {
	a := RoomSlot{Time: TimeSlot{DayOfWeek: 1, Period: 1}, Room: "r1"}
	b := RoomSlot{Time: TimeSlot{DayOfWeek: 1, Period: 2}, Room: "r1"}
	s := Session{Domain: []RoomSlot{a}}

	assert.True(t, s.InDomain(a))
	assert.False(t, s.InDomain(b))
}

func TestArenaGetAllLen(t *testing.T) {
	s1 := Session{ID: "s1"}
	s2 := Session{ID: "s2"}
	arena := NewArena([]Session{s1, s2})

	assert.Equal(t, 2, arena.Len())

	got, ok := arena.Get("s1")
	require.True(t, ok)
	assert.Equal(t, s1, got)

	_, ok = arena.Get("missing")
	assert.False(t, ok)

	all := arena.All()
	require.Len(t, all, 2)
	assert.Equal(t, SessionID("s1"), all[0].ID)
	assert.Equal(t, SessionID("s2"), all[1].ID)
}
