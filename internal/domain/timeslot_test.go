package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSlotLess(t *testing.T) {
	earlier := TimeSlot{DayOfWeek: 1, Period: 2}
	later := TimeSlot{DayOfWeek: 1, Period: 3}
	nextDay := TimeSlot{DayOfWeek: 2, Period: 1}

	assert.True(t, earlier.Less(later))
	assert.False(t, later.Less(earlier))
	assert.True(t, later.Less(nextDay))
}

func TestTimeSlotSpan(t *testing.T) {
	start := TimeSlot{DayOfWeek: 3, Period: 2}
	span := start.Span(3)
	assert.Equal(t, []TimeSlot{
		{DayOfWeek: 3, Period: 2},
		{DayOfWeek: 3, Period: 3},
		{DayOfWeek: 3, Period: 4},
	}, span)
}

func TestTimeSlotSpanSingle(t *testing.T) {
	start := TimeSlot{DayOfWeek: 1, Period: 1}
	assert.Equal(t, []TimeSlot{start}, start.Span(1))
	assert.Equal(t, []TimeSlot{start}, start.Span(0))
}
