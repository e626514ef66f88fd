package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduscheduler/engine/internal/domain"
)

func TestOrderFixedFirst(t *testing.T) {
	normal := domain.Session{ID: "s1"}
	fixed := domain.Session{ID: "s2", IsFixed: true}

	ordered := Order([]domain.Session{normal, fixed})
	assert.Equal(t, domain.SessionID("s2"), ordered[0].ID)
}

func TestOrderContinuousBeforeSingle(t *testing.T) {
	single := domain.Session{ID: "s1", ContinuousHours: 1}
	span := domain.Session{ID: "s2", ContinuousHours: 2}

	ordered := Order([]domain.Session{single, span})
	assert.Equal(t, domain.SessionID("s2"), ordered[0].ID)
}

func TestOrderCoreSubjectBeforeNonCore(t *testing.T) {
	plain := domain.Session{ID: "s1"}
	core := domain.Session{ID: "s2", IsCoreSubject: true}

	ordered := Order([]domain.Session{plain, core})
	assert.Equal(t, domain.SessionID("s2"), ordered[0].ID)
}

func TestOrderDescendingWeeklyHours(t *testing.T) {
	low := domain.Session{ID: "s1", WeeklyHours: 2}
	high := domain.Session{ID: "s2", WeeklyHours: 5}

	ordered := Order([]domain.Session{low, high})
	assert.Equal(t, domain.SessionID("s2"), ordered[0].ID)
}

func TestOrderSmallerDomainFirst(t *testing.T) {
	wide := domain.Session{ID: "s1", Domain: make([]domain.RoomSlot, 5)}
	narrow := domain.Session{ID: "s2", Domain: make([]domain.RoomSlot, 1)}

	ordered := Order([]domain.Session{wide, narrow})
	assert.Equal(t, domain.SessionID("s2"), ordered[0].ID)
}

func TestOrderTieBreaksByID(t *testing.T) {
	b := domain.Session{ID: "b"}
	a := domain.Session{ID: "a"}

	ordered := Order([]domain.Session{b, a})
	assert.Equal(t, domain.SessionID("a"), ordered[0].ID)
}

func TestOrderDoesNotMutateInput(t *testing.T) {
	sessions := []domain.Session{{ID: "b"}, {ID: "a"}}
	_ = Order(sessions)
	assert.Equal(t, domain.SessionID("b"), sessions[0].ID)
}
