package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/rules"
)

func baseSnapshot(t *testing.T) *rules.Snapshot {
	t.Helper()
	snap, err := rules.Build(domain.RawRules{
		AcademicYear: "2026",
		Semester:     "1",
		TimeRules: domain.TimeRules{
			DailyPeriods: 6,
			WorkingDays:  []int{1, 2, 3, 4, 5},
		},
	})
	require.NoError(t, err)
	return snap
}

func TestChunkHoursNonContinuous(t *testing.T) {
	assert.Equal(t, []int{1, 1, 1, 1}, chunkHours(4, 0, false))
}

func TestChunkHoursContinuousExact(t *testing.T) {
	assert.Equal(t, []int{2, 2}, chunkHours(4, 2, true))
}

func TestChunkHoursContinuousRemainder(t *testing.T) {
	assert.Equal(t, []int{2, 2, 1}, chunkHours(5, 2, true))
}

func TestChunkHoursZero(t *testing.T) {
	assert.Nil(t, chunkHours(0, 2, true))
}

func TestBuildForClassFixedTimeSession(t *testing.T) {
	snap := baseSnapshot(t)
	snap.FixedTime = []rules.ResolvedFixedTime{
		{
			Course: domain.FixedTimeCourse{Type: "flag-raising", CourseID: "flag", TeacherID: "t1"},
			Slot:   domain.TimeSlot{DayOfWeek: 1, Period: 1},
		},
	}
	class := domain.Class{ID: "c1"}
	plan := domain.TeachingPlan{ClassID: "c1"}

	sessions, err := BuildForClass(class, plan, MasterData{}, snap)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].IsFixed)
	assert.Equal(t, domain.TimeSlot{DayOfWeek: 1, Period: 1}, sessions[0].FixedSlot.Time)
}

func TestBuildForClassUnknownCourse(t *testing.T) {
	snap := baseSnapshot(t)
	class := domain.Class{ID: "c1"}
	plan := domain.TeachingPlan{ClassID: "c1", Assignments: []domain.CourseAssignment{
		{CourseID: "missing", TeacherID: "t1", WeeklyHours: 2},
	}}
	_, err := BuildForClass(class, plan, MasterData{}, snap)
	require.Error(t, err)
}

func TestBuildForClassUnknownTeacher(t *testing.T) {
	snap := baseSnapshot(t)
	class := domain.Class{ID: "c1"}
	md := MasterData{Courses: map[domain.CourseID]domain.Course{"math": {ID: "math", WeeklyHours: 2}}}
	plan := domain.TeachingPlan{ClassID: "c1", Assignments: []domain.CourseAssignment{
		{CourseID: "math", TeacherID: "missing", WeeklyHours: 2},
	}}
	_, err := BuildForClass(class, plan, md, snap)
	require.Error(t, err)
}

func TestBuildForClassProducesCandidateDomain(t *testing.T) {
	snap := baseSnapshot(t)
	class := domain.Class{ID: "c1", StudentCount: 20}
	md := MasterData{
		Courses: map[domain.CourseID]domain.Course{
			"math": {ID: "math", Subject: "math", WeeklyHours: 2, AdmissibleRooms: []domain.RoomID{"r1"}},
		},
		Teachers: map[domain.TeacherID]domain.Teacher{
			"t1": {ID: "t1"},
		},
		Rooms: map[domain.RoomID]domain.Room{
			"r1": {ID: "r1", Capacity: 30},
		},
	}
	plan := domain.TeachingPlan{ClassID: "c1", Assignments: []domain.CourseAssignment{
		{CourseID: "math", TeacherID: "t1", WeeklyHours: 2},
	}}

	sessions, err := BuildForClass(class, plan, md, snap)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, s := range sessions {
		assert.NotEmpty(t, s.Domain)
		for _, d := range s.Domain {
			assert.Equal(t, domain.RoomID("r1"), d.Room)
		}
	}
}

func TestBuildForClassRespectsCapacity(t *testing.T) {
	snap := baseSnapshot(t)
	snap.Room.RespectCapacityLimits = true
	class := domain.Class{ID: "c1", StudentCount: 40}
	md := MasterData{
		Courses: map[domain.CourseID]domain.Course{
			"math": {ID: "math", WeeklyHours: 1, AdmissibleRooms: []domain.RoomID{"small"}},
		},
		Teachers: map[domain.TeacherID]domain.Teacher{"t1": {ID: "t1"}},
		Rooms:    map[domain.RoomID]domain.Room{"small": {ID: "small", Capacity: 20}},
	}
	plan := domain.TeachingPlan{ClassID: "c1", Assignments: []domain.CourseAssignment{
		{CourseID: "math", TeacherID: "t1", WeeklyHours: 1},
	}}

	sessions, err := BuildForClass(class, plan, md, snap)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Empty(t, sessions[0].Domain)
}

func TestAdmissibleRoomIDsPrefersHomeroom(t *testing.T) {
	snap := baseSnapshot(t)
	snap.Room.PreferFixedClassrooms = true
	homeroom := domain.RoomID("home")
	class := domain.Class{ID: "c1", HomeroomID: &homeroom}
	rooms := map[domain.RoomID]domain.Room{
		"home":  {ID: "home", Types: []string{"classroom"}},
		"other": {ID: "other", Types: []string{"classroom"}},
	}
	course := domain.Course{AdmissibleRooms: []domain.RoomID{"other", "home"}}

	ordered := admissibleRoomIDs(class, course, rooms, snap)
	require.Len(t, ordered, 2)
	assert.Equal(t, domain.RoomID("home"), ordered[0])
}
