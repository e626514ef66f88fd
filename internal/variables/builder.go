// Package variables expands teaching plans into Sessions carrying
// candidate (time, room) domains.
package variables

import (
	"fmt"
	"sort"

	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/rules"
	engerrors "github.com/eduscheduler/engine/pkg/errors"
)

// MasterData bundles the read-only lookups the builder needs. Owned
// read-only across one task.
type MasterData struct {
	Teachers map[domain.TeacherID]domain.Teacher
	Courses  map[domain.CourseID]domain.Course
	Rooms    map[domain.RoomID]domain.Room
}

// BuildForClass expands one class's teaching plan into Sessions: fixed-
// time Sessions first (from snapshot.FixedTime entries that apply to
// this class), then one Session per weekly hour (or per continuous
// chunk) for every CourseAssignment.
func BuildForClass(class domain.Class, plan domain.TeachingPlan, md MasterData, snap *rules.Snapshot) ([]domain.Session, error) {
	var sessions []domain.Session

	fixedByCourse := make(map[domain.CourseID]bool)
	for _, ft := range snap.FixedTime {
		if ft.Course.ClassID != "" && ft.Course.ClassID != class.ID {
			continue
		}
		room := domain.RoomID("")
		if class.HomeroomID != nil {
			room = *class.HomeroomID
		}
		sessions = append(sessions, domain.Session{
			ID:          domain.NewSessionID(class.ID, ft.Course.CourseID, ft.Course.TeacherID, 0),
			ClassID:     class.ID,
			CourseID:    ft.Course.CourseID,
			TeacherID:   ft.Course.TeacherID,
			IsFixed:     true,
			FixedSlot:   domain.RoomSlot{Time: ft.Slot, Room: room},
			FixedReason: ft.Course.Type,
		})
		if ft.Course.CourseID != "" {
			fixedByCourse[ft.Course.CourseID] = true
		}
	}

	for _, ca := range plan.Assignments {
		if fixedByCourse[ca.CourseID] {
			continue
		}
		course, ok := md.Courses[ca.CourseID]
		if !ok {
			return nil, engerrors.Clone(engerrors.ErrConfig, fmt.Sprintf("unknown course %q in teaching plan", ca.CourseID))
		}
		teacher, ok := md.Teachers[ca.TeacherID]
		if !ok {
			return nil, engerrors.Clone(engerrors.ErrConfig, fmt.Sprintf("unknown teacher %q in teaching plan", ca.TeacherID))
		}

		continuous := ca.ContinuousHours
		if !ca.RequiresContinuous && course.RequiresContinuous {
			continuous = course.ContinuousHours
		}
		requiresContinuous := ca.RequiresContinuous || course.RequiresContinuous

		chunks := chunkHours(ca.WeeklyHours, continuous, requiresContinuous)
		for i, hours := range chunks {
			s := domain.Session{
				ID:              domain.NewSessionID(class.ID, ca.CourseID, ca.TeacherID, i+1),
				ClassID:         class.ID,
				CourseID:        ca.CourseID,
				TeacherID:       ca.TeacherID,
				WeeklyHours:     ca.WeeklyHours,
				ContinuousHours: hours,
				IsCoreSubject:   snap.IsCoreSubject(course.Subject),
				Subject:         course.Subject,
				PreferredSlots:  append(append([]domain.TimeSlot{}, ca.PreferredSlots...), snap.CoreStrategy.PreferredTimeSlots...),
				AvoidSlots:      append(append([]domain.TimeSlot{}, ca.AvoidSlots...), snap.CoreStrategy.AvoidTimeSlots...),
			}
			s.Domain = buildDomain(s, class, teacher, course, md.Rooms, snap)
			sessions = append(sessions, s)
		}
	}

	return sessions, nil
}

// chunkHours splits weeklyHours into continuous-chunk sizes. When the
// course does not require continuous blocks, every chunk is size 1.
func chunkHours(weeklyHours, continuousHours int, requiresContinuous bool) []int {
	if weeklyHours <= 0 {
		return nil
	}
	if !requiresContinuous || continuousHours <= 1 {
		chunks := make([]int, weeklyHours)
		for i := range chunks {
			chunks[i] = 1
		}
		return chunks
	}
	var chunks []int
	remaining := weeklyHours
	for remaining > 0 {
		size := continuousHours
		if size > remaining {
			size = remaining
		}
		chunks = append(chunks, size)
		remaining -= size
	}
	return chunks
}

func buildDomain(s domain.Session, class domain.Class, teacher domain.Teacher, course domain.Course, rooms map[domain.RoomID]domain.Room, snap *rules.Snapshot) []domain.RoomSlot {
	avoid := toSlotSet(s.AvoidSlots)
	teacherUnavailable := toSlotSet(teacher.UnavailableSlots)

	var candidateTimes []domain.TimeSlot
	for _, day := range snap.WorkingDays {
		lastPeriod := snap.DailyPeriods - s.ContinuousHours + 1
		for period := 1; period <= lastPeriod; period++ {
			slot := domain.TimeSlot{DayOfWeek: day, Period: period}
			if !spanClear(slot, s.ContinuousHours, snap, avoid, teacherUnavailable) {
				continue
			}
			candidateTimes = append(candidateTimes, slot)
		}
	}
	sort.Slice(candidateTimes, func(i, j int) bool { return candidateTimes[i].Less(candidateTimes[j]) })

	admissibleRooms := admissibleRoomIDs(class, course, rooms, snap)

	var domainList []domain.RoomSlot
	for _, t := range candidateTimes {
		for _, roomID := range admissibleRooms {
			room := rooms[roomID]
			if roomUnavailableAt(room, t, s.ContinuousHours) {
				continue
			}
			if snap.Room.RespectCapacityLimits && room.Capacity < class.StudentCount {
				continue
			}
			domainList = append(domainList, domain.RoomSlot{Time: t, Room: roomID})
		}
	}
	return domainList
}

func spanClear(first domain.TimeSlot, hours int, snap *rules.Snapshot, avoid, teacherUnavailable map[domain.TimeSlot]bool) bool {
	if hours < 1 {
		hours = 1
	}
	for _, slot := range first.Span(hours) {
		if snap.IsForbidden(slot) || avoid[slot] || teacherUnavailable[slot] {
			return false
		}
	}
	return true
}

func roomUnavailableAt(room domain.Room, first domain.TimeSlot, hours int) bool {
	if hours < 1 {
		hours = 1
	}
	unavailable := toSlotSet(room.UnavailableSlots)
	for _, slot := range first.Span(hours) {
		if unavailable[slot] {
			return true
		}
	}
	return false
}

// admissibleRoomIDs ranks the course's admissible rooms, putting the
// class's homeroom first when preferFixedClassrooms is set and the
// homeroom satisfies the course's required type.
func admissibleRoomIDs(class domain.Class, course domain.Course, rooms map[domain.RoomID]domain.Room, snap *rules.Snapshot) []domain.RoomID {
	var ordered []domain.RoomID
	seen := make(map[domain.RoomID]bool)

	if snap.Room.PreferFixedClassrooms && class.HomeroomID != nil {
		if room, ok := rooms[*class.HomeroomID]; ok && room.HasType(course.RequiredRoomTypes) {
			ordered = append(ordered, room.ID)
			seen[room.ID] = true
		}
	}
	for _, roomID := range course.AdmissibleRooms {
		if seen[roomID] {
			continue
		}
		room, ok := rooms[roomID]
		if !ok || !room.HasType(course.RequiredRoomTypes) {
			continue
		}
		ordered = append(ordered, roomID)
		seen[roomID] = true
	}
	return ordered
}

func toSlotSet(slots []domain.TimeSlot) map[domain.TimeSlot]bool {
	set := make(map[domain.TimeSlot]bool, len(slots))
	for _, s := range slots {
		set[s] = true
	}
	return set
}
