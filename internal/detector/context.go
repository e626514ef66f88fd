// Package detector implements the pure constraint detector: given a
// candidate Assignment and the rest of the schedule, it enumerates
// hard conflicts and soft violations. The detector performs no I/O and
// depends only on its arguments.
package detector

import (
	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/rules"
	"github.com/eduscheduler/engine/internal/variables"
)

// Context bundles everything a detector call needs, all owned read-only
// across one task except Set, which the caller mutates between calls
// but never while a Check is in flight.
type Context struct {
	Set      *domain.AssignmentSet
	Arena    *domain.Arena
	Snapshot *rules.Snapshot
	Master   variables.MasterData
	Classes  map[domain.ClassID]domain.Class
}

func (c Context) session(id domain.SessionID) (domain.Session, bool) { return c.Arena.Get(id) }
func (c Context) course(id domain.CourseID) (domain.Course, bool) {
	course, ok := c.Master.Courses[id]
	return course, ok
}
func (c Context) teacher(id domain.TeacherID) (domain.Teacher, bool) {
	t, ok := c.Master.Teachers[id]
	return t, ok
}
func (c Context) room(id domain.RoomID) (domain.Room, bool) {
	r, ok := c.Master.Rooms[id]
	return r, ok
}
func (c Context) class(id domain.ClassID) (domain.Class, bool) {
	cl, ok := c.Classes[id]
	return cl, ok
}
