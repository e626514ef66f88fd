// Package domain holds the value types shared by the scheduling engine:
// slots, sessions, assignments, rules and violations. Nothing here
// performs I/O; the package is pure data plus small invariant-preserving
// constructors.
package domain

import (
	"strconv"

	"github.com/google/uuid"
)

// ClassID, TeacherID, CourseID and RoomID are opaque newtypes over the
// host's master-data identifiers. They exist so the core never builds
// compound keys by string concatenation.
type ClassID string

type TeacherID string

type CourseID string

type RoomID string

// SessionID identifies a single teaching unit. Sessions are created by
// the variable builder and never renamed.
type SessionID string

// TaskID identifies one scheduling task in the engine's task table.
type TaskID string

// NewTaskID mints a fresh, randomly generated task identifier.
func NewTaskID() TaskID {
	return TaskID(uuid.NewString())
}

// NewSessionID mints a session identifier. Session ids are derived
// deterministically from their originating (class, course, teacher,
// sequence) tuple so that two runs over the same teaching plan assign
// identical ids.
func NewSessionID(classID ClassID, courseID CourseID, teacherID TeacherID, sequence int) SessionID {
	name := string(classID) + "/" + string(courseID) + "/" + string(teacherID) + "/" + strconv.Itoa(sequence)
	return SessionID(uuid.NewSHA1(sessionNamespace, []byte(name)).String())
}

// sessionNamespace is a fixed namespace UUID so SessionID generation is
// deterministic across processes and runs (no time or randomness
// involved once sequence/classID/courseID/teacherID are fixed).
var sessionNamespace = uuid.MustParse("7b8d8a6e-9a9a-4f1b-8f8a-9a6c9b9a2a10")
