package domain

// Assignment is the chosen (TimeSlot, Room) of one Session. It holds
// the SessionID, never a pointer back into the arena.
type Assignment struct {
	SessionID SessionID
	ClassID   ClassID
	CourseID  CourseID
	TeacherID TeacherID
	Slot      RoomSlot

	// ContinuousSpan, when > 1, is the number of consecutive periods
	// starting at Slot.Time this assignment reserves same-day.
	ContinuousSpan int
	IsFixed        bool
}

// Periods returns every (day, period) this assignment occupies.
func (a Assignment) Periods() []TimeSlot {
	n := a.ContinuousSpan
	if n < 1 {
		n = 1
	}
	return a.Slot.Time.Span(n)
}

// Overlaps reports whether a and other occupy at least one common period.
func (a Assignment) Overlaps(other Assignment) bool {
	for _, p := range a.Periods() {
		for _, q := range other.Periods() {
			if p == q {
				return true
			}
		}
	}
	return false
}

// AssignmentSet is the live, mutable collection of Assignments for one
// task. It is exclusively owned by the solver/optimizer during
// construction; manual edits operate on a copy loaded fresh by the
// host per call.
type AssignmentSet struct {
	bySession map[SessionID]Assignment
	order     []SessionID
}

// NewAssignmentSet builds an empty set.
func NewAssignmentSet() *AssignmentSet {
	return &AssignmentSet{bySession: make(map[SessionID]Assignment)}
}

// Clone returns a deep-enough copy safe for independent mutation. Used
// by the optimizer to evaluate a candidate move without mutating the
// set under evaluation, and by manual edits to stage a change before
// commit.
func (s *AssignmentSet) Clone() *AssignmentSet {
	clone := &AssignmentSet{
		bySession: make(map[SessionID]Assignment, len(s.bySession)),
		order:     append([]SessionID(nil), s.order...),
	}
	for k, v := range s.bySession {
		clone.bySession[k] = v
	}
	return clone
}

// Put inserts or replaces the assignment for its SessionID.
func (s *AssignmentSet) Put(a Assignment) {
	if _, exists := s.bySession[a.SessionID]; !exists {
		s.order = append(s.order, a.SessionID)
	}
	s.bySession[a.SessionID] = a
}

// Remove deletes the assignment for id, if any.
func (s *AssignmentSet) Remove(id SessionID) {
	if _, exists := s.bySession[id]; !exists {
		return
	}
	delete(s.bySession, id)
	for i, sid := range s.order {
		if sid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Get returns the assignment for id, if placed.
func (s *AssignmentSet) Get(id SessionID) (Assignment, bool) {
	a, ok := s.bySession[id]
	return a, ok
}

// All returns every placed assignment in insertion order, stable given
// a deterministic placement order.
func (s *AssignmentSet) All() []Assignment {
	out := make([]Assignment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.bySession[id])
	}
	return out
}

// Len returns the number of placed assignments.
func (s *AssignmentSet) Len() int { return len(s.bySession) }

// Other returns every assignment except the ones in exclude, used by
// manual-edit operations that must evaluate a set "excluding both
// sessions".
func (s *AssignmentSet) Other(exclude ...SessionID) []Assignment {
	skip := make(map[SessionID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	out := make([]Assignment, 0, len(s.bySession))
	for _, id := range s.order {
		if skip[id] {
			continue
		}
		out = append(out, s.bySession[id])
	}
	return out
}
