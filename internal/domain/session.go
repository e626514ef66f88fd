package domain

// Session is one atomic teaching unit awaiting a slot: a single hour, or
// a continuous chunk of ContinuousHours hours starting at the same
// period on the same day.
type Session struct {
	ID        SessionID
	ClassID   ClassID
	CourseID  CourseID
	TeacherID TeacherID

	// WeeklyHours is informational: how many hours the owning
	// CourseAssignment demands in total, used for solver ordering
	// (descending weeklyHours as a tie-break).
	WeeklyHours int

	// ContinuousHours > 1 marks this Session as a continuous span; its
	// TimeSlot in an Assignment is the first period of the span.
	ContinuousHours int

	// IsFixed marks a pre-placed, rule-prescribed Session (flag-raising,
	// class meetings) whose domain is a singleton and which the solver
	// and optimizer never reassign.
	IsFixed     bool
	FixedSlot   RoomSlot
	FixedReason string

	IsCoreSubject bool
	Subject       string

	// Domain is the candidate (TimeSlot, Room) pairs this Session may be
	// placed at. Built once by the variable builder and never widened
	// afterwards.
	Domain []RoomSlot

	PreferredSlots []TimeSlot
	AvoidSlots     []TimeSlot
}

// Span returns the periods this session's placement at slot occupies.
func (s Session) Span(slot TimeSlot) []TimeSlot {
	n := s.ContinuousHours
	if n < 1 {
		n = 1
	}
	return slot.Span(n)
}

// InDomain reports whether candidate is a member of the session's
// initial domain.
func (s Session) InDomain(candidate RoomSlot) bool {
	if s.IsFixed {
		return candidate == s.FixedSlot
	}
	for _, d := range s.Domain {
		if d == candidate {
			return true
		}
	}
	return false
}

// Arena is a read-only lookup of Sessions by id, owned exclusively by
// one task. Sessions hold no back-pointers to Assignments; the arena
// is how callers go the other way.
type Arena struct {
	order    []SessionID
	sessions map[SessionID]Session
}

// NewArena builds an arena from a slice of sessions, preserving order.
func NewArena(sessions []Session) *Arena {
	a := &Arena{
		order:    make([]SessionID, 0, len(sessions)),
		sessions: make(map[SessionID]Session, len(sessions)),
	}
	for _, s := range sessions {
		a.order = append(a.order, s.ID)
		a.sessions[s.ID] = s
	}
	return a
}

// Get returns the session for id and whether it exists.
func (a *Arena) Get(id SessionID) (Session, bool) {
	s, ok := a.sessions[id]
	return s, ok
}

// All returns sessions in their original, stable order.
func (a *Arena) All() []Session {
	out := make([]Session, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.sessions[id])
	}
	return out
}

// Len returns the number of sessions in the arena.
func (a *Arena) Len() int { return len(a.order) }
