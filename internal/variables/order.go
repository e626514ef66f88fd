package variables

import (
	"sort"

	"github.com/eduscheduler/engine/internal/domain"
)

// Order returns sessions in a deterministic solving order: fixed-time
// first, then continuous-span, then core-subject, then descending
// weeklyHours, then descending constrainedness (smaller domain first),
// then ascending SessionID.
func Order(sessions []domain.Session) []domain.Session {
	ordered := append([]domain.Session(nil), sessions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.IsFixed != b.IsFixed {
			return a.IsFixed
		}
		aSpan := a.ContinuousHours > 1
		bSpan := b.ContinuousHours > 1
		if aSpan != bSpan {
			return aSpan
		}
		if a.IsCoreSubject != b.IsCoreSubject {
			return a.IsCoreSubject
		}
		if a.WeeklyHours != b.WeeklyHours {
			return a.WeeklyHours > b.WeeklyHours
		}
		if len(a.Domain) != len(b.Domain) {
			return len(a.Domain) < len(b.Domain)
		}
		return a.ID < b.ID
	})
	return ordered
}
