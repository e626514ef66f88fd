package detector

import (
	"fmt"
	"sort"

	"github.com/eduscheduler/engine/internal/domain"
)

// Check is the detector's public contract: given a candidate placement
// and the rest of the schedule, enumerate hard conflicts and soft
// violations. Check is pure: its result depends only on its arguments
// and it never performs I/O.
func Check(candidate domain.Assignment, ctx Context) domain.Violations {
	var out domain.Violations
	for _, check := range hardChecks {
		out = append(out, check(candidate, ctx)...)
	}
	for _, check := range softChecks {
		out = append(out, check(candidate, ctx)...)
	}
	return out
}

// ScoreSet evaluates the whole assignment set: the per-assignment
// critical count and a weighted soft score used by the optimizer to
// compare candidate moves, plus the distribution-balance check which
// only makes sense over the full set.
func ScoreSet(set *domain.AssignmentSet, ctx Context) domain.Violations {
	ctxWithSet := ctx
	ctxWithSet.Set = set

	var all domain.Violations
	for _, a := range set.All() {
		all = append(all, Check(a, ctxWithSet)...)
	}
	all = append(all, checkDistributionBalance(set, ctx)...)
	return all
}

// checkDistributionBalance flags classes whose per-day session count
// deviates from even distribution more than a chi-square threshold,
// when courseArrangement.distributionPolicy == balanced.
func checkDistributionBalance(set *domain.AssignmentSet, ctx Context) []domain.Violation {
	if ctx.Snapshot.Course.DistributionPolicy != domain.DistributionBalanced {
		return nil
	}
	perClassDay := make(map[domain.ClassID]map[int]int)
	for _, a := range set.All() {
		if perClassDay[a.ClassID] == nil {
			perClassDay[a.ClassID] = make(map[int]int)
		}
		perClassDay[a.ClassID][a.Slot.Time.DayOfWeek]++
	}

	days := ctx.Snapshot.WorkingDays
	if len(days) == 0 {
		return nil
	}

	var out []domain.Violation
	classIDs := make([]domain.ClassID, 0, len(perClassDay))
	for id := range perClassDay {
		classIDs = append(classIDs, id)
	}
	sort.Slice(classIDs, func(i, j int) bool { return classIDs[i] < classIDs[j] })

	for _, classID := range classIDs {
		counts := perClassDay[classID]
		total := 0
		for _, d := range days {
			total += counts[d]
		}
		if total == 0 {
			continue
		}
		expected := float64(total) / float64(len(days))
		var chiSquare float64
		for _, d := range days {
			diff := float64(counts[d]) - expected
			if expected > 0 {
				chiSquare += diff * diff / expected
			}
		}
		// A conventional threshold for a handful of working days; above
		// it the per-day spread is treated as materially uneven.
		const threshold = 6.0
		if chiSquare > threshold {
			out = append(out, domain.Violation{
				Kind:     domain.KindDistributionImbalance,
				Severity: domain.SeverityWarning,
				Message:  fmt.Sprintf("class %q has an uneven course distribution across the week (chi-square %.2f)", classID, chiSquare),
				Weight:   chiSquare / threshold,
			})
		}
	}
	return out
}
