// Package optimizer implements the local-search repair pass that
// follows the greedy solver.
package optimizer

import (
	"context"
	"sort"
	"time"

	"github.com/eduscheduler/engine/internal/detector"
	"github.com/eduscheduler/engine/internal/domain"
)

// Config governs optimizer behaviour.
type Config struct {
	MaxIterations    int
	TimeLimitSeconds int
	TopK             int
	FirstImprovement bool
}

// DefaultConfig returns sane defaults. A zero-value Config passed to
// Optimize takes only MaxIterations and TopK from them; its
// TimeLimitSeconds stays zero, which means no time limit.
func DefaultConfig() Config {
	return Config{MaxIterations: 50, TimeLimitSeconds: 60, TopK: 5, FirstImprovement: false}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	return c
}

// Result reports what the optimizer did: the soft score is monotone
// non-increasing and the critical count is unchanged or zero.
type Result struct {
	Set            *domain.AssignmentSet
	IterationsUsed int
	Improved       bool
	SoftScoreBefore float64
	SoftScoreAfter  float64
	TimedOut       bool
	Cancelled      bool
}

// ProgressFunc reports optimizer progress during the "optimizing" phase.
type ProgressFunc func(iteration, max int)

// Optimize repeatedly moves or swaps the most soft-violating placements
// until a full pass makes no improvement or the iteration/time budget
// is exhausted. The optimizer never reassigns fixed-time sessions and
// never accepts a move that introduces a critical conflict.
func Optimize(ctx context.Context, set *domain.AssignmentSet, detCtx detector.Context, cfg Config, onProgress ProgressFunc) *Result {
	cfg = cfg.withDefaults()
	detCtx.Set = set

	before := detector.ScoreSet(set, detCtx).SoftScore()

	var deadline time.Time
	if cfg.TimeLimitSeconds > 0 {
		deadline = time.Now().Add(time.Duration(cfg.TimeLimitSeconds) * time.Second)
	}

	improvedAny := false
	iter := 0
	for iter < cfg.MaxIterations {
		iter++
		if onProgress != nil {
			onProgress(iter, cfg.MaxIterations)
		}
		if ctx.Err() != nil {
			return finish(set, detCtx, iter, improvedAny, before, true, false)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return finish(set, detCtx, iter, improvedAny, before, false, true)
		}

		worst := topWorst(set, detCtx, cfg.TopK)
		if len(worst) == 0 {
			break
		}

		improvedThisPass := false
		for _, a := range worst {
			session, ok := detCtx.Arena.Get(a.SessionID)
			if !ok || session.IsFixed {
				continue
			}
			delta, applied := tryImprove(set, detCtx, session, a, cfg.FirstImprovement)
			if applied {
				improvedThisPass = true
				improvedAny = true
				_ = delta
			}
		}
		if !improvedThisPass {
			break
		}
	}

	return finish(set, detCtx, iter, improvedAny, before, false, false)
}

func finish(set *domain.AssignmentSet, detCtx detector.Context, iter int, improved bool, before float64, cancelled, timedOut bool) *Result {
	after := detector.ScoreSet(set, detCtx).SoftScore()
	return &Result{
		Set:             set,
		IterationsUsed:  iter,
		Improved:        improved,
		SoftScoreBefore: before,
		SoftScoreAfter:  after,
		TimedOut:        timedOut,
		Cancelled:       cancelled,
	}
}

type scoredAssignment struct {
	assignment domain.Assignment
	score      float64
}

// topWorst ranks the top-K placed, non-fixed assignments by the soft
// score they individually contribute.
func topWorst(set *domain.AssignmentSet, detCtx detector.Context, k int) []domain.Assignment {
	all := set.All()
	scored := make([]scoredAssignment, 0, len(all))
	for _, a := range all {
		if a.IsFixed {
			continue
		}
		score := detector.Check(a, detCtx).SoftScore()
		if score <= 0 {
			continue
		}
		scored = append(scored, scoredAssignment{assignment: a, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].assignment.SessionID < scored[j].assignment.SessionID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	out := make([]domain.Assignment, len(scored))
	for i, s := range scored {
		out[i] = s.assignment
	}
	return out
}

// tryImprove generates move and swap candidates for session/current and
// accepts the best strictly-negative delta (or the first one found, when
// cfg.FirstImprovement is set). It never accepts a candidate that
// introduces a critical conflict.
func tryImprove(set *domain.AssignmentSet, detCtx detector.Context, session domain.Session, current domain.Assignment, firstImprovement bool) (float64, bool) {
	baseline := scoreOf(set, detCtx, current)

	type candidate struct {
		apply func()
		delta float64
	}
	var best *candidate

	considerMove := func(slot domain.RoomSlot) {
		if slot == current.Slot {
			return
		}
		trial := current
		trial.Slot = slot
		if !feasible(set, detCtx, trial, current.SessionID) {
			return
		}
		delta := scoreOf(set, detCtx, trial) - baseline
		if delta >= 0 {
			return
		}
		c := candidate{delta: delta, apply: func() { set.Put(trial) }}
		if best == nil || delta < best.delta {
			best = &c
		}
	}

	for _, slot := range session.Domain {
		considerMove(slot)
		if firstImprovement && best != nil {
			break
		}
	}

	if best == nil || !firstImprovement {
		for _, partner := range set.All() {
			if partner.SessionID == current.SessionID || partner.IsFixed {
				continue
			}
			if partner.ClassID != current.ClassID && partner.TeacherID != current.TeacherID {
				continue
			}
			partnerSession, ok := detCtx.Arena.Get(partner.SessionID)
			if !ok {
				continue
			}
			if !partnerSession.InDomain(current.Slot) || !session.InDomain(partner.Slot) {
				continue
			}
			trialA := current
			trialA.Slot = partner.Slot
			trialB := partner
			trialB.Slot = current.Slot
			if !feasibleSwap(set, detCtx, trialA, trialB) {
				continue
			}
			beforeBoth := baseline + scoreOf(set, detCtx, partner)
			afterBoth := scoreOfAfterSwap(set, detCtx, trialA, trialB)
			delta := afterBoth - beforeBoth
			if delta >= 0 {
				continue
			}
			c := candidate{delta: delta, apply: func() { set.Put(trialA); set.Put(trialB) }}
			if best == nil || delta < best.delta {
				best = &c
			}
			if firstImprovement && best != nil {
				break
			}
		}
	}

	if best == nil {
		return 0, false
	}
	best.apply()
	return best.delta, true
}

func scoreOf(set *domain.AssignmentSet, detCtx detector.Context, a domain.Assignment) float64 {
	v := detector.Check(a, detCtx)
	return v.SoftScore() + float64(v.CriticalCount())*1e6
}

func scoreOfAfterSwap(set *domain.AssignmentSet, detCtx detector.Context, a, b domain.Assignment) float64 {
	va := detector.Check(a, detCtx)
	vb := detector.Check(b, detCtx)
	return va.SoftScore() + vb.SoftScore() + float64(va.CriticalCount()+vb.CriticalCount())*1e6
}

func feasible(set *domain.AssignmentSet, detCtx detector.Context, trial domain.Assignment, exclude domain.SessionID) bool {
	v := detector.Check(trial, detCtx)
	return v.CriticalCount() == 0
}

func feasibleSwap(set *domain.AssignmentSet, detCtx detector.Context, a, b domain.Assignment) bool {
	// Evaluate a against the set excluding both sides, then b against
	// that set with a placed: neither trial may conflict with the other
	// or with the rest of the schedule.
	tmp := set.Clone()
	tmp.Remove(a.SessionID)
	tmp.Remove(b.SessionID)
	detCopy := detCtx
	detCopy.Set = tmp
	va := detector.Check(a, detCopy)
	if va.CriticalCount() > 0 {
		return false
	}
	tmp.Put(a)
	return detector.Check(b, detCopy).CriticalCount() == 0
}
