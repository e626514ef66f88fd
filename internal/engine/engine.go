// Package engine owns the process-wide task table and exposes the
// scheduling system's control surface: start a task, poll or cancel
// it, apply a manual edit, validate a schedule, and read back
// aggregate statistics.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eduscheduler/engine/internal/detector"
	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/manualedit"
	"github.com/eduscheduler/engine/internal/optimizer"
	"github.com/eduscheduler/engine/internal/rules"
	"github.com/eduscheduler/engine/internal/solver"
	"github.com/eduscheduler/engine/internal/variables"
	"github.com/eduscheduler/engine/pkg/config"
	engerrors "github.com/eduscheduler/engine/pkg/errors"
	"github.com/eduscheduler/engine/pkg/metrics"
	"github.com/eduscheduler/engine/pkg/progress"
)

// Status is a task's lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// TaskResult holds everything a completed task produced.
type TaskResult struct {
	Set         *domain.AssignmentSet
	Arena       *domain.Arena
	Unplaced    []domain.SessionID
	Diagnostics domain.Violations
	Stats       solver.Statistics
}

// TaskStatus is the read-only snapshot returned by getTaskStatus and
// listTasks.
type TaskStatus struct {
	ID           domain.TaskID
	Status       Status
	Phase        progress.Phase
	Percentage   int
	AcademicYear string
	Semester     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Error        string
}

type task struct {
	mu     sync.Mutex
	id     domain.TaskID
	status Status
	phase  progress.Phase
	pct    int
	createdAt time.Time
	updatedAt time.Time
	academicYear string
	semester     string

	cancel context.CancelFunc
	sink   progress.Sink
	result *TaskResult
	err    error

	detCtx detector.Context
}

func (t *task) snapshot() TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := TaskStatus{
		ID:           t.id,
		Status:       t.status,
		Phase:        t.phase,
		Percentage:   t.pct,
		AcademicYear: t.academicYear,
		Semester:     t.semester,
		CreatedAt:    t.createdAt,
		UpdatedAt:    t.updatedAt,
	}
	if t.err != nil {
		ts.Error = t.err.Error()
	}
	return ts
}

func (t *task) report(phase progress.Phase, placed, total int, message string) {
	t.mu.Lock()
	t.phase = phase
	pct := phasePercentage(phase, placed, total)
	if pct > t.pct {
		t.pct = pct
	}
	t.updatedAt = time.Now()
	sink := t.sink
	update := progress.Update{TaskID: string(t.id), Phase: phase, Percentage: t.pct, Placed: placed, Total: total, Message: message, At: t.updatedAt}
	t.mu.Unlock()
	if sink != nil {
		sink.Publish(update)
	}
}

// phasePercentage maps a phase plus its local progress into the
// task-wide monotonic percentage; it never decreases.
func phasePercentage(phase progress.Phase, placed, total int) int {
	base := map[progress.Phase]int{
		progress.PhaseInitializing: 0,
		progress.PhaseLoadingData:  5,
		progress.PhaseBuildingVars: 15,
		progress.PhaseSolving:      25,
		progress.PhaseOptimizing:   80,
		progress.PhaseFinalizing:   95,
	}
	span := map[progress.Phase]int{
		progress.PhaseSolving:    55,
		progress.PhaseOptimizing: 15,
	}
	b := base[phase]
	s := span[phase]
	if s == 0 || total <= 0 {
		return b
	}
	frac := float64(placed) / float64(total)
	if frac > 1 {
		frac = 1
	}
	return b + int(frac*float64(s))
}

// SchedulingEngine is the process-wide owner of every task's state. A
// single engine instance is shared across concurrent StartScheduling
// calls; each task gets its own goroutine and its own
// AssignmentSet/Arena, so tasks never share mutable state.
type SchedulingEngine struct {
	mu        sync.RWMutex
	tasks     map[domain.TaskID]*task
	logger    *zap.Logger
	validator *validator.Validate
	metrics   *metrics.Metrics
}

// New builds a SchedulingEngine. A nil logger or metrics falls back to
// a no-op logger and a fresh, unregistered metrics set respectively.
func New(logger *zap.Logger, m *metrics.Metrics) *SchedulingEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &SchedulingEngine{
		tasks:     make(map[domain.TaskID]*task),
		logger:    logger,
		validator: validator.New(),
		metrics:   m,
	}
}

// GetConfigPresets returns the three named SchedulerConfig profiles.
func (e *SchedulingEngine) GetConfigPresets() map[config.Preset]config.SchedulerConfig {
	return config.Presets()
}

// StartScheduling validates req, builds the Sessions for every class's
// teaching plan, and launches the solve (and, when enabled, optimize)
// pipeline in its own goroutine, returning immediately with the new
// task's id.
func (e *SchedulingEngine) StartScheduling(parent context.Context, req StartSchedulingRequest) (domain.TaskID, error) {
	if err := e.validator.Struct(req); err != nil {
		return "", engerrors.Wrap(err, engerrors.ErrValidation.Code, engerrors.ErrValidation.Status, "invalid scheduling request")
	}

	sc := resolveConfig(req.Preset, req.Config)

	id := domain.NewTaskID()
	ctx, cancel := context.WithCancel(parent)
	t := &task{
		id:           id,
		status:       StatusRunning,
		phase:        progress.PhaseInitializing,
		createdAt:    time.Now(),
		updatedAt:    time.Now(),
		academicYear: req.AcademicYear,
		semester:     req.Semester,
		cancel:       cancel,
		sink:         progress.NullSink{},
	}

	e.mu.Lock()
	e.tasks[id] = t
	e.mu.Unlock()
	e.metrics.TaskStarted()

	taskLogger := e.logger.With(zap.String("task_id", string(id)), zap.String("academic_year", req.AcademicYear), zap.String("semester", req.Semester))

	go e.run(ctx, t, req, sc, taskLogger)

	return id, nil
}

func resolveConfig(preset config.Preset, override config.SchedulerConfig) config.SchedulerConfig {
	sc := config.Presets()[config.PresetBalanced]
	if p, ok := config.Presets()[preset]; ok {
		sc = p
	}
	if override.MaxIterations > 0 {
		sc.MaxIterations = override.MaxIterations
	}
	if override.TimeLimitSeconds > 0 {
		sc.TimeLimitSeconds = override.TimeLimitSeconds
	}
	if override.LocalOptimizationIterations > 0 {
		sc.LocalOptimizationIterations = override.LocalOptimizationIterations
		sc.EnableLocalOptimization = true
	}
	if override.MaxBackjumpsPerSession > 0 {
		sc.MaxBackjumpsPerSession = override.MaxBackjumpsPerSession
	}
	if override.LookaheadAlpha > 0 {
		sc.LookaheadAlpha = override.LookaheadAlpha
	}
	return sc
}

func (e *SchedulingEngine) run(ctx context.Context, t *task, req StartSchedulingRequest, sc config.SchedulerConfig, logger *zap.Logger) {
	start := time.Now()
	t.report(progress.PhaseLoadingData, 0, 0, "compiling rule snapshot")

	snap, err := rules.Build(req.Rules)
	if err != nil {
		e.fail(t, start, err, logger)
		return
	}

	t.report(progress.PhaseBuildingVars, 0, 0, "expanding teaching plans into sessions")

	classes := make(map[domain.ClassID]domain.Class, len(req.Classes))
	for _, c := range req.Classes {
		classes[c.ID] = c
	}

	var allSessions []domain.Session
	for _, plan := range req.Plans {
		class, ok := classes[plan.ClassID]
		if !ok {
			e.fail(t, start, engerrors.Clone(engerrors.ErrConfig, "teaching plan references an unknown class"), logger)
			return
		}
		sessions, err := variables.BuildForClass(class, plan, req.Master, snap)
		if err != nil {
			e.fail(t, start, err, logger)
			return
		}
		allSessions = append(allSessions, sessions...)
	}

	arena := domain.NewArena(allSessions)
	detCtx := detector.Context{
		Arena:    arena,
		Snapshot: snap,
		Master:   req.Master,
		Classes:  classes,
	}

	t.mu.Lock()
	t.detCtx = detCtx
	t.mu.Unlock()

	t.report(progress.PhaseSolving, 0, len(allSessions), "running constructive solver")

	solverCfg := solver.Config{
		MaxIterations:               sc.MaxIterations,
		TimeLimitSeconds:            sc.TimeLimitSeconds,
		EnableLocalOptimization:     sc.EnableLocalOptimization,
		LocalOptimizationIterations: sc.LocalOptimizationIterations,
		MaxBackjumpsPerSession:      sc.MaxBackjumpsPerSession,
		LookaheadAlpha:              sc.LookaheadAlpha,
	}

	result, err := solver.Solve(ctx, allSessions, detCtx, solverCfg, func(placed, total int) {
		t.report(progress.PhaseSolving, placed, total, "")
	})
	if err != nil {
		e.fail(t, start, err, logger)
		return
	}
	if result.Cancelled {
		e.cancelled(t, start, logger)
		return
	}

	detCtx.Set = result.Set

	if sc.EnableLocalOptimization {
		t.report(progress.PhaseOptimizing, 0, sc.LocalOptimizationIterations, "running local-search optimizer")
		optCfg := optimizer.Config{
			MaxIterations:    sc.LocalOptimizationIterations,
			TimeLimitSeconds: sc.TimeLimitSeconds,
		}
		optResult := optimizer.Optimize(ctx, result.Set, detCtx, optCfg, func(iter, max int) {
			t.report(progress.PhaseOptimizing, iter, max, "")
		})
		e.metrics.OptimizerIterations(optResult.IterationsUsed)
		if optResult.Cancelled {
			e.cancelled(t, start, logger)
			return
		}
		result.Diagnostics = detector.ScoreSet(result.Set, detCtx)
		result.Stats.SoftScore = result.Diagnostics.SoftScore()
		result.Stats.CriticalConflicts = result.Diagnostics.CriticalCount()
	}

	t.report(progress.PhaseFinalizing, len(allSessions), len(allSessions), "complete")

	t.mu.Lock()
	t.status = StatusCompleted
	t.result = &TaskResult{
		Set:         result.Set,
		Arena:       arena,
		Unplaced:    result.Unplaced,
		Diagnostics: result.Diagnostics,
		Stats:       result.Stats,
	}
	t.updatedAt = time.Now()
	t.mu.Unlock()

	e.metrics.TaskFinished(string(StatusCompleted), time.Since(start).Seconds(), result.Stats.TotalScheduled, result.Stats.Unplaced, result.Stats.BackjumpCount, result.Stats.SoftScore)
	logger.Sugar().Infow("scheduling task completed", "placed", result.Stats.TotalScheduled, "unplaced", result.Stats.Unplaced, "soft_score", result.Stats.SoftScore)
}

func (e *SchedulingEngine) fail(t *task, start time.Time, err error, logger *zap.Logger) {
	t.mu.Lock()
	t.status = StatusFailed
	t.err = err
	t.updatedAt = time.Now()
	t.mu.Unlock()
	e.metrics.TaskFinished(string(StatusFailed), time.Since(start).Seconds(), 0, 0, 0, 0)
	logger.Sugar().Errorw("scheduling task failed", "error", err)
}

func (e *SchedulingEngine) cancelled(t *task, start time.Time, logger *zap.Logger) {
	t.mu.Lock()
	t.status = StatusCancelled
	t.updatedAt = time.Now()
	t.mu.Unlock()
	e.metrics.TaskFinished(string(StatusCancelled), time.Since(start).Seconds(), 0, 0, 0, 0)
	logger.Sugar().Infow("scheduling task cancelled")
}

// GetTaskStatus returns a snapshot of one task's state.
func (e *SchedulingEngine) GetTaskStatus(id domain.TaskID) (TaskStatus, error) {
	e.mu.RLock()
	t, ok := e.tasks[id]
	e.mu.RUnlock()
	if !ok {
		return TaskStatus{}, engerrors.Clone(engerrors.ErrNotFound, fmt.Sprintf("task %q not found", id))
	}
	return t.snapshot(), nil
}

// GetResult returns a completed task's result. Returns a clone of
// ErrInfeasibleInput (status StatusPrecondition) while the task is still
// running, or when it finished without a result.
func (e *SchedulingEngine) GetResult(id domain.TaskID) (*TaskResult, error) {
	e.mu.RLock()
	t, ok := e.tasks[id]
	e.mu.RUnlock()
	if !ok {
		return nil, engerrors.Clone(engerrors.ErrNotFound, fmt.Sprintf("task %q not found", id))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusRunning {
		return nil, engerrors.Clone(engerrors.ErrInfeasibleInput, "task has not finished")
	}
	if t.result == nil {
		return nil, engerrors.Clone(engerrors.ErrInfeasibleInput, "task produced no result")
	}
	return t.result, nil
}

// ListTasks returns every known task's status, oldest first.
func (e *SchedulingEngine) ListTasks() []TaskStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]TaskStatus, 0, len(e.tasks))
	for _, t := range e.tasks {
		out = append(out, t.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// StopTask cancels a running task's context. Stopping a task that has
// already finished is a no-op.
func (e *SchedulingEngine) StopTask(id domain.TaskID) error {
	e.mu.RLock()
	t, ok := e.tasks[id]
	e.mu.RUnlock()
	if !ok {
		return engerrors.Clone(engerrors.ErrNotFound, fmt.Sprintf("task %q not found", id))
	}
	t.mu.Lock()
	running := t.status == StatusRunning
	cancel := t.cancel
	t.mu.Unlock()
	if running && cancel != nil {
		cancel()
	}
	return nil
}

// DeleteTask removes a task's state. A running task is stopped first.
func (e *SchedulingEngine) DeleteTask(id domain.TaskID) error {
	if err := e.StopTask(id); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.tasks, id)
	e.mu.Unlock()
	return nil
}

// CleanupTasks deletes every terminal task older than olderThan, mirroring
// the host application's TTL-based proposalStore eviction. Returns the
// number of tasks removed.
func (e *SchedulingEngine) CleanupTasks(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)
	e.mu.Lock()
	defer e.mu.Unlock()
	removed := 0
	for id, t := range e.tasks {
		t.mu.Lock()
		stale := t.status != StatusRunning && t.updatedAt.Before(cutoff)
		t.mu.Unlock()
		if stale {
			delete(e.tasks, id)
			removed++
		}
	}
	return removed
}

// ValidateSchedule runs the whole-schedule detector over set and
// returns every violation found.
func (e *SchedulingEngine) ValidateSchedule(set *domain.AssignmentSet, detCtx detector.Context) domain.Violations {
	return detector.ScoreSet(set, detCtx)
}

// GetStatistics returns a completed task's Statistics.
func (e *SchedulingEngine) GetStatistics(id domain.TaskID) (solver.Statistics, error) {
	result, err := e.GetResult(id)
	if err != nil {
		return solver.Statistics{}, err
	}
	return result.Stats, nil
}

// ApplyManualEdit performs a move or swap against a completed task's
// result set, replacing the task's result set with the edited one on
// success. When
// req.RescoreAfterEdit is set, the optimizer runs one bounded pass over
// the edited schedule afterwards.
func (e *SchedulingEngine) ApplyManualEdit(req ManualEditRequest) (domain.Violations, error) {
	if err := e.validator.Struct(req); err != nil {
		return nil, engerrors.Wrap(err, engerrors.ErrValidation.Code, engerrors.ErrValidation.Status, "invalid manual edit request")
	}

	e.mu.RLock()
	t, ok := e.tasks[req.TaskID]
	e.mu.RUnlock()
	if !ok {
		return nil, engerrors.Clone(engerrors.ErrNotFound, fmt.Sprintf("task %q not found", req.TaskID))
	}

	t.mu.Lock()
	if t.status != StatusCompleted || t.result == nil {
		t.mu.Unlock()
		return nil, engerrors.Clone(engerrors.ErrInfeasibleInput, "task has no completed schedule to edit")
	}
	set := t.result.Set
	detCtx := t.detCtx
	t.mu.Unlock()

	session, ok := detCtx.Arena.Get(req.SessionID)
	if !ok {
		return nil, engerrors.Clone(engerrors.ErrNotFound, fmt.Sprintf("session %q not found", req.SessionID))
	}

	var newSet *domain.AssignmentSet
	var violations domain.Violations

	if req.SwapWithSessionID != "" {
		partner, ok := detCtx.Arena.Get(req.SwapWithSessionID)
		if !ok {
			return nil, engerrors.Clone(engerrors.ErrNotFound, fmt.Sprintf("session %q not found", req.SwapWithSessionID))
		}
		result, err := manualedit.SwapCourses(set, session, partner, req.SwapRooms, req.ForceSwap, detCtx)
		if err != nil {
			if result != nil {
				return result.Violations, err
			}
			return nil, err
		}
		newSet, violations = result.Set, result.Violations
	} else {
		result, err := manualedit.MoveCourse(set, session, req.TargetSlot, req.ForceMove, detCtx)
		if err != nil {
			if result != nil {
				return result.Violations, err
			}
			return nil, err
		}
		newSet, violations = result.Set, result.Violations
	}

	if req.RescoreAfterEdit {
		detCtx.Set = newSet
		optResult := optimizer.Optimize(context.Background(), newSet, detCtx, optimizer.DefaultConfig(), nil)
		newSet = optResult.Set
	}

	t.mu.Lock()
	t.result.Set = newSet
	t.result.Diagnostics = detector.ScoreSet(newSet, detCtx)
	t.result.Stats.SoftScore = t.result.Diagnostics.SoftScore()
	t.result.Stats.CriticalConflicts = t.result.Diagnostics.CriticalCount()
	t.result.Stats.TotalScheduled = newSet.Len()
	t.result.Stats.PerTeacherLoad, t.result.Stats.PerClassDistribution, t.result.Stats.PerRoomUtilization = solver.Aggregate(newSet)
	t.mu.Unlock()

	return violations, nil
}
