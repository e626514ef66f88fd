package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/variables"
	"github.com/eduscheduler/engine/pkg/config"
	"github.com/eduscheduler/engine/pkg/progress"
)

func TestResolveConfigDefaultsToBalanced(t *testing.T) {
	sc := resolveConfig("", config.SchedulerConfig{})
	balanced := config.Presets()[config.PresetBalanced]
	assert.Equal(t, balanced, sc)
}

func TestResolveConfigNamedPreset(t *testing.T) {
	sc := resolveConfig(config.PresetFast, config.SchedulerConfig{})
	fast := config.Presets()[config.PresetFast]
	assert.Equal(t, fast, sc)
}

func TestResolveConfigOverridesFields(t *testing.T) {
	sc := resolveConfig(config.PresetFast, config.SchedulerConfig{MaxIterations: 777})
	assert.Equal(t, 777, sc.MaxIterations)
	assert.Equal(t, 120, sc.TimeLimitSeconds)
}

func TestResolveConfigOverrideEnablesOptimizationWhenIterationsGiven(t *testing.T) {
	sc := resolveConfig(config.PresetFast, config.SchedulerConfig{LocalOptimizationIterations: 10})
	assert.True(t, sc.EnableLocalOptimization)
	assert.Equal(t, 10, sc.LocalOptimizationIterations)
}

func TestPhasePercentageMonotonicWithinSolving(t *testing.T) {
	start := phasePercentage(progress.PhaseSolving, 0, 10)
	mid := phasePercentage(progress.PhaseSolving, 5, 10)
	end := phasePercentage(progress.PhaseSolving, 10, 10)
	assert.True(t, start <= mid)
	assert.True(t, mid <= end)
	assert.Equal(t, 25, start)
	assert.Equal(t, 80, end)
}

func TestPhasePercentageZeroTotalReturnsBase(t *testing.T) {
	assert.Equal(t, 15, phasePercentage(progress.PhaseBuildingVars, 0, 0))
}

func buildSampleRequest() StartSchedulingRequest {
	class := domain.Class{ID: "c1", Grade: 9, StudentCount: 20}
	return StartSchedulingRequest{
		AcademicYear: "2026",
		Semester:     "1",
		Rules: domain.RawRules{
			AcademicYear: "2026",
			Semester:     "1",
			TimeRules: domain.TimeRules{
				DailyPeriods: 6,
				WorkingDays:  []int{1, 2, 3, 4, 5},
			},
		},
		Classes: []domain.Class{class},
		Plans: []domain.TeachingPlan{
			{
				ClassID: "c1",
				Assignments: []domain.CourseAssignment{
					{CourseID: "math", TeacherID: "t1", WeeklyHours: 3},
				},
			},
		},
		Master: variables.MasterData{
			Teachers: map[domain.TeacherID]domain.Teacher{"t1": {ID: "t1", Subjects: []string{"math"}}},
			Courses:  map[domain.CourseID]domain.Course{"math": {ID: "math", Subject: "math", AdmissibleRooms: []domain.RoomID{"r1"}}},
			Rooms:    map[domain.RoomID]domain.Room{"r1": {ID: "r1", Capacity: 30}},
		},
		Preset: config.PresetFast,
	}
}

func waitForTerminal(t *testing.T, e *SchedulingEngine, id domain.TaskID) TaskStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := e.GetTaskStatus(id)
		require.NoError(t, err)
		if status.Status != StatusRunning {
			return status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task did not reach a terminal state in time")
	return TaskStatus{}
}

func TestStartSchedulingEndToEnd(t *testing.T) {
	e := New(nil, nil)
	id, err := e.StartScheduling(context.Background(), buildSampleRequest())
	require.NoError(t, err)

	status := waitForTerminal(t, e, id)
	require.Equal(t, StatusCompleted, status.Status)
	assert.Equal(t, 95, status.Percentage)

	result, err := e.GetResult(id)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Set.Len())
	assert.Empty(t, result.Unplaced)
}

func TestStartSchedulingRejectsInvalidRequest(t *testing.T) {
	e := New(nil, nil)
	_, err := e.StartScheduling(context.Background(), StartSchedulingRequest{})
	require.Error(t, err)
}

func TestGetResultBeforeCompletionFails(t *testing.T) {
	e := New(nil, nil)
	id, err := e.StartScheduling(context.Background(), buildSampleRequest())
	require.NoError(t, err)
	_, err = e.GetResult(id)
	// The task may complete extremely fast on a quiet machine; only
	// assert the not-found/not-ready contract, not a hard timing race.
	if err == nil {
		waitForTerminal(t, e, id)
		return
	}
	assert.Error(t, err)
}

func TestGetTaskStatusUnknownTask(t *testing.T) {
	e := New(nil, nil)
	_, err := e.GetTaskStatus("missing")
	require.Error(t, err)
}

func TestStopTaskThenDeleteTask(t *testing.T) {
	e := New(nil, nil)
	id, err := e.StartScheduling(context.Background(), buildSampleRequest())
	require.NoError(t, err)
	waitForTerminal(t, e, id)

	require.NoError(t, e.StopTask(id))
	require.NoError(t, e.DeleteTask(id))

	_, err = e.GetTaskStatus(id)
	assert.Error(t, err)
}

func TestCleanupTasksRemovesOldTerminalTasks(t *testing.T) {
	e := New(nil, nil)
	id, err := e.StartScheduling(context.Background(), buildSampleRequest())
	require.NoError(t, err)
	waitForTerminal(t, e, id)

	removed := e.CleanupTasks(0)
	assert.Equal(t, 1, removed)
	_, err = e.GetTaskStatus(id)
	assert.Error(t, err)
}

func TestApplyManualEditMove(t *testing.T) {
	e := New(nil, nil)
	id, err := e.StartScheduling(context.Background(), buildSampleRequest())
	require.NoError(t, err)
	waitForTerminal(t, e, id)

	result, err := e.GetResult(id)
	require.NoError(t, err)
	sessions := result.Arena.All()
	require.NotEmpty(t, sessions)
	target := sessions[0]
	available := target.Domain
	require.NotEmpty(t, available)

	var newSlot domain.RoomSlot
	occupied := make(map[domain.TimeSlot]bool)
	for _, a := range result.Set.All() {
		occupied[a.Slot.Time] = true
	}
	for _, slot := range available {
		if !occupied[slot.Time] {
			newSlot = slot
			break
		}
	}
	if newSlot == (domain.RoomSlot{}) {
		t.Skip("no alternate slot available to exercise move")
	}

	_, err = e.ApplyManualEdit(ManualEditRequest{TaskID: id, SessionID: target.ID, TargetSlot: newSlot})
	require.NoError(t, err)

	updated, err := e.GetResult(id)
	require.NoError(t, err)
	got, ok := updated.Set.Get(target.ID)
	require.True(t, ok)
	assert.Equal(t, newSlot, got.Slot)
}

func TestApplyManualEditUnknownTask(t *testing.T) {
	e := New(nil, nil)
	_, err := e.ApplyManualEdit(ManualEditRequest{TaskID: "missing", SessionID: "s1"})
	require.Error(t, err)
}

func TestApplyManualEditForceMoveRejectedWithoutAllowOverride(t *testing.T) {
	e := New(nil, nil)
	id, err := e.StartScheduling(context.Background(), buildSampleRequest())
	require.NoError(t, err)
	waitForTerminal(t, e, id)

	result, err := e.GetResult(id)
	require.NoError(t, err)
	sessions := result.Arena.All()
	require.Len(t, sessions, 3)
	moving, occupied := sessions[0], sessions[1]
	occupiedSlot, ok := result.Set.Get(occupied.ID)
	require.True(t, ok)

	_, err = e.ApplyManualEdit(ManualEditRequest{
		TaskID: id, SessionID: moving.ID, TargetSlot: occupiedSlot.Slot, ForceMove: true,
	})
	require.Error(t, err)
}

func TestApplyManualEditForceMoveCommitsWhenAllowOverride(t *testing.T) {
	e := New(nil, nil)
	req := buildSampleRequest()
	req.Rules.ConflictResolution = domain.ConflictResolution{AllowOverride: true}
	id, err := e.StartScheduling(context.Background(), req)
	require.NoError(t, err)
	waitForTerminal(t, e, id)

	result, err := e.GetResult(id)
	require.NoError(t, err)
	sessions := result.Arena.All()
	require.Len(t, sessions, 3)
	moving, occupied := sessions[0], sessions[1]
	occupiedSlot, ok := result.Set.Get(occupied.ID)
	require.True(t, ok)

	_, err = e.ApplyManualEdit(ManualEditRequest{
		TaskID: id, SessionID: moving.ID, TargetSlot: occupiedSlot.Slot, ForceMove: true,
	})
	require.NoError(t, err)

	updated, err := e.GetResult(id)
	require.NoError(t, err)
	got, ok := updated.Set.Get(moving.ID)
	require.True(t, ok)
	assert.Equal(t, occupiedSlot.Slot, got.Slot)
}
