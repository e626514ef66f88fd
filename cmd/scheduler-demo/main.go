// Command scheduler-demo exercises the scheduling engine's control
// surface end to end against a small synthetic teaching plan: load
// config, start a task, poll it to completion, print its statistics.
// It uses the standard flag package rather than a CLI framework since
// it only takes two flags.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/eduscheduler/engine/internal/domain"
	"github.com/eduscheduler/engine/internal/engine"
	"github.com/eduscheduler/engine/internal/variables"
	"github.com/eduscheduler/engine/pkg/config"
	"github.com/eduscheduler/engine/pkg/logger"
	"github.com/eduscheduler/engine/pkg/metrics"
)

func main() {
	preset := flag.String("preset", "balanced", "scheduling preset: fast, balanced, thorough")
	pollInterval := flag.Duration("poll", 200*time.Millisecond, "status poll interval")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	m := metrics.New()
	eng := engine.New(logr, m)

	req := sampleRequest(config.Preset(*preset))

	taskID, err := eng.StartScheduling(context.Background(), req)
	if err != nil {
		log.Fatalf("failed to start scheduling task: %v", err)
	}
	fmt.Printf("started task %s\n", taskID)

	for {
		status, err := eng.GetTaskStatus(taskID)
		if err != nil {
			log.Fatalf("failed to read task status: %v", err)
		}
		fmt.Printf("phase=%s percentage=%d%% status=%s\n", status.Phase, status.Percentage, status.Status)
		if status.Status != engine.StatusRunning {
			break
		}
		time.Sleep(*pollInterval)
	}

	result, err := eng.GetResult(taskID)
	if err != nil {
		log.Fatalf("task did not complete: %v", err)
	}

	fmt.Printf("scheduled=%d unplaced=%d critical=%d soft_score=%.2f backjumps=%d\n",
		result.Stats.TotalScheduled, result.Stats.Unplaced, result.Stats.CriticalConflicts,
		result.Stats.SoftScore, result.Stats.BackjumpCount)

	if len(result.Unplaced) > 0 {
		fmt.Println("unplaced sessions:")
		for _, id := range result.Unplaced {
			fmt.Printf("  %s\n", id)
		}
	}
}

// sampleRequest builds a tiny, self-contained scheduling request: one
// class, two teachers, two rooms, three courses, so the demo runs
// without any external data source.
func sampleRequest(preset config.Preset) engine.StartSchedulingRequest {
	room101 := domain.RoomID("room-101")
	room102 := domain.RoomID("room-102")

	class := domain.Class{ID: "class-9a", Grade: 9, StudentCount: 28, HomeroomID: &room101}

	teacherA := domain.TeacherID("teacher-a")
	teacherB := domain.TeacherID("teacher-b")

	courseMath := domain.CourseID("course-math")
	courseEnglish := domain.CourseID("course-english")
	courseLab := domain.CourseID("course-physics-lab")

	master := variables.MasterData{
		Teachers: map[domain.TeacherID]domain.Teacher{
			teacherA: {ID: teacherA, Subjects: []string{"math"}, MaxWeeklyHours: 20},
			teacherB: {ID: teacherB, Subjects: []string{"english", "physics"}, MaxWeeklyHours: 20},
		},
		Courses: map[domain.CourseID]domain.Course{
			courseMath:    {ID: courseMath, Subject: "math", WeeklyHours: 4, AdmissibleRooms: []domain.RoomID{room101, room102}},
			courseEnglish: {ID: courseEnglish, Subject: "english", WeeklyHours: 3, AdmissibleRooms: []domain.RoomID{room101, room102}},
			courseLab: {
				ID: courseLab, Subject: "physics", WeeklyHours: 2, RequiresContinuous: true, ContinuousHours: 2,
				RequiredRoomTypes: []string{"lab"}, AdmissibleRooms: []domain.RoomID{room102}, IsLabCourse: true,
			},
		},
		Rooms: map[domain.RoomID]domain.Room{
			room101: {ID: room101, Types: []string{"classroom"}, Capacity: 30},
			room102: {ID: room102, Types: []string{"classroom", "lab"}, Capacity: 24},
		},
	}

	plan := domain.TeachingPlan{
		ClassID:      class.ID,
		AcademicYear: "2026",
		Semester:     "1",
		Assignments: []domain.CourseAssignment{
			{CourseID: courseMath, TeacherID: teacherA, WeeklyHours: 4},
			{CourseID: courseEnglish, TeacherID: teacherB, WeeklyHours: 3},
			{CourseID: courseLab, TeacherID: teacherB, WeeklyHours: 2, RequiresContinuous: true, ContinuousHours: 2},
		},
	}

	rawRules := domain.RawRules{
		AcademicYear: "2026",
		Semester:     "1",
		TimeRules: domain.TimeRules{
			DailyPeriods:     8,
			WorkingDays:      []int{1, 2, 3, 4, 5},
			PeriodDuration:   45,
			MorningPeriods:   []int{1, 2, 3, 4},
			AfternoonPeriods: []int{5, 6, 7, 8},
		},
		TeacherConstraints: domain.TeacherConstraints{
			MaxDailyHours:      6,
			MaxContinuousHours: 3,
			AvoidFridayAfternoon: true,
		},
		RoomConstraints: domain.RoomConstraints{
			RespectCapacityLimits: true,
		},
		CourseArrangement: domain.CourseArrangement{
			DistributionPolicy:  domain.DistributionBalanced,
			LabCoursePreference: domain.LabMorning,
		},
	}

	return engine.StartSchedulingRequest{
		AcademicYear: "2026",
		Semester:     "1",
		Rules:        rawRules,
		Classes:      []domain.Class{class},
		Plans:        []domain.TeachingPlan{plan},
		Master:       master,
		Preset:       preset,
	}
}
