package seeders

import (
	"time"

	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/services"
	"github.com/lac-hong-legacy/course_api/services/repositories"
	"github.com/rs/zerolog/log"
)

const (
	DemoCourseID     = "course_go_fundamentals"
	DemoInstructorID = "instructor_demo"
	DemoLearnerID    = "learner_demo"
)

// CourseSeeder creates a published demo course with one lesson of each type.
type CourseSeeder struct {
	dbSvc *services.DatabaseService
}

func NewCourseSeeder(dbSvc *services.DatabaseService) *CourseSeeder {
	return &CourseSeeder{dbSvc: dbSvc}
}

func (s *CourseSeeder) SeedCourses() error {
	repos := s.dbSvc.Repos()

	if _, err := repos.Courses.Get(DemoCourseID); err == nil {
		log.Info().Str("course_id", DemoCourseID).Msg("Demo course already exists, skipping")
		return nil
	} else if !services.IsNotFound(err) {
		return err
	}

	return s.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		if _, err := tx.Courses.Create(demoCourse()); err != nil {
			return err
		}

		for _, lesson := range demoLessons() {
			lesson := lesson
			if err := model.ValidatePayload(lesson.Type, lesson.Payload()); err != nil {
				return err
			}
			if _, err := tx.Lessons.Create(&lesson); err != nil {
				log.Error().Err(err).Str("lesson", lesson.Title).Msg("Error creating lesson")
				return err
			}
			log.Info().Str("lesson", lesson.Title).Str("type", string(lesson.Type)).Msg("Created lesson")
		}

		course, err := tx.Courses.RecomputeSummary(DemoCourseID)
		if err != nil {
			return err
		}
		log.Info().
			Str("course_id", course.ID).
			Int("lessons", course.TotalLessons).
			Int("duration_minutes", course.DurationMinutes).
			Msg("Created demo course")
		return nil
	})
}

func demoCourse() *model.Course {
	return &model.Course{
		ID:           DemoCourseID,
		InstructorID: DemoInstructorID,
		Title:        "Go Fundamentals",
		Description:  "Types, interfaces, concurrency and testing in Go.",
		Category:     "programming",
		Level:        model.LevelBeginner,
		Price:        0,
		Currency:     "USD",
		IsPublished:  true,
		AccessDays:   365,
	}
}

func demoLessons() []model.Lesson {
	lesson := func(id string, order int, title string, t model.LessonType, seconds int, free bool, content model.LessonContent) model.Lesson {
		l := model.Lesson{
			ID:              id,
			CourseID:        DemoCourseID,
			Title:           title,
			Order:           order,
			DurationSeconds: seconds,
			Type:            t,
			IsPublished:     true,
			IsFree:          free,
		}
		l.SetPayload(content)
		return l
	}

	return []model.Lesson{
		lesson("lesson_go_intro", 1, "Why Go", model.LessonTypeVideo, 1200, true, model.LessonContent{
			Video: &model.VideoContent{URL: "https://videos.example.com/go/intro.mp4", Provider: "hls"},
		}),
		lesson("lesson_go_types", 2, "Types and Interfaces", model.LessonTypeText, 600, false, model.LessonContent{
			Text: &model.TextContent{Body: "Interfaces are satisfied implicitly. Accept interfaces, return structs."},
		}),
		lesson("lesson_go_quiz", 3, "Checkpoint Quiz", model.LessonTypeQuiz, 300, false, model.LessonContent{
			Quiz: &model.QuizContent{
				PassingScore: 70,
				MaxAttempts:  3,
				Questions: []model.QuizQuestion{
					{Prompt: "Which keyword starts a goroutine?", Options: []string{"async", "go", "spawn"}, CorrectIndex: 1},
					{Prompt: "What is the zero value of a map?", Options: []string{"empty map", "nil"}, CorrectIndex: 1},
				},
			},
		}),
		lesson("lesson_go_live", 4, "Live Q&A", model.LessonTypeLive, 3600, false, model.LessonContent{
			Live: &model.LiveContent{ScheduledAt: time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Hour), DurationMinutes: 60},
		}),
		lesson("lesson_go_project", 5, "Build a CLI", model.LessonTypeAssignment, 0, false, model.LessonContent{
			Assignment: &model.AssignmentContent{Instructions: "Write a CLI that counts words in a file and push it to a public repository.", MaxScore: 100},
		}),
	}
}
