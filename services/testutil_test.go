package services

import (
	"strings"
	"testing"
	"time"

	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

var (
	testInstructor = dto.Actor{UserID: "instructor-1", Role: shared.RoleInstructor}
	testAdmin      = dto.Actor{UserID: "admin-1", Role: shared.RoleAdmin}
	testLearner    = dto.Actor{UserID: "learner-1", Role: shared.RoleLearner}
)

// testEnv wires the services over a private in-memory database with a clock
// the test controls. Redis, MinIO and metrics stay disabled.
type testEnv struct {
	now time.Time

	db          *DatabaseService
	aggregator  *AggregatorService
	enrollment  *EnrollmentService
	catalog     *CatalogService
	progress    *ProgressService
	certificate *CertificateService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := Open(DriverSqlite, "file:"+name+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dbSvc, err := NewDatabaseService(conn)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), db: dbSvc}
	clock := Clock(func() time.Time { return env.now })

	env.aggregator = NewAggregatorService(dbSvc, clock)
	env.enrollment = NewEnrollmentService(dbSvc, env.aggregator, clock)
	env.catalog = &CatalogService{dbSvc: dbSvc, enrollmentSvc: env.enrollment, aggregatorSvc: env.aggregator}
	env.progress = &ProgressService{
		dbSvc:         dbSvc,
		catalogSvc:    env.catalog,
		enrollmentSvc: env.enrollment,
		aggregatorSvc: env.aggregator,
		clock:         clock,
		staleAfter:    defaultStaleSessionAfter,
	}
	env.certificate = &CertificateService{dbSvc: dbSvc, aggregatorSvc: env.aggregator, clock: clock}
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) createCourse(t *testing.T, accessDays int) *model.Course {
	t.Helper()
	course, err := e.catalog.CreateCourse(testInstructor, dto.CreateCourseRequest{
		Title:       "Go Fundamentals",
		Level:       model.LevelBeginner,
		IsPublished: true,
		AccessDays:  accessDays,
	})
	if err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func lessonRequest(typ model.LessonType, durationSeconds int) dto.CreateLessonRequest {
	req := dto.CreateLessonRequest{
		Title:           "Lesson " + string(typ),
		DurationSeconds: durationSeconds,
		Type:            string(typ),
		IsPublished:     true,
	}
	switch typ {
	case model.LessonTypeVideo:
		req.Content.Video = &model.VideoContent{URL: "https://cdn.example.com/intro.mp4"}
	case model.LessonTypeText:
		req.Content.Text = &model.TextContent{Body: "Read me"}
	case model.LessonTypeLive:
		req.Content.Live = &model.LiveContent{ScheduledAt: time.Date(2025, 4, 1, 15, 0, 0, 0, time.UTC), DurationMinutes: 60}
	case model.LessonTypeQuiz:
		req.Content.Quiz = &model.QuizContent{
			PassingScore: 70,
			MaxAttempts:  3,
			Questions: []model.QuizQuestion{
				{Prompt: "Zero value of int?", Options: []string{"0", "nil"}, CorrectIndex: 0, Explanation: "ints start at 0"},
				{Prompt: "Keyword for goroutines?", Options: []string{"async", "go"}, CorrectIndex: 1},
			},
		}
	case model.LessonTypeAssignment:
		req.Content.Assignment = &model.AssignmentContent{Instructions: "Build a CLI", MaxScore: 100}
	}
	return req
}

func (e *testEnv) addLesson(t *testing.T, courseID string, typ model.LessonType, durationSeconds int) *model.Lesson {
	t.Helper()
	lesson, err := e.catalog.CreateLesson(testInstructor, courseID, lessonRequest(typ, durationSeconds))
	if err != nil {
		t.Fatalf("create %s lesson: %v", typ, err)
	}
	return lesson
}

func (e *testEnv) enroll(t *testing.T, courseID string, learner dto.Actor) *model.Enrollment {
	t.Helper()
	enrollment, err := e.enrollment.Enroll(courseID, learner.UserID, dto.EnrollRequest{})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return enrollment
}

func (e *testEnv) completeText(t *testing.T, lessonID string, learner dto.Actor) *dto.ProgressResponse {
	t.Helper()
	resp, err := e.progress.UpdateProgress(learner.UserID, lessonID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	if err != nil {
		t.Fatalf("complete lesson: %v", err)
	}
	return resp
}

func intPtr(v int) *int {
	return &v
}

func expectAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	appErr, ok := shared.GetAppError(err)
	if !ok {
		t.Fatalf("expected %d %s, got %v", status, code, err)
	}
	if appErr.StatusCode != status || (code != "" && appErr.Code != code) {
		t.Fatalf("expected %d %s, got %d %s (%s)", status, code, appErr.StatusCode, appErr.Code, appErr.Message)
	}
}
