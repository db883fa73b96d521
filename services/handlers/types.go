package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

type CatalogServiceInterface interface {
	ListCourses(filter dto.CourseFilter) (*dto.CourseListResponse, error)
	GetCourse(courseID string, actor dto.Actor) (*dto.CourseDetailResponse, error)
	CreateCourse(actor dto.Actor, req dto.CreateCourseRequest) (*model.Course, error)
	UpdateCourse(actor dto.Actor, courseID string, req dto.UpdateCourseRequest) (*model.Course, error)
	DeleteCourse(actor dto.Actor, courseID string) error
	ListLessons(courseID string, actor dto.Actor) (*dto.LessonListResponse, error)
	CreateLesson(actor dto.Actor, courseID string, req dto.CreateLessonRequest) (*model.Lesson, error)
	UpdateLesson(actor dto.Actor, lessonID string, req dto.UpdateLessonRequest) (*model.Lesson, error)
	DeleteLesson(actor dto.Actor, lessonID string) error
	ReorderLessons(actor dto.Actor, courseID string, req dto.ReorderLessonsRequest) ([]dto.LessonResponse, error)
	CourseStats(actor dto.Actor, courseID string) (*dto.CourseStatsResponse, error)
	RateCourse(actor dto.Actor, courseID string, req dto.ReviewRequest) (*model.CourseReview, error)
}

type EnrollmentServiceInterface interface {
	Enroll(courseID, learnerID string, req dto.EnrollRequest) (*model.Enrollment, error)
	ListForLearner(learnerID string) ([]model.Enrollment, error)
	Suspend(enrollmentID string) (*model.Enrollment, error)
	Resume(enrollmentID string) (*model.Enrollment, error)
}

type ProgressServiceInterface interface {
	UpdateProgress(learnerID, lessonID string, req dto.ProgressActionRequest) (*dto.ProgressResponse, error)
	GetLessonProgress(learnerID, lessonID string) (*dto.ProgressResponse, error)
	ListCourseProgress(learnerID, courseID string) (*dto.CourseProgressResponse, error)
	SubmitQuiz(learnerID, lessonID string, req dto.QuizSubmitRequest) (*dto.QuizResultResponse, error)
	SubmitAssignment(learnerID, lessonID string, req dto.AssignmentSubmitRequest) (*dto.ProgressResponse, error)
	AssignmentUploadURL(learnerID, lessonID string, req dto.AttachmentUploadRequest) (*dto.AttachmentUploadResponse, error)
	GradeAssignment(actor dto.Actor, progressID string, req dto.GradeAssignmentRequest) (*model.Progress, error)
}

type CertificateServiceInterface interface {
	IssueCertificate(actor dto.Actor, enrollmentID string) (*dto.CertificateResponse, error)
}

type LiveServiceInterface interface {
	JoinLiveLesson(actor dto.Actor, lessonID string) (*dto.LiveJoinResponse, error)
}

// actorFromCtx reads the caller set by the auth middleware. Anonymous
// requests yield an empty actor.
func actorFromCtx(c *fiber.Ctx) dto.Actor {
	userID, _ := c.Locals(shared.UserID).(string)
	role, _ := c.Locals(shared.UserRole).(string)
	return dto.Actor{UserID: userID, Role: role}
}

// bindJSON parses and validates a request body. A non-nil error has
// already been written to the response when handled is true.
func bindJSON(c *fiber.Ctx, req dto.Validator) (handled bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, shared.NewBadRequestError(err, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return true, c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}
	return false, nil
}
