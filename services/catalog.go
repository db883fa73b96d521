package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/services/repositories"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

const (
	statsCacheTTL   = 60 * time.Second
	defaultPageSize = 20
)

type CatalogService struct {
	appContext.DefaultService

	dbSvc         *DatabaseService
	redisSvc      *RedisService
	enrollmentSvc *EnrollmentService
	aggregatorSvc *AggregatorService
}

const CATALOG_SVC = "catalog_svc"

func (svc CatalogService) Id() string {
	return CATALOG_SVC
}

func (svc *CatalogService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *CatalogService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)
	svc.aggregatorSvc = svc.Service(AGGREGATOR_SVC).(*AggregatorService)
	svc.redisSvc, _ = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// ==================== COURSE METHODS ====================

func (svc *CatalogService) ListCourses(filter dto.CourseFilter) (*dto.CourseListResponse, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultPageSize
	}

	courses, total, err := svc.dbSvc.Repos().Courses.ListPublished(repositories.CourseQuery{
		Category:     filter.Category,
		Level:        filter.Level,
		Search:       filter.Search,
		InstructorID: filter.InstructorID,
		Offset:       (page - 1) * limit,
		Limit:        limit,
	})
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	if courses == nil {
		courses = []model.Course{}
	}

	return &dto.CourseListResponse{Courses: courses, Total: total, Page: page, Limit: limit}, nil
}

// loadCourse returns a course visible to the actor. Unpublished courses are
// only visible to their instructor and admins.
func (svc *CatalogService) loadCourse(courseID string, actor dto.Actor) (*model.Course, error) {
	course, err := svc.dbSvc.Repos().Courses.Get(courseID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Course")
		}
		return nil, svc.dbSvc.HandleError(err)
	}
	if !course.IsPublished && !actor.CanManage(course.InstructorID) {
		return nil, shared.NewNotFoundError("Course")
	}
	return course, nil
}

func (svc *CatalogService) loadManagedCourse(courseID string, actor dto.Actor) (*model.Course, error) {
	course, err := svc.loadCourse(courseID, actor)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(course.InstructorID) {
		return nil, shared.NewForbiddenError("Only the course instructor can modify this course")
	}
	return course, nil
}

func (svc *CatalogService) GetCourse(courseID string, actor dto.Actor) (*dto.CourseDetailResponse, error) {
	course, err := svc.loadCourse(courseID, actor)
	if err != nil {
		return nil, err
	}

	resp := &dto.CourseDetailResponse{Course: course}
	if actor.Authenticated() {
		enrollment, err := svc.enrollmentSvc.Find(courseID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if enrollment != nil {
			valid, err := svc.enrollmentSvc.CheckValidity(enrollment)
			if err != nil {
				return nil, err
			}
			resp.IsEnrolled = valid
			resp.Enrollment = enrollment
		}
	}
	return resp, nil
}

func (svc *CatalogService) CreateCourse(actor dto.Actor, req dto.CreateCourseRequest) (*model.Course, error) {
	currency := req.Currency
	if currency == "" {
		currency = shared.CurrencyUSD
	}

	course, err := svc.dbSvc.Repos().Courses.Create(&model.Course{
		InstructorID: actor.UserID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Category:     req.Category,
		Level:        req.Level,
		ThumbnailURL: req.ThumbnailURL,
		Price:        req.Price,
		Currency:     currency,
		IsPublished:  req.IsPublished,
		AccessDays:   req.AccessDays,
	})
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	log.Info().Str("course_id", course.ID).Str("instructor_id", actor.UserID).Msg("Course created")
	return course, nil
}

func (svc *CatalogService) UpdateCourse(actor dto.Actor, courseID string, req dto.UpdateCourseRequest) (*model.Course, error) {
	course, err := svc.loadManagedCourse(courseID, actor)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = *req.ThumbnailURL
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Currency != nil {
		course.Currency = *req.Currency
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}
	if req.AccessDays != nil {
		course.AccessDays = *req.AccessDays
	}

	if err := svc.dbSvc.Repos().Courses.Update(course); err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	return course, nil
}

func (svc *CatalogService) DeleteCourse(actor dto.Actor, courseID string) error {
	if _, err := svc.loadManagedCourse(courseID, actor); err != nil {
		return err
	}

	err := svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		return tx.Courses.Delete(courseID)
	})
	if err != nil {
		return svc.dbSvc.HandleError(err)
	}

	svc.invalidateStats(courseID)
	log.Info().Str("course_id", courseID).Str("actor_id", actor.UserID).Msg("Course deleted")
	return nil
}

// ==================== LESSON METHODS ====================

func (svc *CatalogService) GetLesson(lessonID string) (*model.Lesson, error) {
	lesson, err := svc.dbSvc.Repos().Lessons.Get(lessonID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Lesson")
		}
		return nil, svc.dbSvc.HandleError(err)
	}
	return lesson, nil
}

// GetCourseAndLesson loads a lesson with its course.
func (svc *CatalogService) GetCourseAndLesson(lessonID string) (*model.Course, *model.Lesson, error) {
	lesson, err := svc.GetLesson(lessonID)
	if err != nil {
		return nil, nil, err
	}
	course, err := svc.dbSvc.Repos().Courses.Get(lesson.CourseID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil, shared.NewNotFoundError("Course")
		}
		return nil, nil, svc.dbSvc.HandleError(err)
	}
	return course, lesson, nil
}

// ListLessons returns the course outline. Payloads are included for free
// lessons, for learners holding a valid enrollment and for the instructor.
// Quiz answer keys are only included for the instructor.
func (svc *CatalogService) ListLessons(courseID string, actor dto.Actor) (*dto.LessonListResponse, error) {
	course, err := svc.loadCourse(courseID, actor)
	if err != nil {
		return nil, err
	}

	manager := actor.CanManage(course.InstructorID)
	hasAccess := manager
	if !hasAccess && actor.Authenticated() {
		enrollment, err := svc.enrollmentSvc.Find(courseID, actor.UserID)
		if err != nil {
			return nil, err
		}
		if enrollment != nil {
			if hasAccess, err = svc.enrollmentSvc.CheckValidity(enrollment); err != nil {
				return nil, err
			}
		}
	}

	lessons, err := svc.dbSvc.Repos().Lessons.ListByCourse(courseID, !manager)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	resp := &dto.LessonListResponse{CourseID: courseID, HasAccess: hasAccess, Lessons: make([]dto.LessonResponse, 0, len(lessons))}
	for i := range lessons {
		resp.Lessons = append(resp.Lessons, MapLessonToResponse(&lessons[i], hasAccess || lessons[i].IsFree, manager))
	}
	return resp, nil
}

func MapLessonToResponse(lesson *model.Lesson, unlocked, withAnswers bool) dto.LessonResponse {
	resp := dto.LessonResponse{
		ID:              lesson.ID,
		CourseID:        lesson.CourseID,
		Title:           lesson.Title,
		Order:           lesson.Order,
		DurationSeconds: lesson.DurationSeconds,
		Type:            lesson.Type,
		IsPublished:     lesson.IsPublished,
		IsFree:          lesson.IsFree,
		Locked:          !unlocked,
	}
	if !unlocked {
		return resp
	}

	content := lesson.Payload()
	if content.Quiz != nil && !withAnswers {
		quiz := *content.Quiz
		quiz.Questions = make([]model.QuizQuestion, len(content.Quiz.Questions))
		for i, q := range content.Quiz.Questions {
			quiz.Questions[i] = model.QuizQuestion{Prompt: q.Prompt, Options: q.Options, CorrectIndex: -1}
		}
		content.Quiz = &quiz
	}
	resp.Content = &content
	return resp
}

func payloadError(err error) error {
	var pe *model.PayloadError
	if errors.As(err, &pe) {
		return shared.NewValidationError(pe.Field, pe.Message)
	}
	return err
}

func (svc *CatalogService) CreateLesson(actor dto.Actor, courseID string, req dto.CreateLessonRequest) (*model.Lesson, error) {
	if _, err := svc.loadManagedCourse(courseID, actor); err != nil {
		return nil, err
	}

	lessonType := model.LessonType(req.Type)
	if err := model.ValidatePayload(lessonType, req.Content); err != nil {
		return nil, payloadError(err)
	}

	lesson := &model.Lesson{
		CourseID:        courseID,
		Title:           strings.TrimSpace(req.Title),
		Order:           req.Order,
		DurationSeconds: req.DurationSeconds,
		Type:            lessonType,
		IsPublished:     req.IsPublished,
		IsFree:          req.IsFree,
	}
	lesson.SetPayload(req.Content)

	err := svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		if lesson.Order == 0 {
			max, err := tx.Lessons.MaxOrder(courseID)
			if err != nil {
				return err
			}
			lesson.Order = max + 1
		} else {
			taken, err := tx.Lessons.OrderTaken(courseID, lesson.Order)
			if err != nil {
				return err
			}
			if taken {
				return shared.NewConflictError(shared.CodeDuplicateOrder, "Another lesson already has this order")
			}
		}

		if _, err := tx.Lessons.Create(lesson); err != nil {
			if IsDuplicate(err) {
				return shared.NewConflictError(shared.CodeDuplicateOrder, "Another lesson already has this order")
			}
			return err
		}
		_, err := tx.Courses.RecomputeSummary(courseID)
		return err
	})
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	if lesson.IsPublished {
		svc.resyncEnrollments(courseID)
	}
	svc.invalidateStats(courseID)
	return lesson, nil
}

func (svc *CatalogService) UpdateLesson(actor dto.Actor, lessonID string, req dto.UpdateLessonRequest) (*model.Lesson, error) {
	lesson, err := svc.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if _, err := svc.loadManagedCourse(lesson.CourseID, actor); err != nil {
		return nil, err
	}

	wasPublished := lesson.IsPublished
	if req.Title != nil {
		lesson.Title = strings.TrimSpace(*req.Title)
	}
	if req.DurationSeconds != nil {
		lesson.DurationSeconds = *req.DurationSeconds
	}
	if req.IsPublished != nil {
		lesson.IsPublished = *req.IsPublished
	}
	if req.IsFree != nil {
		lesson.IsFree = *req.IsFree
	}

	lessonType := lesson.Type
	content := lesson.Payload()
	if req.Type != nil {
		lessonType = model.LessonType(*req.Type)
		if req.Content == nil && lessonType != lesson.Type {
			return nil, shared.NewValidationError("content", "changing the lesson type requires a new payload")
		}
	}
	if req.Content != nil {
		content = *req.Content
	}
	if err := model.ValidatePayload(lessonType, content); err != nil {
		return nil, payloadError(err)
	}
	lesson.Type = lessonType
	lesson.SetPayload(content)

	err = svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		if err := tx.Lessons.Update(lesson); err != nil {
			return err
		}
		_, err := tx.Courses.RecomputeSummary(lesson.CourseID)
		return err
	})
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	if wasPublished != lesson.IsPublished {
		svc.resyncEnrollments(lesson.CourseID)
	}
	svc.invalidateStats(lesson.CourseID)
	return lesson, nil
}

func (svc *CatalogService) DeleteLesson(actor dto.Actor, lessonID string) error {
	lesson, err := svc.GetLesson(lessonID)
	if err != nil {
		return err
	}
	if _, err := svc.loadManagedCourse(lesson.CourseID, actor); err != nil {
		return err
	}

	err = svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		if err := tx.Lessons.Delete(lessonID); err != nil {
			return err
		}
		_, err := tx.Courses.RecomputeSummary(lesson.CourseID)
		return err
	})
	if err != nil {
		return svc.dbSvc.HandleError(err)
	}

	svc.resyncEnrollments(lesson.CourseID)
	svc.invalidateStats(lesson.CourseID)
	return nil
}

// ReorderLessons applies new positions for a subset of the course's
// lessons in one transaction. The resulting order set must stay unique,
// including lessons the request does not move.
func (svc *CatalogService) ReorderLessons(actor dto.Actor, courseID string, req dto.ReorderLessonsRequest) ([]dto.LessonResponse, error) {
	if _, err := svc.loadManagedCourse(courseID, actor); err != nil {
		return nil, err
	}

	err := svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		lessons, err := tx.Lessons.ListByCourse(courseID, false)
		if err != nil {
			return err
		}

		assignments, err := planReorder(lessons, req.Lessons)
		if err != nil {
			return err
		}
		if len(assignments) == 0 {
			return nil
		}
		return tx.Lessons.ApplyOrders(courseID, assignments)
	})
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	lessons, err := svc.dbSvc.Repos().Lessons.ListByCourse(courseID, false)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	out := make([]dto.LessonResponse, 0, len(lessons))
	for i := range lessons {
		out = append(out, MapLessonToResponse(&lessons[i], false, false))
	}
	return out, nil
}

// planReorder validates a reorder request against the current lessons and
// returns the assignments that actually change a position.
func planReorder(current []model.Lesson, items []dto.ReorderItem) ([]repositories.OrderAssignment, error) {
	final := make(map[string]int, len(current))
	for _, l := range current {
		final[l.ID] = l.Order
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if _, ok := final[item.LessonID]; !ok {
			return nil, shared.NewValidationError("lessons", "lesson "+item.LessonID+" does not belong to this course")
		}
		if seen[item.LessonID] {
			return nil, shared.NewValidationError("lessons", "lesson "+item.LessonID+" appears more than once")
		}
		if item.Order < 1 {
			return nil, shared.NewValidationError("lessons", "order must be a positive integer")
		}
		seen[item.LessonID] = true
		final[item.LessonID] = item.Order
	}

	owner := make(map[int]string, len(final))
	for id, order := range final {
		if other, dup := owner[order]; dup {
			return nil, shared.NewConflictError(shared.CodeDuplicateOrder,
				"lessons "+other+" and "+id+" would share the same order")
		}
		owner[order] = id
	}

	var assignments []repositories.OrderAssignment
	for _, l := range current {
		if final[l.ID] != l.Order {
			assignments = append(assignments, repositories.OrderAssignment{LessonID: l.ID, Order: final[l.ID]})
		}
	}
	return assignments, nil
}

func (svc *CatalogService) resyncEnrollments(courseID string) {
	if err := svc.aggregatorSvc.SyncCourse(courseID); err != nil {
		log.Warn().Err(err).Str("course_id", courseID).Msg("Enrollment resync incomplete, summaries will heal on next progress event")
	}
}

// ==================== STATS & REVIEWS ====================

func statsKey(courseID string) string {
	return "course:stats:" + courseID
}

func (svc *CatalogService) invalidateStats(courseID string) {
	if err := svc.redisSvc.Delete(context.Background(), statsKey(courseID)); err != nil {
		log.Warn().Err(err).Str("course_id", courseID).Msg("Failed to invalidate stats cache")
	}
}

func (svc *CatalogService) CourseStats(actor dto.Actor, courseID string) (*dto.CourseStatsResponse, error) {
	course, err := svc.loadManagedCourse(courseID, actor)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var cached dto.CourseStatsResponse
	if hit, err := svc.redisSvc.GetJSON(ctx, statsKey(courseID), &cached); err == nil && hit {
		return &cached, nil
	}

	repos := svc.dbSvc.Repos()
	stats, err := repos.Enrollments.Stats(courseID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	published, err := repos.Lessons.CountPublished(courseID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	resp := &dto.CourseStatsResponse{
		CourseID:             courseID,
		TotalLessons:         course.TotalLessons,
		PublishedLessons:     published,
		DurationMinutes:      course.DurationMinutes,
		TotalEnrollments:     stats.Total,
		ActiveEnrollments:    stats.ByStatus[model.EnrollmentActive],
		CompletedEnrollments: stats.ByStatus[model.EnrollmentCompleted],
		ExpiredEnrollments:   stats.ByStatus[model.EnrollmentExpired],
		SuspendedEnrollments: stats.ByStatus[model.EnrollmentSuspended],
		AverageProgress:      math.Round(stats.AverageProgress*100) / 100,
		CertificatesIssued:   stats.CertificatesIssued,
		Rating:               course.Rating,
		RatingCount:          course.RatingCount,
	}
	if stats.Total > 0 {
		resp.CompletionRate = math.Round(float64(resp.CompletedEnrollments)/float64(stats.Total)*10000) / 100
	}

	if err := svc.redisSvc.Set(ctx, statsKey(courseID), resp, statsCacheTTL); err != nil && svc.redisSvc.Enabled() {
		log.Warn().Err(err).Str("course_id", courseID).Msg("Failed to cache course stats")
	}
	return resp, nil
}

// RateCourse records the learner's review. Any enrollment other than a
// suspended one may review.
func (svc *CatalogService) RateCourse(actor dto.Actor, courseID string, req dto.ReviewRequest) (*model.CourseReview, error) {
	if _, err := svc.loadCourse(courseID, actor); err != nil {
		return nil, err
	}

	enrollment, err := svc.enrollmentSvc.Find(courseID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status == model.EnrollmentSuspended {
		return nil, shared.NewForbiddenError("Only enrolled learners can review this course")
	}

	var review *model.CourseReview
	err = svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		var err error
		review, err = tx.Reviews.Upsert(&model.CourseReview{
			CourseID:  courseID,
			LearnerID: actor.UserID,
			Rating:    req.Rating,
			Comment:   req.Comment,
		})
		if err != nil {
			return err
		}
		return tx.Courses.RecomputeRating(courseID)
	})
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	svc.invalidateStats(courseID)
	return review, nil
}
