package services

import (
	"context"
	"math"
	"os"
	"path"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

const (
	defaultStaleSessionAfter = 4 * time.Hour
	progressLockTTL          = 5 * time.Second
	progressLockAttempts     = 5
	progressLockBackoff      = 50 * time.Millisecond
	attachmentURLExpiry      = 15 * time.Minute
)

// ProgressService owns the learner side of a lesson: watch sessions, quiz
// attempts and assignment submissions. Every write is followed by an
// aggregator sync of the owning enrollment.
type ProgressService struct {
	appContext.DefaultService

	dbSvc         *DatabaseService
	redisSvc      *RedisService
	catalogSvc    *CatalogService
	enrollmentSvc *EnrollmentService
	aggregatorSvc *AggregatorService
	monitoringSvc *MonitoringService
	minioSvc      *MinIOService

	clock      Clock
	staleAfter time.Duration
}

const PROGRESS_SVC = "progress_svc"

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *appContext.Context) error {
	svc.staleAfter = defaultStaleSessionAfter
	if v := os.Getenv("STALE_SESSION_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		svc.staleAfter = d
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)
	svc.aggregatorSvc = svc.Service(AGGREGATOR_SVC).(*AggregatorService)
	svc.redisSvc, _ = svc.Service(REDIS_SVC).(*RedisService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	svc.minioSvc, _ = svc.Service(MINIO_SVC).(*MinIOService)
	return nil
}

type lessonAccess struct {
	course     *model.Course
	lesson     *model.Lesson
	enrollment *model.Enrollment
}

// resolve loads a published lesson and the learner's enrollment, which must
// currently grant access.
func (svc *ProgressService) resolve(learnerID, lessonID string) (*lessonAccess, error) {
	course, lesson, err := svc.catalogSvc.GetCourseAndLesson(lessonID)
	if err != nil {
		return nil, err
	}
	if !lesson.IsPublished || !course.IsPublished {
		return nil, shared.NewNotFoundError("Lesson")
	}

	enrollment, err := svc.enrollmentSvc.RequireAccess(course.ID, learnerID)
	if err != nil {
		return nil, err
	}
	return &lessonAccess{course: course, lesson: lesson, enrollment: enrollment}, nil
}

func (svc *ProgressService) lock(key string) (func(), error) {
	ctx := context.Background()
	for attempt := 0; attempt < progressLockAttempts; attempt++ {
		release, ok, err := svc.redisSvc.Lock(ctx, key, progressLockTTL)
		if err != nil {
			// redis trouble must not block learners
			log.Warn().Err(err).Str("key", key).Msg("Progress lock unavailable, continuing unlocked")
			return func() {}, nil
		}
		if ok {
			return release, nil
		}
		time.Sleep(progressLockBackoff)
	}
	return nil, shared.NewUnavailableError("Progress record is busy, retry shortly", nil)
}

// mutate runs fn against the learner's progress record for the lesson,
// persists it and resyncs the enrollment. A first touch builds the record in
// memory and inserts it only after fn succeeds, so a rejected action writes
// nothing.
func (svc *ProgressService) mutate(access *lessonAccess, learnerID string, fn func(p *model.Progress, now time.Time) error) (*dto.ProgressResponse, error) {
	release, err := svc.lock("progress:lock:" + access.enrollment.ID + ":" + access.lesson.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	repos := svc.dbSvc.Repos()
	var progress *model.Progress
	var wasCompleted bool
	for attempt := 0; ; attempt++ {
		record, isNew, err := repos.Progress.FindOrNew(access.enrollment.ID, access.lesson.ID, learnerID)
		if err != nil {
			return nil, svc.dbSvc.HandleError(err)
		}

		wasCompleted = record.Completed
		if err := fn(record, svc.clock.Now()); err != nil {
			return nil, err
		}

		if !isNew {
			err = repos.Progress.Save(record)
		} else if err = repos.Progress.Create(record); err != nil && IsDuplicate(err) && attempt == 0 {
			// another request inserted the record first, apply fn to its row
			continue
		}
		if err != nil {
			return nil, svc.dbSvc.HandleError(err)
		}
		progress = record
		break
	}

	if !wasCompleted && progress.Completed {
		svc.monitoringSvc.RecordLessonCompleted(string(access.lesson.Type))
		log.Info().
			Str("progress_id", progress.ID).
			Str("lesson_id", access.lesson.ID).
			Str("learner_id", learnerID).
			Msg("Lesson completed")
	}

	return svc.respond(progress, access.enrollment), nil
}

// respond syncs the enrollment summary. A failed sync is logged and the
// stale summary returned; the next write recomputes it from scratch.
func (svc *ProgressService) respond(progress *model.Progress, enrollment *model.Enrollment) *dto.ProgressResponse {
	lessonID := progress.LessonID
	synced, err := svc.aggregatorSvc.Sync(enrollment.ID, &lessonID)
	if err != nil {
		log.Warn().Err(err).Str("enrollment_id", enrollment.ID).Msg("Enrollment summary sync failed")
		synced = enrollment
	}
	return &dto.ProgressResponse{
		Progress:         progress,
		EnrollmentStatus: synced.Status,
		Summary:          synced.Progress,
	}
}

func positionOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

// ==================== WATCH SESSIONS ====================

func (svc *ProgressService) UpdateProgress(learnerID, lessonID string, req dto.ProgressActionRequest) (*dto.ProgressResponse, error) {
	access, err := svc.resolve(learnerID, lessonID)
	if err != nil {
		return nil, err
	}
	lesson := access.lesson

	return svc.mutate(access, learnerID, func(p *model.Progress, now time.Time) error {
		switch req.Action {
		case dto.ActionStart:
			if idx := p.OpenSession(); idx >= 0 {
				if now.Sub(p.Sessions[idx].StartTime) < svc.staleAfter {
					return shared.NewConflictError(shared.CodeSessionOpen, "Another watch session is already open for this lesson")
				}
				closed := p.AbandonOpenSessions(now)
				log.Info().Str("progress_id", p.ID).Int("sessions", closed).Msg("Abandoned stale watch sessions")
			}
			p.StartSession(positionOr(req.Position, p.LastWatchedPosition), now)
			svc.monitoringSvc.RecordSessionEvent(dto.ActionStart, 0)

		case dto.ActionUpdate:
			if req.Position == nil {
				return shared.NewValidationError("position", "position is required")
			}
			p.Heartbeat(*req.Position)

		case dto.ActionEnd:
			before := p.WatchTimeSeconds
			if p.EndSession(positionOr(req.Position, p.LastWatchedPosition), now, lesson.DurationSeconds) {
				svc.monitoringSvc.RecordSessionEvent(dto.ActionEnd, p.WatchTimeSeconds-before)
			}

		case dto.ActionSeek:
			if req.From == nil || req.To == nil {
				return shared.NewValidationError("to", "from and to are required for seek")
			}
			p.Seek(*req.From, *req.To, now)

		case dto.ActionComplete:
			if lesson.Type != model.LessonTypeText && lesson.Type != model.LessonTypeLive {
				return shared.NewValidationError("action", "complete is only accepted for text and live lessons")
			}
			p.MarkComplete(now)

		default:
			return shared.NewValidationError("action", "unknown action "+req.Action)
		}
		return nil
	})
}

func (svc *ProgressService) GetLessonProgress(learnerID, lessonID string) (*dto.ProgressResponse, error) {
	access, err := svc.resolve(learnerID, lessonID)
	if err != nil {
		return nil, err
	}

	// an untouched lesson reads as an empty record without storing one
	progress, _, err := svc.dbSvc.Repos().Progress.FindOrNew(access.enrollment.ID, lessonID, learnerID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	return &dto.ProgressResponse{
		Progress:         progress,
		EnrollmentStatus: access.enrollment.Status,
		Summary:          access.enrollment.Progress,
	}, nil
}

// ListCourseProgress returns the learner's enrollment with every progress
// record under it. Expired enrollments are still readable.
func (svc *ProgressService) ListCourseProgress(learnerID, courseID string) (*dto.CourseProgressResponse, error) {
	enrollment, err := svc.enrollmentSvc.Find(courseID, learnerID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, shared.NewNotFoundError("Enrollment")
	}
	if _, err := svc.enrollmentSvc.CheckValidity(enrollment); err != nil {
		return nil, err
	}

	records, err := svc.dbSvc.Repos().Progress.ListByEnrollment(enrollment.ID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	if records == nil {
		records = []model.Progress{}
	}
	return &dto.CourseProgressResponse{Enrollment: enrollment, Lessons: records}, nil
}

// ==================== QUIZ ====================

// GradeQuiz scores answers against the quiz key. A missing or out of range
// answer counts as wrong; answers beyond the last question are ignored.
func GradeQuiz(quiz *model.QuizContent, answers []int, now time.Time) model.QuizAttempt {
	attempt := model.QuizAttempt{
		Answers:     answers,
		Correct:     make([]bool, len(quiz.Questions)),
		AttemptedAt: now,
	}
	if len(quiz.Questions) == 0 {
		return attempt
	}

	correct := 0
	for i, q := range quiz.Questions {
		if i < len(answers) && answers[i] == q.CorrectIndex {
			attempt.Correct[i] = true
			correct++
		}
	}
	attempt.Score = int(math.Round(float64(correct) / float64(len(quiz.Questions)) * 100))
	return attempt
}

func (svc *ProgressService) SubmitQuiz(learnerID, lessonID string, req dto.QuizSubmitRequest) (*dto.QuizResultResponse, error) {
	access, err := svc.resolve(learnerID, lessonID)
	if err != nil {
		return nil, err
	}
	if access.lesson.Type != model.LessonTypeQuiz {
		return nil, shared.NewRuleError(shared.CodeNotAQuiz, "Lesson is not a quiz")
	}
	quiz := access.lesson.QuizPayload()
	if quiz == nil || len(quiz.Questions) == 0 {
		return nil, shared.NewValidationError("content", "quiz has no questions")
	}

	result := &dto.QuizResultResponse{TotalQuestions: len(quiz.Questions), PassingScore: quiz.PassingScore}
	_, err = svc.mutate(access, learnerID, func(p *model.Progress, now time.Time) error {
		state := p.QuizState()
		if quiz.MaxAttempts > 0 && len(state.Attempts) >= quiz.MaxAttempts {
			return shared.NewConflictError(shared.CodeAttemptsExhausted, "No quiz attempts left")
		}

		attempt := GradeQuiz(quiz, req.Answers, now)
		state = p.RecordQuizAttempt(attempt, quiz.PassingScore)
		if attempt.Score >= quiz.PassingScore {
			p.MarkComplete(now)
		}

		result.Score = attempt.Score
		result.Correct = attempt.Correct
		for _, ok := range attempt.Correct {
			if ok {
				result.CorrectCount++
			}
		}
		result.BestScore = state.BestScore
		result.Passed = state.Passed
		result.Attempts = len(state.Attempts)
		result.Completed = p.Completed
		return nil
	})
	if err != nil {
		return nil, err
	}

	svc.monitoringSvc.RecordQuiz(result.Score >= quiz.PassingScore)
	log.Info().
		Str("lesson_id", lessonID).
		Str("learner_id", learnerID).
		Int("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Quiz submitted")
	return result, nil
}

// ==================== ASSIGNMENTS ====================

// SubmitAssignment records the learner's single submission and completes
// the lesson. Grading happens later and never affects completion.
func (svc *ProgressService) SubmitAssignment(learnerID, lessonID string, req dto.AssignmentSubmitRequest) (*dto.ProgressResponse, error) {
	access, err := svc.resolve(learnerID, lessonID)
	if err != nil {
		return nil, err
	}
	if access.lesson.Type != model.LessonTypeAssignment {
		return nil, shared.NewRuleError(shared.CodeNotAnAssignment, "Lesson is not an assignment")
	}

	return svc.mutate(access, learnerID, func(p *model.Progress, now time.Time) error {
		state := p.AssignmentState()
		if state.Submitted {
			return shared.NewConflictError(shared.CodeAlreadySubmitted, "Assignment already submitted")
		}

		submittedAt := now
		p.SetAssignment(model.AssignmentState{
			Submitted:   true,
			SubmittedAt: &submittedAt,
			URL:         req.URL,
			Text:        req.Text,
		})
		p.MarkComplete(now)
		return nil
	})
}

// AssignmentUploadURL hands out a short lived upload URL for one
// attachment. The learner then submits the object URL with the assignment.
func (svc *ProgressService) AssignmentUploadURL(learnerID, lessonID string, req dto.AttachmentUploadRequest) (*dto.AttachmentUploadResponse, error) {
	access, err := svc.resolve(learnerID, lessonID)
	if err != nil {
		return nil, err
	}
	if access.lesson.Type != model.LessonTypeAssignment {
		return nil, shared.NewRuleError(shared.CodeNotAnAssignment, "Lesson is not an assignment")
	}
	if !svc.minioSvc.Enabled() {
		return nil, shared.NewUnavailableError("Attachment uploads are not available", nil)
	}

	objectName := "assignments/" + access.enrollment.ID + "/" + lessonID + "/" + uuid.NewString() + path.Ext(req.FileName)
	uploadURL, err := svc.minioSvc.PresignUpload(context.Background(), objectName, attachmentURLExpiry)
	if err != nil {
		log.Error().Err(err).Str("object", objectName).Msg("Failed to presign attachment upload")
		return nil, shared.NewUnavailableError("Attachment uploads are not available", err)
	}

	return &dto.AttachmentUploadResponse{
		ObjectName: objectName,
		UploadURL:  uploadURL,
		ExpiresAt:  svc.clock.Now().Add(attachmentURLExpiry),
	}, nil
}

// GradeAssignment attaches an advisory grade to a submitted assignment.
// Only the course instructor or an admin may grade.
func (svc *ProgressService) GradeAssignment(actor dto.Actor, progressID string, req dto.GradeAssignmentRequest) (*model.Progress, error) {
	repos := svc.dbSvc.Repos()
	progress, err := repos.Progress.Get(progressID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Progress")
		}
		return nil, svc.dbSvc.HandleError(err)
	}

	course, lesson, err := svc.catalogSvc.GetCourseAndLesson(progress.LessonID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(course.InstructorID) {
		return nil, shared.NewForbiddenError("Only the course instructor can grade assignments")
	}
	if lesson.Type != model.LessonTypeAssignment {
		return nil, shared.NewRuleError(shared.CodeNotAnAssignment, "Lesson is not an assignment")
	}

	release, err := svc.lock("progress:lock:" + progress.EnrollmentID + ":" + progress.LessonID)
	if err != nil {
		return nil, err
	}
	defer release()

	// reload under the lock so a concurrent learner write is not lost
	if progress, err = repos.Progress.Get(progressID); err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	state := progress.AssignmentState()
	if !state.Submitted {
		return nil, shared.NewRuleError(shared.CodeNotComplete, "Assignment has not been submitted")
	}
	if payload := lesson.Payload().Assignment; payload != nil && payload.MaxScore > 0 && req.Score > payload.MaxScore {
		return nil, shared.NewValidationError("score", "score exceeds the assignment maximum")
	}

	state.Grade = &model.AssignmentGrade{
		Score:    req.Score,
		Feedback: req.Feedback,
		GradedAt: svc.clock.Now(),
		GradedBy: actor.UserID,
	}
	progress.SetAssignment(state)
	if err := repos.Progress.Save(progress); err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	log.Info().Str("progress_id", progressID).Str("graded_by", actor.UserID).Int("score", req.Score).Msg("Assignment graded")
	return progress, nil
}
