package services

import (
	"time"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

// AggregatorService derives an enrollment's progress summary from its
// progress records. Every run is a full recount, so a run that was missed
// or failed is corrected by the next one.
type AggregatorService struct {
	context.DefaultService

	dbSvc         *DatabaseService
	monitoringSvc *MonitoringService
	clock         Clock
}

const AGGREGATOR_SVC = "aggregator_svc"

func (svc AggregatorService) Id() string {
	return AGGREGATOR_SVC
}

func (svc *AggregatorService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AggregatorService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

// NewAggregatorService builds the aggregator outside the service context.
func NewAggregatorService(dbSvc *DatabaseService, clock Clock) *AggregatorService {
	return &AggregatorService{dbSvc: dbSvc, clock: clock}
}

// Sync recomputes one enrollment. currentLessonID, when set, records the
// lesson the learner last touched.
func (svc *AggregatorService) Sync(enrollmentID string, currentLessonID *string) (*model.Enrollment, error) {
	start := time.Now()
	defer func() { svc.monitoringSvc.ObserveAggregation(time.Since(start)) }()

	repos := svc.dbSvc.Repos()

	enrollment, err := repos.Enrollments.Get(enrollmentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Enrollment")
		}
		return nil, svc.dbSvc.HandleError(err)
	}

	completed, err := repos.Progress.CountCompleted(enrollmentID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	total, err := repos.Lessons.CountPublished(enrollment.CourseID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	if currentLessonID != nil {
		enrollment.Progress.CurrentLessonID = currentLessonID
	}

	transitioned := enrollment.ApplySummary(int(completed), int(total), svc.clock.Now())
	if err := repos.Enrollments.SaveSummary(enrollment); err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	if transitioned {
		svc.monitoringSvc.RecordTransition(string(model.EnrollmentCompleted))
		log.Info().
			Str("enrollment_id", enrollment.ID).
			Str("course_id", enrollment.CourseID).
			Str("learner_id", enrollment.LearnerID).
			Msg("Course completed")
	}

	return enrollment, nil
}

// SyncCourse recomputes every enrollment of a course, used after the set of
// published lessons changes. Failures are logged and the remaining
// enrollments are still processed.
func (svc *AggregatorService) SyncCourse(courseID string) error {
	enrollments, err := svc.dbSvc.Repos().Enrollments.ListByCourse(courseID)
	if err != nil {
		return svc.dbSvc.HandleError(err)
	}

	var firstErr error
	for _, enrollment := range enrollments {
		if _, err := svc.Sync(enrollment.ID, nil); err != nil {
			log.Error().Err(err).Str("enrollment_id", enrollment.ID).Msg("Failed to resync enrollment")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
