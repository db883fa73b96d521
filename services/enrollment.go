package services

import (
	"time"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/services/repositories"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

type EnrollmentService struct {
	context.DefaultService

	dbSvc         *DatabaseService
	aggregatorSvc *AggregatorService
	monitoringSvc *MonitoringService
	clock         Clock
}

const ENROLLMENT_SVC = "enrollment_svc"

func (svc EnrollmentService) Id() string {
	return ENROLLMENT_SVC
}

func (svc *EnrollmentService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *EnrollmentService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.aggregatorSvc = svc.Service(AGGREGATOR_SVC).(*AggregatorService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

func NewEnrollmentService(dbSvc *DatabaseService, aggregatorSvc *AggregatorService, clock Clock) *EnrollmentService {
	return &EnrollmentService{dbSvc: dbSvc, aggregatorSvc: aggregatorSvc, clock: clock}
}

var errAlreadyEnrolled = shared.NewConflictError(shared.CodeAlreadyEnrolled, "Learner is already enrolled in this course")

// Enroll creates the learner's enrollment, or renews an expired one in place.
func (svc *EnrollmentService) Enroll(courseID, learnerID string, req dto.EnrollRequest) (*model.Enrollment, error) {
	repos := svc.dbSvc.Repos()

	course, err := repos.Courses.Get(courseID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Course")
		}
		return nil, svc.dbSvc.HandleError(err)
	}
	if !course.IsPublished {
		return nil, shared.NewRuleError(shared.CodeCourseUnavailable, "Course is not open for enrollment")
	}

	now := svc.clock.Now()
	payment, err := paymentFor(course, req, now)
	if err != nil {
		return nil, err
	}

	var enrollment *model.Enrollment
	renewed := false
	err = svc.dbSvc.Transaction(func(tx *repositories.Repositories) error {
		existing, err := tx.Enrollments.GetByCourseAndLearner(courseID, learnerID)
		if err != nil && !IsNotFound(err) {
			return err
		}

		if existing != nil {
			switch existing.Status {
			case model.EnrollmentActive, model.EnrollmentCompleted:
				if !existing.IsExpiredAt(now) {
					return errAlreadyEnrolled
				}
			case model.EnrollmentSuspended:
				return shared.NewForbiddenError("Enrollment is suspended")
			}

			existing.Status = model.EnrollmentActive
			existing.EnrolledAt = now
			existing.ExpiresAt = accessUntil(course, now)
			existing.Payment = payment
			if err := tx.Enrollments.Save(existing); err != nil {
				return err
			}
			enrollment = existing
			renewed = true
			return nil
		}

		total, err := tx.Lessons.CountPublished(courseID)
		if err != nil {
			return err
		}

		enrollment, err = tx.Enrollments.Create(&model.Enrollment{
			CourseID:   courseID,
			LearnerID:  learnerID,
			Status:     model.EnrollmentActive,
			EnrolledAt: now,
			ExpiresAt:  accessUntil(course, now),
			Progress: model.EnrollmentProgress{
				TotalLessons:   int(total),
				LastAccessedAt: &now,
			},
			Payment: payment,
		})
		if err != nil {
			if IsDuplicate(err) {
				return errAlreadyEnrolled
			}
			return err
		}

		return tx.Courses.RecomputeEnrollmentCount(courseID)
	})
	if err != nil {
		svc.monitoringSvc.RecordEnrollment("rejected")
		return nil, svc.dbSvc.HandleError(err)
	}

	if renewed {
		// progress kept from the previous period may already be complete
		if synced, err := svc.aggregatorSvc.Sync(enrollment.ID, nil); err == nil {
			enrollment = synced
		}
		svc.monitoringSvc.RecordEnrollment("renewed")
	} else {
		svc.monitoringSvc.RecordEnrollment("created")
	}

	log.Info().
		Str("enrollment_id", enrollment.ID).
		Str("course_id", courseID).
		Str("learner_id", learnerID).
		Bool("renewed", renewed).
		Msg("Learner enrolled")

	return enrollment, nil
}

func paymentFor(course *model.Course, req dto.EnrollRequest, now time.Time) (model.PaymentRecord, error) {
	if course.IsFree() {
		return model.PaymentRecord{
			Method:   shared.PaymentMethodFree,
			Amount:   0,
			Currency: course.Currency,
			PaidAt:   &now,
		}, nil
	}

	if req.PaymentMethod == "" || req.PaymentMethod == shared.PaymentMethodFree {
		return model.PaymentRecord{}, shared.NewValidationError("payment_method", "a paid course requires a payment method")
	}
	if req.TransactionRef == "" {
		return model.PaymentRecord{}, shared.NewValidationError("transaction_ref", "a paid course requires a transaction reference")
	}

	return model.PaymentRecord{
		Method:         req.PaymentMethod,
		Amount:         course.Price,
		Currency:       course.Currency,
		TransactionRef: req.TransactionRef,
		PaidAt:         &now,
	}, nil
}

func accessUntil(course *model.Course, from time.Time) *time.Time {
	if course.AccessDays <= 0 {
		return nil
	}
	until := from.AddDate(0, 0, course.AccessDays)
	return &until
}

// CheckValidity reports whether the enrollment grants access, moving an
// enrollment whose access window has closed to expired.
func (svc *EnrollmentService) CheckValidity(enrollment *model.Enrollment) (bool, error) {
	now := svc.clock.Now()

	if enrollment.IsExpiredAt(now) &&
		(enrollment.Status == model.EnrollmentActive || enrollment.Status == model.EnrollmentCompleted) {
		_, err := svc.dbSvc.Repos().Enrollments.TransitionStatus(enrollment.ID, model.EnrollmentExpired,
			model.EnrollmentActive, model.EnrollmentCompleted)
		if err != nil {
			return false, svc.dbSvc.HandleError(err)
		}
		enrollment.Status = model.EnrollmentExpired
		svc.monitoringSvc.RecordTransition(string(model.EnrollmentExpired))
		return false, nil
	}

	return enrollment.GrantsAccessAt(now), nil
}

// Find returns the learner's enrollment in the course, or nil.
func (svc *EnrollmentService) Find(courseID, learnerID string) (*model.Enrollment, error) {
	enrollment, err := svc.dbSvc.Repos().Enrollments.GetByCourseAndLearner(courseID, learnerID)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, svc.dbSvc.HandleError(err)
	}
	return enrollment, nil
}

// RequireAccess returns the learner's enrollment if it currently grants
// access to the course.
func (svc *EnrollmentService) RequireAccess(courseID, learnerID string) (*model.Enrollment, error) {
	enrollment, err := svc.Find(courseID, learnerID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, shared.NewForbiddenError("Not enrolled in this course").WithCode(shared.CodeEnrollmentInactive)
	}

	valid, err := svc.CheckValidity(enrollment)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, shared.NewForbiddenError("Enrollment is " + string(enrollment.Status)).WithCode(shared.CodeEnrollmentInactive)
	}
	return enrollment, nil
}

func (svc *EnrollmentService) Get(enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := svc.dbSvc.Repos().Enrollments.Get(enrollmentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Enrollment")
		}
		return nil, svc.dbSvc.HandleError(err)
	}
	return enrollment, nil
}

func (svc *EnrollmentService) ListForLearner(learnerID string) ([]model.Enrollment, error) {
	enrollments, err := svc.dbSvc.Repos().Enrollments.ListByLearner(learnerID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	now := svc.clock.Now()
	for i := range enrollments {
		if enrollments[i].IsExpiredAt(now) {
			if _, err := svc.CheckValidity(&enrollments[i]); err != nil {
				return nil, err
			}
		}
	}
	return enrollments, nil
}

func (svc *EnrollmentService) Suspend(enrollmentID string) (*model.Enrollment, error) {
	ok, err := svc.dbSvc.Repos().Enrollments.TransitionStatus(enrollmentID, model.EnrollmentSuspended,
		model.EnrollmentActive, model.EnrollmentCompleted, model.EnrollmentExpired)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}

	enrollment, err := svc.Get(enrollmentID)
	if err != nil {
		return nil, err
	}
	if !ok && enrollment.Status != model.EnrollmentSuspended {
		return nil, shared.NewRuleError(shared.CodeEnrollmentInactive, "Enrollment cannot be suspended")
	}

	svc.monitoringSvc.RecordTransition(string(model.EnrollmentSuspended))
	log.Info().Str("enrollment_id", enrollmentID).Msg("Enrollment suspended")
	return enrollment, nil
}

// Resume lifts a suspension, restoring completed, expired or active
// depending on the enrollment's progress and access window.
func (svc *EnrollmentService) Resume(enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := svc.Get(enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.Status != model.EnrollmentSuspended {
		return nil, shared.NewRuleError(shared.CodeEnrollmentInactive, "Enrollment is not suspended")
	}

	target := model.EnrollmentActive
	switch {
	case enrollment.IsExpiredAt(svc.clock.Now()):
		target = model.EnrollmentExpired
	case enrollment.Progress.ProgressPercentage == 100:
		target = model.EnrollmentCompleted
	}

	ok, err := svc.dbSvc.Repos().Enrollments.TransitionStatus(enrollmentID, target, model.EnrollmentSuspended)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	if !ok {
		return nil, shared.NewRuleError(shared.CodeEnrollmentInactive, "Enrollment changed concurrently")
	}
	enrollment.Status = target

	svc.monitoringSvc.RecordTransition(string(target))
	log.Info().Str("enrollment_id", enrollmentID).Str("status", string(target)).Msg("Enrollment resumed")
	return enrollment, nil
}

// ExpireOverdue is the batch form of CheckValidity.
func (svc *EnrollmentService) ExpireOverdue() (int64, error) {
	count, err := svc.dbSvc.Repos().Enrollments.ExpireOverdue(svc.clock.Now())
	if err != nil {
		return 0, svc.dbSvc.HandleError(err)
	}
	svc.monitoringSvc.RecordTransitions(string(model.EnrollmentExpired), count)
	return count, nil
}
