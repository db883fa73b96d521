package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

const manifestURLExpiry = 24 * time.Hour

// CertificateService issues at most one certificate per fully completed
// enrollment. Rendering the certificate itself is left to an external
// consumer of the stored manifest.
type CertificateService struct {
	appContext.DefaultService

	dbSvc         *DatabaseService
	minioSvc      *MinIOService
	aggregatorSvc *AggregatorService
	monitoringSvc *MonitoringService
	clock         Clock
}

const CERTIFICATE_SVC = "certificate_svc"

func (svc CertificateService) Id() string {
	return CERTIFICATE_SVC
}

func (svc *CertificateService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *CertificateService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.aggregatorSvc = svc.Service(AGGREGATOR_SVC).(*AggregatorService)
	svc.minioSvc, _ = svc.Service(MINIO_SVC).(*MinIOService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)
	return nil
}

var errAlreadyIssued = shared.NewConflictError(shared.CodeAlreadyIssued, "Certificate already issued for this enrollment")

func certificateNumber(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("CERT-%d-%s", now.Year(), strings.ToUpper(id[:12]))
}

// IssueCertificate may be called by the enrolled learner, the course
// instructor or an admin.
func (svc *CertificateService) IssueCertificate(actor dto.Actor, enrollmentID string) (*dto.CertificateResponse, error) {
	repos := svc.dbSvc.Repos()

	enrollment, err := repos.Enrollments.Get(enrollmentID)
	if err != nil {
		if IsNotFound(err) {
			return nil, shared.NewNotFoundError("Enrollment")
		}
		return nil, svc.dbSvc.HandleError(err)
	}
	course, err := repos.Courses.Get(enrollment.CourseID)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	if actor.UserID != enrollment.LearnerID && !actor.CanManage(course.InstructorID) {
		return nil, shared.NewForbiddenError("Not allowed to issue this certificate")
	}
	if enrollment.Status == model.EnrollmentSuspended {
		return nil, shared.NewForbiddenError("Enrollment is suspended").WithCode(shared.CodeEnrollmentInactive)
	}
	if enrollment.Certificate.Issued {
		return nil, errAlreadyIssued
	}

	// bring a stale summary up to date before judging eligibility
	if synced, err := svc.aggregatorSvc.Sync(enrollmentID, nil); err == nil {
		enrollment = synced
	}
	if enrollment.Progress.ProgressPercentage != 100 {
		return nil, shared.NewRuleError(shared.CodeNotComplete, "Course is not fully completed")
	}

	now := svc.clock.Now()
	number := certificateNumber(now)
	issued, err := repos.Enrollments.IssueCertificate(enrollmentID, number, now)
	if err != nil {
		return nil, svc.dbSvc.HandleError(err)
	}
	if !issued {
		// lost the race to a concurrent request
		return nil, errAlreadyIssued
	}

	svc.monitoringSvc.RecordCertificate()
	log.Info().
		Str("enrollment_id", enrollmentID).
		Str("certificate_id", number).
		Str("learner_id", enrollment.LearnerID).
		Msg("Certificate issued")

	resp := &dto.CertificateResponse{
		CertificateID: number,
		EnrollmentID:  enrollmentID,
		CourseID:      course.ID,
		LearnerID:     enrollment.LearnerID,
		IssuedAt:      now,
	}
	resp.ManifestURL = svc.storeManifest(course, enrollment, number, now)
	return resp, nil
}

// storeManifest writes the certificate manifest to the object store and
// returns a presigned link to it. Storage failures do not undo issuance.
func (svc *CertificateService) storeManifest(course *model.Course, enrollment *model.Enrollment, number string, issuedAt time.Time) string {
	if !svc.minioSvc.Enabled() {
		return ""
	}

	completedAt := issuedAt
	if enrollment.CompletedAt != nil {
		completedAt = *enrollment.CompletedAt
	}
	body, err := sonic.Marshal(dto.CertificateManifest{
		CertificateID:   number,
		EnrollmentID:    enrollment.ID,
		CourseID:        course.ID,
		CourseTitle:     course.Title,
		InstructorID:    course.InstructorID,
		LearnerID:       enrollment.LearnerID,
		CompletedAt:     completedAt,
		IssuedAt:        issuedAt,
		DurationMinutes: course.DurationMinutes,
		TotalLessons:    enrollment.Progress.TotalLessons,
	})
	if err != nil {
		log.Error().Err(err).Str("certificate_id", number).Msg("Failed to encode certificate manifest")
		return ""
	}

	ctx := context.Background()
	objectName := "certificates/" + number + ".json"
	if _, err := svc.minioSvc.PutJSON(ctx, objectName, body); err != nil {
		log.Error().Err(err).Str("certificate_id", number).Msg("Failed to store certificate manifest")
		return ""
	}

	url, err := svc.minioSvc.GetFileURL(ctx, objectName, manifestURLExpiry)
	if err != nil {
		log.Warn().Err(err).Str("certificate_id", number).Msg("Failed to presign certificate manifest")
		return ""
	}
	return url
}
