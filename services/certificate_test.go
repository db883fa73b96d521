package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

func TestIssueCertificate_OnlyOnceForCompletedCourse(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	first := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	second := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	enrollment := env.enroll(t, course.ID, testLearner)

	env.completeText(t, first.ID, testLearner)
	_, err := env.certificate.IssueCertificate(testLearner, enrollment.ID)
	expectAppError(t, err, http.StatusBadRequest, shared.CodeNotComplete)

	env.completeText(t, second.ID, testLearner)

	stranger := dto.Actor{UserID: "learner-2", Role: shared.RoleLearner}
	_, err = env.certificate.IssueCertificate(stranger, enrollment.ID)
	expectAppError(t, err, http.StatusForbidden, shared.CodeForbidden)

	cert, err := env.certificate.IssueCertificate(testLearner, enrollment.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(cert.CertificateID, "CERT-2025-") || len(cert.CertificateID) != len("CERT-2025-")+12 {
		t.Fatalf("unexpected certificate id %q", cert.CertificateID)
	}
	if !cert.IssuedAt.Equal(env.now) || cert.ManifestURL != "" {
		t.Fatalf("unexpected certificate: %+v", cert)
	}

	_, err = env.certificate.IssueCertificate(testInstructor, enrollment.ID)
	expectAppError(t, err, http.StatusConflict, shared.CodeAlreadyIssued)

	stored, err := env.enrollment.Get(enrollment.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !stored.Certificate.Issued || stored.Certificate.Number == nil || *stored.Certificate.Number != cert.CertificateID {
		t.Fatalf("certificate not recorded: %+v", stored.Certificate)
	}
}

func TestIssueCertificate_SuspendedEnrollment(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	enrollment := env.enroll(t, course.ID, testLearner)
	env.completeText(t, text.ID, testLearner)

	if _, err := env.enrollment.Suspend(enrollment.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	_, err := env.certificate.IssueCertificate(testLearner, enrollment.ID)
	expectAppError(t, err, http.StatusForbidden, shared.CodeEnrollmentInactive)

	_, err = env.certificate.IssueCertificate(testLearner, "missing")
	expectAppError(t, err, http.StatusNotFound, shared.CodeNotFound)
}

func TestCertificateNumber(t *testing.T) {
	issued := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a := certificateNumber(issued)
	b := certificateNumber(issued)
	if a == b {
		t.Fatalf("certificate numbers must be unique, got %q twice", a)
	}
	if strings.ToUpper(a) != a {
		t.Fatalf("expected upper case id got %q", a)
	}
}
