package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

func TestEnroll_DuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)

	first := env.enroll(t, course.ID, testLearner)
	if first.Status != model.EnrollmentActive || first.ExpiresAt != nil {
		t.Fatalf("expected active lifetime enrollment got %+v", first)
	}
	if first.Payment.Method != shared.PaymentMethodFree {
		t.Fatalf("expected free payment got %q", first.Payment.Method)
	}

	_, err := env.enrollment.Enroll(course.ID, testLearner.UserID, dto.EnrollRequest{})
	expectAppError(t, err, http.StatusConflict, shared.CodeAlreadyEnrolled)

	enrollments, err := env.enrollment.ListForLearner(testLearner.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enrollments) != 1 {
		t.Fatalf("expected exactly one enrollment got %d", len(enrollments))
	}
	if got := env.reloadCourse(t, course.ID); got.EnrollmentCount != 1 {
		t.Fatalf("expected enrollment count 1 got %d", got.EnrollmentCount)
	}
}

func TestEnroll_RequiresPublishedCourse(t *testing.T) {
	env := newTestEnv(t)
	course, err := env.catalog.CreateCourse(testInstructor, dto.CreateCourseRequest{Title: "Draft course"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.enrollment.Enroll(course.ID, testLearner.UserID, dto.EnrollRequest{})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeCourseUnavailable)

	_, err = env.enrollment.Enroll("missing", testLearner.UserID, dto.EnrollRequest{})
	expectAppError(t, err, http.StatusNotFound, shared.CodeNotFound)
}

func TestEnroll_PaidCourseNeedsPayment(t *testing.T) {
	env := newTestEnv(t)
	course, err := env.catalog.CreateCourse(testInstructor, dto.CreateCourseRequest{
		Title: "Advanced Go", Price: 49, Currency: "EUR", IsPublished: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = env.enrollment.Enroll(course.ID, testLearner.UserID, dto.EnrollRequest{})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeValidation)

	enrollment, err := env.enrollment.Enroll(course.ID, testLearner.UserID, dto.EnrollRequest{
		PaymentMethod: "card", TransactionRef: "txn_123",
	})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if enrollment.Payment.Amount != 49 || enrollment.Payment.Currency != "EUR" || enrollment.Payment.TransactionRef != "txn_123" {
		t.Fatalf("unexpected payment: %+v", enrollment.Payment)
	}
}

func TestCheckValidity_ExpiresClosedWindow(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 30)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)

	enrollment := env.enroll(t, course.ID, testLearner)
	want := env.now.AddDate(0, 0, 30)
	if enrollment.ExpiresAt == nil || !enrollment.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v got %v", want, enrollment.ExpiresAt)
	}

	env.advance(31 * 24 * time.Hour)
	_, err := env.progress.UpdateProgress(testLearner.UserID, text.ID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusForbidden, shared.CodeEnrollmentInactive)

	stored, err := env.enrollment.Get(enrollment.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != model.EnrollmentExpired {
		t.Fatalf("expected expired got %s", stored.Status)
	}

	// expired progress stays readable
	if _, err := env.progress.ListCourseProgress(testLearner.UserID, course.ID); err != nil {
		t.Fatalf("list progress after expiry: %v", err)
	}
}

func TestEnroll_RenewsExpiredEnrollment(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 30)
	first := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	env.addLesson(t, course.ID, model.LessonTypeText, 60)

	original := env.enroll(t, course.ID, testLearner)
	env.completeText(t, first.ID, testLearner)

	env.advance(40 * 24 * time.Hour)
	if _, err := env.enrollment.ExpireOverdue(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	renewed := env.enroll(t, course.ID, testLearner)
	if renewed.ID != original.ID {
		t.Fatalf("expected renewal in place, got new enrollment %s", renewed.ID)
	}
	if renewed.Status != model.EnrollmentActive || !renewed.ExpiresAt.Equal(env.now.AddDate(0, 0, 30)) {
		t.Fatalf("unexpected renewal: %s until %v", renewed.Status, renewed.ExpiresAt)
	}
	if renewed.Progress.CompletedLessons != 1 {
		t.Fatalf("renewal should keep progress, got %d completed", renewed.Progress.CompletedLessons)
	}
}

func TestExpireOverdue(t *testing.T) {
	env := newTestEnv(t)
	limited := env.createCourse(t, 7)
	lifetime := env.createCourse(t, 0)

	env.enroll(t, limited.ID, testLearner)
	env.enroll(t, limited.ID, dto.Actor{UserID: "learner-2"})
	env.enroll(t, lifetime.ID, testLearner)

	count, err := env.enrollment.ExpireOverdue()
	if err != nil {
		t.Fatalf("early sweep: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing to expire yet got %d", count)
	}

	env.advance(8 * 24 * time.Hour)
	scheduler := &SchedulerService{enrollmentSvc: env.enrollment}
	scheduler.SweepExpired()

	enrollments, err := env.enrollment.ListForLearner(testLearner.UserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, e := range enrollments {
		want := model.EnrollmentActive
		if e.CourseID == limited.ID {
			want = model.EnrollmentExpired
		}
		if e.Status != want {
			t.Fatalf("course %s: expected %s got %s", e.CourseID, want, e.Status)
		}
	}
}

func TestSuspendAndResume(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	enrollment := env.enroll(t, course.ID, testLearner)

	suspended, err := env.enrollment.Suspend(enrollment.ID)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if suspended.Status != model.EnrollmentSuspended {
		t.Fatalf("expected suspended got %s", suspended.Status)
	}

	_, err = env.progress.UpdateProgress(testLearner.UserID, text.ID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusForbidden, shared.CodeEnrollmentInactive)

	_, err = env.enrollment.Enroll(course.ID, testLearner.UserID, dto.EnrollRequest{})
	expectAppError(t, err, http.StatusForbidden, shared.CodeForbidden)

	resumed, err := env.enrollment.Resume(enrollment.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != model.EnrollmentActive {
		t.Fatalf("expected active after resume got %s", resumed.Status)
	}

	_, err = env.enrollment.Resume(enrollment.ID)
	expectAppError(t, err, http.StatusBadRequest, shared.CodeEnrollmentInactive)

	env.completeText(t, text.ID, testLearner)
}
