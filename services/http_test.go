package services

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

type testResponse struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{}
	Raw     interface{}
}

func newTestApp(t *testing.T) (*testEnv, *fiber.App, *JWTService) {
	t.Helper()
	env := newTestEnv(t)
	jwtSvc := NewJWTService("test-secret")

	svc := &HttpService{
		authSvc:        NewAuthMiddleware(jwtSvc),
		catalogSvc:     env.catalog,
		enrollmentSvc:  env.enrollment,
		progressSvc:    env.progress,
		certificateSvc: env.certificate,
		liveSvc:        &LiveRoomService{catalogSvc: env.catalog, enrollmentSvc: env.enrollment},
	}
	return env, svc.NewApp(), jwtSvc
}

func bearer(t *testing.T, jwtSvc *JWTService, userID, role string) string {
	t.Helper()
	token, err := jwtSvc.ToJWT(userID, role)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func doRequest(t *testing.T, app *fiber.App, method, path, auth, body string) (int, testResponse) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var envelope struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}
	if len(raw) > 0 {
		if err := shared.JSONUnmarshal(raw, &envelope); err != nil {
			t.Fatalf("decode %s: %v", string(raw), err)
		}
	}
	out := testResponse{Code: envelope.Code, Message: envelope.Message, Raw: envelope.Data}
	out.Data, _ = envelope.Data.(map[string]interface{})
	return resp.StatusCode, out
}

func TestHttp_Ping(t *testing.T) {
	_, app, _ := newTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/ping", "", "")
	if status != http.StatusOK || body.Raw != "pong" {
		t.Fatalf("expected 200 pong got %d %v", status, body.Raw)
	}
}

func TestHttp_RequiresToken(t *testing.T) {
	_, app, _ := newTestApp(t)

	status, _ := doRequest(t, app, http.MethodGet, "/api/v1/enrollments/me", "", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/enrollments/me", "Bearer not-a-token", "")
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/nowhere", "", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route got %d", status)
	}
}

func TestHttp_CourseCreationNeedsAuthorRole(t *testing.T) {
	_, app, jwtSvc := newTestApp(t)
	payload := `{"title":"Concurrency in Go","is_published":true}`

	status, _ := doRequest(t, app, http.MethodPost, "/api/v1/courses", bearer(t, jwtSvc, "learner-1", shared.RoleLearner), payload)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for learner got %d", status)
	}

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/courses", bearer(t, jwtSvc, "instructor-1", shared.RoleInstructor), payload)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", status, body.Message)
	}
	if body.Data["instructor_id"] != "instructor-1" {
		t.Fatalf("unexpected course: %v", body.Data)
	}

	status, _ = doRequest(t, app, http.MethodPost, "/api/v1/courses", bearer(t, jwtSvc, "instructor-1", shared.RoleInstructor), `{"title":"x"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for short title got %d", status)
	}
}

func TestHttp_EnrollAndProgressFlow(t *testing.T) {
	env, app, jwtSvc := newTestApp(t)
	course := env.createCourse(t, 0)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	learner := bearer(t, jwtSvc, testLearner.UserID, shared.RoleLearner)

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/courses/"+course.ID+"/enroll", learner, "")
	if status != http.StatusCreated || body.Data["status"] != string(model.EnrollmentActive) {
		t.Fatalf("expected 201 active enrollment got %d %v", status, body.Data)
	}
	enrollmentID, _ := body.Data["id"].(string)

	status, body = doRequest(t, app, http.MethodPost, "/api/v1/courses/"+course.ID+"/enroll", learner, "")
	if status != http.StatusConflict || body.Data["error_code"] != shared.CodeAlreadyEnrolled {
		t.Fatalf("expected 409 %s got %d %v", shared.CodeAlreadyEnrolled, status, body.Data)
	}

	status, body = doRequest(t, app, http.MethodPut, "/api/v1/lessons/"+text.ID+"/progress", learner, `{"action":"rewind"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action got %d", status)
	}

	status, body = doRequest(t, app, http.MethodPut, "/api/v1/lessons/"+text.ID+"/progress", learner, `{"action":"complete"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", status, body.Message)
	}
	if body.Data["enrollment_status"] != string(model.EnrollmentCompleted) {
		t.Fatalf("expected completed enrollment got %v", body.Data["enrollment_status"])
	}

	status, body = doRequest(t, app, http.MethodPost, "/api/v1/enrollments/"+enrollmentID+"/certificate", learner, "")
	if status != http.StatusCreated || body.Data["certificate_id"] == nil {
		t.Fatalf("expected 201 certificate got %d %v", status, body.Data)
	}

	status, body = doRequest(t, app, http.MethodPost, "/api/v1/enrollments/"+enrollmentID+"/certificate", learner, "")
	if status != http.StatusConflict || body.Data["error_code"] != shared.CodeAlreadyIssued {
		t.Fatalf("expected 409 %s got %d %v", shared.CodeAlreadyIssued, status, body.Data)
	}
}

func TestHttp_SuspendIsAdminOnly(t *testing.T) {
	env, app, jwtSvc := newTestApp(t)
	course := env.createCourse(t, 0)
	enrollment := env.enroll(t, course.ID, testLearner)
	path := "/api/v1/enrollments/" + enrollment.ID + "/suspend"

	status, _ := doRequest(t, app, http.MethodPut, path, bearer(t, jwtSvc, testInstructor.UserID, shared.RoleInstructor), "")
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for instructor got %d", status)
	}

	status, body := doRequest(t, app, http.MethodPut, path, bearer(t, jwtSvc, testAdmin.UserID, shared.RoleAdmin), "")
	if status != http.StatusOK || body.Data["status"] != string(model.EnrollmentSuspended) {
		t.Fatalf("expected 200 suspended got %d %v", status, body.Data)
	}
}

func TestHttp_LiveJoinWithoutProvider(t *testing.T) {
	env, app, jwtSvc := newTestApp(t)
	course := env.createCourse(t, 0)
	live := env.addLesson(t, course.ID, model.LessonTypeLive, 3600)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	env.enroll(t, course.ID, testLearner)
	learner := bearer(t, jwtSvc, testLearner.UserID, shared.RoleLearner)

	status, _ := doRequest(t, app, http.MethodGet, "/api/v1/lessons/"+text.ID+"/live/join", learner, "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non live lesson got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodGet, "/api/v1/lessons/"+live.ID+"/live/join", learner, "")
	if status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without provider got %d", status)
	}
}
