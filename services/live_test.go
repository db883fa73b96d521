package services

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

// fakeLiveProvider serves the room and token endpoints and records what it
// was asked for.
type fakeLiveProvider struct {
	roomStatus int
	roomID     string

	mu  sync.Mutex
	got liveProviderCalls
}

type liveProviderCalls struct {
	calls     int
	auth      string
	room      liveRoomRequest
	token     liveTokenRequest
	tokenPath string
}

func (f *fakeLiveProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got.calls++
	f.got.auth = r.Header.Get("Authorization")

	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/rooms":
		_ = shared.JSONUnmarshal(body, &f.got.room)
		if f.roomStatus != 0 {
			w.WriteHeader(f.roomStatus)
			_, _ = w.Write([]byte(`{"error":"provider down"}`))
			return
		}
		_, _ = w.Write([]byte(`{"room_id":"` + f.roomID + `"}`))

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/rooms/") && strings.HasSuffix(r.URL.Path, "/tokens"):
		_ = shared.JSONUnmarshal(body, &f.got.token)
		f.got.tokenPath = r.URL.Path
		_, _ = w.Write([]byte(`{"token":"tok-` + f.got.token.UserID + `"}`))

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeLiveProvider) recorded() liveProviderCalls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

func newLiveTestEnv(t *testing.T, provider *fakeLiveProvider) (*testEnv, *LiveRoomService) {
	t.Helper()
	env := newTestEnv(t)
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	live := &LiveRoomService{
		catalogSvc:    env.catalog,
		enrollmentSvc: env.enrollment,
		client:        newLiveClient(srv.URL, "test-key"),
		clock:         Clock(func() time.Time { return env.now }),
	}
	return env, live
}

func TestJoinLiveLesson_LearnerAndHost(t *testing.T) {
	provider := &fakeLiveProvider{roomID: "room-42"}
	env, live := newLiveTestEnv(t, provider)
	course := env.createCourse(t, 0)
	lesson := env.addLesson(t, course.ID, model.LessonTypeLive, 3600)
	env.enroll(t, course.ID, testLearner)

	joined, err := live.JoinLiveLesson(testLearner, lesson.ID)
	if err != nil {
		t.Fatalf("learner join: %v", err)
	}
	if joined.RoomID != "room-42" || joined.Token != "tok-"+testLearner.UserID || joined.LessonID != lesson.ID {
		t.Fatalf("unexpected join response: %+v", joined)
	}
	if !joined.ExpiresAt.Equal(env.now.Add(liveTokenTTL)) {
		t.Fatalf("expected expiry %v got %v", env.now.Add(liveTokenTTL), joined.ExpiresAt)
	}
	got := provider.recorded()
	if got.room.RoomKey != lesson.ID || got.tokenPath != "/rooms/room-42/tokens" {
		t.Fatalf("unexpected provider calls: room=%+v path=%s", got.room, got.tokenPath)
	}
	if got.token.Host || got.token.TTLSeconds != int(liveTokenTTL.Seconds()) {
		t.Fatalf("unexpected learner token request: %+v", got.token)
	}
	if got.auth != "Bearer test-key" {
		t.Fatalf("expected api key header got %q", got.auth)
	}

	if _, err := live.JoinLiveLesson(testInstructor, lesson.ID); err != nil {
		t.Fatalf("instructor join: %v", err)
	}
	if got := provider.recorded(); !got.token.Host || got.token.UserID != testInstructor.UserID {
		t.Fatalf("expected host token for instructor got %+v", got.token)
	}
}

func TestJoinLiveLesson_NotEnrolledNeverCallsProvider(t *testing.T) {
	provider := &fakeLiveProvider{roomID: "room-42"}
	env, live := newLiveTestEnv(t, provider)
	course := env.createCourse(t, 0)
	lesson := env.addLesson(t, course.ID, model.LessonTypeLive, 3600)

	_, err := live.JoinLiveLesson(dto.Actor{UserID: "learner-2", Role: shared.RoleLearner}, lesson.ID)
	expectAppError(t, err, http.StatusForbidden, shared.CodeEnrollmentInactive)
	if calls := provider.recorded().calls; calls != 0 {
		t.Fatalf("provider called %d times for a rejected join", calls)
	}
}

func TestJoinLiveLesson_ProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeLiveProvider
	}{
		{"provider error", &fakeLiveProvider{roomID: "room-42", roomStatus: http.StatusInternalServerError}},
		{"empty room id", &fakeLiveProvider{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, live := newLiveTestEnv(t, tt.provider)
			course := env.createCourse(t, 0)
			lesson := env.addLesson(t, course.ID, model.LessonTypeLive, 3600)
			env.enroll(t, course.ID, testLearner)

			_, err := live.JoinLiveLesson(testLearner, lesson.ID)
			expectAppError(t, err, http.StatusServiceUnavailable, shared.CodeUnavailable)
			if path := tt.provider.recorded().tokenPath; path != "" {
				t.Fatalf("token requested after failed room call: %s", path)
			}
		})
	}
}
