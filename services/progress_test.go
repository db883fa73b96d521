package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/shared"
)

func TestUpdateProgress_WatchSessionCompletesVideo(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	video := env.addLesson(t, course.ID, model.LessonTypeVideo, 1200)
	env.enroll(t, course.ID, testLearner)

	if _, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{
		Action: dto.ActionStart, Position: intPtr(0),
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	env.advance(1080 * time.Second)
	resp, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{
		Action: dto.ActionEnd, Position: intPtr(1080),
	})
	if err != nil {
		t.Fatalf("end: %v", err)
	}

	p := resp.Progress
	if p.WatchTimeSeconds != 1080 || p.CompletionPercentage != 90 || !p.Completed {
		t.Fatalf("unexpected progress: watch=%d pct=%d completed=%v", p.WatchTimeSeconds, p.CompletionPercentage, p.Completed)
	}
	if resp.EnrollmentStatus != model.EnrollmentCompleted || resp.Summary.ProgressPercentage != 100 {
		t.Fatalf("expected completed enrollment got %s at %d%%", resp.EnrollmentStatus, resp.Summary.ProgressPercentage)
	}
	if resp.Summary.CurrentLessonID == nil || *resp.Summary.CurrentLessonID != video.ID {
		t.Fatalf("expected current lesson %s", video.ID)
	}
}

func TestUpdateProgress_SummaryTracksCompletedLessons(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	var lessons []*model.Lesson
	for i := 0; i < 5; i++ {
		lessons = append(lessons, env.addLesson(t, course.ID, model.LessonTypeText, 600))
	}
	enrollment := env.enroll(t, course.ID, testLearner)
	if enrollment.Progress.TotalLessons != 5 {
		t.Fatalf("expected 5 lessons at enrollment got %d", enrollment.Progress.TotalLessons)
	}

	var resp *dto.ProgressResponse
	for _, lesson := range lessons[:3] {
		resp = env.completeText(t, lesson.ID, testLearner)
	}
	if resp.Summary.CompletedLessons != 3 || resp.Summary.ProgressPercentage != 60 {
		t.Fatalf("expected 3/5 at 60%% got %d/%d at %d%%",
			resp.Summary.CompletedLessons, resp.Summary.TotalLessons, resp.Summary.ProgressPercentage)
	}
	if resp.EnrollmentStatus != model.EnrollmentActive {
		t.Fatalf("expected active got %s", resp.EnrollmentStatus)
	}

	// completing the same lesson twice must not double count
	resp = env.completeText(t, lessons[0].ID, testLearner)
	if resp.Summary.CompletedLessons != 3 {
		t.Fatalf("repeat completion counted: %d", resp.Summary.CompletedLessons)
	}

	for _, lesson := range lessons[3:] {
		resp = env.completeText(t, lesson.ID, testLearner)
	}
	if resp.Summary.ProgressPercentage != 100 || resp.EnrollmentStatus != model.EnrollmentCompleted {
		t.Fatalf("expected completed at 100%% got %s at %d%%", resp.EnrollmentStatus, resp.Summary.ProgressPercentage)
	}

	stored, err := env.enrollment.Get(enrollment.ID)
	if err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	if stored.CompletedAt == nil || !stored.CompletedAt.Equal(env.now) {
		t.Fatalf("expected completed_at %v got %v", env.now, stored.CompletedAt)
	}
}

func TestUpdateProgress_RejectsSecondOpenSession(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	video := env.addLesson(t, course.ID, model.LessonTypeVideo, 1200)
	env.enroll(t, course.ID, testLearner)

	start := dto.ProgressActionRequest{Action: dto.ActionStart, Position: intPtr(10)}
	if _, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, start); err != nil {
		t.Fatalf("start: %v", err)
	}

	env.advance(time.Minute)
	_, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, start)
	expectAppError(t, err, http.StatusConflict, shared.CodeSessionOpen)

	env.advance(defaultStaleSessionAfter)
	resp, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{Action: dto.ActionStart})
	if err != nil {
		t.Fatalf("start after stale session: %v", err)
	}

	p := resp.Progress
	if len(p.Sessions) != 2 {
		t.Fatalf("expected 2 sessions got %d", len(p.Sessions))
	}
	if !p.Sessions[0].Abandoned || p.Sessions[0].Open() || p.WatchTimeSeconds != 0 {
		t.Fatalf("stale session not abandoned without credit: %+v watch=%d", p.Sessions[0], p.WatchTimeSeconds)
	}
	if p.Sessions[1].StartPosition != 10 {
		t.Fatalf("expected resume from last position 10 got %d", p.Sessions[1].StartPosition)
	}
}

func TestUpdateProgress_HeartbeatAndSeekDoNotCredit(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	video := env.addLesson(t, course.ID, model.LessonTypeVideo, 600)
	env.enroll(t, course.ID, testLearner)

	steps := []dto.ProgressActionRequest{
		{Action: dto.ActionStart},
		{Action: dto.ActionUpdate, Position: intPtr(30)},
		{Action: dto.ActionSeek, From: intPtr(30), To: intPtr(500)},
	}
	var resp *dto.ProgressResponse
	var err error
	for _, step := range steps {
		if resp, err = env.progress.UpdateProgress(testLearner.UserID, video.ID, step); err != nil {
			t.Fatalf("%s: %v", step.Action, err)
		}
	}
	if resp.Progress.WatchTimeSeconds != 0 || resp.Progress.LastWatchedPosition != 500 {
		t.Fatalf("unexpected progress: %+v", resp.Progress)
	}

	_, err = env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{Action: dto.ActionUpdate})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeValidation)
}

func TestUpdateProgress_CompleteOnlyForTextAndLive(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	video := env.addLesson(t, course.ID, model.LessonTypeVideo, 600)
	live := env.addLesson(t, course.ID, model.LessonTypeLive, 3600)
	env.enroll(t, course.ID, testLearner)

	_, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeValidation)

	resp := env.completeText(t, live.ID, testLearner)
	if !resp.Progress.Completed || resp.Summary.ProgressPercentage != 50 {
		t.Fatalf("expected live lesson completed at 50%% got %+v", resp.Summary)
	}
}

func TestUpdateProgress_RequiresAccess(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)

	_, err := env.progress.UpdateProgress(testLearner.UserID, text.ID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusForbidden, shared.CodeEnrollmentInactive)

	draft := lessonRequest(model.LessonTypeText, 60)
	draft.IsPublished = false
	hidden, err := env.catalog.CreateLesson(testInstructor, course.ID, draft)
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	env.enroll(t, course.ID, testLearner)

	_, err = env.progress.UpdateProgress(testLearner.UserID, hidden.ID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusNotFound, shared.CodeNotFound)

	_, err = env.progress.UpdateProgress(testLearner.UserID, "missing", dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusNotFound, shared.CodeNotFound)
}

func TestSubmitQuiz_CompletesOnPassingAttempt(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	quiz := env.addLesson(t, course.ID, model.LessonTypeQuiz, 300)
	env.addLesson(t, course.ID, model.LessonTypeText, 60)
	env.enroll(t, course.ID, testLearner)

	result, err := env.progress.SubmitQuiz(testLearner.UserID, quiz.ID, dto.QuizSubmitRequest{Answers: []int{1, 1}})
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if result.Score != 50 || result.Passed || result.Completed || result.CorrectCount != 1 {
		t.Fatalf("unexpected failing result: %+v", result)
	}

	result, err = env.progress.SubmitQuiz(testLearner.UserID, quiz.ID, dto.QuizSubmitRequest{Answers: []int{0, 1}})
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if result.Score != 100 || !result.Passed || !result.Completed || result.Attempts != 2 {
		t.Fatalf("unexpected passing result: %+v", result)
	}

	progress, err := env.progress.GetLessonProgress(testLearner.UserID, quiz.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	state := progress.Progress.QuizState()
	if state.BestScore != 100 || len(state.Attempts) != 2 || !progress.Progress.Completed {
		t.Fatalf("unexpected stored quiz state: %+v", state)
	}
	if progress.Summary.CompletedLessons != 1 {
		t.Fatalf("expected 1 completed lesson got %d", progress.Summary.CompletedLessons)
	}
}

func TestSubmitQuiz_AttemptLimit(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	quiz := env.addLesson(t, course.ID, model.LessonTypeQuiz, 300)
	env.enroll(t, course.ID, testLearner)

	wrong := dto.QuizSubmitRequest{Answers: []int{1, 0}}
	for i := 0; i < 3; i++ {
		if _, err := env.progress.SubmitQuiz(testLearner.UserID, quiz.ID, wrong); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	_, err := env.progress.SubmitQuiz(testLearner.UserID, quiz.ID, wrong)
	expectAppError(t, err, http.StatusConflict, shared.CodeAttemptsExhausted)
}

func TestSubmitQuiz_RejectsOtherLessonTypes(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	env.enroll(t, course.ID, testLearner)

	_, err := env.progress.SubmitQuiz(testLearner.UserID, text.ID, dto.QuizSubmitRequest{Answers: []int{0}})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeNotAQuiz)
}

func TestGradeQuiz(t *testing.T) {
	quiz := &model.QuizContent{Questions: []model.QuizQuestion{
		{Options: []string{"a", "b"}, CorrectIndex: 0},
		{Options: []string{"a", "b"}, CorrectIndex: 1},
		{Options: []string{"a", "b", "c"}, CorrectIndex: 2},
	}}

	cases := []struct {
		name    string
		answers []int
		score   int
	}{
		{"all correct", []int{0, 1, 2}, 100},
		{"one correct", []int{0, 0, 0}, 33},
		{"two correct", []int{0, 1, 0}, 67},
		{"missing answers", []int{0}, 33},
		{"out of range", []int{9, -1, 2}, 33},
		{"extra answers ignored", []int{0, 1, 2, 1, 1}, 100},
		{"none", nil, 0},
	}
	for _, tc := range cases {
		attempt := GradeQuiz(quiz, tc.answers, time.Time{})
		if attempt.Score != tc.score {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.score, attempt.Score)
		}
		if len(attempt.Correct) != len(quiz.Questions) {
			t.Fatalf("%s: expected %d flags got %d", tc.name, len(quiz.Questions), len(attempt.Correct))
		}
	}
}

func TestSubmitAssignment_SingleSubmissionThenGrade(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	assignment := env.addLesson(t, course.ID, model.LessonTypeAssignment, 0)
	env.enroll(t, course.ID, testLearner)

	submission := dto.AssignmentSubmitRequest{URL: "https://github.com/learner/cli"}
	resp, err := env.progress.SubmitAssignment(testLearner.UserID, assignment.ID, submission)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Progress.Completed || resp.EnrollmentStatus != model.EnrollmentCompleted {
		t.Fatalf("submission should complete the lesson and course: %+v", resp.Summary)
	}

	_, err = env.progress.SubmitAssignment(testLearner.UserID, assignment.ID, submission)
	expectAppError(t, err, http.StatusConflict, shared.CodeAlreadySubmitted)

	progressID := resp.Progress.ID
	_, err = env.progress.GradeAssignment(testLearner, progressID, dto.GradeAssignmentRequest{Score: 100})
	expectAppError(t, err, http.StatusForbidden, shared.CodeForbidden)

	_, err = env.progress.GradeAssignment(testInstructor, progressID, dto.GradeAssignmentRequest{Score: 150})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeValidation)

	graded, err := env.progress.GradeAssignment(testInstructor, progressID, dto.GradeAssignmentRequest{Score: 85, Feedback: "Nice"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	grade := graded.AssignmentState().Grade
	if grade == nil || grade.Score != 85 || grade.GradedBy != testInstructor.UserID {
		t.Fatalf("unexpected grade: %+v", grade)
	}
	if !graded.Completed {
		t.Fatalf("grading must not change completion")
	}
}

func TestAssignmentUploadURL_NeedsObjectStorage(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	assignment := env.addLesson(t, course.ID, model.LessonTypeAssignment, 0)
	text := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	env.enroll(t, course.ID, testLearner)
	req := dto.AttachmentUploadRequest{FileName: "report.pdf"}

	_, err := env.progress.AssignmentUploadURL(testLearner.UserID, text.ID, req)
	expectAppError(t, err, http.StatusBadRequest, shared.CodeNotAnAssignment)

	_, err = env.progress.AssignmentUploadURL(testLearner.UserID, assignment.ID, req)
	expectAppError(t, err, http.StatusServiceUnavailable, shared.CodeUnavailable)

	_, err = env.progress.AssignmentUploadURL("learner-2", assignment.ID, req)
	expectAppError(t, err, http.StatusForbidden, shared.CodeEnrollmentInactive)
}

func TestUpdateProgress_RejectedFirstActionStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	video := env.addLesson(t, course.ID, model.LessonTypeVideo, 1200)
	quiz := env.addLesson(t, course.ID, model.LessonTypeQuiz, 0)
	env.enroll(t, course.ID, testLearner)

	_, err := env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{Action: dto.ActionComplete})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeValidation)

	_, err = env.progress.UpdateProgress(testLearner.UserID, video.ID, dto.ProgressActionRequest{Action: dto.ActionUpdate})
	expectAppError(t, err, http.StatusBadRequest, shared.CodeValidation)

	_, err = env.progress.SubmitQuiz(testLearner.UserID, quiz.ID, dto.QuizSubmitRequest{Answers: []int{0, 0}})
	if err != nil {
		t.Fatalf("quiz: %v", err)
	}

	resp, err := env.progress.ListCourseProgress(testLearner.UserID, course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Lessons) != 1 || resp.Lessons[0].LessonID != quiz.ID {
		t.Fatalf("expected only the quiz record got %+v", resp.Lessons)
	}

	read, err := env.progress.GetLessonProgress(testLearner.UserID, video.ID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if read.Progress.ID != "" || read.Progress.WatchTimeSeconds != 0 {
		t.Fatalf("expected an unsaved empty record got %+v", read.Progress)
	}

	resp, err = env.progress.ListCourseProgress(testLearner.UserID, course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Lessons) != 1 {
		t.Fatalf("reading progress stored a record: %d records", len(resp.Lessons))
	}
}

func TestListCourseProgress(t *testing.T) {
	env := newTestEnv(t)
	course := env.createCourse(t, 0)
	first := env.addLesson(t, course.ID, model.LessonTypeText, 60)
	env.addLesson(t, course.ID, model.LessonTypeText, 60)

	_, err := env.progress.ListCourseProgress(testLearner.UserID, course.ID)
	expectAppError(t, err, http.StatusNotFound, shared.CodeNotFound)

	env.enroll(t, course.ID, testLearner)
	env.completeText(t, first.ID, testLearner)

	resp, err := env.progress.ListCourseProgress(testLearner.UserID, course.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Lessons) != 1 || resp.Lessons[0].LessonID != first.ID {
		t.Fatalf("expected one record for %s got %+v", first.ID, resp.Lessons)
	}
	if resp.Enrollment.Progress.ProgressPercentage != 50 {
		t.Fatalf("expected 50%% got %d", resp.Enrollment.Progress.ProgressPercentage)
	}
}
