package dto

import (
	"time"

	"github.com/lac-hong-legacy/course_api/model"
)

const (
	ActionStart    = "start"
	ActionUpdate   = "update"
	ActionEnd      = "end"
	ActionSeek     = "seek"
	ActionComplete = "complete"
)

type ProgressActionRequest struct {
	Action   string `json:"action" validate:"required,oneof=start update end seek complete"`
	Position *int   `json:"position" validate:"omitempty,min=0"`
	From     *int   `json:"from" validate:"required_if=Action seek,omitempty,min=0"`
	To       *int   `json:"to" validate:"required_if=Action seek,omitempty,min=0"`
}

func (r ProgressActionRequest) Validate() error {
	return GetValidator().Struct(r)
}

type QuizSubmitRequest struct {
	Answers []int `json:"answers" validate:"required"`
}

func (r QuizSubmitRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AssignmentSubmitRequest struct {
	URL  string `json:"url" validate:"required_without=Text,omitempty,url,max=2048"`
	Text string `json:"text" validate:"required_without=URL,max=20000"`
}

func (r AssignmentSubmitRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AttachmentUploadRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

func (r AttachmentUploadRequest) Validate() error {
	return GetValidator().Struct(r)
}

type AttachmentUploadResponse struct {
	ObjectName string    `json:"object_name"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type GradeAssignmentRequest struct {
	Score    int    `json:"score" validate:"min=0,max=1000"`
	Feedback string `json:"feedback" validate:"max=5000"`
}

func (r GradeAssignmentRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ProgressResponse struct {
	Progress         *model.Progress          `json:"progress"`
	EnrollmentStatus model.EnrollmentStatus   `json:"enrollment_status"`
	Summary          model.EnrollmentProgress `json:"summary"`
}

type QuizResultResponse struct {
	Score          int    `json:"score"`
	Correct        []bool `json:"correct"`
	CorrectCount   int    `json:"correct_count"`
	TotalQuestions int    `json:"total_questions"`
	PassingScore   int    `json:"passing_score"`
	BestScore      int    `json:"best_score"`
	Passed         bool   `json:"passed"`
	Attempts       int    `json:"attempts"`
	Completed      bool   `json:"completed"`
}

type LiveJoinResponse struct {
	LessonID  string    `json:"lesson_id"`
	RoomID    string    `json:"room_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CourseProgressResponse struct {
	Enrollment *model.Enrollment `json:"enrollment"`
	Lessons    []model.Progress  `json:"lessons"`
}
