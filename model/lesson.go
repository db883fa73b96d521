package model

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type LessonType string

const (
	LessonTypeVideo      LessonType = "video"
	LessonTypeLive       LessonType = "live"
	LessonTypeText       LessonType = "text"
	LessonTypeQuiz       LessonType = "quiz"
	LessonTypeAssignment LessonType = "assignment"
)

func (t LessonType) Valid() bool {
	switch t {
	case LessonTypeVideo, LessonTypeLive, LessonTypeText, LessonTypeQuiz, LessonTypeAssignment:
		return true
	}
	return false
}

// Lesson is one ordered item of a course. Order is unique per course.
type Lesson struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	CourseID        string     `json:"course_id" gorm:"not null;uniqueIndex:idx_lesson_course_order"`
	Title           string     `json:"title" gorm:"not null"`
	Order           int        `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_lesson_course_order"`
	DurationSeconds int        `json:"duration_seconds" gorm:"not null;default:0"`
	Type            LessonType `json:"type" gorm:"not null"`
	IsPublished     bool       `json:"is_published" gorm:"not null;default:false"`
	IsFree          bool       `json:"is_free" gorm:"not null;default:false"`

	Content datatypes.JSONType[LessonContent] `json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonContent carries the type specific payload. Exactly the member
// matching Lesson.Type is set.
type LessonContent struct {
	Video      *VideoContent      `json:"video,omitempty"`
	Live       *LiveContent       `json:"live,omitempty"`
	Text       *TextContent       `json:"text,omitempty"`
	Quiz       *QuizContent       `json:"quiz,omitempty"`
	Assignment *AssignmentContent `json:"assignment,omitempty"`
}

type VideoContent struct {
	URL         string `json:"url"`
	Provider    string `json:"provider,omitempty"`
	SubtitleURL string `json:"subtitle_url,omitempty"`
}

type LiveContent struct {
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	RecordingURL    string    `json:"recording_url,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type QuizContent struct {
	Questions    []QuizQuestion `json:"questions"`
	PassingScore int            `json:"passing_score"`
	MaxAttempts  int            `json:"max_attempts,omitempty"` // 0 = unlimited
}

type QuizQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

type AssignmentContent struct {
	Instructions string `json:"instructions"`
	MaxScore     int    `json:"max_score,omitempty"`
}

// PayloadError reports the first problem found in a lesson payload.
type PayloadError struct {
	Field   string
	Message string
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (l *Lesson) Payload() LessonContent {
	return l.Content.Data()
}

func (l *Lesson) SetPayload(content LessonContent) {
	l.Content = datatypes.NewJSONType(content)
}

// QuizPayload returns the quiz definition or nil for other lesson types.
func (l *Lesson) QuizPayload() *QuizContent {
	if l.Type != LessonTypeQuiz {
		return nil
	}
	return l.Payload().Quiz
}

// ValidatePayload checks that the payload member for Type is present and
// well formed and that no other member is set.
func ValidatePayload(t LessonType, c LessonContent) error {
	set := 0
	for _, present := range []bool{c.Video != nil, c.Live != nil, c.Text != nil, c.Quiz != nil, c.Assignment != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return &PayloadError{Field: "content", Message: "only the payload matching the lesson type may be set"}
	}

	switch t {
	case LessonTypeVideo:
		if c.Video == nil || strings.TrimSpace(c.Video.URL) == "" {
			return &PayloadError{Field: "content.video.url", Message: "video lessons require a url"}
		}
	case LessonTypeLive:
		if c.Live == nil || c.Live.ScheduledAt.IsZero() {
			return &PayloadError{Field: "content.live.scheduled_at", Message: "live lessons require a schedule"}
		}
		if c.Live.DurationMinutes < 0 {
			return &PayloadError{Field: "content.live.duration_minutes", Message: "must not be negative"}
		}
	case LessonTypeText:
		if c.Text == nil || strings.TrimSpace(c.Text.Body) == "" {
			return &PayloadError{Field: "content.text.body", Message: "text lessons require a body"}
		}
	case LessonTypeQuiz:
		return validateQuiz(c.Quiz)
	case LessonTypeAssignment:
		if c.Assignment == nil || strings.TrimSpace(c.Assignment.Instructions) == "" {
			return &PayloadError{Field: "content.assignment.instructions", Message: "assignment lessons require instructions"}
		}
	default:
		return &PayloadError{Field: "type", Message: "unknown lesson type " + string(t)}
	}
	return nil
}

func validateQuiz(q *QuizContent) error {
	if q == nil || len(q.Questions) == 0 {
		return &PayloadError{Field: "content.quiz.questions", Message: "quiz lessons require at least one question"}
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return &PayloadError{Field: "content.quiz.passing_score", Message: "must be between 0 and 100"}
	}
	if q.MaxAttempts < 0 {
		return &PayloadError{Field: "content.quiz.max_attempts", Message: "must not be negative"}
	}
	for i, question := range q.Questions {
		if len(question.Options) < 2 {
			return &PayloadError{Field: fmt.Sprintf("content.quiz.questions[%d].options", i), Message: "needs at least two options"}
		}
		if question.CorrectIndex < 0 || question.CorrectIndex >= len(question.Options) {
			return &PayloadError{Field: fmt.Sprintf("content.quiz.questions[%d].correct_index", i), Message: "out of range"}
		}
	}
	return nil
}
