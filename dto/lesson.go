package dto

import (
	"github.com/lac-hong-legacy/course_api/model"
)

type CreateLessonRequest struct {
	Title           string              `json:"title" validate:"required,min=1,max=200"`
	Order           int                 `json:"order" validate:"min=0"` // 0 appends after the last lesson
	DurationSeconds int                 `json:"duration_seconds" validate:"min=0"`
	Type            string              `json:"type" validate:"required,oneof=video live text quiz assignment"`
	IsPublished     bool                `json:"is_published"`
	IsFree          bool                `json:"is_free"`
	Content         model.LessonContent `json:"content"`
}

func (r CreateLessonRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateLessonRequest struct {
	Title           *string              `json:"title" validate:"omitempty,min=1,max=200"`
	DurationSeconds *int                 `json:"duration_seconds" validate:"omitempty,min=0"`
	Type            *string              `json:"type" validate:"omitempty,oneof=video live text quiz assignment"`
	IsPublished     *bool                `json:"is_published"`
	IsFree          *bool                `json:"is_free"`
	Content         *model.LessonContent `json:"content"`
}

func (r UpdateLessonRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ReorderItem struct {
	LessonID string `json:"lesson_id" validate:"required"`
	Order    int    `json:"order" validate:"required,min=1"`
}

type ReorderLessonsRequest struct {
	Lessons []ReorderItem `json:"lessons" validate:"required,min=1,dive"`
}

func (r ReorderLessonsRequest) Validate() error {
	return GetValidator().Struct(r)
}

// LessonResponse hides the payload of locked lessons and quiz answer keys.
type LessonResponse struct {
	ID              string               `json:"id"`
	CourseID        string               `json:"course_id"`
	Title           string               `json:"title"`
	Order           int                  `json:"order"`
	DurationSeconds int                  `json:"duration_seconds"`
	Type            model.LessonType     `json:"type"`
	IsPublished     bool                 `json:"is_published"`
	IsFree          bool                 `json:"is_free"`
	Locked          bool                 `json:"locked"`
	Content         *model.LessonContent `json:"content,omitempty"`
}

type LessonListResponse struct {
	CourseID  string           `json:"course_id"`
	HasAccess bool             `json:"has_access"`
	Lessons   []LessonResponse `json:"lessons"`
}
