package dto

import (
	"github.com/lac-hong-legacy/course_api/model"
)

type CreateCourseRequest struct {
	Title        string  `json:"title" validate:"required,min=3,max=200"`
	Description  string  `json:"description" validate:"max=10000"`
	Category     string  `json:"category" validate:"max=100"`
	Level        string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ThumbnailURL string  `json:"thumbnail_url" validate:"omitempty,url"`
	Price        float64 `json:"price" validate:"min=0"`
	Currency     string  `json:"currency" validate:"omitempty,currency"`
	IsPublished  bool    `json:"is_published"`
	AccessDays   int     `json:"access_days" validate:"min=0,max=3650"`
}

func (r CreateCourseRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateCourseRequest struct {
	Title        *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description  *string  `json:"description" validate:"omitempty,max=10000"`
	Category     *string  `json:"category" validate:"omitempty,max=100"`
	Level        *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	ThumbnailURL *string  `json:"thumbnail_url" validate:"omitempty,url"`
	Price        *float64 `json:"price" validate:"omitempty,min=0"`
	Currency     *string  `json:"currency" validate:"omitempty,currency"`
	IsPublished  *bool    `json:"is_published"`
	AccessDays   *int     `json:"access_days" validate:"omitempty,min=0,max=3650"`
}

func (r UpdateCourseRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CourseFilter struct {
	Category     string `query:"category"`
	Level        string `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Search       string `query:"search" validate:"max=200"`
	InstructorID string `query:"instructor"`
	Page         int    `query:"page" validate:"min=0"`
	Limit        int    `query:"limit" validate:"min=0,max=100"`
}

func (f CourseFilter) Validate() error {
	return GetValidator().Struct(f)
}

type CourseListResponse struct {
	Courses []model.Course `json:"courses"`
	Total   int64          `json:"total"`
	Page    int            `json:"page"`
	Limit   int            `json:"limit"`
}

type CourseDetailResponse struct {
	Course     *model.Course     `json:"course"`
	IsEnrolled bool              `json:"is_enrolled"`
	Enrollment *model.Enrollment `json:"enrollment,omitempty"`
}

type CourseStatsResponse struct {
	CourseID             string  `json:"course_id"`
	TotalLessons         int     `json:"total_lessons"`
	PublishedLessons     int64   `json:"published_lessons"`
	DurationMinutes      int     `json:"duration_minutes"`
	TotalEnrollments     int64   `json:"total_enrollments"`
	ActiveEnrollments    int64   `json:"active_enrollments"`
	CompletedEnrollments int64   `json:"completed_enrollments"`
	ExpiredEnrollments   int64   `json:"expired_enrollments"`
	SuspendedEnrollments int64   `json:"suspended_enrollments"`
	AverageProgress      float64 `json:"average_progress"`
	CompletionRate       float64 `json:"completion_rate"`
	CertificatesIssued   int64   `json:"certificates_issued"`
	Rating               float64 `json:"rating"`
	RatingCount          int     `json:"rating_count"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (r ReviewRequest) Validate() error {
	return GetValidator().Struct(r)
}
