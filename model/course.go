package model

import "time"

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Course holds catalog metadata plus a denormalized summary of its lessons.
// DurationMinutes and TotalLessons are written only by the catalog's
// summary recompute.
type Course struct {
	ID           string  `json:"id" gorm:"primaryKey"`
	InstructorID string  `json:"instructor_id" gorm:"not null;index"`
	Title        string  `json:"title" gorm:"not null"`
	Description  string  `json:"description" gorm:"type:text"`
	Category     string  `json:"category" gorm:"index"`
	Level        string  `json:"level" gorm:"index"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Price        float64 `json:"price" gorm:"not null;default:0"`
	Currency     string  `json:"currency" gorm:"not null;default:'USD'"`
	IsPublished  bool    `json:"is_published" gorm:"not null;default:false;index"`
	AccessDays   int     `json:"access_days" gorm:"not null;default:0"` // 0 = lifetime access

	DurationMinutes int `json:"duration_minutes" gorm:"not null;default:0"`
	TotalLessons    int `json:"total_lessons" gorm:"not null;default:0"`

	EnrollmentCount int     `json:"enrollment_count" gorm:"not null;default:0"`
	Rating          float64 `json:"rating" gorm:"not null;default:0"`
	RatingCount     int     `json:"rating_count" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Course) IsFree() bool {
	return c.Price <= 0
}

// CourseReview is one learner's rating of a course.
type CourseReview struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	CourseID  string    `json:"course_id" gorm:"not null;uniqueIndex:idx_review_course_learner"`
	LearnerID string    `json:"learner_id" gorm:"not null;uniqueIndex:idx_review_course_learner"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
