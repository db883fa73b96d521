package model

import (
	"math"
	"time"
)

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentExpired   EnrollmentStatus = "expired"
	EnrollmentSuspended EnrollmentStatus = "suspended"
)

type Enrollment struct {
	ID          string           `json:"id" gorm:"primaryKey"`
	CourseID    string           `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollment_course_learner"`
	LearnerID   string           `json:"learner_id" gorm:"not null;uniqueIndex:idx_enrollment_course_learner;index"`
	Status      EnrollmentStatus `json:"status" gorm:"not null;default:'active';index"`
	EnrolledAt  time.Time        `json:"enrolled_at" gorm:"not null"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty" gorm:"index"`

	Progress    EnrollmentProgress `json:"progress" gorm:"embedded"`
	Payment     PaymentRecord      `json:"payment" gorm:"embedded;embeddedPrefix:payment_"`
	Certificate CertificateState   `json:"certificate" gorm:"embedded;embeddedPrefix:certificate_"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EnrollmentProgress struct {
	CompletedLessons   int        `json:"completed_lessons" gorm:"not null;default:0"`
	TotalLessons       int        `json:"total_lessons" gorm:"not null;default:0"`
	ProgressPercentage int        `json:"progress_percentage" gorm:"not null;default:0"`
	LastAccessedAt     *time.Time `json:"last_accessed_at,omitempty"`
	CurrentLessonID    *string    `json:"current_lesson_id,omitempty"`
}

type PaymentRecord struct {
	Method         string     `json:"method"`
	Amount         float64    `json:"amount"`
	Currency       string     `json:"currency"`
	TransactionRef string     `json:"transaction_ref,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

type CertificateState struct {
	Issued   bool       `json:"issued" gorm:"not null;default:false"`
	IssuedAt *time.Time `json:"issued_at,omitempty"`
	Number   *string    `json:"certificate_id,omitempty" gorm:"column:number;uniqueIndex"`
}

// Percentage returns round(completed/total*100), 0 for an empty course.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

func (e *Enrollment) IsExpiredAt(now time.Time) bool {
	return e.ExpiresAt != nil && !now.Before(*e.ExpiresAt)
}

// GrantsAccessAt reports whether the learner may act on lessons.
func (e *Enrollment) GrantsAccessAt(now time.Time) bool {
	if e.Status != EnrollmentActive && e.Status != EnrollmentCompleted {
		return false
	}
	return !e.IsExpiredAt(now)
}

// ApplySummary overwrites the progress summary from a full recount and
// moves an active enrollment to completed at 100%. It never moves a
// completed enrollment back. Returns true when the status changed.
func (e *Enrollment) ApplySummary(completed, total int, now time.Time) bool {
	e.Progress.CompletedLessons = completed
	e.Progress.TotalLessons = total
	e.Progress.ProgressPercentage = Percentage(completed, total)
	e.Progress.LastAccessedAt = &now

	if e.Progress.ProgressPercentage == 100 && e.Status == EnrollmentActive {
		e.Status = EnrollmentCompleted
		e.CompletedAt = &now
		return true
	}
	return false
}
