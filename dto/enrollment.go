package dto

import "time"

type EnrollRequest struct {
	PaymentMethod  string `json:"payment_method" validate:"omitempty,oneof=card paypal bank_transfer wallet free"`
	TransactionRef string `json:"transaction_ref" validate:"omitempty,max=255"`
}

func (r EnrollRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CertificateResponse struct {
	CertificateID string    `json:"certificate_id"`
	EnrollmentID  string    `json:"enrollment_id"`
	CourseID      string    `json:"course_id"`
	LearnerID     string    `json:"learner_id"`
	IssuedAt      time.Time `json:"issued_at"`
	ManifestURL   string    `json:"manifest_url,omitempty"`
}

// CertificateManifest is the document stored next to an issued certificate
// for the external renderer.
type CertificateManifest struct {
	CertificateID   string    `json:"certificate_id"`
	EnrollmentID    string    `json:"enrollment_id"`
	CourseID        string    `json:"course_id"`
	CourseTitle     string    `json:"course_title"`
	InstructorID    string    `json:"instructor_id"`
	LearnerID       string    `json:"learner_id"`
	CompletedAt     time.Time `json:"completed_at"`
	IssuedAt        time.Time `json:"issued_at"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalLessons    int       `json:"total_lessons"`
}
