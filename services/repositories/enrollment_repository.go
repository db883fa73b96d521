package repositories

import (
	"time"

	"github.com/lac-hong-legacy/course_api/model"
	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	BaseRepository
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

type EnrollmentStats struct {
	Total              int64
	ByStatus           map[model.EnrollmentStatus]int64
	AverageProgress    float64
	CertificatesIssued int64
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) (*model.Enrollment, error) {
	if enrollment.ID == "" {
		enrollment.ID = newID()
	}
	enrollment.CreatedAt = now()
	enrollment.UpdatedAt = enrollment.CreatedAt

	if err := r.db.Create(enrollment).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (r *EnrollmentRepository) Get(id string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	if err := r.db.Where("id = ?", id).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) GetByCourseAndLearner(courseID, learnerID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.Where("course_id = ? AND learner_id = ?", courseID, learnerID).First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *EnrollmentRepository) ListByLearner(learnerID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.db.Where("learner_id = ?", learnerID).Order("enrolled_at DESC").Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *EnrollmentRepository) ListByCourse(courseID string) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	if err := r.db.Where("course_id = ?", courseID).Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *EnrollmentRepository) Save(enrollment *model.Enrollment) error {
	enrollment.UpdatedAt = now()
	return r.db.Save(enrollment).Error
}

// SaveSummary writes only the progress summary and completion columns so
// a concurrent certificate issue or admin transition is not overwritten.
// The status guard keeps completed from ever being rewritten to active.
func (r *EnrollmentRepository) SaveSummary(e *model.Enrollment) error {
	updates := map[string]interface{}{
		"completed_lessons":   e.Progress.CompletedLessons,
		"total_lessons":       e.Progress.TotalLessons,
		"progress_percentage": e.Progress.ProgressPercentage,
		"last_accessed_at":    e.Progress.LastAccessedAt,
		"current_lesson_id":   e.Progress.CurrentLessonID,
		"updated_at":          now(),
	}
	if e.Status == model.EnrollmentCompleted && e.CompletedAt != nil {
		completed := r.db.Model(&model.Enrollment{}).
			Where("id = ? AND status = ?", e.ID, model.EnrollmentActive).
			Updates(map[string]interface{}{"status": model.EnrollmentCompleted, "completed_at": e.CompletedAt})
		if completed.Error != nil {
			return completed.Error
		}
	}
	return r.db.Model(&model.Enrollment{}).Where("id = ?", e.ID).Updates(updates).Error
}

// TransitionStatus moves an enrollment from one of the given states.
// Returns false when the enrollment was not in any of them.
func (r *EnrollmentRepository) TransitionStatus(id string, to model.EnrollmentStatus, from ...model.EnrollmentStatus) (bool, error) {
	res := r.db.Model(&model.Enrollment{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IssueCertificate sets the certificate columns only if the enrollment is
// fully complete and has no certificate yet. Returns false if another
// request issued first or the enrollment is not eligible.
func (r *EnrollmentRepository) IssueCertificate(id, number string, issuedAt time.Time) (bool, error) {
	res := r.db.Model(&model.Enrollment{}).
		Where("id = ? AND certificate_issued = ? AND progress_percentage = ?", id, false, 100).
		Updates(map[string]interface{}{
			"certificate_issued":    true,
			"certificate_issued_at": issuedAt,
			"certificate_number":    number,
			"updated_at":            now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireOverdue moves every active or completed enrollment whose access
// window has closed to expired.
func (r *EnrollmentRepository) ExpireOverdue(at time.Time) (int64, error) {
	res := r.db.Model(&model.Enrollment{}).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]model.EnrollmentStatus{model.EnrollmentActive, model.EnrollmentCompleted}, at).
		Updates(map[string]interface{}{"status": model.EnrollmentExpired, "updated_at": now()})
	return res.RowsAffected, res.Error
}

func (r *EnrollmentRepository) Stats(courseID string) (*EnrollmentStats, error) {
	stats := &EnrollmentStats{ByStatus: map[model.EnrollmentStatus]int64{}}

	var rows []struct {
		Status model.EnrollmentStatus
		Count  int64
	}
	err := r.db.Model(&model.Enrollment{}).
		Select("status, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
		stats.Total += row.Count
	}

	err = r.db.Model(&model.Enrollment{}).
		Select("COALESCE(AVG(progress_percentage), 0)").
		Where("course_id = ?", courseID).
		Scan(&stats.AverageProgress).Error
	if err != nil {
		return nil, err
	}

	err = r.db.Model(&model.Enrollment{}).
		Where("course_id = ? AND certificate_issued = ?", courseID, true).
		Count(&stats.CertificatesIssued).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
