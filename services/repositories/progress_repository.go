package repositories

import (
	"errors"

	"github.com/lac-hong-legacy/course_api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProgressRepository struct {
	BaseRepository
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (r *ProgressRepository) Get(id string) (*model.Progress, error) {
	var progress model.Progress
	if err := r.db.Where("id = ?", id).First(&progress).Error; err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) Find(enrollmentID, lessonID, learnerID string) (*model.Progress, error) {
	var progress model.Progress
	err := r.db.
		Where("enrollment_id = ? AND lesson_id = ? AND learner_id = ?", enrollmentID, lessonID, learnerID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindOrNew returns the stored record for the triple, or an empty unsaved
// one when the learner has not touched the lesson yet. The second result
// reports whether the record is new.
func (r *ProgressRepository) FindOrNew(enrollmentID, lessonID, learnerID string) (*model.Progress, bool, error) {
	progress, err := r.Find(enrollmentID, lessonID, learnerID)
	if err == nil {
		return progress, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	return &model.Progress{
		EnrollmentID: enrollmentID,
		LessonID:     lessonID,
		LearnerID:    learnerID,
		Sessions:     datatypes.JSONSlice[model.WatchSession]{},
		Interactions: datatypes.JSONSlice[model.InteractionEvent]{},
		Quiz:         datatypes.NewJSONType(model.QuizState{Attempts: []model.QuizAttempt{}}),
		Assignment:   datatypes.NewJSONType(model.AssignmentState{}),
	}, true, nil
}

// Create inserts a record built by FindOrNew. A concurrent first write for
// the same triple fails with a duplicate key error.
func (r *ProgressRepository) Create(progress *model.Progress) error {
	ts := now()
	progress.ID = newID()
	progress.CreatedAt = ts
	progress.UpdatedAt = ts
	if err := r.db.Create(progress).Error; err != nil {
		progress.ID = ""
		return err
	}
	return nil
}

func (r *ProgressRepository) Save(progress *model.Progress) error {
	progress.UpdatedAt = now()
	return r.db.Save(progress).Error
}

func (r *ProgressRepository) ListByEnrollment(enrollmentID string) ([]model.Progress, error) {
	var records []model.Progress
	if err := r.db.Where("enrollment_id = ?", enrollmentID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// CountCompleted counts the enrollment's completed records whose lesson is
// still published.
func (r *ProgressRepository) CountCompleted(enrollmentID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Progress{}).
		Joins("JOIN lessons ON lessons.id = lesson_progress.lesson_id").
		Where("lesson_progress.enrollment_id = ? AND lesson_progress.completed = ? AND lessons.is_published = ?",
			enrollmentID, true, true).
		Count(&count).Error
	return count, err
}
