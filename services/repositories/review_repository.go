package repositories

import (
	"errors"

	"github.com/lac-hong-legacy/course_api/model"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	BaseRepository
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Upsert stores the learner's review, replacing an earlier one.
func (r *ReviewRepository) Upsert(review *model.CourseReview) (*model.CourseReview, error) {
	var existing model.CourseReview
	err := r.db.Where("course_id = ? AND learner_id = ?", review.CourseID, review.LearnerID).First(&existing).Error
	switch {
	case err == nil:
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		existing.UpdatedAt = now()
		if err := r.db.Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		review.ID = newID()
		review.CreatedAt = now()
		review.UpdatedAt = review.CreatedAt
		if err := r.db.Create(review).Error; err != nil {
			return nil, err
		}
		return review, nil
	default:
		return nil, err
	}
}
