package repositories

import (
	"github.com/lac-hong-legacy/course_api/model"
	"gorm.io/gorm"
)

type LessonRepository struct {
	BaseRepository
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// OrderAssignment moves one lesson to a new position.
type OrderAssignment struct {
	LessonID string
	Order    int
}

func (r *LessonRepository) Create(lesson *model.Lesson) (*model.Lesson, error) {
	if lesson.ID == "" {
		lesson.ID = newID()
	}
	lesson.CreatedAt = now()
	lesson.UpdatedAt = lesson.CreatedAt

	if err := r.db.Create(lesson).Error; err != nil {
		return nil, err
	}
	return lesson, nil
}

func (r *LessonRepository) Get(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := r.db.Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *LessonRepository) ListByCourse(courseID string, publishedOnly bool) ([]model.Lesson, error) {
	query := r.db.Where("course_id = ?", courseID)
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var lessons []model.Lesson
	if err := query.Order("sort_order ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *LessonRepository) CountPublished(courseID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Lesson{}).
		Where("course_id = ? AND is_published = ?", courseID, true).
		Count(&count).Error
	return count, err
}

func (r *LessonRepository) MaxOrder(courseID string) (int, error) {
	var max int
	err := r.db.Model(&model.Lesson{}).
		Select("COALESCE(MAX(sort_order), 0)").
		Where("course_id = ?", courseID).
		Scan(&max).Error
	return max, err
}

func (r *LessonRepository) OrderTaken(courseID string, order int) (bool, error) {
	var count int64
	err := r.db.Model(&model.Lesson{}).
		Where("course_id = ? AND sort_order = ?", courseID, order).
		Count(&count).Error
	return count > 0, err
}

func (r *LessonRepository) Update(lesson *model.Lesson) error {
	lesson.UpdatedAt = now()
	return r.db.Model(lesson).
		Select("title", "duration_seconds", "type", "is_published", "is_free", "content", "updated_at").
		Updates(lesson).Error
}

// Delete removes the lesson and its progress records. Call inside a transaction.
func (r *LessonRepository) Delete(id string) error {
	if err := r.db.Where("lesson_id = ?", id).Delete(&model.Progress{}).Error; err != nil {
		return err
	}
	res := r.db.Where("id = ?", id).Delete(&model.Lesson{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApplyOrders writes new positions in two passes. The first parks every
// moved lesson on a distinct negative order so the second pass can never
// collide with a position that is still occupied. Call inside a transaction.
func (r *LessonRepository) ApplyOrders(courseID string, assignments []OrderAssignment) error {
	ts := now()
	for i, a := range assignments {
		err := r.db.Model(&model.Lesson{}).
			Where("id = ? AND course_id = ?", a.LessonID, courseID).
			Update("sort_order", -(i + 1)).Error
		if err != nil {
			return err
		}
	}

	for _, a := range assignments {
		err := r.db.Model(&model.Lesson{}).
			Where("id = ? AND course_id = ?", a.LessonID, courseID).
			Updates(map[string]interface{}{"sort_order": a.Order, "updated_at": ts}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
