package repositories

import (
	"math"
	"strings"

	"github.com/lac-hong-legacy/course_api/model"
	"gorm.io/gorm"
)

type CourseRepository struct {
	BaseRepository
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// CourseQuery filters the public catalog listing.
type CourseQuery struct {
	Category     string
	Level        string
	Search       string
	InstructorID string
	Offset       int
	Limit        int
}

func (r *CourseRepository) Create(course *model.Course) (*model.Course, error) {
	if course.ID == "" {
		course.ID = newID()
	}
	course.CreatedAt = now()
	course.UpdatedAt = course.CreatedAt

	if err := r.db.Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

func (r *CourseRepository) Get(id string) (*model.Course, error) {
	var course model.Course
	if err := r.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// Update persists editable metadata. Summary and counter columns are owned
// by their recompute methods and are never written here.
func (r *CourseRepository) Update(course *model.Course) error {
	course.UpdatedAt = now()
	return r.db.Model(course).
		Select("title", "description", "category", "level", "thumbnail_url", "price", "currency", "is_published", "access_days", "updated_at").
		Updates(course).Error
}

func (r *CourseRepository) ListPublished(q CourseQuery) ([]model.Course, int64, error) {
	query := r.db.Model(&model.Course{}).Where("is_published = ?", true)

	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.Level != "" {
		query = query.Where("level = ?", q.Level)
	}
	if q.InstructorID != "" {
		query = query.Where("instructor_id = ?", q.InstructorID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	if err := query.Order("created_at DESC").Offset(q.Offset).Limit(q.Limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}
	return courses, total, nil
}

// RecomputeSummary rewrites duration_minutes and total_lessons from the
// course's lessons.
func (r *CourseRepository) RecomputeSummary(courseID string) (*model.Course, error) {
	var agg struct {
		Lessons int64
		Seconds int64
	}
	err := r.db.Model(&model.Lesson{}).
		Select("COUNT(*) AS lessons, COALESCE(SUM(duration_seconds), 0) AS seconds").
		Where("course_id = ?", courseID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	minutes := int(math.Round(float64(agg.Seconds) / 60))
	err = r.db.Model(&model.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"duration_minutes": minutes,
		"total_lessons":    int(agg.Lessons),
		"updated_at":       now(),
	}).Error
	if err != nil {
		return nil, err
	}
	return r.Get(courseID)
}

func (r *CourseRepository) RecomputeEnrollmentCount(courseID string) error {
	var count int64
	if err := r.db.Model(&model.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return err
	}
	return r.db.Model(&model.Course{}).Where("id = ?", courseID).Update("enrollment_count", int(count)).Error
}

func (r *CourseRepository) RecomputeRating(courseID string) error {
	var agg struct {
		Average float64
		Total   int64
	}
	err := r.db.Model(&model.CourseReview{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return r.db.Model(&model.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"rating":       math.Round(agg.Average*100) / 100,
		"rating_count": int(agg.Total),
	}).Error
}

// Delete removes the course with its lessons, enrollments, progress and
// reviews. Call inside a transaction.
func (r *CourseRepository) Delete(courseID string) error {
	lessonIDs := r.db.Model(&model.Lesson{}).Select("id").Where("course_id = ?", courseID)
	if err := r.db.Where("lesson_id IN (?)", lessonIDs).Delete(&model.Progress{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("course_id = ?", courseID).Delete(&model.Enrollment{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("course_id = ?", courseID).Delete(&model.CourseReview{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("course_id = ?", courseID).Delete(&model.Lesson{}).Error; err != nil {
		return err
	}
	res := r.db.Where("id = ?", courseID).Delete(&model.Course{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
