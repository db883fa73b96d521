package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseRepository provides common database functionality
type BaseRepository struct {
	db *gorm.DB
}

func NewBaseRepository(db *gorm.DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying database connection
func (r *BaseRepository) DB() *gorm.DB {
	return r.db
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func now() time.Time {
	return time.Now().UTC()
}

// Repositories groups every repository over one connection or transaction.
type Repositories struct {
	Courses     *CourseRepository
	Lessons     *LessonRepository
	Enrollments *EnrollmentRepository
	Progress    *ProgressRepository
	Reviews     *ReviewRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Courses:     NewCourseRepository(db),
		Lessons:     NewLessonRepository(db),
		Enrollments: NewEnrollmentRepository(db),
		Progress:    NewProgressRepository(db),
		Reviews:     NewReviewRepository(db),
	}
}
