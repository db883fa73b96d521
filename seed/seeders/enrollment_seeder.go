package seeders

import (
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/services"
	"github.com/rs/zerolog/log"
)

// EnrollmentSeeder enrolls the demo learner through the enrollment
// service so the summary snapshot matches a real enrollment.
type EnrollmentSeeder struct {
	dbSvc *services.DatabaseService
}

func NewEnrollmentSeeder(dbSvc *services.DatabaseService) *EnrollmentSeeder {
	return &EnrollmentSeeder{dbSvc: dbSvc}
}

func (s *EnrollmentSeeder) SeedEnrollments() error {
	enrollmentSvc := services.NewEnrollmentService(s.dbSvc, services.NewAggregatorService(s.dbSvc, nil), nil)

	existing, err := enrollmentSvc.Find(DemoCourseID, DemoLearnerID)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info().Str("enrollment_id", existing.ID).Msg("Demo enrollment already exists, skipping")
		return nil
	}

	enrollment, err := enrollmentSvc.Enroll(DemoCourseID, DemoLearnerID, dto.EnrollRequest{})
	if err != nil {
		return err
	}

	log.Info().
		Str("enrollment_id", enrollment.ID).
		Str("learner_id", DemoLearnerID).
		Int("total_lessons", enrollment.Progress.TotalLessons).
		Msg("Created demo enrollment")
	return nil
}
