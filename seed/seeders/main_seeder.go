package seeders

import (
	"github.com/lac-hong-legacy/course_api/services"
	"github.com/rs/zerolog/log"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	dbSvc *services.DatabaseService
}

func NewMainSeeder(dbSvc *services.DatabaseService) *MainSeeder {
	return &MainSeeder{dbSvc: dbSvc}
}

// SeedAll runs all seeders in dependency order
func (s *MainSeeder) SeedAll() error {
	log.Info().Msg("Starting database seeding")

	if err := s.SeedCoursesOnly(); err != nil {
		log.Error().Err(err).Msg("Course seeding failed")
		return err
	}

	if err := s.SeedEnrollmentsOnly(); err != nil {
		log.Error().Err(err).Msg("Enrollment seeding failed")
		return err
	}

	log.Info().Msg("Database seeding completed successfully")
	return nil
}

func (s *MainSeeder) SeedCoursesOnly() error {
	return NewCourseSeeder(s.dbSvc).SeedCourses()
}

// SeedEnrollmentsOnly needs the demo course.
func (s *MainSeeder) SeedEnrollmentsOnly() error {
	return NewEnrollmentSeeder(s.dbSvc).SeedEnrollments()
}
