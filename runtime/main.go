package main

import (
	"os"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/course_api/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file found, using environment")
	}

	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, err := context.NewCtx(
		&services.DatabaseService{},
		&services.RedisService{},
		&services.MinIOService{},
		&services.MonitoringService{},
		&services.JWTService{},
		&services.AuthMiddleware{},
		&services.RateLimitService{},

		&services.AggregatorService{},
		&services.EnrollmentService{},
		&services.CatalogService{},
		&services.ProgressService{},
		&services.CertificateService{},
		&services.LiveRoomService{},
		&services.SchedulerService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service context stopped")
		return
	}
}
