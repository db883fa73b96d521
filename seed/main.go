package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/course_api/seed/seeders"
	"github.com/lac-hong-legacy/course_api/services"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	var (
		seedType = flag.String("type", "all", "Type of seeding: all, courses, enrollments")
		driver   = flag.String("driver", "", "Database driver: sqlite or postgres (overrides DB_DRIVER)")
		dbPath   = flag.String("db", "", "sqlite path or postgres DSN (overrides env)")
		help     = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	dbDriver := *driver
	if dbDriver == "" {
		dbDriver = os.Getenv("DB_DRIVER")
	}
	if dbDriver == "" {
		dbDriver = services.DriverSqlite
	}

	database := *dbPath
	if database == "" {
		if dbDriver == services.DriverPostgres {
			database = services.PostgresDSN()
		} else if database = os.Getenv("DB_DATABASE"); database == "" {
			database = "course_api.db"
		}
	}

	db, err := services.Open(dbDriver, database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", dbDriver).Msg("Failed to connect to database")
	}
	dbSvc, err := services.NewDatabaseService(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}
	log.Info().Str("driver", dbDriver).Msg("Connected to database")

	mainSeeder := seeders.NewMainSeeder(dbSvc)

	switch *seedType {
	case "all":
		err = mainSeeder.SeedAll()
	case "courses":
		err = mainSeeder.SeedCoursesOnly()
	case "enrollments":
		err = mainSeeder.SeedEnrollmentsOnly()
	default:
		log.Fatal().Str("type", *seedType).Msg("Unknown seed type, use 'all', 'courses' or 'enrollments'")
	}
	if err != nil {
		log.Fatal().Err(err).Str("type", *seedType).Msg("Seeding failed")
	}

	log.Info().Msg("Seeding operation completed successfully")
}

func showHelp() {
	fmt.Println(`
Database seeding tool for the course API

Usage: go run ./seed [flags]

Flags:
  -type string
        Type of seeding to perform (default "all")
        Options: all, courses, enrollments
  -driver string
        sqlite or postgres (default DB_DRIVER, then sqlite)
  -db string
        sqlite file path or postgres DSN
  -help
        Show this help message

Examples:
  go run ./seed
  go run ./seed -type=courses -db=./dev.db
  go run ./seed -driver=postgres

Environment Variables:
  DB_DRIVER, DB_DATABASE, DATABASE_URL, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME`)
}
