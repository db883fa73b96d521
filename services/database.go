package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/course_api/model"
	"github.com/lac-hong-legacy/course_api/services/repositories"
	"github.com/lac-hong-legacy/course_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type DatabaseService struct {
	context.DefaultService
	db    *gorm.DB
	repos *repositories.Repositories

	driver   string
	database string
}

const DATABASE_SVC = "database_svc"

func (ds DatabaseService) Id() string {
	return DATABASE_SVC
}

func (ds DatabaseService) Db() *gorm.DB {
	return ds.db
}

// Repos returns repositories bound to the shared connection.
func (ds *DatabaseService) Repos() *repositories.Repositories {
	return ds.repos
}

// Models is the full schema, in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.Progress{},
		&model.CourseReview{},
	}
}

func (ds *DatabaseService) Configure(ctx *context.Context) error {
	ds.driver = os.Getenv("DB_DRIVER")
	if ds.driver == "" {
		ds.driver = DriverPostgres
	}

	switch ds.driver {
	case DriverSqlite:
		ds.database = os.Getenv("DB_DATABASE")
		if ds.database == "" {
			ds.database = "course_api.db"
		}
	case DriverPostgres:
		ds.database = PostgresDSN()
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", ds.driver)
	}

	return ds.DefaultService.Configure(ctx)
}

// PostgresDSN builds the connection string from DATABASE_URL or the DB_* variables.
func PostgresDSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}
	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		password = "postgres"
	}
	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "course_api"
	}
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}
	timezone := os.Getenv("DB_TIMEZONE")
	if timezone == "" {
		timezone = "UTC"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone)
}

// Open connects with the service's gorm settings without migrating.
func Open(driver, database string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSqlite:
		dialector = sqlite.Open(database)
	case DriverPostgres:
		dialector = postgres.Open(database)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	return gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
}

func (ds *DatabaseService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.WithFields(log.Fields{"driver": ds.driver, "attempt": attempt}).Info("Connecting to database")

		ds.db, err = Open(ds.driver, ds.database)

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.WithError(err).Errorf("Failed to connect to database after %d attempts", maxRetries)
			return err
		}

		log.WithError(err).Warnf("Database connection failed, retrying in %v", retryDelay)
		time.Sleep(retryDelay)

		// Exponential backoff with max delay of 10 seconds
		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err := ds.migrate(); err != nil {
		return err
	}

	log.Info("Database connected and migrated successfully")
	return nil
}

func (ds *DatabaseService) migrate() error {
	if err := ds.db.AutoMigrate(Models()...); err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}
	ds.repos = repositories.New(ds.db)
	return nil
}

// NewDatabaseService wraps an open connection, migrating the schema. Used by
// the seed command and tests.
func NewDatabaseService(db *gorm.DB) (*DatabaseService, error) {
	ds := &DatabaseService{db: db, driver: db.Dialector.Name()}
	if err := ds.migrate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *DatabaseService) Shutdown() {
	if ds.db == nil {
		return
	}
	if sqlDB, err := ds.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Transaction runs fn with repositories bound to a single transaction.
func (ds *DatabaseService) Transaction(fn func(tx *repositories.Repositories) error) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		return fn(repositories.New(tx))
	})
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}

// HandleError classifies a persistence error, logs it and returns the
// error to surface. Application errors pass through untouched.
func (ds *DatabaseService) HandleError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := shared.GetAppError(err); ok {
		return err
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case IsDuplicate(err):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		statusCode = http.StatusInternalServerError // 500
		errorType = "INTERNAL_ERROR"
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	switch statusCode {
	case http.StatusNotFound:
		return shared.NewNotFoundError("Record")
	case http.StatusConflict:
		return shared.NewConflictError(errorType, "Record already exists")
	}
	return fmt.Errorf("%s: %w", errorType, err)
}
