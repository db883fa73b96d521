package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/lac-hong-legacy/course_api/docs"
	"github.com/lac-hong-legacy/course_api/services/handlers"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type HttpService struct {
	context.DefaultService

	authSvc        *AuthMiddleware
	rateLimitSvc   *RateLimitService
	monitoringSvc  *MonitoringService
	catalogSvc     *CatalogService
	enrollmentSvc  *EnrollmentService
	progressSvc    *ProgressService
	certificateSvc *CertificateService
	liveSvc        *LiveRoomService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_MIDDLEWARE_SVC).(*AuthMiddleware)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.catalogSvc = svc.Service(CATALOG_SVC).(*CatalogService)
	svc.enrollmentSvc = svc.Service(ENROLLMENT_SVC).(*EnrollmentService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.certificateSvc = svc.Service(CERTIFICATE_SVC).(*CertificateService)
	svc.liveSvc = svc.Service(LIVE_SVC).(*LiveRoomService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.app = svc.NewApp()

	log.Info().Int("port", svc.port).Msg("HTTP server listening")
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// NewApp builds the fiber app with every route registered.
func (svc *HttpService) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           shared.JSONMarshal,
		JSONDecoder:           shared.JSONUnmarshal,
		ErrorHandler:          ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	if svc.monitoringSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitoringSvc))
	}
	if svc.rateLimitSvc != nil {
		app.Use(svc.rateLimitSvc.IPRateLimit())
	}

	docs.SwaggerInfo.BasePath = "/"
	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	svc.registerRoutes(app.Group("/api/v1"))

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})
	return app
}

func (svc *HttpService) registerRoutes(v1 fiber.Router) {
	courseHandler := handlers.NewCourseHandler(svc.catalogSvc, svc.enrollmentSvc)
	lessonHandler := handlers.NewLessonHandler(svc.catalogSvc, svc.liveSvc)
	progressHandler := handlers.NewProgressHandler(svc.progressSvc)
	enrollmentHandler := handlers.NewEnrollmentHandler(svc.enrollmentSvc, svc.certificateSvc)

	auth := svc.authSvc.RequiredAuth()
	optional := svc.authSvc.OptionalAuth()
	authors := svc.authSvc.RequireRole(shared.RoleInstructor, shared.RoleAdmin)
	admin := svc.authSvc.RequireRole(shared.RoleAdmin)
	limit := func(endpointType string) fiber.Handler {
		if svc.rateLimitSvc == nil {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return svc.rateLimitSvc.UserBasedRateLimit(endpointType)
	}

	v1.Get("/ping", svc.ping)

	courses := v1.Group("/courses")
	courses.Get("/", optional, courseHandler.ListCourses)
	courses.Post("/", auth, authors, courseHandler.CreateCourse)
	courses.Get("/:courseId", optional, courseHandler.GetCourse)
	courses.Put("/:courseId", auth, courseHandler.UpdateCourse)
	courses.Delete("/:courseId", auth, courseHandler.DeleteCourse)
	courses.Post("/:courseId/enroll", auth, limit(LimitEnroll), courseHandler.Enroll)
	courses.Get("/:courseId/stats", auth, courseHandler.GetStats)
	courses.Post("/:courseId/reviews", auth, limit(LimitReview), courseHandler.ReviewCourse)
	courses.Get("/:courseId/progress", auth, progressHandler.GetCourseProgress)
	courses.Get("/:courseId/lessons", optional, lessonHandler.ListLessons)
	courses.Post("/:courseId/lessons", auth, lessonHandler.CreateLesson)
	courses.Put("/:courseId/lessons/reorder", auth, lessonHandler.ReorderLessons)

	lessons := v1.Group("/lessons", auth)
	lessons.Put("/:lessonId", lessonHandler.UpdateLesson)
	lessons.Delete("/:lessonId", lessonHandler.DeleteLesson)
	lessons.Get("/:lessonId/progress", progressHandler.GetLessonProgress)
	lessons.Put("/:lessonId/progress", limit(LimitProgressWrite), progressHandler.UpdateProgress)
	lessons.Post("/:lessonId/quiz", limit(LimitQuizSubmit), progressHandler.SubmitQuiz)
	lessons.Post("/:lessonId/assignment", limit(LimitSubmission), progressHandler.SubmitAssignment)
	lessons.Post("/:lessonId/assignment/upload-url", limit(LimitSubmission), progressHandler.AssignmentUploadURL)
	lessons.Get("/:lessonId/live/join", lessonHandler.JoinLive)

	v1.Put("/progress/:progressId/assignment/grade", auth, progressHandler.GradeAssignment)

	enrollments := v1.Group("/enrollments", auth)
	enrollments.Get("/me", enrollmentHandler.ListMine)
	enrollments.Post("/:enrollmentId/certificate", enrollmentHandler.IssueCertificate)
	enrollments.Put("/:enrollmentId/suspend", admin, enrollmentHandler.Suspend)
	enrollments.Put("/:enrollmentId/resume", admin, enrollmentHandler.Resume)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}

// ErrorHandler renders errors returned by handlers in the response envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ResponseNotFound(c)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("Unhandled error")
	return shared.ResponseInternalError(c)
}
