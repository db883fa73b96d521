package services

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lac-hong-legacy/course_api/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "course_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		},
		[]string{"method"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Learning Metrics
var (
	enrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollments_total",
			Help: "Enrollment requests by outcome",
		},
		[]string{"outcome"},
	)

	enrollmentTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrollment_transitions_total",
			Help: "Enrollment status transitions by target status",
		},
		[]string{"status"},
	)

	watchSessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watch_sessions_total",
			Help: "Watch session events by action",
		},
		[]string{"action"},
	)

	watchSecondsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "watch_seconds_total",
			Help: "Watch time credited to progress records",
		},
	)

	quizSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Quiz submissions by result",
		},
		[]string{"result"},
	)

	lessonCompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lesson_completions_total",
			Help: "Progress records that reached completed, by lesson type",
		},
		[]string{"type"},
	)

	certificatesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "certificates_issued_total",
			Help: "Certificates issued",
		},
	)

	aggregatorRunDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_run_duration_seconds",
			Help:    "Enrollment summary recompute duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	port, err := strconv.Atoi(os.Getenv("PROMETHEUS_PORT"))
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reg.MustRegister(
		httpRequestsTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,
		enrollmentsTotal,
		enrollmentTransitionsTotal,
		watchSessionsTotal,
		watchSecondsTotal,
		quizSubmissionsTotal,
		lessonCompletionsTotal,
		certificatesIssuedTotal,
		aggregatorRunDurationSeconds,
		heapAllocBytes,
		gcTotal,
	)
	svc.register = reg

	go svc.updateMemoryMetrics()

	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())

	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	svc.server.Get("/metrics", adaptor.HTTPHandler(handler))
	svc.server.Get("/health", svc.healthHandler)

	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Int("port", svc.port).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		svc.closed <- struct{}{}
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))
			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			return
		}
	}
}

// The recorders below only touch package level collectors, so they are
// safe on a nil *MonitoringService.

func (svc *MonitoringService) RecordRequest(method, endpoint, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(duration.Seconds())
}

func (svc *MonitoringService) RecordEnrollment(outcome string) {
	enrollmentsTotal.WithLabelValues(outcome).Inc()
}

func (svc *MonitoringService) RecordTransition(status string) {
	enrollmentTransitionsTotal.WithLabelValues(status).Inc()
}

func (svc *MonitoringService) RecordTransitions(status string, count int64) {
	if count > 0 {
		enrollmentTransitionsTotal.WithLabelValues(status).Add(float64(count))
	}
}

func (svc *MonitoringService) RecordSessionEvent(action string, creditedSeconds int) {
	watchSessionsTotal.WithLabelValues(action).Inc()
	if creditedSeconds > 0 {
		watchSecondsTotal.Add(float64(creditedSeconds))
	}
}

func (svc *MonitoringService) RecordQuiz(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	quizSubmissionsTotal.WithLabelValues(result).Inc()
}

func (svc *MonitoringService) RecordLessonCompleted(lessonType string) {
	lessonCompletionsTotal.WithLabelValues(lessonType).Inc()
}

func (svc *MonitoringService) RecordCertificate() {
	certificatesIssuedTotal.Inc()
}

func (svc *MonitoringService) ObserveAggregation(duration time.Duration) {
	aggregatorRunDurationSeconds.Observe(duration.Seconds())
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		httpRequestsActive.WithLabelValues(method).Inc()
		defer httpRequestsActive.WithLabelValues(method).Dec()

		err := c.Next()

		// errors are rendered by the app error handler after this returns
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if appErr, ok := shared.GetAppError(err); ok {
				status = appErr.StatusCode
			} else if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		monitoringSvc.RecordRequest(method, c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
