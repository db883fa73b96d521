package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/dto"
	"github.com/lac-hong-legacy/course_api/shared"
	"github.com/rs/zerolog/log"
)

const (
	LimitGeneral       = "api_general"
	LimitEnroll        = "enroll"
	LimitProgressWrite = "progress_write"
	LimitQuizSubmit    = "quiz_submit"
	LimitSubmission    = "assignment_submit"
	LimitReview        = "review"
)

// RateLimitService enforces fixed window request limits per identifier.
// Counters live in redis; without redis every request is allowed.
type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	redisSvc *RedisService
}

type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	Message      string
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.initDefaultConfigs()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc, _ = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// ==================== CONFIGURATION MANAGEMENT ====================

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		LimitGeneral: {
			EndpointType: LimitGeneral,
			MaxRequests:  1000,
			WindowSize:   time.Hour,
			Message:      "Too many requests. Please slow down.",
		},
		LimitEnroll: {
			EndpointType: LimitEnroll,
			MaxRequests:  20,
			WindowSize:   time.Hour,
			Message:      "Too many enrollment attempts. Please try again later.",
		},
		// players send a heartbeat every few seconds
		LimitProgressWrite: {
			EndpointType: LimitProgressWrite,
			MaxRequests:  120,
			WindowSize:   time.Minute,
			Message:      "Too many progress updates. Please slow down.",
		},
		LimitQuizSubmit: {
			EndpointType: LimitQuizSubmit,
			MaxRequests:  30,
			WindowSize:   10 * time.Minute,
			Message:      "Too many quiz submissions. Please take a break.",
		},
		LimitSubmission: {
			EndpointType: LimitSubmission,
			MaxRequests:  10,
			WindowSize:   time.Hour,
			Message:      "Too many assignment submissions. Please try again later.",
		},
		LimitReview: {
			EndpointType: LimitReview,
			MaxRequests:  10,
			WindowSize:   time.Hour,
			Message:      "Too many reviews. Please try again later.",
		},
	}
}

func (svc *RateLimitService) config(endpointType string) (*RateLimitConfig, bool) {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()
	config, ok := svc.configs[endpointType]
	return config, ok
}

// ==================== CORE RATE LIMITING LOGIC ====================

func (svc *RateLimitService) IsAllowed(ctx context.Context, identifier, endpointType string) (bool, *dto.RateLimitInfo, error) {
	config, exists := svc.config(endpointType)
	if !exists || !svc.redisSvc.Enabled() {
		return true, &dto.RateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", endpointType, identifier)
	count, ttl, err := svc.redisSvc.IncrementWindow(ctx, key, config.WindowSize)
	if err != nil {
		return false, nil, err
	}

	resetTime := time.Now().Add(ttl)
	remaining := config.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return int(count) <= config.MaxRequests, &dto.RateLimitInfo{
		Allowed:   int(count) <= config.MaxRequests,
		Limit:     config.MaxRequests,
		Remaining: remaining,
		ResetTime: &resetTime,
	}, nil
}

// ==================== MIDDLEWARE FUNCTIONS ====================

// IPRateLimit applies general rate limiting by IP address
func (svc *RateLimitService) IPRateLimit() fiber.Handler {
	return svc.limit(LimitGeneral, func(c *fiber.Ctx) string {
		return getClientIP(c)
	})
}

// UserBasedRateLimit applies rate limiting based on authenticated user
func (svc *RateLimitService) UserBasedRateLimit(endpointType string) fiber.Handler {
	return svc.limit(endpointType, func(c *fiber.Ctx) string {
		if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
			return userID
		}
		// Fall back to IP if user not authenticated
		return getClientIP(c)
	})
}

func (svc *RateLimitService) limit(endpointType string, identify func(c *fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := identify(c)

		allowed, info, err := svc.IsAllowed(c.UserContext(), identifier, endpointType)
		if err != nil {
			// Continue with request on error to avoid blocking users due to system issues
			log.Warn().Err(err).Str("endpoint_type", endpointType).Str("identifier", identifier).Msg("Rate limit check failed")
			return c.Next()
		}

		addRateLimitHeaders(c, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}

		return c.Next()
	}
}

// ==================== HELPER FUNCTIONS ====================

func addRateLimitHeaders(c *fiber.Ctx, info *dto.RateLimitInfo) {
	if info == nil || info.Remaining < 0 {
		return
	}

	c.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

	if info.ResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, endpointType string, info *dto.RateLimitInfo) error {
	message := "Too many requests. Please try again later."
	if config, ok := svc.config(endpointType); ok && config.Message != "" {
		message = config.Message
	}

	response := map[string]interface{}{
		"error":   "Rate limit exceeded",
		"message": message,
	}

	if info.ResetTime != nil {
		retryAfter := int(time.Until(*info.ResetTime).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Set("Retry-After", strconv.Itoa(retryAfter))
		response["retry_after"] = retryAfter
	}

	return shared.ResponseJSON(c, http.StatusTooManyRequests, message, response)
}

// ==================== UTILITY FUNCTIONS ====================

func getClientIP(c *fiber.Ctx) string {
	// Check for forwarded IP first (for load balancers/proxies)
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	// Fall back to remote address
	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}

	return ip
}
