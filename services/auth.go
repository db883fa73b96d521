package services

import (
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/course_api/shared"
)

// AuthMiddleware turns the bearer token into c.Locals(UserID/UserRole).
type AuthMiddleware struct {
	context.DefaultService

	jwtSvc *JWTService
}

const AUTH_MIDDLEWARE_SVC = "auth"

func (svc AuthMiddleware) Id() string {
	return AUTH_MIDDLEWARE_SVC
}

func (svc *AuthMiddleware) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthMiddleware) Start() error {
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	return nil
}

func NewAuthMiddleware(jwtSvc *JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

func (svc *AuthMiddleware) authenticate(c *fiber.Ctx) (*CustomClaims, error) {
	token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	return svc.jwtSvc.VerifyJWTToken(token)
}

func (svc *AuthMiddleware) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := svc.authenticate(c)
		if err != nil {
			return shared.ResponseUnauthorized(c, "Invalid or missing token")
		}

		c.Locals(shared.UserID, claims.UserID)
		c.Locals(shared.UserRole, claims.Role)
		return c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and lets
// anonymous requests through. An invalid token is still rejected.
func (svc *AuthMiddleware) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}

		claims, err := svc.authenticate(c)
		if err != nil {
			return shared.ResponseUnauthorized(c, "Invalid token")
		}

		c.Locals(shared.UserID, claims.UserID)
		c.Locals(shared.UserRole, claims.Role)
		return c.Next()
	}
}

// RequireRole must run after RequiredAuth.
func (svc *AuthMiddleware) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(shared.UserRole).(string)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return shared.ResponseForbidden(c)
	}
}
