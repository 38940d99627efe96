package middleware

import (
	"errors"
	"strings"

	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/core/services"
	"audiochamber/internal/pkg/jwt"
	"audiochamber/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Locals keys set by the auth middlewares
const (
	LocalUserID = "userID"
	LocalEmail  = "email"
	LocalName   = "name"
	LocalRole   = "role"
)

// AuthMiddleware requires a valid access token belonging to an existing, active user.
// Name and role are taken from the stored user so changes apply without re-login.
func AuthMiddleware(cfg *config.Config, users services.UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Find token in cookie or Authorization header
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Check the user still exists and is active
		user, err := users.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.Unauthorized(c, "User not found")
			}
			return response.FromError(c, err, "Failed to load user")
		}
		if !user.IsActive {
			return response.Forbidden(c, "User account is inactive")
		}

		// 4. Set user info in context
		setActor(c, user.Actor())

		return c.Next()
	}
}

// RequireRoles allows only callers whose role passes domain.Authorize
func RequireRoles(required ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		if !domain.Authorize(actor.Role, required...) {
			return response.Forbidden(c, "You don't have permission to access this resource")
		}
		return c.Next()
	}
}

// ApproverOnly allows admin and owner roles
func ApproverOnly() fiber.Handler {
	return RequireRoles(domain.ApproverRoles...)
}

// OptionalAuth middleware - doesn't require auth but sets user info if token present
func OptionalAuth(cfg *config.Config, users services.UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return c.Next()
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			return c.Next()
		}

		user, err := users.GetByID(c.UserContext(), claims.UserID)
		if err == nil && user.IsActive {
			setActor(c, user.Actor())
		}

		return c.Next()
	}
}

// CurrentActor returns the authenticated caller, if any
func CurrentActor(c *fiber.Ctx) (*domain.Actor, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	if !ok || id == 0 {
		return nil, false
	}
	role, _ := c.Locals(LocalRole).(domain.Role)
	name, _ := c.Locals(LocalName).(string)
	email, _ := c.Locals(LocalEmail).(string)
	return &domain.Actor{ID: id, Name: name, Email: email, Role: role}, true
}

func setActor(c *fiber.Ctx, actor domain.Actor) {
	c.Locals(LocalUserID, actor.ID)
	c.Locals(LocalEmail, actor.Email)
	c.Locals(LocalName, actor.Name)
	c.Locals(LocalRole, actor.Role)
}

// extractToken reads a Bearer header, falling back to the access token cookie
func extractToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		if token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")); token != "" {
			return token
		}
	}
	return c.Cookies("access_token")
}
