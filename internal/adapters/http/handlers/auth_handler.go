package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/url"
	"time"

	"audiochamber/internal/adapters/http/middleware"
	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/core/services"
	"audiochamber/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const oauthStateKey = "oauth_state"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	sessions    *session.Store
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, sessions *session.Store, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		sessions:    sessions,
		cfg:         cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents change password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles user registration
// @Summary Register new user
// @Description Register with name, email and password. Owner emails get the owner role.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Name, email, and password are required")
	}

	result, err := h.authService.Register(c.UserContext(), &services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return response.BadRequest(c, "An account with this email already exists")
		}
		return response.FromError(c, err, "Failed to register user")
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Created(c, "User registered successfully", authPayload(result))
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "Email and password are required")
	}

	result, err := h.authService.Login(c.UserContext(), &services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid credentials")
		case errors.Is(err, domain.ErrUserInactive):
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.FromError(c, err, "Failed to login")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Login successful", authPayload(result))
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token cookie and issue a new access token
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := c.Cookies("refresh_token")
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.RefreshToken(c.UserContext(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, domain.ErrTokenRevoked):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, domain.ErrTokenInvalid):
			h.clearAuthCookies(c)
			return response.Unauthorized(c, "Invalid refresh token")
		case errors.Is(err, domain.ErrUserInactive):
			h.clearAuthCookies(c)
			return response.Forbidden(c, "User account is inactive")
		default:
			return response.FromError(c, err, "Failed to refresh token")
		}
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", authPayload(result))
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the refresh token cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := c.Cookies("refresh_token"); refreshToken != "" {
		if err := h.authService.Logout(c.UserContext(), refreshToken); err != nil {
			log.Printf("⚠️ Failed to revoke refresh token: %v", err)
		}
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke all refresh tokens for the user
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.authService.LogoutAll(c.UserContext(), actor.ID); err != nil {
		return response.FromError(c, err, "Failed to logout from all devices")
	}

	h.clearAuthCookies(c)

	return response.Success(c, "Logged out from all devices", nil)
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the currently authenticated user's information
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.authService.GetUserByID(c.UserContext(), actor.ID)
	if err != nil {
		return response.FromError(c, err, "Failed to get user")
	}

	sessions, err := h.authService.ActiveSessions(c.UserContext(), actor.ID)
	if err != nil {
		log.Printf("⚠️ Failed to count sessions for user %d: %v", actor.ID, err)
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user":            user.ToResponse(),
		"active_sessions": sessions,
	})
}

// ChangePassword changes the caller's password
// @Summary Change password
// @Description Verify the current password and set a new one
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ChangePasswordRequest true "Passwords"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/password [put]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	err := h.userService.ChangePassword(c.UserContext(), actor.ID, &services.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return response.FromError(c, err, "Failed to change password")
	}

	return response.Success(c, "Password updated successfully", nil)
}

// GoogleURL returns the Google consent URL
// @Summary Google sign-in URL
// @Description Returns the URL the client should open to sign in with Google
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/google/url [get]
func (h *AuthHandler) GoogleURL(c *fiber.Ctx) error {
	state, err := randomState()
	if err != nil {
		return response.InternalServerError(c, "Failed to start sign-in")
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return response.InternalServerError(c, "Failed to start sign-in")
	}
	sess.Set(oauthStateKey, state)
	if err := sess.Save(); err != nil {
		return response.InternalServerError(c, "Failed to start sign-in")
	}

	authURL, err := h.authService.GoogleAuthURL(state)
	if err != nil {
		return response.FromError(c, err, "Failed to start sign-in")
	}

	return response.Success(c, "Google sign-in URL", fiber.Map{
		"url": authURL,
	})
}

// GoogleCallback completes Google sign-in and redirects to the frontend
// @Summary Google OAuth callback
// @Description Exchanges the code and redirects to FRONTEND_URL/auth/callback with a token or error
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "OAuth state"
// @Success 302
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return h.redirectWithError(c, "session_error")
	}
	expected, _ := sess.Get(oauthStateKey).(string)
	sess.Delete(oauthStateKey)
	if err := sess.Save(); err != nil {
		log.Printf("⚠️ Failed to clear OAuth state: %v", err)
	}

	if c.Query("error") != "" {
		return h.redirectWithError(c, c.Query("error"))
	}
	if expected == "" || c.Query("state") != expected {
		return h.redirectWithError(c, "invalid_state")
	}

	result, err := h.authService.GoogleLogin(c.UserContext(), c.Query("code"))
	if err != nil {
		log.Printf("❌ Google sign-in failed: %v", err)
		if errors.Is(err, domain.ErrUserInactive) {
			return h.redirectWithError(c, "account_inactive")
		}
		return h.redirectWithError(c, "auth_failed")
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)

	return c.Redirect(h.cfg.FrontendURL+"/auth/callback?token="+url.QueryEscape(result.AccessToken), fiber.StatusFound)
}

func (h *AuthHandler) redirectWithError(c *fiber.Ctx, code string) error {
	return c.Redirect(h.cfg.FrontendURL+"/auth/callback?error="+url.QueryEscape(code), fiber.StatusFound)
}

// setAuthCookies sets access and refresh token cookies
func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	// Access token cookie (shorter expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.AccessTokenMins * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})

	// Refresh token cookie (longer expiry)
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   h.cfg.JWT.RefreshTokenDays * 24 * 60 * 60,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearAuthCookies clears auth cookies
func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	for _, name := range []string{"access_token", "refresh_token"} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Now().Add(-1 * time.Hour),
			Secure:   h.cfg.Cookie.Secure,
			HTTPOnly: true,
			SameSite: h.cfg.Cookie.SameSite,
			Domain:   h.cfg.Cookie.Domain,
		})
	}
}

func authPayload(result *services.AuthResponse) fiber.Map {
	return fiber.Map{
		"token":        result.Token,
		"access_token": result.AccessToken,
		"user":         result.User,
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
