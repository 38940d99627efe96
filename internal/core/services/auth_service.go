package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/jwt"
	"audiochamber/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	identity         IdentityProvider
	cfg              *config.Config
}

// NewAuthService creates a new auth service. identity may be nil when
// federated sign-in is not configured.
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	identity IdentityProvider,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		identity:         identity,
		cfg:              cfg,
	}
}

// RegisterInput represents registration input
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput represents login input
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	Token        string               `json:"token"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register registers a new user
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	// 1. Validate input
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if len([]rune(name)) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", domain.ErrValidation)
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !password.ValidatePassword(input.Password) {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, password.MinLength)
	}

	// 2. Check if email already exists
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	// 3. Hash password
	hashedPassword, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	// 4. Create user
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     s.roleFor(email),
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("✅ User registered: %s (role: %s)", user.Email, user.Role)

	return s.issue(ctx, user)
}

// Login authenticates a user
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password. Federated accounts have none and never match.
	if !password.Verify(input.Password, user.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("⚠️ Failed to update last login for %s: %v", user.Email, err)
	}

	log.Printf("✅ User logged in: %s", user.Email)

	return s.issue(ctx, user)
}

// GoogleAuthURL returns the consent URL for state
func (s *AuthService) GoogleAuthURL(state string) (string, error) {
	if s.identity == nil {
		return "", fmt.Errorf("%w: google sign-in is not configured", domain.ErrValidation)
	}
	return s.identity.AuthCodeURL(state), nil
}

// GoogleLogin completes the OAuth code flow: finds or creates the user by
// email and stores the tokens used for calendar access
func (s *AuthService) GoogleLogin(ctx context.Context, code string) (*AuthResponse, error) {
	if s.identity == nil {
		return nil, fmt.Errorf("%w: google sign-in is not configured", domain.ErrValidation)
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: missing authorization code", domain.ErrValidation)
	}

	ident, err := s.identity.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	email := domain.NormalizeEmail(ident.Email)
	user, err := s.findFederatedUser(ctx, ident.Subject, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		name := strings.TrimSpace(ident.Name)
		if name == "" {
			name, _, _ = strings.Cut(email, "@")
		}
		user = &models.User{
			Name:     name,
			Email:    email,
			Role:     s.roleFor(email),
			IsActive: true,
		}
		linkIdentity(user, ident)
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		log.Printf("✅ User created from Google sign-in: %s (role: %s)", user.Email, user.Role)
	case err != nil:
		return nil, err
	default:
		if !user.IsActive {
			return nil, domain.ErrUserInactive
		}
		linkIdentity(user, ident)
		if user.Role == domain.RoleUser && s.cfg.IsOwnerEmail(email) {
			user.Role = domain.RoleOwner
		}
		if err := saveUser(ctx, s.userRepo, user); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Printf("⚠️ Failed to update last login for %s: %v", user.Email, err)
	}

	log.Printf("✅ User logged in with Google: %s", user.Email)

	return s.issue(ctx, user)
}

// RefreshToken refreshes the access token using refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// 2. Find token in DB by hash
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenRevoked
		}
		return nil, err
	}

	// 3. Check if token is revoked or expired
	if storedToken.IsRevoked() {
		return nil, domain.ErrTokenRevoked
	}
	if storedToken.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// 4. Get user
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	// 5. Revoke old refresh token (Token Rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", user.Email)

	return s.issue(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// CleanupExpiredTokens deletes refresh tokens that can no longer be used
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ActiveSessions counts the user's unexpired, unrevoked refresh tokens
func (s *AuthService) ActiveSessions(ctx context.Context, userID uint) (int64, error) {
	return s.refreshTokenRepo.CountActiveByUserID(ctx, userID)
}

// findFederatedUser matches the linked Google account first, then the email
func (s *AuthService) findFederatedUser(ctx context.Context, subject, email string) (*models.User, error) {
	if subject != "" {
		user, err := s.userRepo.GetByGoogleID(ctx, subject)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return s.userRepo.GetByEmail(ctx, email)
}

func (s *AuthService) roleFor(email string) domain.Role {
	if s.cfg.IsOwnerEmail(email) {
		return domain.RoleOwner
	}
	return domain.RoleUser
}

// issue generates and stores a fresh token pair for user
func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user.ToResponse(),
		Token:        tokens.AccessToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *models.User) (*TokenPair, error) {
	// Generate access token
	accessToken, err := jwt.GenerateAccessToken(
		user.ID,
		user.Email,
		user.Name,
		string(user.Role),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	// Generate refresh token with a unique token ID
	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}

	return s.refreshTokenRepo.Create(ctx, token)
}

func linkIdentity(user *models.User, ident *ExternalIdentity) {
	if ident.Subject != "" {
		subject := ident.Subject
		user.GoogleID = &subject
	}
	user.GoogleAccessToken = ident.Token.AccessToken
	// Google only returns a refresh token on first consent
	if ident.Token.RefreshToken != "" {
		user.GoogleRefreshToken = ident.Token.RefreshToken
	}
	if !ident.Token.Expiry.IsZero() {
		expiry := ident.Token.Expiry.In(time.UTC)
		user.GoogleTokenExpiry = &expiry
	}
}
