package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/pagination"
	"audiochamber/internal/pkg/password"

	"gorm.io/gorm"
)

// UserService handles user management business logic
type UserService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

// UpdateRoleInput represents role change input (for admin)
type UpdateRoleInput struct {
	Role domain.Role `json:"role"`
}

// UpdateStatusInput represents account activation input (for admin)
type UpdateStatusInput struct {
	IsActive *bool `json:"is_active"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, params *pagination.Params) (*pagination.Response, error) {
	users, total, err := s.userRepo.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	return pagination.NewResponse(userResponses, params, total), nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// SetRole changes a user's role. Only user and admin can be assigned; owners
// come from the configured allow-list and only another owner may change them.
func (s *UserService) SetRole(ctx context.Context, id uint, actor domain.Actor, role domain.Role) (*models.UserResponse, error) {
	if id == actor.ID {
		return nil, domain.ErrCannotChangeOwnRole
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be %q or %q", domain.ErrValidation, domain.RoleUser, domain.RoleAdmin)
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleOwner && actor.Role != domain.RoleOwner {
		return nil, domain.ErrForbidden
	}

	user.Role = role
	if err := saveUser(ctx, s.userRepo, user); err != nil {
		return nil, err
	}

	log.Printf("👤 User %s role set to %s by %s", user.Email, role, actor.Email)
	return user.ToResponse(), nil
}

// SetActive enables or disables an account. Disabling revokes every session.
func (s *UserService) SetActive(ctx context.Context, id uint, actor domain.Actor, active bool) (*models.UserResponse, error) {
	if id == actor.ID {
		return nil, fmt.Errorf("%w: cannot change your own account status", domain.ErrValidation)
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == domain.RoleOwner && actor.Role != domain.RoleOwner {
		return nil, domain.ErrForbidden
	}

	user.IsActive = active
	if err := saveUser(ctx, s.userRepo, user); err != nil {
		return nil, err
	}
	if !active {
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	log.Printf("👤 User %s active=%t by %s", user.Email, active, actor.Email)
	return user.ToResponse(), nil
}

// DeleteUser deletes a user together with their bookings
func (s *UserService) DeleteUser(ctx context.Context, id uint, actor domain.Actor) error {
	// Prevent admin from deleting self
	if id == actor.ID {
		return domain.ErrCannotDeleteSelf
	}

	user, err := s.findUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleOwner && actor.Role != domain.RoleOwner {
		return domain.ErrForbidden
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	log.Printf("🗑️ User %s deleted by %s", user.Email, actor.Email)
	return nil
}

// ChangePassword changes the caller's password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return fmt.Errorf("%w: current and new password are required", domain.ErrValidation)
	}
	if !password.ValidatePassword(input.NewPassword) {
		return fmt.Errorf("%w: new password must be at least %d characters", domain.ErrValidation, password.MinLength)
	}

	user, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Password == "" {
		return domain.ErrNoPasswordCredential
	}
	if !password.Verify(input.CurrentPassword, user.Password) {
		return domain.ErrOldPasswordWrong
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed

	if err := saveUser(ctx, s.userRepo, user); err != nil {
		return err
	}

	log.Printf("🔑 Password changed for %s", user.Email)
	return nil
}

func (s *UserService) findUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// saveUser writes user back, reporting ErrUserNotFound if it was deleted meanwhile
func saveUser(ctx context.Context, repo repositories.UserRepository, user *models.User) error {
	if err := repo.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}
