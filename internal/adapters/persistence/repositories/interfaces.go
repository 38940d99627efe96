package repositories

import (
	"context"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateCalendarLink(ctx context.Context, id uint, link domain.CalendarLink) error
	UpdateLastLogin(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActiveByUserID(ctx context.Context, userID uint) (int64, error)
}

// BookingRepository defines booking repository interface
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	GetByApprovalToken(ctx context.Context, token string) (*models.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]*models.Booking, error)
	ListByDate(ctx context.Context, date string, statuses ...domain.BookingStatus) ([]*models.Booking, error)
	ExistsApproved(ctx context.Context, date, slot string, excludeID uint) (bool, error)
	SetCalendarEventID(ctx context.Context, id uint, eventID string) (bool, error)
	Decide(ctx context.Context, booking *models.Booking, from domain.BookingStatus) (bool, error)
	Delete(ctx context.Context, id uint) error

	// Transaction runs fn against a repository bound to one database transaction.
	// fn must use only the repository it is given.
	Transaction(ctx context.Context, fn func(tx BookingRepository) error) error
}
