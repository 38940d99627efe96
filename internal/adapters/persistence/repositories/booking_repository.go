package repositories

import (
	"context"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"

	"gorm.io/gorm"
)

// bookingRepository implements BookingRepository interface
type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create creates a new booking
func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// GetByID gets a booking by ID
func (r *bookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByApprovalToken gets a booking by its approval token
func (r *bookingRepository) GetByApprovalToken(ctx context.Context, token string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("approval_token = ?", token).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// List lists bookings newest first, narrowed by the non-empty filter fields
func (r *bookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := r.db.WithContext(ctx).Model(&models.Booking{})

	if filter.Date != "" {
		query = query.Where("booking_date = ?", filter.Date)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	err := query.Order("created_at DESC").Order("id DESC").Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListByDate lists bookings on date in any of statuses (all statuses when none given)
func (r *bookingRepository) ListByDate(ctx context.Context, date string, statuses ...domain.BookingStatus) ([]*models.Booking, error) {
	var bookings []*models.Booking
	query := r.db.WithContext(ctx).Where("booking_date = ?", date)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if err := query.Order("time_slot ASC").Order("id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// ExistsApproved checks for an approved booking on (date, slot) other than excludeID
func (r *bookingRepository) ExistsApproved(ctx context.Context, date, slot string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("booking_date = ? AND time_slot = ?", date, slot).
		Where("status = ?", domain.StatusApproved)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

// SetCalendarEventID stores the calendar event of an existing booking.
// Reports false when the booking no longer exists.
func (r *bookingRepository) SetCalendarEventID(ctx context.Context, id uint, eventID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("calendar_event_id", eventID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Decide writes the decision columns of booking only if its stored status is still from.
// Reports false when another request got there first.
func (r *bookingRepository) Decide(ctx context.Context, booking *models.Booking, from domain.BookingStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", booking.ID, from).
		Updates(map[string]interface{}{
			"status":           booking.Status,
			"approved_by":      booking.ApprovedBy,
			"approved_by_id":   booking.ApprovedByID,
			"approved_at":      booking.ApprovedAt,
			"rejection_reason": booking.RejectionReason,
			"approved_slot":    booking.ApprovedSlot,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete hard deletes a booking
func (r *bookingRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Booking{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Transaction runs fn inside a database transaction
func (r *bookingRepository) Transaction(ctx context.Context, fn func(tx BookingRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&bookingRepository{db: tx})
	})
}
