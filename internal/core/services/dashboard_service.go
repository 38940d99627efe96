package services

import (
	"context"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"

	"gorm.io/gorm"
)

const (
	dashboardListLimit = 10
	upcomingDays       = 7
)

// DashboardService handles dashboard operations
type DashboardService struct {
	db       *gorm.DB
	location *time.Location
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service. Dates are resolved in loc.
func NewDashboardService(db *gorm.DB, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardService{db: db, location: loc, now: time.Now}
}

// StatusCounts holds booking totals per status
type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// ============================================================
// Approver Dashboard
// ============================================================

// ApproverDashboardData represents the admin and owner overview
type ApproverDashboardData struct {
	// User Statistics
	TotalUsers  int64 `json:"total_users"`
	TotalAdmins int64 `json:"total_admins"`
	TotalOwners int64 `json:"total_owners"`
	ActiveUsers int64 `json:"active_users"`

	// Booking Statistics
	Bookings        StatusCounts `json:"bookings"`
	BookingsToday   int64        `json:"bookings_today"`
	CreatedThisWeek int64        `json:"created_this_week"`

	// Oldest requests still waiting for a decision
	PendingQueue []*models.BookingResponse `json:"pending_queue"`

	// Approved sessions from today through the next week
	Upcoming []*models.BookingResponse `json:"upcoming"`
}

// GetApproverDashboard returns the approver overview
func (s *DashboardService) GetApproverDashboard(ctx context.Context) (*ApproverDashboardData, error) {
	data := &ApproverDashboardData{}
	db := s.db.WithContext(ctx)
	today := s.now().In(s.location)

	// User counts by role
	if err := db.Model(&models.User{}).Count(&data.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", domain.RoleAdmin).Count(&data.TotalAdmins).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", domain.RoleOwner).Count(&data.TotalOwners).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("is_active = ?", true).Count(&data.ActiveUsers).Error; err != nil {
		return nil, err
	}

	// Booking counts by status
	counts, err := s.statusCounts(db.Model(&models.Booking{}))
	if err != nil {
		return nil, err
	}
	data.Bookings = *counts

	if err := db.Model(&models.Booking{}).
		Where("booking_date = ? AND status = ?", today.Format(domain.DateLayout), domain.StatusApproved).
		Count(&data.BookingsToday).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Booking{}).
		Where("created_at >= ?", today.AddDate(0, 0, -7)).
		Count(&data.CreatedThisWeek).Error; err != nil {
		return nil, err
	}

	// Pending queue, oldest first
	var pending []*models.Booking
	if err := db.Where("status = ?", domain.StatusPending).
		Order("booking_date ASC, time_slot ASC, created_at ASC").
		Limit(dashboardListLimit).
		Find(&pending).Error; err != nil {
		return nil, err
	}
	data.PendingQueue = models.BookingResponses(pending, true)

	upcoming, err := s.upcoming(db, today, nil)
	if err != nil {
		return nil, err
	}
	data.Upcoming = models.BookingResponses(upcoming, true)

	return data, nil
}

// ============================================================
// User Dashboard
// ============================================================

// UserDashboardData represents a requester's own overview
type UserDashboardData struct {
	Bookings StatusCounts              `json:"bookings"`
	Upcoming []*models.BookingResponse `json:"upcoming"`
}

// GetUserDashboard returns the overview of actor's own bookings
func (s *DashboardService) GetUserDashboard(ctx context.Context, actor domain.Actor) (*UserDashboardData, error) {
	db := s.db.WithContext(ctx)

	counts, err := s.statusCounts(db.Model(&models.Booking{}).Where("user_id = ?", actor.ID))
	if err != nil {
		return nil, err
	}

	upcoming, err := s.upcoming(db, s.now().In(s.location), &actor.ID)
	if err != nil {
		return nil, err
	}

	return &UserDashboardData{
		Bookings: *counts,
		Upcoming: models.BookingResponses(upcoming, false),
	}, nil
}

func (s *DashboardService) statusCounts(query *gorm.DB) (*StatusCounts, error) {
	var rows []struct {
		Status domain.BookingStatus
		Total  int64
	}
	if err := query.Select("status, COUNT(*) as total").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := &StatusCounts{}
	for _, row := range rows {
		counts.Total += row.Total
		switch row.Status {
		case domain.StatusPending:
			counts.Pending = row.Total
		case domain.StatusApproved:
			counts.Approved = row.Total
		case domain.StatusRejected:
			counts.Rejected = row.Total
		}
	}
	return counts, nil
}

// upcoming lists approved bookings dated from today through upcomingDays ahead.
// Booking dates are YYYY-MM-DD strings so they compare in calendar order.
func (s *DashboardService) upcoming(db *gorm.DB, today time.Time, userID *uint) ([]*models.Booking, error) {
	query := db.Where("status = ?", domain.StatusApproved).
		Where("booking_date >= ? AND booking_date <= ?",
			today.Format(domain.DateLayout),
			today.AddDate(0, 0, upcomingDays).Format(domain.DateLayout))
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var bookings []*models.Booking
	err := query.Order("booking_date ASC, time_slot ASC").Limit(dashboardListLimit).Find(&bookings).Error
	return bookings, err
}
