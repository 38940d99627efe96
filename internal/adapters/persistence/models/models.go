package models

import (
	"time"

	"audiochamber/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID                 uint        `gorm:"primaryKey" json:"id"`
	Name               string      `gorm:"size:100;not null" json:"name"`
	Email              string      `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password           string      `gorm:"size:255" json:"-"`
	Role               domain.Role `gorm:"size:20;not null;default:'user'" json:"role"`
	GoogleID           *string     `gorm:"uniqueIndex;size:64" json:"-"`
	GoogleAccessToken  string      `gorm:"type:text" json:"-"`
	GoogleRefreshToken string      `gorm:"type:text" json:"-"`
	GoogleTokenExpiry  *time.Time  `json:"-"`
	IsActive           bool        `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt        *time.Time  `json:"last_login_at"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID             uint        `json:"id"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           domain.Role `json:"role"`
	IsActive       bool        `json:"is_active"`
	HasPassword    bool        `json:"has_password"`
	CalendarLinked bool        `json:"calendar_linked"`
	LastLoginAt    *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		IsActive:       u.IsActive,
		HasPassword:    u.Password != "",
		CalendarLinked: u.CalendarLinked(),
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

// Actor is the identity the services authorize against
func (u *User) Actor() domain.Actor {
	return domain.Actor{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// CalendarLinked reports whether the user has granted calendar access
func (u *User) CalendarLinked() bool {
	return u.GoogleAccessToken != "" || u.GoogleRefreshToken != ""
}

// CalendarLink returns the stored Google tokens
func (u *User) CalendarLink() domain.CalendarLink {
	link := domain.CalendarLink{
		UserID:       u.ID,
		AccessToken:  u.GoogleAccessToken,
		RefreshToken: u.GoogleRefreshToken,
	}
	if u.GoogleTokenExpiry != nil {
		link.Expiry = *u.GoogleTokenExpiry
	}
	return link
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Booking Tables
// ============================================================

// Booking represents bookings table.
// ApprovedSlot is set to "<date>|<slot>" only while approved; its unique index
// keeps two approvals of the same slot from both committing.
type Booking struct {
	ID              uint                 `gorm:"primaryKey" json:"id"`
	UserID          *uint                `gorm:"index" json:"user_id"`
	RequesterName   string               `gorm:"size:100;not null" json:"requester_name"`
	RequesterEmail  string               `gorm:"size:191;not null;index" json:"requester_email"`
	BookingDate     string               `gorm:"size:10;not null;index:idx_bookings_date_slot" json:"booking_date"`
	TimeSlot        string               `gorm:"size:10;not null;index:idx_bookings_date_slot" json:"time_slot"`
	Purpose         string               `gorm:"type:text;not null" json:"purpose"`
	AdditionalNotes string               `gorm:"type:text" json:"additional_notes"`
	Status          domain.BookingStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ApprovalToken   string               `gorm:"size:64;not null;uniqueIndex" json:"-"`
	ApprovedBy      string               `gorm:"size:100" json:"approved_by"`
	ApprovedByID    *uint                `json:"approved_by_id"`
	ApprovedAt      *time.Time           `json:"approved_at"`
	RejectionReason string               `gorm:"type:text" json:"rejection_reason"`
	CalendarEventID string               `gorm:"size:255" json:"calendar_event_id"`
	ApprovedSlot    *string              `gorm:"size:24;uniqueIndex" json:"-"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// IsPending reports whether the booking still awaits a decision
func (b *Booking) IsPending() bool {
	return b.Status == domain.StatusPending
}

// BookingResponse DTO
type BookingResponse struct {
	ID              uint                 `json:"id"`
	UserID          *uint                `json:"user_id,omitempty"`
	RequesterName   string               `json:"requester_name"`
	RequesterEmail  string               `json:"requester_email"`
	BookingDate     string               `json:"booking_date"`
	TimeSlot        string               `json:"time_slot"`
	TimeSlotDisplay string               `json:"time_slot_display"`
	Purpose         string               `json:"purpose"`
	AdditionalNotes string               `json:"additional_notes,omitempty"`
	Status          domain.BookingStatus `json:"status"`
	ApprovalToken   string               `json:"approval_token,omitempty"`
	ApprovedBy      string               `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	CalendarEventID string               `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ToResponse returns the view shown to anyone allowed to see the booking.
// The approval token is left out.
func (b *Booking) ToResponse() *BookingResponse {
	return &BookingResponse{
		ID:              b.ID,
		UserID:          b.UserID,
		RequesterName:   b.RequesterName,
		RequesterEmail:  b.RequesterEmail,
		BookingDate:     b.BookingDate,
		TimeSlot:        b.TimeSlot,
		TimeSlotDisplay: domain.SlotDisplay(b.TimeSlot),
		Purpose:         b.Purpose,
		AdditionalNotes: b.AdditionalNotes,
		Status:          b.Status,
		ApprovedBy:      b.ApprovedBy,
		ApprovedAt:      b.ApprovedAt,
		RejectionReason: b.RejectionReason,
		CalendarEventID: b.CalendarEventID,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// ToFullResponse includes the approval token, for approvers and the creating request
func (b *Booking) ToFullResponse() *BookingResponse {
	resp := b.ToResponse()
	resp.ApprovalToken = b.ApprovalToken
	return resp
}

// BookingResponses maps a list with ToResponse, or ToFullResponse when full is set
func BookingResponses(bookings []*Booking, full bool) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		if full {
			out = append(out, b.ToFullResponse())
		} else {
			out = append(out, b.ToResponse())
		}
	}
	return out
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Booking{},
	)
}
