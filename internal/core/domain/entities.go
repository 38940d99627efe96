package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
	RoleOwner Role = "owner"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	StatusPending  BookingStatus = "pending"
	StatusApproved BookingStatus = "approved"
	StatusRejected BookingStatus = "rejected"
)

// Valid reports whether s is one of the known statuses
func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s BookingStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether from -> to is an allowed status change.
// Only pending bookings move, and only to approved or rejected.
func CanTransition(from, to BookingStatus) bool {
	return from == StatusPending && to.IsTerminal()
}

// Actor is the authenticated caller of a service operation
type Actor struct {
	ID    uint
	Name  string
	Email string
	Role  Role
}

// Availability describes one slot on a given date
type Availability struct {
	Available bool          `json:"available"`
	Status    BookingStatus `json:"status,omitempty"`
	BookedBy  string        `json:"booked_by,omitempty"`
}

// BookingFilter narrows booking listings
type BookingFilter struct {
	Date   string
	Status BookingStatus
	UserID *uint
}

// CalendarLink holds an external identity's OAuth tokens.
// UserID is the owner of the tokens, zero when not yet stored.
type CalendarLink struct {
	UserID       uint
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}
