package services

import (
	"context"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"
)

// Notifier sends booking lifecycle emails.
// Implementations return immediately; delivery failures are theirs to log.
type Notifier interface {
	BookingRequested(booking *models.Booking)
	BookingApproved(booking *models.Booking)
	BookingRejected(booking *models.Booking)
	BookingReminder(booking *models.Booking)
}

// CalendarClient manages events on a linked account's calendar
type CalendarClient interface {
	CreateEvent(ctx context.Context, link domain.CalendarLink, booking *models.Booking) (string, error)
	DeleteEvent(ctx context.Context, link domain.CalendarLink, eventID string) error
}

// CalendarLinkStore persists tokens the OAuth client refreshed
type CalendarLinkStore interface {
	UpdateCalendarLink(ctx context.Context, id uint, link domain.CalendarLink) error
}

// ExternalIdentity is a user profile returned by a federated sign-in
type ExternalIdentity struct {
	Subject string
	Email   string
	Name    string
	Token   domain.CalendarLink
}

// IdentityProvider runs the OAuth authorization code flow
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// UserLookup resolves the user behind an authenticated request
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}
