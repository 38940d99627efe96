package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/metrics"

	"gorm.io/gorm"
)

const defaultCalendarTimeout = 10 * time.Second

// BookingService runs the booking workflow: request, decide, delete
type BookingService struct {
	bookingRepo     repositories.BookingRepository
	userRepo        repositories.UserRepository
	notifier        Notifier
	calendar        CalendarClient
	calendarTimeout time.Duration
}

// NewBookingService creates a new booking service. calendar may be nil.
func NewBookingService(
	bookingRepo repositories.BookingRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	calendar CalendarClient,
) *BookingService {
	return &BookingService{
		bookingRepo:     bookingRepo,
		userRepo:        userRepo,
		notifier:        notifier,
		calendar:        calendar,
		calendarTimeout: defaultCalendarTimeout,
	}
}

// CreateBookingInput represents a booking request
type CreateBookingInput struct {
	RequesterName   string `json:"requester_name"`
	RequesterEmail  string `json:"requester_email"`
	BookingDate     string `json:"booking_date"`
	TimeSlot        string `json:"time_slot"`
	Purpose         string `json:"purpose"`
	AdditionalNotes string `json:"additional_notes"`
}

// Create validates and stores a pending booking, then tells the approvers.
// A signed-in actor is recorded as the requester in place of the submitted name and email.
func (s *BookingService) Create(ctx context.Context, input *CreateBookingInput, actor *domain.Actor) (*models.Booking, error) {
	name := strings.TrimSpace(input.RequesterName)
	email := domain.NormalizeEmail(input.RequesterEmail)
	if actor != nil {
		name, email = actor.Name, domain.NormalizeEmail(actor.Email)
	}

	fields := []struct{ name, value string }{
		{"booking_date", input.BookingDate},
		{"time_slot", input.TimeSlot},
		{"purpose", input.Purpose},
		{"requester_name", name},
		{"requester_email", email},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", domain.ErrValidation, f.name)
		}
	}

	date := strings.TrimSpace(input.BookingDate)
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}
	slot := strings.TrimSpace(input.TimeSlot)
	if _, ok := domain.LookupSlot(slot); !ok {
		return nil, fmt.Errorf("%w: unknown time slot %q", domain.ErrValidation, slot)
	}
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}

	taken, err := s.bookingRepo.ExistsApproved(ctx, date, slot, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		metrics.SlotConflicts.WithLabelValues("create").Inc()
		return nil, domain.ErrSlotConflict
	}

	token, err := generateApprovalToken()
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		RequesterName:   name,
		RequesterEmail:  email,
		BookingDate:     date,
		TimeSlot:        slot,
		Purpose:         strings.TrimSpace(input.Purpose),
		AdditionalNotes: strings.TrimSpace(input.AdditionalNotes),
		Status:          domain.StatusPending,
		ApprovalToken:   token,
	}
	if actor != nil {
		id := actor.ID
		booking.UserID = &id
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	metrics.BookingsCreated.Inc()
	log.Printf("📝 Booking created: #%d %s %s by %s", booking.ID, booking.BookingDate, booking.TimeSlot, booking.RequesterName)

	s.notifier.BookingRequested(booking)
	return booking, nil
}

// Availability reports every catalog slot on date.
// Approved bookings take precedence over pending ones for the same slot.
func (s *BookingService) Availability(ctx context.Context, date string) (map[string]domain.Availability, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, err
	}

	bookings, err := s.bookingRepo.ListByDate(ctx, date, domain.StatusPending, domain.StatusApproved)
	if err != nil {
		return nil, err
	}

	result := make(map[string]domain.Availability, len(domain.Slots))
	for _, slot := range domain.Slots {
		result[slot.ID] = domain.Availability{Available: true}
	}

	for _, b := range bookings {
		current, ok := result[b.TimeSlot]
		if !ok {
			continue
		}
		if !current.Available && current.Status == domain.StatusApproved {
			continue
		}
		bookedBy := "Pending"
		if b.Status == domain.StatusApproved {
			bookedBy = b.RequesterName
		}
		result[b.TimeSlot] = domain.Availability{
			Available: false,
			Status:    b.Status,
			BookedBy:  bookedBy,
		}
	}

	return result, nil
}

// Approve moves a pending booking to approved.
// Fails with ErrSlotConflict when another booking already holds the slot.
func (s *BookingService) Approve(ctx context.Context, id uint, actor domain.Actor) (*models.Booking, error) {
	if !domain.IsApprover(actor.Role) {
		return nil, domain.ErrForbidden
	}

	var approved *models.Booking
	err := s.bookingRepo.Transaction(ctx, func(tx repositories.BookingRepository) error {
		booking, err := findBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		if !domain.CanTransition(booking.Status, domain.StatusApproved) {
			return domain.ErrInvalidTransition
		}

		taken, err := tx.ExistsApproved(ctx, booking.BookingDate, booking.TimeSlot, booking.ID)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSlotConflict
		}

		now := time.Now()
		key := domain.SlotKey(booking.BookingDate, booking.TimeSlot)
		approverID := actor.ID
		booking.Status = domain.StatusApproved
		booking.ApprovedBy = actor.Name
		booking.ApprovedByID = &approverID
		booking.ApprovedAt = &now
		booking.ApprovedSlot = &key

		ok, err := tx.Decide(ctx, booking, domain.StatusPending)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrSlotConflict
			}
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}

		approved = booking
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			metrics.SlotConflicts.WithLabelValues("approve").Inc()
		}
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(domain.StatusApproved)).Inc()
	log.Printf("✅ Booking #%d APPROVED by %s", approved.ID, actor.Name)

	s.attachCalendarEvent(ctx, approved, actor.ID)
	s.notifier.BookingApproved(approved)
	return approved, nil
}

// Reject moves a pending booking to rejected with an optional reason
func (s *BookingService) Reject(ctx context.Context, id uint, actor domain.Actor, reason string) (*models.Booking, error) {
	if !domain.IsApprover(actor.Role) {
		return nil, domain.ErrForbidden
	}

	booking, err := findBooking(ctx, s.bookingRepo, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(booking.Status, domain.StatusRejected) {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now()
	approverID := actor.ID
	booking.Status = domain.StatusRejected
	booking.ApprovedBy = actor.Name
	booking.ApprovedByID = &approverID
	booking.ApprovedAt = &now
	booking.RejectionReason = strings.TrimSpace(reason)

	ok, err := s.bookingRepo.Decide(ctx, booking, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidTransition
	}

	metrics.BookingTransitions.WithLabelValues(string(domain.StatusRejected)).Inc()
	log.Printf("🚫 Booking #%d REJECTED by %s", booking.ID, actor.Name)

	s.notifier.BookingRejected(booking)
	return booking, nil
}

// Delete removes a booking. Approvers may delete any booking, users only their own.
func (s *BookingService) Delete(ctx context.Context, id uint, actor domain.Actor) error {
	booking, err := findBooking(ctx, s.bookingRepo, id)
	if err != nil {
		return err
	}
	if !domain.CanDeleteBooking(actor, booking.UserID) {
		return domain.ErrForbidden
	}

	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrBookingNotFound
		}
		return err
	}

	log.Printf("🗑️ Booking #%d deleted by %s", id, actor.Name)

	s.removeCalendarEvent(ctx, booking)
	return nil
}

// GetByApprovalToken finds the booking an approval link points at
func (s *BookingService) GetByApprovalToken(ctx context.Context, token string) (*models.Booking, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrBookingNotFound
	}

	booking, err := s.bookingRepo.GetByApprovalToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// GetByID gets a booking by ID
func (s *BookingService) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	return findBooking(ctx, s.bookingRepo, id)
}

// List lists bookings newest first
func (s *BookingService) List(ctx context.Context, filter domain.BookingFilter) ([]*models.Booking, error) {
	if filter.Date != "" {
		if _, err := domain.ParseDate(filter.Date); err != nil {
			return nil, err
		}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, filter.Status)
	}
	return s.bookingRepo.List(ctx, filter)
}

// ListMine lists the bookings the actor created
func (s *BookingService) ListMine(ctx context.Context, actor domain.Actor) ([]*models.Booking, error) {
	id := actor.ID
	return s.bookingRepo.List(ctx, domain.BookingFilter{UserID: &id})
}

// SendReminders emails the requesters of approved bookings on day
func (s *BookingService) SendReminders(ctx context.Context, day time.Time) (int, error) {
	date := day.Format(domain.DateLayout)
	bookings, err := s.bookingRepo.ListByDate(ctx, date, domain.StatusApproved)
	if err != nil {
		return 0, err
	}

	for _, b := range bookings {
		s.notifier.BookingReminder(b)
	}

	if len(bookings) > 0 {
		log.Printf("🔔 Queued %d reminders for %s", len(bookings), date)
	}
	return len(bookings), nil
}

// attachCalendarEvent adds the booking to the approver's calendar.
// Failures are logged and leave the booking without an event id.
func (s *BookingService) attachCalendarEvent(ctx context.Context, booking *models.Booking, approverID uint) {
	if s.calendar == nil {
		return
	}

	approver, err := s.userRepo.GetByID(ctx, approverID)
	if err != nil || !approver.CalendarLinked() {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
	defer cancel()

	eventID, err := s.calendar.CreateEvent(cctx, approver.CalendarLink(), booking)
	metrics.CalendarCalls.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		log.Printf("⚠️ Calendar event for booking #%d failed: %v", booking.ID, err)
		return
	}

	stored, err := s.bookingRepo.SetCalendarEventID(ctx, booking.ID, eventID)
	if err != nil {
		log.Printf("⚠️ Failed to store calendar event id for booking #%d: %v", booking.ID, err)
		return
	}
	if !stored {
		// deleted while the event was being created
		dctx, dcancel := context.WithTimeout(ctx, s.calendarTimeout)
		defer dcancel()
		err := s.calendar.DeleteEvent(dctx, approver.CalendarLink(), eventID)
		metrics.CalendarCalls.WithLabelValues("delete", metrics.Result(err)).Inc()
		if err != nil {
			log.Printf("⚠️ Calendar event %s of deleted booking #%d not removed: %v", eventID, booking.ID, err)
		}
		return
	}
	booking.CalendarEventID = eventID
	log.Printf("📅 Calendar event %s created for booking #%d", eventID, booking.ID)
}

func (s *BookingService) removeCalendarEvent(ctx context.Context, booking *models.Booking) {
	if s.calendar == nil || booking.CalendarEventID == "" || booking.ApprovedByID == nil {
		return
	}

	approver, err := s.userRepo.GetByID(ctx, *booking.ApprovedByID)
	if err != nil || !approver.CalendarLinked() {
		return
	}

	cctx, cancel := context.WithTimeout(ctx, s.calendarTimeout)
	defer cancel()

	err = s.calendar.DeleteEvent(cctx, approver.CalendarLink(), booking.CalendarEventID)
	metrics.CalendarCalls.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		log.Printf("⚠️ Calendar event %s for booking #%d not removed: %v", booking.CalendarEventID, booking.ID, err)
	}
}

func findBooking(ctx context.Context, repo repositories.BookingRepository, id uint) (*models.Booking, error) {
	booking, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// generateApprovalToken returns 64 hex chars from 32 random bytes
func generateApprovalToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate approval token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
