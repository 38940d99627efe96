package handlers

import (
	"errors"

	"audiochamber/internal/adapters/http/middleware"
	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/core/services"
	"audiochamber/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookingHandler handles booking endpoints
type BookingHandler struct {
	bookingService *services.BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookingService *services.BookingService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
	}
}

// RejectRequest represents reject request body
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ListBookings lists bookings, optionally by date and status
// @Summary List bookings
// @Description Newest first. Approvers also see approval tokens.
// @Tags Bookings
// @Produce json
// @Param date query string false "Booking date (YYYY-MM-DD)"
// @Param status query string false "pending, approved or rejected"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /bookings [get]
func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	filter := domain.BookingFilter{
		Date:   c.Query("date"),
		Status: domain.BookingStatus(c.Query("status")),
	}

	bookings, err := h.bookingService.List(c.UserContext(), filter)
	if err != nil {
		return response.FromError(c, err, "Failed to list bookings")
	}

	actor, _ := middleware.CurrentActor(c)
	return response.Success(c, "Bookings retrieved successfully", fiber.Map{
		"bookings": models.BookingResponses(bookings, actor != nil && domain.IsApprover(actor.Role)),
	})
}

// MyBookings lists the caller's bookings
// @Summary My bookings
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /bookings/my [get]
func (h *BookingHandler) MyBookings(c *fiber.Ctx) error {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	bookings, err := h.bookingService.ListMine(c.UserContext(), *actor)
	if err != nil {
		return response.FromError(c, err, "Failed to list bookings")
	}

	return response.Success(c, "Bookings retrieved successfully", fiber.Map{
		"bookings": models.BookingResponses(bookings, false),
	})
}

// Slots returns the time slot catalog
// @Summary Time slots
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Response
// @Router /bookings/slots [get]
func (h *BookingHandler) Slots(c *fiber.Ctx) error {
	return response.Success(c, "Time slots", fiber.Map{
		"slots": domain.Slots,
	})
}

// Availability reports each slot's status on a date
// @Summary Slot availability
// @Tags Bookings
// @Produce json
// @Param date path string true "Booking date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /bookings/availability/{date} [get]
func (h *BookingHandler) Availability(c *fiber.Ctx) error {
	date := c.Params("date")

	availability, err := h.bookingService.Availability(c.UserContext(), date)
	if err != nil {
		return response.FromError(c, err, "Failed to check availability")
	}

	return response.Success(c, "Availability for "+date, fiber.Map{
		"date":         date,
		"availability": availability,
	})
}

// GetByToken finds the booking an approval link refers to
// @Summary Booking by approval token
// @Tags Bookings
// @Produce json
// @Param token path string true "Approval token"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /bookings/token/{token} [get]
func (h *BookingHandler) GetByToken(c *fiber.Ctx) error {
	booking, err := h.bookingService.GetByApprovalToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return response.FromError(c, err, "Failed to get booking")
	}

	return response.Success(c, "Booking retrieved successfully", fiber.Map{
		"booking": booking.ToResponse(),
	})
}

// GetBooking gets a booking by ID
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	booking, err := h.bookingService.GetByID(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, "Failed to get booking")
	}

	view := booking.ToResponse()
	if actor, ok := middleware.CurrentActor(c); ok && domain.IsApprover(actor.Role) {
		view = booking.ToFullResponse()
	}

	return response.Success(c, "Booking retrieved successfully", fiber.Map{
		"booking": view,
	})
}

// CreateBooking submits a booking request
// @Summary Create booking
// @Description Anyone may request a slot. Signed-in users are recorded as the requester.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param body body services.CreateBookingInput true "Booking request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	var req services.CreateBookingInput
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	actor, _ := middleware.CurrentActor(c)

	booking, err := h.bookingService.Create(c.UserContext(), &req, actor)
	if err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			return response.BadRequest(c, "Slot already booked")
		}
		return response.FromError(c, err, "Failed to create booking")
	}

	return response.Created(c, "Booking submitted!", fiber.Map{
		"booking": booking.ToFullResponse(),
	})
}

// ApproveBooking approves a pending booking
// @Summary Approve booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings/{id}/approve [post]
func (h *BookingHandler) ApproveBooking(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	booking, err := h.bookingService.Approve(c.UserContext(), id, *actor)
	if err != nil {
		return response.FromError(c, err, "Failed to approve booking")
	}

	return response.Success(c, "Approved!", fiber.Map{
		"booking": booking.ToFullResponse(),
	})
}

// RejectBooking rejects a pending booking
// @Summary Reject booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Param body body RejectRequest false "Reason"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /bookings/{id}/reject [post]
func (h *BookingHandler) RejectBooking(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RejectRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.BadRequest(c, "Invalid request body")
		}
	}

	booking, err := h.bookingService.Reject(c.UserContext(), id, *actor, req.Reason)
	if err != nil {
		return response.FromError(c, err, "Failed to reject booking")
	}

	return response.Success(c, "Rejected", fiber.Map{
		"booking": booking.ToFullResponse(),
	})
}

// DeleteBooking deletes a booking
// @Summary Delete booking
// @Description Approvers may delete any booking, users only their own
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /bookings/{id} [delete]
func (h *BookingHandler) DeleteBooking(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid booking ID")
	}

	actor, ok := middleware.CurrentActor(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.bookingService.Delete(c.UserContext(), id, *actor); err != nil {
		return response.FromError(c, err, "Failed to delete booking")
	}

	return response.Success(c, "Booking deleted", nil)
}
