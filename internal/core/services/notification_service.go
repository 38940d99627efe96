package services

import (
	"bytes"
	"context"
	"html/template"
	"log"
	"sync"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/mailer"
	"audiochamber/internal/pkg/metrics"
)

const defaultMailTimeout = 15 * time.Second

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "requested"}}<div style="font-family: Arial; max-width: 500px;">
<h2 style="background: #667eea; color: white; padding: 20px; margin: 0;">New Booking Request</h2>
<div style="padding: 20px; background: #f3f4f6;">
<p><strong>From:</strong> {{.Booking.RequesterName}}</p>
<p><strong>Email:</strong> {{.Booking.RequesterEmail}}</p>
<p><strong>Date:</strong> {{.Booking.BookingDate}}</p>
<p><strong>Time:</strong> {{.Slot}}</p>
<p><strong>Purpose:</strong> {{.Booking.Purpose}}</p>
{{if .Booking.AdditionalNotes}}<p><strong>Notes:</strong> {{.Booking.AdditionalNotes}}</p>{{end}}
</div>
<div style="padding: 20px; text-align: center;">
<a href="{{.Link}}" style="background: #667eea; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px;">Review &amp; Approve</a>
</div></div>{{end}}

{{define "approved"}}<div style="font-family: Arial; max-width: 500px;">
<h2 style="background: #10b981; color: white; padding: 20px; margin: 0;">Booking Approved!</h2>
<div style="padding: 20px; background: #f3f4f6;">
<p>Your Audio Chamber booking has been approved!</p>
<p><strong>Date:</strong> {{.Booking.BookingDate}}</p>
<p><strong>Time:</strong> {{.Slot}}</p>
<p><strong>Approved by:</strong> {{.Booking.ApprovedBy}}</p>
</div></div>{{end}}

{{define "rejected"}}<div style="font-family: Arial; max-width: 500px;">
<h2 style="background: #ef4444; color: white; padding: 20px; margin: 0;">Booking Rejected</h2>
<div style="padding: 20px; background: #f3f4f6;">
<p>Your booking request has been rejected.</p>
<p><strong>Date:</strong> {{.Booking.BookingDate}}</p>
<p><strong>Time:</strong> {{.Slot}}</p>
{{if .Booking.RejectionReason}}<p><strong>Reason:</strong> {{.Booking.RejectionReason}}</p>{{end}}
</div></div>{{end}}

{{define "reminder"}}<div style="font-family: Arial; max-width: 500px;">
<h2 style="background: #667eea; color: white; padding: 20px; margin: 0;">Booking Reminder</h2>
<div style="padding: 20px; background: #f3f4f6;">
<p>You have the Audio Chamber booked tomorrow.</p>
<p><strong>Date:</strong> {{.Booking.BookingDate}}</p>
<p><strong>Time:</strong> {{.Slot}}</p>
<p><strong>Purpose:</strong> {{.Booking.Purpose}}</p>
</div></div>{{end}}
`))

type emailData struct {
	Booking *models.Booking
	Slot    string
	Link    string
}

// NotificationService renders booking emails and hands them to a Mailer
// on a background goroutine
type NotificationService struct {
	mailer      mailer.Mailer
	approvers   []string
	frontendURL string
	timeout     time.Duration
	wg          sync.WaitGroup
}

// NewNotificationService creates a new notification service.
// approvers receive new-request emails.
func NewNotificationService(m mailer.Mailer, approvers []string, frontendURL string, timeout time.Duration) *NotificationService {
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}
	return &NotificationService{
		mailer:      m,
		approvers:   approvers,
		frontendURL: frontendURL,
		timeout:     timeout,
	}
}

// ApprovalLink is the review page for a booking token
func (s *NotificationService) ApprovalLink(token string) string {
	return s.frontendURL + "/approve/" + token
}

// BookingRequested tells the approvers about a new request
func (s *NotificationService) BookingRequested(booking *models.Booking) {
	s.dispatch("requested", s.approvers, "New Booking Request - "+booking.BookingDate, booking)
}

// BookingApproved tells the requester their booking was approved
func (s *NotificationService) BookingApproved(booking *models.Booking) {
	s.dispatch("approved", []string{booking.RequesterEmail}, "Booking Approved - "+booking.BookingDate, booking)
}

// BookingRejected tells the requester their booking was rejected
func (s *NotificationService) BookingRejected(booking *models.Booking) {
	s.dispatch("rejected", []string{booking.RequesterEmail}, "Booking Rejected - "+booking.BookingDate, booking)
}

// BookingReminder reminds the requester of an upcoming approved booking
func (s *NotificationService) BookingReminder(booking *models.Booking) {
	s.dispatch("reminder", []string{booking.RequesterEmail}, "Booking Reminder - "+booking.BookingDate, booking)
}

// Wait blocks until every dispatched email has been attempted
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

func (s *NotificationService) dispatch(kind string, to []string, subject string, booking *models.Booking) {
	if len(to) == 0 {
		log.Printf("⚠️ No recipients for %s email (booking #%d)", kind, booking.ID)
		return
	}

	// Render now so the goroutine does not share the caller's booking
	var body bytes.Buffer
	data := emailData{
		Booking: booking,
		Slot:    domain.SlotDisplay(booking.TimeSlot),
		Link:    s.ApprovalLink(booking.ApprovalToken),
	}
	if err := emailTemplates.ExecuteTemplate(&body, kind, data); err != nil {
		log.Printf("❌ Failed to render %s email: %v", kind, err)
		metrics.NotificationsSent.WithLabelValues(kind, "error").Inc()
		return
	}

	msg := mailer.Message{To: to, Subject: subject, HTML: body.String()}
	bookingID := booking.ID

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.mailer.Send(ctx, msg)
		metrics.NotificationsSent.WithLabelValues(kind, metrics.Result(err)).Inc()
		if err != nil {
			log.Printf("❌ Failed to send %s email for booking #%d: %v", kind, bookingID, err)
			return
		}
		log.Printf("📧 Sent %s email for booking #%d", kind, bookingID)
	}()
}
