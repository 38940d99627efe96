package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// GoogleService signs users in with Google and writes approved bookings
// to the approver's Google Calendar
type GoogleService struct {
	oauth      *oauth2.Config
	calendarID string
	location   *time.Location
	links      CalendarLinkStore
}

// NewGoogleService creates a Google collaborator from config.
// Tokens refreshed during calendar calls are written to links when it is not nil.
func NewGoogleService(cfg config.GoogleConfig, links CalendarLinkStore) (*GoogleService, error) {
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("calendar time zone %q: %w", cfg.TimeZone, err)
	}

	return &GoogleService{
		oauth: &oauth2.Config{
			RedirectURL:  cfg.RedirectURL,
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes: []string{
				calendar.CalendarEventsScope,
				oauth2api.UserinfoEmailScope,
				oauth2api.UserinfoProfileScope,
			},
			Endpoint: google.Endpoint,
		},
		calendarID: cfg.CalendarID,
		location:   loc,
		links:      links,
	}, nil
}

// AuthCodeURL returns the consent page URL. Offline access yields a refresh token.
func (s *GoogleService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens and the user's profile
func (s *GoogleService) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithHTTPClient(s.oauth.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("google account has no email")
	}

	return &ExternalIdentity{
		Subject: info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Token: domain.CalendarLink{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		},
	}, nil
}

// CreateEvent adds booking to the linked calendar and returns the event id
func (s *GoogleService) CreateEvent(ctx context.Context, link domain.CalendarLink, booking *models.Booking) (string, error) {
	slot, ok := domain.LookupSlot(booking.TimeSlot)
	if !ok {
		return "", fmt.Errorf("unknown time slot %q", booking.TimeSlot)
	}
	start, end, err := slot.Window(booking.BookingDate, s.location)
	if err != nil {
		return "", err
	}

	svc, err := s.calendarService(ctx, link)
	if err != nil {
		return "", err
	}

	description := fmt.Sprintf("Requested by %s <%s>\nPurpose: %s", booking.RequesterName, booking.RequesterEmail, booking.Purpose)
	if booking.AdditionalNotes != "" {
		description += "\nNotes: " + booking.AdditionalNotes
	}

	event := &calendar.Event{
		Summary:     "Audio Chamber - " + booking.RequesterName,
		Description: description,
		Location:    "Audio Chamber",
		Start: &calendar.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: s.location.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: s.location.String(),
		},
		Attendees: []*calendar.EventAttendee{
			{Email: booking.RequesterEmail, DisplayName: booking.RequesterName},
		},
	}

	created, err := svc.Events.Insert(s.calendarID, event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// DeleteEvent removes an event from the linked calendar
func (s *GoogleService) DeleteEvent(ctx context.Context, link domain.CalendarLink, eventID string) error {
	svc, err := s.calendarService(ctx, link)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(s.calendarID, eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *GoogleService) calendarService(ctx context.Context, link domain.CalendarLink) (*calendar.Service, error) {
	client := oauth2.NewClient(ctx, s.tokenSource(ctx, link))
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("calendar client: %w", err)
	}
	return svc, nil
}

// tokenSource refreshes link's token when it expires and stores the result
func (s *GoogleService) tokenSource(ctx context.Context, link domain.CalendarLink) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  link.AccessToken,
		RefreshToken: link.RefreshToken,
		Expiry:       link.Expiry,
	}

	src := s.oauth.TokenSource(ctx, token)
	if s.links == nil || link.UserID == 0 {
		return src
	}
	return &savingTokenSource{
		ctx:    ctx,
		base:   src,
		userID: link.UserID,
		last:   token.AccessToken,
		store:  s.links,
	}
}

// savingTokenSource writes a token back to the store whenever the
// underlying source hands out a new access token
type savingTokenSource struct {
	ctx    context.Context
	base   oauth2.TokenSource
	userID uint
	store  CalendarLinkStore

	mu   sync.Mutex
	last string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken == s.last {
		return token, nil
	}
	s.last = token.AccessToken

	link := domain.CalendarLink{
		UserID:       s.userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if err := s.store.UpdateCalendarLink(s.ctx, s.userID, link); err != nil {
		log.Printf("⚠️ Failed to store refreshed Google token for user #%d: %v", s.userID, err)
	} else {
		log.Printf("🔄 Refreshed Google token stored for user #%d", s.userID)
	}
	return token, nil
}
