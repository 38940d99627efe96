package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"

	"golang.org/x/oauth2"
)

func TestGoogleAuthCodeURL(t *testing.T) {
	svc, err := NewGoogleService(config.GoogleConfig{
		ClientID:     "client-1",
		ClientSecret: "shh",
		RedirectURL:  "http://localhost:5000/api/v1/auth/google/callback",
		CalendarID:   "primary",
		TimeZone:     "Asia/Kolkata",
	}, nil)
	if err != nil {
		t.Fatalf("NewGoogleService: %v", err)
	}

	raw := svc.AuthCodeURL("state-xyz")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	q := u.Query()
	checks := map[string]string{
		"client_id":     "client-1",
		"state":         "state-xyz",
		"access_type":   "offline",
		"prompt":        "consent",
		"response_type": "code",
	}
	for key, want := range checks {
		if got := q.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}

	// satisfies both collaborator roles
	var _ IdentityProvider = svc
	var _ CalendarClient = svc
}

func TestGoogleServiceRejectsBadInput(t *testing.T) {
	if _, err := NewGoogleService(config.GoogleConfig{TimeZone: "Mars/Olympus"}, nil); err == nil {
		t.Fatal("unknown time zone accepted")
	}

	svc, err := NewGoogleService(config.GoogleConfig{TimeZone: "UTC", CalendarID: "primary"}, nil)
	if err != nil {
		t.Fatalf("NewGoogleService: %v", err)
	}
	_, err = svc.CreateEvent(context.Background(), domain.CalendarLink{AccessToken: "x"}, &models.Booking{
		BookingDate: "2025-06-01",
		TimeSlot:    "slot9",
	})
	if err == nil {
		t.Fatal("event created for unknown slot")
	}
}

type linkStoreStub struct {
	mu    sync.Mutex
	saved []domain.CalendarLink
}

func (l *linkStoreStub) UpdateCalendarLink(ctx context.Context, id uint, link domain.CalendarLink) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saved = append(l.saved, link)
	return nil
}

func TestRefreshedCalendarTokenIsStored(t *testing.T) {
	var refreshes int
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		if err := r.ParseForm(); err != nil || r.Form.Get("refresh_token") != "rt" {
			http.Error(w, "bad refresh", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh-access","token_type":"Bearer","expires_in":3600}`)
	}))
	defer tokenServer.Close()

	store := &linkStoreStub{}
	svc, err := NewGoogleService(config.GoogleConfig{ClientID: "id", ClientSecret: "secret", TimeZone: "UTC"}, store)
	if err != nil {
		t.Fatalf("NewGoogleService: %v", err)
	}
	svc.oauth.Endpoint = oauth2.Endpoint{TokenURL: tokenServer.URL, AuthStyle: oauth2.AuthStyleInParams}

	src := svc.tokenSource(context.Background(), domain.CalendarLink{
		UserID:       7,
		AccessToken:  "stale-access",
		RefreshToken: "rt",
		Expiry:       time.Now().Add(-time.Hour),
	})

	for i := 0; i < 2; i++ {
		token, err := src.Token()
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if token.AccessToken != "fresh-access" {
			t.Fatalf("access token = %q", token.AccessToken)
		}
	}

	if refreshes != 1 {
		t.Fatalf("token endpoint hit %d times, want 1", refreshes)
	}
	if len(store.saved) != 1 {
		t.Fatalf("stored %d tokens, want 1", len(store.saved))
	}
	saved := store.saved[0]
	// the refresh response carries no refresh token, the old one is kept
	if saved.UserID != 7 || saved.AccessToken != "fresh-access" || saved.RefreshToken != "rt" || saved.Expiry.Before(time.Now()) {
		t.Fatalf("saved link = %+v", saved)
	}
}

func TestValidCalendarTokenIsNotStored(t *testing.T) {
	store := &linkStoreStub{}
	svc, err := NewGoogleService(config.GoogleConfig{TimeZone: "UTC"}, store)
	if err != nil {
		t.Fatalf("NewGoogleService: %v", err)
	}

	src := svc.tokenSource(context.Background(), domain.CalendarLink{
		UserID:      7,
		AccessToken: "still-good",
		Expiry:      time.Now().Add(time.Hour),
	})
	if _, err := src.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatalf("unchanged token stored: %+v", store.saved)
	}
}
