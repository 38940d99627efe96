package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/mailer"
	"audiochamber/internal/pkg/password"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	password.Cost = bcrypt.MinCost
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := config.Open(sqlite.Open(":memory:"), logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode:     "dev",
		FrontendURL: "http://frontend.test",
		JWT: config.JWTConfig{
			Secret:           "access-secret",
			RefreshSecret:    "refresh-secret",
			AccessTokenMins:  60,
			RefreshTokenDays: 7,
		},
		Booking: config.BookingConfig{
			OwnerEmails: []string{"owner@example.com"},
		},
	}
}

func createUser(t *testing.T, repo repositories.UserRepository, email string, role domain.Role, secret string) *models.User {
	t.Helper()

	user := &models.User{Name: "User " + email, Email: email, Role: role, IsActive: true}
	if secret != "" {
		hash, err := password.Hash(secret)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		user.Password = hash
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// notifierStub records notifications by kind
type notifierStub struct {
	mu    sync.Mutex
	calls map[string][]uint
}

func newNotifierStub() *notifierStub {
	return &notifierStub{calls: map[string][]uint{}}
}

func (n *notifierStub) record(kind string, b *models.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls[kind] = append(n.calls[kind], b.ID)
}

func (n *notifierStub) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls[kind])
}

func (n *notifierStub) BookingRequested(b *models.Booking) { n.record("requested", b) }
func (n *notifierStub) BookingApproved(b *models.Booking)  { n.record("approved", b) }
func (n *notifierStub) BookingRejected(b *models.Booking)  { n.record("rejected", b) }
func (n *notifierStub) BookingReminder(b *models.Booking)  { n.record("reminder", b) }

// calendarStub hands out event ids derived from the slot, or fails with err.
// onCreate runs before CreateEvent returns.
type calendarStub struct {
	mu       sync.Mutex
	err      error
	created  []uint
	deleted  []string
	onCreate func(b *models.Booking)
}

func (c *calendarStub) CreateEvent(ctx context.Context, link domain.CalendarLink, b *models.Booking) (string, error) {
	if c.onCreate != nil {
		c.onCreate(b)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.created = append(c.created, b.ID)
	return "evt-" + b.BookingDate + "-" + b.TimeSlot, nil
}

func (c *calendarStub) DeleteEvent(ctx context.Context, link domain.CalendarLink, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.deleted = append(c.deleted, eventID)
	return nil
}

// identityStub returns a fixed profile for code "good"
type identityStub struct {
	ident *ExternalIdentity
}

func (i *identityStub) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (i *identityStub) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	if code != "good" {
		return nil, errors.New("bad code")
	}
	return i.ident, nil
}

// mailerStub captures sent messages
type mailerStub struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *mailerStub) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mailerStub) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format(domain.DateLayout)
}
