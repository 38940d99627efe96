package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// ReminderSender is the part of BookingService the scheduler drives
type ReminderSender interface {
	SendReminders(ctx context.Context, day time.Time) (int, error)
}

// TokenCleaner is the part of AuthService the scheduler drives
type TokenCleaner interface {
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

// CronService runs the scheduled jobs: reminders for tomorrow's approved
// bookings and refresh token cleanup
type CronService struct {
	cron      *cron.Cron
	reminders ReminderSender
	tokens    TokenCleaner
	location  *time.Location
	now       func() time.Time
}

// NewCronService creates a scheduler in loc
func NewCronService(reminders ReminderSender, tokens TokenCleaner, loc *time.Location) *CronService {
	if loc == nil {
		loc = time.Local
	}
	return &CronService{
		cron:      cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		reminders: reminders,
		tokens:    tokens,
		location:  loc,
		now:       time.Now,
	}
}

// Register adds the jobs with their cron specs
func (s *CronService) Register(reminderSpec, cleanupSpec string) error {
	if _, err := s.cron.AddFunc(reminderSpec, s.RunReminders); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(cleanupSpec, s.RunTokenCleanup); err != nil {
		return err
	}
	log.Printf("⏰ Cron jobs registered [reminders: %s, token cleanup: %s]", reminderSpec, cleanupSpec)
	return nil
}

// Start launches the scheduler goroutine
func (s *CronService) Start() {
	s.cron.Start()
	log.Println("🚀 CronService started")
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

// RunReminders emails requesters of tomorrow's approved bookings
func (s *CronService) RunReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	tomorrow := s.now().In(s.location).AddDate(0, 0, 1)
	n, err := s.reminders.SendReminders(ctx, tomorrow)
	if err != nil {
		log.Printf("❌ Reminder job failed: %v", err)
		return
	}
	log.Printf("🔔 Reminder job done: %d bookings", n)
}

// RunTokenCleanup deletes expired and revoked refresh tokens
func (s *CronService) RunTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Printf("❌ Token cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🧹 Removed %d stale refresh tokens", n)
	}
}
