package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type reminderStub struct {
	days []time.Time
	err  error
}

func (r *reminderStub) SendReminders(ctx context.Context, day time.Time) (int, error) {
	r.days = append(r.days, day)
	return len(r.days), r.err
}

type cleanerStub struct {
	calls int
	err   error
}

func (c *cleanerStub) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	c.calls++
	return 3, c.err
}

func TestCronRunsRemindersForTomorrow(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	reminders := &reminderStub{}
	svc := NewCronService(reminders, &cleanerStub{}, loc)
	// 20:00 UTC is already the next day in IST
	svc.now = func() time.Time { return time.Date(2025, 5, 30, 20, 0, 0, 0, time.UTC) }

	svc.RunReminders()

	if len(reminders.days) != 1 {
		t.Fatalf("SendReminders called %d times", len(reminders.days))
	}
	if got := reminders.days[0].Format("2006-01-02"); got != "2025-06-01" {
		t.Fatalf("reminder day = %s, want 2025-06-01", got)
	}

	reminders.err = errors.New("db down")
	svc.RunReminders()
}

func TestCronTokenCleanup(t *testing.T) {
	cleaner := &cleanerStub{}
	svc := NewCronService(&reminderStub{}, cleaner, nil)

	svc.RunTokenCleanup()
	cleaner.err = errors.New("db down")
	svc.RunTokenCleanup()

	if cleaner.calls != 2 {
		t.Fatalf("cleanup calls = %d", cleaner.calls)
	}
}

func TestCronRegister(t *testing.T) {
	svc := NewCronService(&reminderStub{}, &cleanerStub{}, time.UTC)

	if err := svc.Register("0 18 * * *", "30 3 * * *"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := NewCronService(&reminderStub{}, &cleanerStub{}, time.UTC).Register("every day", "30 3 * * *"); err == nil {
		t.Fatal("invalid cron expression accepted")
	}

	svc.Start()
	svc.Stop()
}
