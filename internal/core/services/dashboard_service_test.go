package services

import (
	"context"
	"testing"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/adapters/persistence/repositories"
	"audiochamber/internal/core/domain"
)

func TestDashboards(t *testing.T) {
	db := newTestDB(t)
	users := repositories.NewUserRepository(db)
	bookings := repositories.NewBookingRepository(db)
	svc := NewBookingService(bookings, users, newNotifierStub(), nil)
	dash := NewDashboardService(db, time.Local)
	ctx := context.Background()

	admin := createUser(t, users, "admin@example.com", domain.RoleAdmin, "").Actor()
	user := createUser(t, users, "user@example.com", domain.RoleUser, "").Actor()

	create := func(date, slot string, actor *domain.Actor) uint {
		t.Helper()
		b, err := svc.Create(ctx, &CreateBookingInput{
			RequesterName:  "Guest",
			RequesterEmail: "guest@example.com",
			BookingDate:    date,
			TimeSlot:       slot,
			Purpose:        "rehearsal",
		}, actor)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return b.ID
	}

	approved := create(tomorrow(), "slot1", &user)
	rejected := create(tomorrow(), "slot2", &user)
	create(tomorrow(), "slot3", nil)
	farOff := create(time.Now().AddDate(0, 0, 30).Format(domain.DateLayout), "slot1", &user)

	if _, err := svc.Approve(ctx, approved, admin); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Approve(ctx, farOff, admin); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Reject(ctx, rejected, admin, ""); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	overview, err := dash.GetApproverDashboard(ctx)
	if err != nil {
		t.Fatalf("GetApproverDashboard: %v", err)
	}
	want := StatusCounts{Total: 4, Pending: 1, Approved: 2, Rejected: 1}
	if overview.Bookings != want {
		t.Fatalf("counts = %+v, want %+v", overview.Bookings, want)
	}
	if overview.TotalUsers != 2 || overview.TotalAdmins != 1 || overview.ActiveUsers != 2 {
		t.Fatalf("user counts = %d/%d/%d", overview.TotalUsers, overview.TotalAdmins, overview.ActiveUsers)
	}
	if overview.CreatedThisWeek != 4 {
		t.Fatalf("CreatedThisWeek = %d", overview.CreatedThisWeek)
	}
	if len(overview.PendingQueue) != 1 || overview.PendingQueue[0].ApprovalToken == "" {
		t.Fatalf("pending queue = %+v", overview.PendingQueue)
	}
	// the booking a month out is outside the window
	if len(overview.Upcoming) != 1 || overview.Upcoming[0].ID != approved {
		t.Fatalf("upcoming = %+v", overview.Upcoming)
	}

	mine, err := dash.GetUserDashboard(ctx, user)
	if err != nil {
		t.Fatalf("GetUserDashboard: %v", err)
	}
	wantMine := StatusCounts{Total: 3, Pending: 0, Approved: 2, Rejected: 1}
	if mine.Bookings != wantMine {
		t.Fatalf("own counts = %+v, want %+v", mine.Bookings, wantMine)
	}
	if len(mine.Upcoming) != 1 || mine.Upcoming[0].ApprovalToken != "" {
		t.Fatalf("own upcoming = %+v", mine.Upcoming)
	}

	empty, err := dash.GetUserDashboard(ctx, admin)
	if err != nil {
		t.Fatalf("GetUserDashboard(admin): %v", err)
	}
	if empty.Bookings.Total != 0 || len(empty.Upcoming) != 0 {
		t.Fatalf("admin own dashboard = %+v", empty)
	}
}

func TestApproverDashboardReportsCountFailures(t *testing.T) {
	tests := []struct {
		name   string
		model  interface{}
		column string
	}{
		{"user role count", &models.User{}, "role"},
		{"created this week", &models.Booking{}, "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			if err := db.Migrator().DropColumn(tt.model, tt.column); err != nil {
				t.Fatalf("drop %s: %v", tt.column, err)
			}

			data, err := NewDashboardService(db, time.UTC).GetApproverDashboard(context.Background())
			if err == nil {
				t.Fatalf("dashboard built from a failed count: %+v", data)
			}
		})
	}
}
