package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/config"
	"audiochamber/internal/core/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, repo UserRepository, email string, role domain.Role) *models.User {
	t.Helper()
	user := &models.User{Name: "Test " + email, Email: email, Role: role, IsActive: true}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newBooking(date, slot, token string) *models.Booking {
	return &models.Booking{
		RequesterName:  "Ann",
		RequesterEmail: "ann@example.com",
		BookingDate:    date,
		TimeSlot:       slot,
		Purpose:        "Podcast",
		Status:         domain.StatusPending,
		ApprovalToken:  token,
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	user := seedUser(t, repo, "ann@example.com", domain.RoleUser)

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	if err != nil || got.ID != user.ID {
		t.Fatalf("GetByEmail = %+v, %v", got, err)
	}
	if !got.IsActive || got.Role != domain.RoleUser {
		t.Fatalf("unexpected defaults: %+v", got)
	}

	exists, err := repo.ExistsByEmail(ctx, "ann@example.com")
	if err != nil || !exists {
		t.Fatalf("ExistsByEmail = %v, %v", exists, err)
	}

	dup := &models.User{Name: "Dup", Email: "ann@example.com", Role: domain.RoleUser}
	if err := repo.Create(ctx, dup); !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate email err = %v, want ErrDuplicatedKey", err)
	}

	subject := "google-123"
	got.GoogleID = &subject
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	linked, err := repo.GetByGoogleID(ctx, subject)
	if err != nil || linked.ID != user.ID {
		t.Fatalf("GetByGoogleID = %+v, %v", linked, err)
	}

	if err := repo.UpdateLastLogin(ctx, user.ID); err != nil {
		t.Fatalf("UpdateLastLogin: %v", err)
	}
	got, _ = repo.GetByID(ctx, user.ID)
	if got.LastLoginAt == nil {
		t.Fatal("last login not stamped")
	}

	seedUser(t, repo, "bob@example.com", domain.RoleAdmin)
	users, total, err := repo.List(ctx, 0, 1)
	if err != nil || total != 2 || len(users) != 1 {
		t.Fatalf("List = %d users, total %d, %v", len(users), total, err)
	}
}

func TestUserDeleteCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	bookings := NewBookingRepository(db)
	tokens := NewRefreshTokenRepository(db)

	user := seedUser(t, users, "ann@example.com", domain.RoleUser)
	b := newBooking("2025-06-01", "slot1", "tok-1")
	b.UserID = &user.ID
	if err := bookings.Create(ctx, b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	anon := newBooking("2025-06-01", "slot2", "tok-2")
	if err := bookings.Create(ctx, anon); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if err := tokens.Create(ctx, &models.RefreshToken{UserID: user.ID, TokenHash: "h", ExpiresAt: time.Now().Add(time.Hour)}); err != nil {
		t.Fatalf("create token: %v", err)
	}

	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := bookings.GetByID(ctx, b.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("user's booking survived: %v", err)
	}
	if _, err := bookings.GetByID(ctx, anon.ID); err != nil {
		t.Fatalf("unrelated booking removed: %v", err)
	}
	if n, _ := tokens.CountActiveByUserID(ctx, user.ID); n != 0 {
		t.Fatalf("%d tokens survived", n)
	}
	if err := users.Delete(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second Delete = %v", err)
	}
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := seedUser(t, NewUserRepository(db), "ann@example.com", domain.RoleUser)
	repo := NewRefreshTokenRepository(db)

	live := &models.RefreshToken{UserID: user.ID, TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}
	old := &models.RefreshToken{UserID: user.ID, TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	for _, tok := range []*models.RefreshToken{live, old} {
		if err := repo.Create(ctx, tok); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	if n, _ := repo.CountActiveByUserID(ctx, user.ID); n != 1 {
		t.Fatalf("active = %d, want 1", n)
	}

	got, err := repo.GetByTokenHash(ctx, "live")
	if err != nil || got.ID != live.ID {
		t.Fatalf("GetByTokenHash = %+v, %v", got, err)
	}

	if err := repo.RevokeByTokenHash(ctx, "live"); err != nil {
		t.Fatalf("RevokeByTokenHash: %v", err)
	}
	if _, err := repo.GetByTokenHash(ctx, "live"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("revoked token still found: %v", err)
	}

	n, err := repo.DeleteExpired(ctx)
	if err != nil || n != 2 {
		t.Fatalf("DeleteExpired = %d, %v; want 2", n, err)
	}
}

func TestBookingListAndFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(newTestDB(t))

	uid := uint(5)
	a := newBooking("2025-06-01", "slot1", "a")
	b := newBooking("2025-06-01", "slot2", "b")
	b.Status = domain.StatusApproved
	c := newBooking("2025-06-02", "slot1", "c")
	c.UserID = &uid
	for _, bk := range []*models.Booking{a, b, c} {
		if err := repo.Create(ctx, bk); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := repo.List(ctx, domain.BookingFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("List all = %d, %v", len(all), err)
	}
	if all[0].ID != c.ID {
		t.Fatalf("expected newest first, got #%d", all[0].ID)
	}

	byDate, _ := repo.List(ctx, domain.BookingFilter{Date: "2025-06-01"})
	if len(byDate) != 2 {
		t.Fatalf("List by date = %d", len(byDate))
	}
	byStatus, _ := repo.List(ctx, domain.BookingFilter{Status: domain.StatusApproved})
	if len(byStatus) != 1 || byStatus[0].ID != b.ID {
		t.Fatalf("List by status = %+v", byStatus)
	}
	mine, _ := repo.List(ctx, domain.BookingFilter{UserID: &uid})
	if len(mine) != 1 || mine[0].ID != c.ID {
		t.Fatalf("List by user = %+v", mine)
	}

	day, _ := repo.ListByDate(ctx, "2025-06-01", domain.StatusPending, domain.StatusApproved)
	if len(day) != 2 || day[0].TimeSlot != "slot1" {
		t.Fatalf("ListByDate = %+v", day)
	}

	byToken, err := repo.GetByApprovalToken(ctx, "b")
	if err != nil || byToken.ID != b.ID {
		t.Fatalf("GetByApprovalToken = %+v, %v", byToken, err)
	}

	taken, _ := repo.ExistsApproved(ctx, "2025-06-01", "slot2", 0)
	if !taken {
		t.Fatal("approved slot not reported")
	}
	taken, _ = repo.ExistsApproved(ctx, "2025-06-01", "slot2", b.ID)
	if taken {
		t.Fatal("excluded booking still counted")
	}
	taken, _ = repo.ExistsApproved(ctx, "2025-06-01", "slot1", 0)
	if taken {
		t.Fatal("pending booking counted as approved")
	}
}

func TestDecideIsConditional(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(newTestDB(t))

	b := newBooking("2025-06-01", "slot1", "tok")
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}

	b.Status = domain.StatusRejected
	b.RejectionReason = "busy"
	ok, err := repo.Decide(ctx, b, domain.StatusPending)
	if err != nil || !ok {
		t.Fatalf("first Decide = %v, %v", ok, err)
	}

	b.Status = domain.StatusApproved
	ok, err = repo.Decide(ctx, b, domain.StatusPending)
	if err != nil || ok {
		t.Fatalf("second Decide = %v, %v; want no-op", ok, err)
	}

	stored, _ := repo.GetByID(ctx, b.ID)
	if stored.Status != domain.StatusRejected || stored.RejectionReason != "busy" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestApprovedSlotIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(newTestDB(t))

	first := newBooking("2025-06-01", "slot1", "one")
	second := newBooking("2025-06-01", "slot1", "two")
	for _, bk := range []*models.Booking{first, second} {
		if err := repo.Create(ctx, bk); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	key := domain.SlotKey("2025-06-01", "slot1")
	first.Status, first.ApprovedSlot = domain.StatusApproved, &key
	if ok, err := repo.Decide(ctx, first, domain.StatusPending); err != nil || !ok {
		t.Fatalf("approve first = %v, %v", ok, err)
	}

	second.Status, second.ApprovedSlot = domain.StatusApproved, &key
	if _, err := repo.Decide(ctx, second, domain.StatusPending); err == nil {
		t.Fatal("second approval of the same slot was stored")
	}

	stored, _ := repo.GetByID(ctx, second.ID)
	if stored.Status != domain.StatusPending {
		t.Fatalf("second booking status = %s", stored.Status)
	}
}

func TestTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(newTestDB(t))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx BookingRepository) error {
		if err := tx.Create(ctx, newBooking("2025-06-01", "slot1", "tx")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction = %v", err)
	}

	all, _ := repo.List(ctx, domain.BookingFilter{})
	if len(all) != 0 {
		t.Fatalf("rolled back insert persisted: %d rows", len(all))
	}
}

func TestBookingDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository(newTestDB(t))

	b := newBooking("2025-06-01", "slot1", "del")
	if err := repo.Create(ctx, b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, b.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("second Delete = %v", err)
	}
}

func TestWritesDoNotRecreateDeletedRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)
	bookings := NewBookingRepository(db)

	user := seedUser(t, users, "gone@example.com", domain.RoleUser)
	if err := users.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete user: %v", err)
	}
	user.Role = domain.RoleAdmin
	if err := users.Update(ctx, user); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Update of deleted user = %v, want ErrRecordNotFound", err)
	}
	if _, err := users.GetByID(ctx, user.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted user came back: %v", err)
	}

	b := newBooking("2025-06-01", "slot1", "evt")
	if err := bookings.Create(ctx, b); err != nil {
		t.Fatalf("Create booking: %v", err)
	}
	stored, err := bookings.SetCalendarEventID(ctx, b.ID, "evt-1")
	if err != nil || !stored {
		t.Fatalf("SetCalendarEventID = %v, %v", stored, err)
	}
	got, _ := bookings.GetByID(ctx, b.ID)
	if got.CalendarEventID != "evt-1" {
		t.Fatalf("event id = %q", got.CalendarEventID)
	}

	if err := bookings.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete booking: %v", err)
	}
	stored, err = bookings.SetCalendarEventID(ctx, b.ID, "evt-2")
	if err != nil || stored {
		t.Fatalf("SetCalendarEventID on deleted booking = %v, %v", stored, err)
	}
	if _, err := bookings.GetByID(ctx, b.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted booking came back: %v", err)
	}
}

func TestUpdateCalendarLink(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	user := seedUser(t, repo, "cal@example.com", domain.RoleAdmin)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	link := domain.CalendarLink{AccessToken: "new-access", RefreshToken: "refresh", Expiry: expiry}
	if err := repo.UpdateCalendarLink(ctx, user.ID, link); err != nil {
		t.Fatalf("UpdateCalendarLink: %v", err)
	}

	got, _ := repo.GetByID(ctx, user.ID)
	stored := got.CalendarLink()
	if stored.AccessToken != "new-access" || stored.RefreshToken != "refresh" || !stored.Expiry.Equal(expiry) {
		t.Fatalf("stored link = %+v", stored)
	}
	if got.Name != user.Name || got.Role != domain.RoleAdmin {
		t.Fatalf("other columns touched: %+v", got)
	}
}
