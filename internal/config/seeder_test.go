package config

import (
	"path/filepath"
	"testing"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/password"

	"golang.org/x/crypto/bcrypt"
)

func TestConnectAndSeed(t *testing.T) {
	password.Cost = bcrypt.MinCost

	cfg := &Config{
		AppMode:  "prod",
		Database: DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := ConnectDatabase(cfg)
	if err != nil {
		t.Fatalf("ConnectDatabase: %v", err)
	}
	t.Cleanup(func() { CloseDatabase() })

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seeder := NewSeeder(db)
	if err := seeder.SeedAdmin("", "secret-pass"); err == nil {
		t.Fatal("seeded without email")
	}
	if err := seeder.SeedAdmin("root@example.com", "abc"); err == nil {
		t.Fatal("seeded with a short password")
	}

	for i := 0; i < 2; i++ {
		if err := seeder.SeedAdmin("root@example.com", "secret-pass"); err != nil {
			t.Fatalf("SeedAdmin run %d: %v", i+1, err)
		}
	}

	var admins []models.User
	if err := db.Where("email = ?", "root@example.com").Find(&admins).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("seeded %d admins, want 1", len(admins))
	}
	admin := admins[0]
	if admin.Name != "root" || admin.Role != domain.RoleAdmin || !admin.IsActive {
		t.Fatalf("admin = %+v", admin)
	}
	if !password.Verify("secret-pass", admin.Password) {
		t.Fatal("stored hash does not match")
	}
}

func TestDialectorFor(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		if _, err := dialectorFor(DatabaseConfig{Driver: driver, Path: "x.db"}); err != nil {
			t.Errorf("%s: %v", driver, err)
		}
	}
	if _, err := dialectorFor(DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Fatal("unsupported driver accepted")
	}

	dsn := buildPostgresDSN(DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"})
	if dsn != "host=db port=5432 user=u password=p dbname=n sslmode=disable" {
		t.Fatalf("postgres dsn = %q", dsn)
	}
}
