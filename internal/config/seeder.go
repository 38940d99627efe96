package config

import (
	"errors"
	"log"
	"strings"

	"audiochamber/internal/adapters/persistence/models"
	"audiochamber/internal/core/domain"
	"audiochamber/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	email := strings.ToLower(strings.TrimSpace(getEnv("SEED_ADMIN_EMAIL", "")))
	secret := getEnv("SEED_ADMIN_PASSWORD", "")
	if err := s.SeedAdmin(email, secret); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// SeedAdmin creates an admin account with a password login.
// This is for development only; production admins are promoted by an owner.
func (s *Seeder) SeedAdmin(email, secret string) error {
	if email == "" || secret == "" {
		return errors.New("SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
	}
	if !password.ValidatePassword(secret) {
		return errors.New("SEED_ADMIN_PASSWORD is too short")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil // Admin already exists
	}

	hashedPassword, err := password.Hash(secret)
	if err != nil {
		return err
	}

	name, _, _ := strings.Cut(email, "@")
	admin := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     domain.RoleAdmin,
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Email)
	return nil
}
