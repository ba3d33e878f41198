package config

import (
	"log"
	"os"
	"strings"

	"koperasi-bci/internal/adapters/persistence/models"
	"koperasi-bci/internal/core/domain"
	"koperasi-bci/internal/pkg/membercode"
	"koperasi-bci/internal/pkg/password"

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

	if err := s.seedAdminUser(); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser seeds the initial admin account for development. Production
// admins come in through the ADMIN_EMAILS allowlist at registration.
func (s *Seeder) seedAdminUser() error {
	// Check if an admin already exists
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil
	}

	email := strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL"))
	pass := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || pass == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD not set")
		return nil
	}

	hashedPassword, err := password.Hash(pass)
	if err != nil {
		return err
	}

	admin := &models.User{
		MemberNo: membercode.New(),
		Name:     "Administrator",
		NIK:      "0000000000000000",
		Email:    email,
		Password: hashedPassword,
		Role:     string(domain.RoleAdmin),
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s (%s)", admin.Email, admin.MemberNo)
	return nil
}
